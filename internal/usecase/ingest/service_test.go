package ingest

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	domcat "github.com/neogranadina/zasqua/internal/domain/catalog"
	"github.com/neogranadina/zasqua/internal/metrics"
	"github.com/neogranadina/zasqua/internal/repository/document"
)

// --- Mocks ---

type mockSource struct {
	descs []domcat.Description
	err   error
}

func (m *mockSource) Load(_ context.Context) ([]domcat.Description, error) {
	return m.descs, m.err
}

type mockRepo struct {
	exists      bool
	ensureErr   error
	upsertErr   error
	failOnBatch int
	recreated   bool
	batches     [][]document.Entry
}

func (m *mockRepo) EnsureIndex(_ context.Context) (bool, error) {
	if m.ensureErr != nil {
		return false, m.ensureErr
	}
	return !m.exists, nil
}

func (m *mockRepo) Recreate(_ context.Context) error {
	m.recreated = true
	return nil
}

func (m *mockRepo) Upsert(_ context.Context, entries []document.Entry) error {
	if m.upsertErr != nil && len(m.batches)+1 == m.failOnBatch {
		return m.upsertErr
	}
	m.batches = append(m.batches, entries)
	return nil
}

type labels map[string]string

func (l labels) Label(code string) string {
	if v, ok := l[code]; ok {
		return v
	}
	return code
}

func testCatalog() []domcat.Description {
	return []domcat.Description{
		{ID: 1, ReferenceCode: "co-ahr", DescriptionLevel: "fonds"},
		{ID: 2, ReferenceCode: "co-ahr-1", ParentReferenceCode: "co-ahr", DescriptionLevel: "series"},
		{ID: 3, ReferenceCode: "co-ahr-1-7", ParentReferenceCode: "co-ahr-1", DescriptionLevel: "file", DateStart: "1750-01-01"},
		{ID: 4, ReferenceCode: "", DescriptionLevel: "item"},
		{ID: 5, ReferenceCode: "co-ahr-1", DescriptionLevel: "series"},
	}
}

func newService(src Source, repo Repository) *Service {
	return New(src, repo, labels{"fonds": "Fondo", "series": "Serie", "file": "Expediente"}, nil)
}

// --- Tests ---

func TestRun_DerivesEntries(t *testing.T) {
	repo := &mockRepo{}
	stats, err := newService(&mockSource{descs: testCatalog()}, repo).Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.Read != 5 || stats.Indexed != 3 || stats.Skipped != 2 || stats.Batches != 1 || !stats.Created {
		t.Errorf("stats = %+v", stats)
	}

	entries := repo.batches[0]
	file := entries[2]
	if file.Description.ID != 3 || file.LevelLabel != "Expediente" {
		t.Errorf("entry = %+v", file)
	}
	if !slices.Equal(file.Ancestors, []string{"co-ahr-1", "co-ahr"}) {
		t.Errorf("ancestors = %v", file.Ancestors)
	}
	if entries[0].Ancestors != nil {
		t.Errorf("root ancestors = %v", entries[0].Ancestors)
	}
}

func TestRun_Batches(t *testing.T) {
	var descs []domcat.Description
	for i := range 7 {
		descs = append(descs, domcat.Description{ID: int64(i + 1), ReferenceCode: "ref-" + string(rune('a'+i))})
	}
	repo := &mockRepo{exists: true}

	stats, err := newService(&mockSource{descs: descs}, repo).Run(context.Background(), Options{BatchSize: 3})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Batches != 3 || stats.Created {
		t.Errorf("stats = %+v", stats)
	}
	sizes := []int{len(repo.batches[0]), len(repo.batches[1]), len(repo.batches[2])}
	if !slices.Equal(sizes, []int{3, 3, 1}) {
		t.Errorf("batch sizes = %v", sizes)
	}
}

func TestRun_Recreate(t *testing.T) {
	repo := &mockRepo{exists: true}
	stats, err := newService(&mockSource{descs: testCatalog()}, repo).Run(context.Background(), Options{Recreate: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !repo.recreated || !stats.Created {
		t.Error("expected index to be recreated")
	}
}

func TestRun_Errors(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name string
		src  *mockSource
		repo *mockRepo
		want error
	}{
		{"source fails", &mockSource{err: boom}, &mockRepo{}, boom},
		{"empty source", &mockSource{}, &mockRepo{}, ErrNoRecords},
		{"ensure fails", &mockSource{descs: testCatalog()}, &mockRepo{ensureErr: boom}, boom},
		{"upsert fails", &mockSource{descs: testCatalog()}, &mockRepo{upsertErr: boom, failOnBatch: 1}, boom},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newService(tc.src, tc.repo).Run(context.Background(), Options{})
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestRun_Metrics(t *testing.T) {
	before := testutil.ToFloat64(metrics.IngestDocumentsTotal.WithLabelValues("indexed"))

	if _, err := newService(&mockSource{descs: testCatalog()}, &mockRepo{}).Run(context.Background(), Options{}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := testutil.ToFloat64(metrics.IngestDocumentsTotal.WithLabelValues("indexed")) - before; got != 3 {
		t.Errorf("indexed counter grew by %f, want 3", got)
	}
}
