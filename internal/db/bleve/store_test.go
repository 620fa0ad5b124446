package bleve

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/neogranadina/zasqua/internal/db"
	"github.com/neogranadina/zasqua/internal/domain/search/filter"
)

const testIndex = "zasqua:desc:idx"

func testDefinition() *db.IndexDefinition {
	return db.NewIndex(testIndex).
		Prefix("zasqua:desc:").
		TextWeighted("title", 5).Sortable().
		Text("scope_content").
		Tag("level").
		Tag("year").
		Tag("ancestors").
		Numeric("date_start_year").Sortable().
		MustBuild()
}

func testDocs() []db.Document {
	return []db.Document{
		{
			Key:     "zasqua:desc:1",
			Text:    map[string]string{"title": "Testamento de Juan García", "scope_content": "Disposiciones de bienes."},
			Tags:    map[string][]string{"level": {"Expediente"}, "year": {"1750"}, "ancestors": {"co-ahr", "co-ahr-not"}},
			Numbers: map[string]float64{"date_start_year": 1750},
		},
		{
			Key:     "zasqua:desc:2",
			Text:    map[string]string{"title": "Árbol genealógico", "scope_content": "Familia García de Bogotá."},
			Tags:    map[string][]string{"level": {"Unidad documental"}, "year": {"1801"}, "ancestors": {"co-ahr"}},
			Numbers: map[string]float64{"date_start_year": 1801},
		},
		{
			Key:     "zasqua:desc:3",
			Text:    map[string]string{"title": "Censo de Tunja", "scope_content": "Padrón de vecinos."},
			Tags:    map[string][]string{"level": {"Expediente"}, "year": {"1778"}},
			Numbers: map[string]float64{"date_start_year": 1778},
		},
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(Config{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(s.Close)

	ctx := context.Background()
	if err := s.CreateIndex(ctx, testDefinition()); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if err := s.PutDocuments(ctx, testIndex, testDocs()); err != nil {
		t.Fatalf("PutDocuments: %v", err)
	}
	return s
}

func keys(res *db.SearchResult) []string {
	out := make([]string, 0, len(res.Entries))
	for _, e := range res.Entries {
		out = append(out, e.Key)
	}
	return out
}

func TestSearch_AccentInsensitive(t *testing.T) {
	s := newTestStore(t)

	res, err := s.Search(context.Background(), &db.TextQuery{
		IndexName:       testIndex,
		Query:           "garcia",
		Limit:           10,
		HighlightFields: []string{"title"},
		SummarizeField:  "scope_content",
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 2 {
		t.Fatalf("total = %d, want 2 (%v)", res.Total, keys(res))
	}
	for _, e := range res.Entries {
		if e.Key != "zasqua:desc:1" {
			continue
		}
		if !strings.Contains(e.Highlights["title"], "<mark>García</mark>") {
			t.Errorf("title highlight = %q", e.Highlights["title"])
		}
		if e.Fields["title"] != "Testamento de Juan García" {
			t.Errorf("title = %q", e.Fields["title"])
		}
	}
}

func TestSearch_AllTermsRequired(t *testing.T) {
	s := newTestStore(t)

	res, err := s.Search(context.Background(), &db.TextQuery{IndexName: testIndex, Query: "garcia bogota", Limit: 10})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := keys(res); len(got) != 1 || got[0] != "zasqua:desc:2" {
		t.Errorf("keys = %v, want [zasqua:desc:2]", got)
	}
}

func TestSearch_FiltersAndFacets(t *testing.T) {
	s := newTestStore(t)

	level, _ := filter.NewAnyOf("level", "Expediente")
	expr, _ := filter.NewExpression(level)

	res, err := s.Search(context.Background(), &db.TextQuery{
		IndexName: testIndex,
		Filters:   expr,
		SortBy:    "date_start_year",
		SortDesc:  true,
		Limit:     10,
		Facets:    []string{"level", "year"},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := keys(res); len(got) != 2 || got[0] != "zasqua:desc:3" || got[1] != "zasqua:desc:1" {
		t.Errorf("keys = %v, want [3 1] by year desc", got)
	}
	if res.Facets["level"]["Expediente"] != 2 || res.Facets["level"]["Unidad documental"] != 0 {
		t.Errorf("level facet = %v", res.Facets["level"])
	}
	if res.Facets["year"]["1750"] != 1 || res.Facets["year"]["1778"] != 1 {
		t.Errorf("year facet = %v", res.Facets["year"])
	}
}

func TestSearch_RangeAndAncestors(t *testing.T) {
	s := newTestStore(t)

	lo, hi := 1700.0, 1799.0
	rng, _ := filter.NewRangeFilter(&lo, &hi)
	dates, _ := filter.NewRange("date_start_year", rng)
	parent, _ := filter.NewAnyOf("ancestors", "co-ahr")
	expr, _ := filter.NewExpression(dates, parent)

	res, err := s.Search(context.Background(), &db.TextQuery{IndexName: testIndex, Filters: expr, Limit: 10})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := keys(res); len(got) != 1 || got[0] != "zasqua:desc:1" {
		t.Errorf("keys = %v, want [zasqua:desc:1]", got)
	}
}

func TestSearch_EmptySetMatchesNothing(t *testing.T) {
	s := newTestStore(t)

	none, _ := filter.NewAnyOf("year")
	expr, _ := filter.NewExpression(none)

	res, err := s.Search(context.Background(), &db.TextQuery{IndexName: testIndex, Filters: expr, Limit: 10})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 0 {
		t.Errorf("total = %d, want 0", res.Total)
	}
}

func TestSearch_SortByTitleFolded(t *testing.T) {
	s := newTestStore(t)

	res, err := s.Search(context.Background(), &db.TextQuery{IndexName: testIndex, SortBy: "title", Limit: 10})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := []string{"zasqua:desc:2", "zasqua:desc:3", "zasqua:desc:1"} // Árbol, Censo, Testamento
	got := keys(res)
	for i := range want {
		if i >= len(got) || got[i] != want[i] {
			t.Fatalf("keys = %v, want %v", got, want)
		}
	}
}

func TestSearch_PageWindow(t *testing.T) {
	s := newTestStore(t)

	res, err := s.Search(context.Background(), &db.TextQuery{
		IndexName: testIndex, SortBy: "date_start_year", Offset: 2, Limit: 2,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 3 || len(res.Entries) != 1 || res.Entries[0].Key != "zasqua:desc:2" {
		t.Errorf("total = %d, keys = %v", res.Total, keys(res))
	}
}

func TestSearch_UnknownIndex(t *testing.T) {
	s, _ := NewStore(Config{})
	defer s.Close()

	_, err := s.Search(context.Background(), &db.TextQuery{IndexName: "missing", Limit: 1})
	if !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestIndexLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.CreateIndex(ctx, testDefinition()); !errors.Is(err, db.ErrIndexExists) {
		t.Errorf("second create = %v, want ErrIndexExists", err)
	}
	if err := s.DeleteDocument(ctx, testIndex, "zasqua:desc:3"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	res, _ := s.Search(ctx, &db.TextQuery{IndexName: testIndex})
	if res.Total != 2 {
		t.Errorf("total after delete = %d, want 2", res.Total)
	}

	if err := s.DropIndex(ctx, testIndex); err != nil {
		t.Fatalf("DropIndex: %v", err)
	}
	exists, err := s.IndexExists(ctx, testIndex)
	if err != nil || exists {
		t.Errorf("exists = %v, err = %v after drop", exists, err)
	}
}

func TestStore_ReopenFromDisk(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewStore(Config{Path: dir})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := s.CreateIndex(ctx, testDefinition()); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if err := s.PutDocuments(ctx, testIndex, testDocs()); err != nil {
		t.Fatalf("PutDocuments: %v", err)
	}
	s.Close()

	reopened, err := NewStore(Config{Path: dir})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer reopened.Close()

	exists, err := reopened.IndexExists(ctx, testIndex)
	if err != nil || !exists {
		t.Fatalf("exists = %v, err = %v", exists, err)
	}
	res, err := reopened.Search(ctx, &db.TextQuery{IndexName: testIndex, SortBy: "title", Limit: 1})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 3 || res.Entries[0].Key != "zasqua:desc:2" {
		t.Errorf("total = %d, first = %v", res.Total, keys(res))
	}
}

func TestPing_Closed(t *testing.T) {
	s, _ := NewStore(Config{})
	s.Close()
	if err := s.Ping(context.Background()); !errors.Is(err, db.ErrIndexClosed) {
		t.Errorf("Ping after close = %v, want ErrIndexClosed", err)
	}
}
