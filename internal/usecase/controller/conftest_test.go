package controller

import (
	"context"
	"sync"
	"testing"

	"github.com/neogranadina/zasqua/internal/domain/search/facet"
	"github.com/neogranadina/zasqua/internal/domain/search/request"
	"github.com/neogranadina/zasqua/internal/domain/search/result"
	"github.com/neogranadina/zasqua/internal/usecase/search"
)

type mockIndex struct {
	mu sync.Mutex

	global    facet.Snapshot
	searchErr error
	// blockQuery holds searches for this query until their context ends.
	blockQuery string

	queries []string
}

func (m *mockIndex) Search(ctx context.Context, req request.Request) (result.Set, error) {
	m.mu.Lock()
	m.queries = append(m.queries, req.Query())
	block := m.blockQuery != "" && req.Query() == m.blockQuery
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return result.Set{}, ctx.Err()
	}
	if m.searchErr != nil {
		return result.Set{}, m.searchErr
	}
	return result.Set{Total: 1, Hits: []result.Hit{result.New("1", "/co-ahr-1/", req.Query(), "", result.Meta{})}}, nil
}

func (m *mockIndex) GlobalFacets(_ context.Context) (facet.Snapshot, error) { return m.global, nil }

func (m *mockIndex) Ping(_ context.Context) error { return nil }

func (m *mockIndex) searches() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

type recordingView struct {
	mu       sync.Mutex
	loading  int
	outcomes []search.Outcome
	errs     []error
}

func (v *recordingView) Loading() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loading++
}

func (v *recordingView) Render(out search.Outcome) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.outcomes = append(v.outcomes, out)
}

func (v *recordingView) Error(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errs = append(v.errs, err)
}

func (v *recordingView) last() search.Outcome {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.outcomes) == 0 {
		return search.Outcome{}
	}
	return v.outcomes[len(v.outcomes)-1]
}

func (v *recordingView) renders() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.outcomes)
}

func broadGlobal() facet.Snapshot {
	return facet.Snapshot{
		facet.Repository: {"A": 50000, "B": 20},
		facet.Level:      {"Fondo": 3},
		facet.Year:       {"1750": 2},
	}
}

func newTestService(t *testing.T, idx *mockIndex) *search.Service {
	t.Helper()
	svc, err := search.New(idx, search.Config{Guard: search.NewGuard(true, 0)}, nil)
	if err != nil {
		t.Fatalf("search.New: %v", err)
	}
	return svc
}

func newTestController(t *testing.T, idx *mockIndex, opts ...Option) (*Controller, *recordingView, *MemoryHistory) {
	t.Helper()
	svc := newTestService(t, idx)
	view := &recordingView{}
	history := NewMemoryHistory("")
	return New(svc, view, history, opts...), view, history
}
