package search

import (
	"context"
	"testing"

	"github.com/neogranadina/zasqua/internal/db"
	"github.com/neogranadina/zasqua/internal/domain/search/filter"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchFn func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	pingFn   func(ctx context.Context) error
	calls    int
}

func (m *mockStore) Search(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	m.calls++
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) Ping(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return nil
}

const (
	testIndex  = "zasqua:desc:idx"
	testPrefix = "zasqua:desc:"
)

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, testIndex, testPrefix, DefaultVocabulary()), ms
}

func mustAnyOf(t *testing.T, key string, values ...string) filter.Condition {
	t.Helper()
	c, err := filter.NewAnyOf(key, values...)
	if err != nil {
		t.Fatalf("NewAnyOf: %v", err)
	}
	return c
}

func mustExpression(t *testing.T, conds ...filter.Condition) filter.Expression {
	t.Helper()
	e, err := filter.NewExpression(conds...)
	if err != nil {
		t.Fatalf("NewExpression: %v", err)
	}
	return e
}
