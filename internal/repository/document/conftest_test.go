package document

import (
	"context"
	"testing"

	"github.com/neogranadina/zasqua/internal/db"
	"github.com/neogranadina/zasqua/internal/domain/catalog"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	createIndexFn    func(ctx context.Context, def *db.IndexDefinition) error
	dropIndexFn      func(ctx context.Context, name string) error
	indexExistsFn    func(ctx context.Context, name string) (bool, error)
	putDocumentsFn   func(ctx context.Context, index string, docs []db.Document) error
	deleteDocumentFn func(ctx context.Context, index, key string) error
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) DropIndex(ctx context.Context, name string) error {
	if m.dropIndexFn != nil {
		return m.dropIndexFn(ctx, name)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) PutDocuments(ctx context.Context, index string, docs []db.Document) error {
	if m.putDocumentsFn != nil {
		return m.putDocumentsFn(ctx, index, docs)
	}
	return nil
}

func (m *mockStore) DeleteDocument(ctx context.Context, index, key string) error {
	if m.deleteDocumentFn != nil {
		return m.deleteDocumentFn(ctx, index, key)
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
	return New(ms, testIndex, testPrefix), ms
}

func testDescription() *catalog.Description {
	return &catalog.Description{
		ID:                  42,
		ReferenceCode:       "co-ahr-not-1-001",
		Title:               "Testamento de Juan García",
		DescriptionLevel:    "file",
		DateExpression:      "1750-03-02",
		DateStart:           "1750-03-02",
		ScopeContent:        "Disposiciones de bienes.",
		PathCache:           "Notaría Primera > Tomo 1",
		ParentReferenceCode: "co-ahr-not-1",
		RepositoryCode:      "co-ahr",
		RepositoryName:      "Archivo Histórico Regional",
		HasDigital:          true,
	}
}
