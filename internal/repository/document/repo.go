package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/neogranadina/zasqua/internal/db"
)

// store is the consumer interface for documents (ISP).
type store interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	PutDocuments(ctx context.Context, index string, docs []db.Document) error
	DeleteDocument(ctx context.Context, index, key string) error
}

// Repo implements usecase/ingest.Repository.
type Repo struct {
	store  store
	index  string
	prefix string
}

// New creates a document repository for one index.
func New(s store, index, prefix string) *Repo {
	return &Repo{store: s, index: index, prefix: prefix}
}

// EnsureIndex creates the index when missing. Returns true if created.
func (r *Repo) EnsureIndex(ctx context.Context) (bool, error) {
	exists, err := r.store.IndexExists(ctx, r.index)
	if err != nil {
		return false, fmt.Errorf("index exists %s: %w", r.index, err)
	}
	if exists {
		return false, nil
	}
	if err := r.store.CreateIndex(ctx, Schema(r.index, r.prefix)); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return false, nil
		}
		return false, fmt.Errorf("create index %s: %w", r.index, err)
	}
	return true, nil
}

// Recreate drops the index if present and creates it again.
func (r *Repo) Recreate(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, r.index); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", r.index, err)
	}
	if err := r.store.CreateIndex(ctx, Schema(r.index, r.prefix)); err != nil {
		return fmt.Errorf("create index %s: %w", r.index, err)
	}
	return nil
}

// Upsert writes entries in one batch, replacing documents with the same id.
func (r *Repo) Upsert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	docs := make([]db.Document, len(entries))
	for i := range entries {
		docs[i] = buildDocument(r.prefix, &entries[i])
	}
	if err := r.store.PutDocuments(ctx, r.index, docs); err != nil {
		return fmt.Errorf("put %d documents: %w", len(docs), err)
	}
	return nil
}

// Delete removes one description by id.
func (r *Repo) Delete(ctx context.Context, id int64) error {
	key := docKey(r.prefix, id)
	if err := r.store.DeleteDocument(ctx, r.index, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
