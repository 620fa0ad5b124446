package db

import (
	"context"
	"time"
)

// Store is the index backend facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	IndexManager
	DocumentWriter
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Document is one indexable record. Key is the full storage key.
type Document struct {
	Key     string
	Text    map[string]string
	Tags    map[string][]string
	Numbers map[string]float64
}

// DocumentWriter stores documents so that the index picks them up.
type DocumentWriter interface {
	PutDocuments(ctx context.Context, index string, docs []Document) error
	DeleteDocument(ctx context.Context, index, key string) error
}

// IndexManager provides index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher runs full-text searches with filters, pagination and facet counts.
type Searcher interface {
	Search(ctx context.Context, q *TextQuery) (*SearchResult, error)
}
