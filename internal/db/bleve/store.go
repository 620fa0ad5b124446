// Package bleve implements db.Store on a local bleve index, in memory or on disk.
package bleve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"

	"github.com/neogranadina/zasqua/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

var definitionKey = []byte("definition")

// Config holds the bleve store location. An empty Path keeps indexes in memory.
type Config struct {
	Path string
}

type openIndex struct {
	index bleve.Index
	def   *db.IndexDefinition
}

// Store implements db.Store over bleve indexes keyed by name.
type Store struct {
	path string

	mu      sync.RWMutex
	indexes map[string]*openIndex
	closed  bool
}

// NewStore creates a bleve store. On-disk indexes open lazily on first use.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Path != "" {
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create index dir: %w", err)
		}
	}
	return &Store{path: cfg.Path, indexes: make(map[string]*openIndex)}, nil
}

// Ping reports whether the store is open.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return db.ErrIndexClosed
	}
	return nil
}

// WaitForReady returns immediately; a local index has no connection to wait for.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// Close closes every open index.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, oi := range s.indexes {
		_ = oi.index.Close()
		delete(s.indexes, name)
	}
	s.closed = true
}

// CreateIndex builds a mapping from def and creates the index.
func (s *Store) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return db.ErrIndexClosed
	}
	if _, ok := s.indexes[def.Name]; ok {
		return db.ErrIndexExists
	}

	m, err := buildMapping(def)
	if err != nil {
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}

	var idx bleve.Index
	if s.path == "" {
		idx, err = bleve.NewMemOnly(m)
	} else {
		idx, err = bleve.New(s.dir(def.Name), m)
		if errors.Is(err, bleve.ErrorIndexPathExists) {
			return db.ErrIndexExists
		}
	}
	if err != nil {
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}

	raw, err := json.Marshal(def)
	if err != nil {
		_ = idx.Close()
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	if err := idx.SetInternal(definitionKey, raw); err != nil {
		_ = idx.Close()
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}

	s.indexes[def.Name] = &openIndex{index: idx, def: def}
	return nil
}

// DropIndex closes the index and deletes its files.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	oi, err := s.open(ctx, name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.indexes, name)
	if err := oi.index.Close(); err != nil {
		return &db.Error{Op: db.OpDropIndex, Err: err}
	}
	if s.path != "" {
		if err := os.RemoveAll(s.dir(name)); err != nil {
			return &db.Error{Op: db.OpDropIndex, Err: err}
		}
	}
	return nil
}

// IndexExists reports whether the index is open or present on disk.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	_, err := s.open(ctx, name)
	if errors.Is(err, db.ErrIndexNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// PutDocuments indexes documents in one batch.
func (s *Store) PutDocuments(ctx context.Context, index string, docs []db.Document) error {
	if len(docs) == 0 {
		return nil
	}
	oi, err := s.open(ctx, index)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	batch := oi.index.NewBatch()
	for i := range docs {
		if err := batch.Index(docs[i].Key, documentFields(&docs[i])); err != nil {
			return &db.Error{Op: db.OpBatch, Err: fmt.Errorf("key %s: %w", docs[i].Key, err)}
		}
	}
	if err := oi.index.Batch(batch); err != nil {
		return &db.Error{Op: db.OpBatch, Err: err}
	}
	return nil
}

// DeleteDocument removes a document by key.
func (s *Store) DeleteDocument(ctx context.Context, index, key string) error {
	oi, err := s.open(ctx, index)
	if err != nil {
		return err
	}
	if err := oi.index.Delete(key); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

// open returns an open index, loading it from disk when needed.
func (s *Store) open(_ context.Context, name string) (*openIndex, error) {
	s.mu.RLock()
	oi, ok := s.indexes[name]
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return nil, db.ErrIndexClosed
	}
	if ok {
		return oi, nil
	}
	if s.path == "" {
		return nil, db.ErrIndexNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if oi, ok := s.indexes[name]; ok {
		return oi, nil
	}

	idx, err := bleve.Open(s.dir(name))
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		return nil, db.ErrIndexNotFound
	}
	if err != nil {
		return nil, &db.Error{Op: db.OpIndexInfo, Err: err}
	}

	def, err := loadDefinition(idx)
	if err != nil {
		_ = idx.Close()
		return nil, &db.Error{Op: db.OpIndexInfo, Err: err}
	}

	oi = &openIndex{index: idx, def: def}
	s.indexes[name] = oi
	return oi, nil
}

func (s *Store) dir(name string) string {
	return filepath.Join(s.path, strings.ReplaceAll(name, ":", "_"))
}

func loadDefinition(idx bleve.Index) (*db.IndexDefinition, error) {
	raw, err := idx.GetInternal(definitionKey)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("index definition missing")
	}
	var def db.IndexDefinition
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("decode index definition: %w", err)
	}
	return &def, nil
}

// documentFields maps a document to the value shapes bleve indexes:
// strings for text, string slices for tags and float64 for numbers.
func documentFields(d *db.Document) map[string]any {
	out := make(map[string]any, len(d.Text)+len(d.Tags)+len(d.Numbers))
	for k, v := range d.Text {
		out[k] = v
	}
	for k, vals := range d.Tags {
		if len(vals) == 0 {
			continue
		}
		out[k] = vals
	}
	for k, v := range d.Numbers {
		out[k] = v
	}
	return out
}
