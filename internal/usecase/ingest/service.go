// Package ingest loads catalog descriptions into the search index.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	domcat "github.com/neogranadina/zasqua/internal/domain/catalog"
	"github.com/neogranadina/zasqua/internal/metrics"
	"github.com/neogranadina/zasqua/internal/repository/document"
)

// DefaultBatchSize is the number of descriptions written per index call.
const DefaultBatchSize = 500

// ErrNoRecords signals a source that yielded nothing.
var ErrNoRecords = errors.New("catalog source returned no records")

// Options tune one run.
type Options struct {
	// Recreate drops and rebuilds the index before writing.
	Recreate  bool
	BatchSize int
}

// Stats summarizes one run.
type Stats struct {
	Read    int  `json:"read"`
	Indexed int  `json:"indexed"`
	Skipped int  `json:"skipped"`
	Batches int  `json:"batches"`
	Created bool `json:"created"`
}

// Service derives index entries from catalog records and writes them in batches.
type Service struct {
	source Source
	repo   Repository
	labels LevelLabeler
	logger *zap.Logger
}

// New creates an ingest service. A nil logger is replaced by a no-op one.
func New(source Source, repo Repository, labels LevelLabeler, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, repo: repo, labels: labels, logger: logger}
}

// Run reads the whole catalog and writes it to the index.
func (s *Service) Run(ctx context.Context, opts Options) (Stats, error) {
	var stats Stats
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}

	descs, err := s.source.Load(ctx)
	if err != nil {
		return stats, fmt.Errorf("load catalog: %w", err)
	}
	stats.Read = len(descs)
	if len(descs) == 0 {
		return stats, ErrNoRecords
	}

	if opts.Recreate {
		if err := s.repo.Recreate(ctx); err != nil {
			return stats, err
		}
		stats.Created = true
	} else {
		created, err := s.repo.EnsureIndex(ctx)
		if err != nil {
			return stats, err
		}
		stats.Created = created
	}

	entries := s.entries(descs)
	stats.Skipped = len(descs) - len(entries)
	if stats.Skipped > 0 {
		metrics.IngestDocumentsTotal.WithLabelValues("skipped").Add(float64(stats.Skipped))
	}

	for start := 0; start < len(entries); start += opts.BatchSize {
		end := min(start+opts.BatchSize, len(entries))
		batch := entries[start:end]
		if err := s.repo.Upsert(ctx, batch); err != nil {
			metrics.IngestDocumentsTotal.WithLabelValues("failed").Add(float64(len(batch)))
			return stats, fmt.Errorf("batch %d: %w", stats.Batches+1, err)
		}
		metrics.IngestDocumentsTotal.WithLabelValues("indexed").Add(float64(len(batch)))
		stats.Indexed += len(batch)
		stats.Batches++
		s.logger.Debug("batch indexed", zap.Int("batch", stats.Batches), zap.Int("size", len(batch)))
	}

	s.logger.Info("catalog indexed",
		zap.Int("read", stats.Read),
		zap.Int("indexed", stats.Indexed),
		zap.Int("skipped", stats.Skipped),
		zap.Int("batches", stats.Batches),
		zap.Bool("created", stats.Created),
	)
	return stats, nil
}

// entries derives ancestors and level labels. Records without a reference
// code have no page and are skipped, as are repeated reference codes.
func (s *Service) entries(descs []domcat.Description) []document.Entry {
	byRef := make(map[string]*domcat.Description, len(descs))
	for i := range descs {
		d := &descs[i]
		if d.ReferenceCode == "" {
			continue
		}
		if _, dup := byRef[d.ReferenceCode]; !dup {
			byRef[d.ReferenceCode] = d
		}
	}

	out := make([]document.Entry, 0, len(byRef))
	for i := range descs {
		d := &descs[i]
		if d.ReferenceCode == "" || byRef[d.ReferenceCode] != d {
			s.logger.Warn("description skipped",
				zap.Int64("id", d.ID),
				zap.String("reference_code", d.ReferenceCode),
			)
			continue
		}
		out = append(out, document.Entry{
			Description: d,
			Ancestors:   domcat.Ancestors(d, byRef),
			LevelLabel:  s.labels.Label(d.DescriptionLevel),
		})
	}
	return out
}
