package search

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/neogranadina/zasqua/internal/domain/search/facet"
	"github.com/neogranadina/zasqua/internal/domain/search/request"
	"github.com/neogranadina/zasqua/internal/domain/search/result"
	"github.com/neogranadina/zasqua/internal/metrics"
)

// InstrumentedIndex wraps an Index with request metrics and logging.
type InstrumentedIndex struct {
	inner   Index
	backend string
	logger  *zap.Logger
}

// NewInstrumentedIndex wraps an index with observability.
func NewInstrumentedIndex(inner Index, backend string, logger *zap.Logger) *InstrumentedIndex {
	return &InstrumentedIndex{inner: inner, backend: backend, logger: logger}
}

// Search delegates to the inner index and records the call.
func (i *InstrumentedIndex) Search(ctx context.Context, req request.Request) (result.Set, error) {
	start := time.Now()
	set, err := i.inner.Search(ctx, req)
	i.observe("search", start, err)
	if err == nil {
		i.logger.Debug("Index search",
			zap.String("backend", i.backend),
			zap.String("query", req.Query()),
			zap.Int("offset", req.Offset()),
			zap.Int("total", set.Total),
			zap.Duration("duration", time.Since(start)),
		)
	}
	return set, err
}

// GlobalFacets delegates to the inner index and records the call.
func (i *InstrumentedIndex) GlobalFacets(ctx context.Context) (facet.Snapshot, error) {
	start := time.Now()
	snap, err := i.inner.GlobalFacets(ctx)
	i.observe("global_facets", start, err)
	return snap, err
}

// Ping delegates to the inner index and records the call.
func (i *InstrumentedIndex) Ping(ctx context.Context) error {
	start := time.Now()
	err := i.inner.Ping(ctx)
	i.observe("ping", start, err)
	return err
}

func (i *InstrumentedIndex) observe(kind string, start time.Time, err error) {
	duration := time.Since(start)
	status := "ok"
	switch {
	case errors.Is(err, context.Canceled):
		status = "canceled"
	case err != nil:
		status = "error"
		i.logger.Error("Index request failed",
			zap.String("backend", i.backend),
			zap.String("kind", kind),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
	}
	metrics.SearchRequestsTotal.WithLabelValues(i.backend, kind, status).Inc()
	metrics.SearchRequestDuration.WithLabelValues(i.backend, kind).Observe(duration.Seconds())
}
