package search

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/neogranadina/zasqua/internal/domain/search/facet"
	"github.com/neogranadina/zasqua/internal/metrics"
)

const globalKey = "global"

// globalCache keeps the unscoped facet snapshot. A non-positive ttl never expires.
// Concurrent misses share one index call.
type globalCache struct {
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu      sync.RWMutex
	snap    facet.Snapshot
	fetched time.Time
}

func newGlobalCache(ttl time.Duration) *globalCache {
	return &globalCache{ttl: ttl, now: time.Now}
}

func (c *globalCache) get(
	ctx context.Context, fetch func(context.Context) (facet.Snapshot, error),
) (facet.Snapshot, error) {
	if snap, ok := c.fresh(); ok {
		metrics.GlobalFacetsCacheTotal.WithLabelValues("hit").Inc()
		return snap, nil
	}
	metrics.GlobalFacetsCacheTotal.WithLabelValues("miss").Inc()

	// The shared call outlives any single waiter.
	ch := c.group.DoChan(globalKey, func() (any, error) {
		if snap, ok := c.fresh(); ok {
			return snap, nil
		}
		snap, err := fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.snap, c.fetched = snap, c.now()
		c.mu.Unlock()
		return snap, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(facet.Snapshot), nil
	}
}

func (c *globalCache) fresh() (facet.Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(c.fetched) >= c.ttl {
		return nil, false
	}
	return c.snap, true
}
