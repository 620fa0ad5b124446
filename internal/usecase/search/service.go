package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/neogranadina/zasqua/internal/domain"
	"github.com/neogranadina/zasqua/internal/domain/search/facet"
	"github.com/neogranadina/zasqua/internal/domain/search/filter"
	"github.com/neogranadina/zasqua/internal/domain/search/request"
	"github.com/neogranadina/zasqua/internal/domain/search/result"
	"github.com/neogranadina/zasqua/internal/domain/search/state"
	"github.com/neogranadina/zasqua/internal/metrics"
)

// DefaultPageSize is the number of hits per page.
const DefaultPageSize = 20

// Kind is the shape of a cycle outcome.
type Kind string

const (
	// KindLanding is an empty state: global facets, no hits, no index search.
	KindLanding Kind = "landing"
	// KindBrowsePrompt asks before running a broad filter-only query.
	KindBrowsePrompt Kind = "browse_prompt"
	// KindResults carries one page of hits.
	KindResults Kind = "results"
)

// Outcome is the result of one search cycle.
type Outcome struct {
	Kind  Kind
	State state.State
	Hits  []result.Hit
	Total int
	// Estimated marks a total reported as approximate.
	Estimated  bool
	Page       int
	TotalPages int
	// Facets are scoped to the result, or global for landing and prompt.
	Facets facet.Snapshot
	// Global is the unscoped snapshot when the cycle needed it, nil otherwise.
	Global   facet.Snapshot
	Estimate int
}

// RunOptions tune a single cycle.
type RunOptions struct {
	// BypassGuard runs the query even when the cost guard would prompt.
	BypassGuard bool
}

// Config holds orchestrator settings.
type Config struct {
	PageSize  int
	Guard     Guard
	GlobalTTL time.Duration
}

// Service turns query states into index requests. Safe for concurrent use.
type Service struct {
	index    Index
	guard    Guard
	pageSize int
	global   *globalCache
	logger   *zap.Logger
}

// New creates a search service. The page size may not exceed request.MaxLimit.
func New(index Index, cfg Config, logger *zap.Logger) (*Service, error) {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.PageSize > request.MaxLimit {
		return nil, fmt.Errorf("%w: page size %d exceeds %d", domain.ErrInvalidRequest, cfg.PageSize, request.MaxLimit)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		index:    index,
		guard:    cfg.Guard,
		pageSize: cfg.PageSize,
		global:   newGlobalCache(cfg.GlobalTTL),
		logger:   logger,
	}, nil
}

// PageSize returns the number of hits per page.
func (s *Service) PageSize() int { return s.pageSize }

// Init pings the index and loads the global facets concurrently.
func (s *Service) Init(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.index.Ping(gctx) })
	g.Go(func() error {
		_, err := s.Global(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, err)
	}
	return nil
}

// Global returns the cached unscoped facet snapshot.
func (s *Service) Global(ctx context.Context) (facet.Snapshot, error) {
	return s.global.get(ctx, s.index.GlobalFacets)
}

// Run executes one cycle outside any session.
func (s *Service) Run(ctx context.Context, st state.State, opts RunOptions) (Outcome, error) {
	return s.NewSession().Begin(ctx).Run(st, opts)
}

func (s *Service) run(ctx context.Context, st state.State, opts RunOptions) (Outcome, error) {
	st = st.Clone()
	if st.Page < 1 {
		st.Page = 1
	}

	if st.IsLanding() {
		global, err := s.Global(ctx)
		if err != nil {
			return Outcome{}, s.unavailable(ctx, err)
		}
		return Outcome{Kind: KindLanding, State: st, Page: 1, Facets: global, Global: global}, nil
	}

	guarded := s.guard.Enabled && !opts.BypassGuard && st.CombinedQuery() == ""
	var global facet.Snapshot
	if st.Date != nil || guarded {
		var err error
		if global, err = s.Global(ctx); err != nil {
			return Outcome{}, s.unavailable(ctx, err)
		}
	}

	years := resolveYears(st.Date, global)

	if !opts.BypassGuard {
		if est, prompt := s.guard.Check(&st, global, years); prompt {
			return Outcome{
				Kind:     KindBrowsePrompt,
				State:    st,
				Page:     st.Page,
				Facets:   global,
				Global:   global,
				Estimate: est,
			}, nil
		}
	}

	req, err := s.buildRequest(&st, years)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	set, err := s.index.Search(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return Outcome{}, ctx.Err()
		}
		return Outcome{}, fmt.Errorf("%w: %w", domain.ErrRequestFailed, err)
	}

	return Outcome{
		Kind:       KindResults,
		State:      st,
		Hits:       set.Hits,
		Total:      set.Total,
		Estimated:  set.Estimated,
		Page:       st.Page,
		TotalPages: totalPages(set.Total, s.pageSize),
		Facets:     set.Facets,
		Global:     global,
	}, nil
}

func (s *Service) unavailable(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, err)
}

// buildRequest maps the state onto logical filter keys.
func (s *Service) buildRequest(st *state.State, years []string) (request.Request, error) {
	var conds []filter.Condition
	add := func(c filter.Condition, err error) error {
		if err != nil {
			return err
		}
		conds = append(conds, c)
		return nil
	}

	for _, dim := range facet.Exclusive {
		if values := st.Values(dim); len(values) > 0 {
			if err := add(filter.NewAnyOf(string(dim), values...)); err != nil {
				return request.Request{}, err
			}
		}
	}
	if st.Date != nil {
		if err := add(filter.NewAnyOf(string(facet.Year), years...)); err != nil {
			return request.Request{}, err
		}
	}
	if st.HasDateRange() {
		rng, err := yearRange(st.DateFrom, st.DateTo)
		if err != nil {
			return request.Request{}, err
		}
		if err := add(filter.NewRange(request.KeyStartYear, rng)); err != nil {
			return request.Request{}, err
		}
	}
	if st.Parent != "" {
		if err := add(filter.NewAnyOf(request.KeyParent, st.Parent)); err != nil {
			return request.Request{}, err
		}
	}

	expr, err := filter.NewExpression(conds...)
	if err != nil {
		return request.Request{}, err
	}

	var sort *request.Sort
	if st.Sort != nil {
		sort = &request.Sort{Field: st.Sort.Field, Desc: st.Sort.Direction == state.Desc}
	}

	facets := make([]string, len(facet.All))
	for i, d := range facet.All {
		facets[i] = string(d)
	}

	return request.New(st.CombinedQuery(), expr, sort, (st.Page-1)*s.pageSize, s.pageSize, facets)
}

// yearRange builds an inclusive range, swapping inverted bounds.
func yearRange(from, to *int) (filter.Range, error) {
	if from != nil && to != nil && *from > *to {
		from, to = to, from
	}
	var lo, hi *float64
	if from != nil {
		v := float64(*from)
		lo = &v
	}
	if to != nil {
		v := float64(*to)
		hi = &v
	}
	return filter.NewRangeFilter(lo, hi)
}

// resolveYears keeps the filter's years that exist in the index.
func resolveYears(df *state.DateFilter, global facet.Snapshot) []string {
	if df == nil {
		return nil
	}
	indexed := global.Years()
	out := make([]string, 0, len(df.Years))
	for _, y := range df.Years {
		if n, err := strconv.Atoi(y); err == nil && indexed[n] {
			out = append(out, y)
		}
	}
	return out
}

// totalPages counts the pages the index can serve; pages past
// request.MaxOffset are never linked.
func totalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return min((total+pageSize-1)/pageSize, MaxPage(pageSize))
}

// MaxPage is the deepest page whose offset the index accepts.
func MaxPage(pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return request.MaxOffset/pageSize + 1
}

// Session sequences the cycles of one page: starting a cycle aborts the previous one.
type Session struct {
	svc *Service

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// NewSession creates a session over the service.
func (s *Service) NewSession() *Session {
	return &Session{svc: s}
}

// Begin cancels any in-flight cycle and starts a new one.
func (s *Session) Begin(ctx context.Context) *Cycle {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	cctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	return &Cycle{session: s, gen: s.gen, ctx: cctx, cancel: cancel}
}

// Cycle is one search run within a session.
type Cycle struct {
	session *Session
	gen     uint64
	ctx     context.Context
	cancel  context.CancelFunc
}

// Current reports whether no newer cycle has started.
func (c *Cycle) Current() bool {
	c.session.mu.Lock()
	defer c.session.mu.Unlock()
	return c.gen == c.session.gen
}

// Run executes the cycle. A cycle overtaken by a newer one returns
// domain.ErrSuperseded whatever the index answered.
func (c *Cycle) Run(st state.State, opts RunOptions) (Outcome, error) {
	defer c.cancel()

	svc := c.session.svc
	start := time.Now()
	out, err := svc.run(c.ctx, st, opts)

	if !c.Current() {
		metrics.SearchCyclesTotal.WithLabelValues("superseded").Inc()
		svc.logger.Debug("Search cycle superseded", zap.Uint64("generation", c.gen))
		return Outcome{}, domain.ErrSuperseded
	}

	if err != nil {
		metrics.SearchCyclesTotal.WithLabelValues("error").Inc()
		if !errors.Is(err, context.Canceled) {
			svc.logger.Warn("Search cycle failed",
				zap.String("query", st.CombinedQuery()),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
		}
		return Outcome{}, err
	}

	metrics.SearchCyclesTotal.WithLabelValues(string(out.Kind)).Inc()
	svc.logger.Debug("Search cycle",
		zap.String("outcome", string(out.Kind)),
		zap.String("query", st.CombinedQuery()),
		zap.Int("page", out.Page),
		zap.Int("total", out.Total),
		zap.Int("estimate", out.Estimate),
		zap.Duration("duration", time.Since(start)),
	)
	return out, nil
}
