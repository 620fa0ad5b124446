// Package controller owns the query state of one search page: it applies user
// actions, keeps the history in step and runs search cycles.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/neogranadina/zasqua/internal/domain"
	"github.com/neogranadina/zasqua/internal/domain/search/state"
	"github.com/neogranadina/zasqua/internal/usecase/search"
)

// DefaultDebounce coalesces bursts of date range input.
const DefaultDebounce = 300 * time.Millisecond

// DefaultBasePath is the path of the search page.
const DefaultBasePath = "/buscar/"

// View receives the results of search cycles.
type View interface {
	Loading()
	Render(out search.Outcome)
	Error(err error)
}

// History records the address of every new state.
type History interface {
	Push(query string)
}

// Option configures a Controller.
type Option func(*Controller)

// WithDebounce sets the date range debounce delay.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) { c.debounce = d }
}

// WithBasePath sets the path used by Href.
func WithBasePath(p string) Option {
	return func(c *Controller) { c.basePath = p }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithInitialQuery restores the state from a query string without running a cycle.
func WithInitialQuery(rawQuery string) Option {
	return func(c *Controller) { c.state = state.Decode(rawQuery) }
}

// Controller drives one search page. Mutations are serialized; rendering is
// serialized separately and skips cycles overtaken by newer ones.
type Controller struct {
	session  *search.Session
	view     View
	history  History
	debounce time.Duration
	basePath string
	logger   *zap.Logger

	mu      sync.Mutex
	state   state.State
	viewAll bool
	closed  map[string]bool
	timer   *time.Timer

	renderMu sync.Mutex
}

// New creates a controller over a fresh search session. history may be nil.
func New(svc *search.Service, view View, history History, opts ...Option) *Controller {
	c := &Controller{
		session:  svc.NewSession(),
		view:     view,
		history:  history,
		debounce: DefaultDebounce,
		basePath: DefaultBasePath,
		logger:   zap.NewNop(),
		state:    state.New(),
		closed:   map[string]bool{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// State returns a copy of the current query state.
func (c *Controller) State() state.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Dispatch applies a, records the new address and runs a search cycle.
// An action that leaves the address unchanged does nothing.
func (c *Controller) Dispatch(ctx context.Context, a Action) error {
	c.mu.Lock()
	known, changed := mutate(&c.state, a)
	if !known {
		c.mu.Unlock()
		return fmt.Errorf("%w: unknown action %q", domain.ErrInvalidRequest, a.Kind)
	}
	if !changed {
		c.mu.Unlock()
		return nil
	}
	if c.history != nil {
		c.history.Push(state.Encode(c.state))
	}
	cycle, st, opts := c.begin(ctx)
	c.mu.Unlock()

	return c.run(cycle, st, opts)
}

// Href returns the address the page would have after a, without applying it.
func (c *Controller) Href(a Action) string {
	c.mu.Lock()
	next := c.state.Clone()
	c.mu.Unlock()

	_, _ = mutate(&next, a)
	if q := state.Encode(next); q != "" {
		return c.basePath + "?" + q
	}
	return c.basePath
}

// Load decodes an address and runs a cycle. Nothing is pushed.
func (c *Controller) Load(ctx context.Context, rawQuery string) error {
	c.mu.Lock()
	c.state = state.Decode(rawQuery)
	cycle, st, opts := c.begin(ctx)
	c.mu.Unlock()

	return c.run(cycle, st, opts)
}

// PopState re-enters at an address reached through back or forward navigation.
func (c *Controller) PopState(ctx context.Context, rawQuery string) error {
	return c.Load(ctx, rawQuery)
}

// ViewAll runs the current state once without the cost guard.
func (c *Controller) ViewAll(ctx context.Context) error {
	c.mu.Lock()
	c.viewAll = true
	cycle, st, opts := c.begin(ctx)
	c.mu.Unlock()

	return c.run(cycle, st, opts)
}

// Retry runs the current state again.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	cycle, st, opts := c.begin(ctx)
	c.mu.Unlock()

	return c.run(cycle, st, opts)
}

// ToggleGroup opens or closes a facet group. Groups start open.
func (c *Controller) ToggleGroup(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed[name] = !c.closed[name]
}

// GroupOpen reports whether a facet group is open.
func (c *Controller) GroupOpen(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed[name]
}

// DebounceDateRange sets the typed year bounds once input settles.
// Non-numeric input clears the bound.
func (c *Controller) DebounceDateRange(ctx context.Context, from, to string) {
	a := Action{Kind: SetDateRange, From: parseYear(from), To: parseYear(to)}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() {
		if err := c.Dispatch(ctx, a); err != nil {
			c.logger.Debug("Debounced date range failed", zap.Error(err))
		}
	})
}

// begin consumes the view-all override and starts a cycle. Caller holds mu.
func (c *Controller) begin(ctx context.Context) (*search.Cycle, state.State, search.RunOptions) {
	opts := search.RunOptions{BypassGuard: c.viewAll}
	c.viewAll = false
	return c.session.Begin(ctx), c.state.Clone(), opts
}

func (c *Controller) run(cycle *search.Cycle, st state.State, opts search.RunOptions) error {
	c.renderMu.Lock()
	if cycle.Current() {
		c.view.Loading()
	}
	c.renderMu.Unlock()

	out, err := cycle.Run(st, opts)

	c.renderMu.Lock()
	defer c.renderMu.Unlock()

	if errors.Is(err, domain.ErrSuperseded) || !cycle.Current() {
		return nil
	}
	if err != nil {
		c.view.Error(err)
		return err
	}
	c.view.Render(out)
	return nil
}

func parseYear(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &n
}
