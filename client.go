// Package zasqua embeds the archival catalog search in a Go program: index
// catalog descriptions and run search cycles against page addresses without
// the HTTP server.
package zasqua

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/neogranadina/zasqua/internal/config"
	"github.com/neogranadina/zasqua/internal/db"
	dbBleve "github.com/neogranadina/zasqua/internal/db/bleve"
	dbRedis "github.com/neogranadina/zasqua/internal/db/redis"
	domcat "github.com/neogranadina/zasqua/internal/domain/catalog"
	"github.com/neogranadina/zasqua/internal/render"
	documentrepo "github.com/neogranadina/zasqua/internal/repository/document"
	searchrepo "github.com/neogranadina/zasqua/internal/repository/search"
	"github.com/neogranadina/zasqua/internal/usecase/controller"
	"github.com/neogranadina/zasqua/internal/usecase/ingest"
	searchuc "github.com/neogranadina/zasqua/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

type (
	// Description is one catalog record.
	Description = domcat.Description
	// Page is the search page model of one cycle.
	Page = render.Page
	// IndexStats summarizes an indexing run.
	IndexStats = ingest.Stats
)

// Client is the zasqua library entry point.
type Client struct {
	store  db.Store
	docs   *documentrepo.Repo
	search *searchuc.Service
	labels render.Labels
	cfg    *clientConfig
}

// New creates a Client and connects to the index backend.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("zasqua: index backend not ready: %w", err)
	}

	c, err := wireClient(store, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.backend {
	case config.BackendBleve:
		s, err := dbBleve.NewStore(dbBleve.Config{Path: cfg.path})
		if err != nil {
			return nil, fmt.Errorf("zasqua: create bleve store: %w", err)
		}
		return s, nil
	case config.BackendRedis:
		if len(cfg.addrs) == 0 {
			return nil, errors.New("zasqua: redis address required")
		}
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("zasqua: create redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("zasqua: unknown backend %q", cfg.backend)
	}
}

func wireClient(store db.Store, cfg *clientConfig) (*Client, error) {
	vocab := searchrepo.DefaultVocabulary()
	if err := vocab.Validate(documentrepo.Schema(cfg.index, cfg.prefix)); err != nil {
		return nil, fmt.Errorf("zasqua: %w", err)
	}

	labels := render.Labels(cfg.labels)
	if len(labels) == 0 {
		labels = render.DefaultLevelLabels
	}

	index := searchuc.NewInstrumentedIndex(
		searchrepo.New(store, cfg.index, cfg.prefix, vocab), cfg.backend, cfg.logger,
	)
	svc, err := searchuc.New(index, searchuc.Config{
		PageSize: cfg.pageSize,
		Guard:    searchuc.NewGuard(cfg.guard, cfg.threshold),
	}, cfg.logger)
	if err != nil {
		return nil, fmt.Errorf("zasqua: %w", err)
	}
	return &Client{
		store:  store,
		docs:   documentrepo.New(store, cfg.index, cfg.prefix),
		search: svc,
		labels: labels,
		cfg:    cfg,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks index connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Index writes descriptions to the index, creating it on first use.
// recreate drops existing documents first.
func (c *Client) Index(ctx context.Context, descs []Description, recreate bool) (IndexStats, error) {
	svc := ingest.New(staticSource(descs), c.docs, c.labels, c.cfg.logger)
	return svc.Run(ctx, ingest.Options{Recreate: recreate})
}

// Search runs one cycle for a page address such as "q=censo&level=Fondo".
func (c *Client) Search(ctx context.Context, address string) (Page, error) {
	return c.cycle(ctx, address, false)
}

// ViewAll runs one cycle for address without the broad query prompt.
func (c *Client) ViewAll(ctx context.Context, address string) (Page, error) {
	return c.cycle(ctx, address, true)
}

func (c *Client) cycle(ctx context.Context, address string, viewAll bool) (Page, error) {
	view := &pageView{}
	ctrl := controller.New(c.search, view, nil,
		controller.WithLogger(c.cfg.logger),
		controller.WithInitialQuery(address),
	)

	var err error
	if viewAll {
		err = ctrl.ViewAll(ctx)
	} else {
		err = ctrl.Load(ctx, address)
	}

	opts := render.Options{Labels: c.labels, Linker: ctrl, GroupOpen: ctrl.GroupOpen}
	if err != nil {
		return render.BuildError(err, ctrl.State(), opts), err
	}
	return render.Build(view.out, opts), nil
}

type staticSource []Description

func (s staticSource) Load(context.Context) ([]domcat.Description, error) { return s, nil }

type pageView struct {
	out searchuc.Outcome
}

func (v *pageView) Loading() {}

func (v *pageView) Render(out searchuc.Outcome) { v.out = out }

func (v *pageView) Error(error) {}
