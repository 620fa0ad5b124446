package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/neogranadina/zasqua/internal/config"
	"github.com/neogranadina/zasqua/internal/db"
	dbBleve "github.com/neogranadina/zasqua/internal/db/bleve"
	dbRedis "github.com/neogranadina/zasqua/internal/db/redis"
	logpkg "github.com/neogranadina/zasqua/internal/logger"
	"github.com/neogranadina/zasqua/internal/render"
	documentrepo "github.com/neogranadina/zasqua/internal/repository/document"
	searchrepo "github.com/neogranadina/zasqua/internal/repository/search"
	searchuc "github.com/neogranadina/zasqua/internal/usecase/search"
)

// deps is the composition root shared by every command.
type deps struct {
	env    string
	cfg    config.Config
	logger *zap.Logger
	store  db.Store
	labels render.Labels
}

// setup loads configuration, builds the logger and connects the index backend.
func setup(ctx context.Context, cmd *cli.Command) (*deps, error) {
	env := config.GetEnv()

	var (
		cfg config.Config
		err error
	)
	if path := cmd.String("config"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if l := cmd.String("log-level"); l != "" {
		level = l
	}
	logger, err := logpkg.NewLoggerWithFile(env, level, logpkg.FileConfig{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	labels := levelLabels(cfg.UI.LevelLabels, logger)

	store, err := openStore(ctx, cfg.Index, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	return &deps{env: env, cfg: cfg, logger: logger, store: store, labels: labels}, nil
}

func (d *deps) Close() {
	d.store.Close()
	_ = d.logger.Sync()
}

// levelLabels parses the configured labels. Malformed data falls back to raw codes.
func levelLabels(raw string, logger *zap.Logger) render.Labels {
	labels, err := render.ParseLevelLabels(raw)
	if err != nil {
		logger.Warn("Ignoring ui.level_labels", zap.Error(err))
		return render.Labels{}
	}
	if len(labels) == 0 {
		return render.DefaultLevelLabels
	}
	return labels
}

// openStore connects the configured backend and waits until it answers.
func openStore(ctx context.Context, cfg config.IndexConfig, logger *zap.Logger) (db.Store, error) {
	var (
		store db.Store
		err   error
	)
	switch cfg.Backend {
	case config.BackendRedis:
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
	case config.BackendBleve:
		store, err = dbBleve.NewStore(dbBleve.Config{Path: cfg.Path})
	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s store: %w", cfg.Backend, err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("%s not ready: %w", cfg.Backend, err)
	}
	logger.Info("Connected to index backend",
		zap.String("backend", cfg.Backend),
		zap.Strings("addrs", cfg.Addrs),
		zap.String("path", cfg.Path),
	)
	return store, nil
}

// documents returns the repository that owns the index schema and writes.
func (d *deps) documents() *documentrepo.Repo {
	return documentrepo.New(d.store, d.cfg.Index.Name, d.cfg.Index.KeyPrefix)
}

// searchService builds the shared search orchestrator over the index.
func (d *deps) searchService() (*searchuc.Service, error) {
	vocab := searchrepo.DefaultVocabulary()
	if err := vocab.Validate(documentrepo.Schema(d.cfg.Index.Name, d.cfg.Index.KeyPrefix)); err != nil {
		return nil, fmt.Errorf("search vocabulary: %w", err)
	}

	repo := searchrepo.New(d.store, d.cfg.Index.Name, d.cfg.Index.KeyPrefix, vocab)
	index := searchuc.NewInstrumentedIndex(repo, d.cfg.Index.Backend, d.logger)

	return searchuc.New(index, searchuc.Config{
		PageSize:  d.cfg.Index.PageSize,
		Guard:     searchuc.NewGuard(d.cfg.CostGuard.GuardEnabled(), d.cfg.CostGuard.Threshold),
		GlobalTTL: d.cfg.Index.GlobalFacetsTTL(),
	}, d.logger)
}

// renderOptions returns the page options shared by the terminal commands.
func (d *deps) renderOptions() render.Options {
	return render.Options{
		Labels:            d.labels,
		ApproximateTotals: d.cfg.UI.ApproximateTotals,
		BasePath:          d.cfg.UI.BasePath,
	}
}
