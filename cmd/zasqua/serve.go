package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/neogranadina/zasqua/internal/metrics"
	chiTransport "github.com/neogranadina/zasqua/internal/transport/chi"
	healthuc "github.com/neogranadina/zasqua/internal/usecase/health"
	"github.com/neogranadina/zasqua/internal/usecase/ingest"
	"github.com/neogranadina/zasqua/internal/version"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the search page and the JSON search API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "seed",
				Usage: "catalog export to index before serving",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			d, err := setup(ctx, cmd)
			if err != nil {
				return err
			}
			defer d.Close()
			return serve(ctx, d, cmd.String("seed"))
		},
	}
}

func serve(ctx context.Context, d *deps, seed string) error {
	cfg, logger := d.cfg, d.logger
	logger.Info("Starting zasqua server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", d.env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("backend", cfg.Index.Backend),
		zap.String("index", cfg.Index.Name),
	)

	metrics.RegisterSearchMetrics()

	docs := d.documents()
	if seed != "" {
		stats, err := ingest.New(newFileSource(seed), docs, d.labels, logger).
			Run(ctx, ingest.Options{BatchSize: cfg.Index.BatchSize})
		if err != nil {
			return fmt.Errorf("seed index: %w", err)
		}
		logger.Info("Seeded index", zap.Int("indexed", stats.Indexed))
	} else if created, err := docs.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("ensure index: %w", err)
	} else if created {
		logger.Warn("Created empty index; run `zasqua index` to load the catalog", zap.String("index", cfg.Index.Name))
	}

	searchSvc, err := d.searchService()
	if err != nil {
		return err
	}
	// The page renders the unavailable state until the index answers.
	if err := searchSvc.Init(ctx); err != nil {
		logger.Warn("Search initialization failed", zap.Error(err))
	}

	healthSvc := healthuc.New(map[string]healthuc.Pinger{"index": d.store}, healthuc.DefaultTimeout)
	server := chiTransport.NewServer(searchSvc, healthSvc, chiTransport.Config{
		Labels:            d.labels,
		BasePath:          cfg.UI.BasePath,
		ApproximateTotals: cfg.UI.ApproximateTotals,
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      chiTransport.NewRouter(server, cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}
