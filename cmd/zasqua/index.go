package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/neogranadina/zasqua/internal/metrics"
	catalogsrc "github.com/neogranadina/zasqua/internal/transport/catalog"
	"github.com/neogranadina/zasqua/internal/usecase/ingest"
)

func indexCommand() *cli.Command {
	return &cli.Command{
		Name:  "index",
		Usage: "Load catalog descriptions into the search index",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "file",
				Usage: "catalog export (JSON array or paginated listing)",
			},
			&cli.StringFlag{
				Name:  "api",
				Usage: "catalog API listing URL (default: catalog.api_url)",
			},
			&cli.BoolFlag{
				Name:  "recreate",
				Usage: "drop and rebuild the index before writing",
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "documents per write (default: index.batch_size)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			d, err := setup(ctx, cmd)
			if err != nil {
				return err
			}
			defer d.Close()

			source, err := catalogSource(d, cmd.String("file"), cmd.String("api"))
			if err != nil {
				return err
			}

			batch := cmd.Int("batch-size")
			if batch <= 0 {
				batch = d.cfg.Index.BatchSize
			}

			metrics.RegisterSearchMetrics()
			stats, err := ingest.New(source, d.documents(), d.labels, d.logger).
				Run(ctx, ingest.Options{Recreate: cmd.Bool("recreate"), BatchSize: batch})
			if err != nil {
				return err
			}

			fmt.Printf("%s %d indexed, %d skipped of %d read in %d batches\n",
				titleStyle.Render("Índice "+d.cfg.Index.Name),
				stats.Indexed, stats.Skipped, stats.Read, stats.Batches)
			return nil
		},
	}
}

func catalogSource(d *deps, file, api string) (ingest.Source, error) {
	if file != "" && api != "" {
		return nil, errors.New("--file and --api are mutually exclusive")
	}
	if file != "" {
		return newFileSource(file), nil
	}
	if api == "" {
		api = d.cfg.Catalog.APIURL
	}
	if api == "" {
		return nil, errors.New("no catalog source: pass --file or --api, or set catalog.api_url")
	}
	d.logger.Info("Reading catalog API", zap.String("url", api), zap.Float64("rps", d.cfg.Catalog.RPS))
	return catalogsrc.NewAPISource(api,
		catalogsrc.WithRate(d.cfg.Catalog.RPS),
		catalogsrc.WithPageSize(d.cfg.Catalog.PageSize),
		catalogsrc.WithLogger(d.logger),
	), nil
}

func newFileSource(path string) ingest.Source {
	return catalogsrc.NewFileSource(path)
}
