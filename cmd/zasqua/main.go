// Command zasqua serves and maintains the archival catalog search.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/neogranadina/zasqua/internal/version"
)

func main() {
	app := &cli.Command{
		Name:    "zasqua",
		Usage:   "Faceted search over the archival catalog",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "configuration file (default: config/<ENV>.yaml)",
				Sources: cli.EnvVars("CONFIG_PATH"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "override the configured log level",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			indexCommand(),
			searchCommand(),
			browseCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "zasqua:", err)
		os.Exit(1)
	}
}
