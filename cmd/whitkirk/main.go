package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"whitkirk-services/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := NewRunner(RunnerOpts{})

	app := &cli.Command{
		Name:  "whitkirk",
		Usage: "Sync upcoming services from Airtable to WordPress and YouTube",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Sources: cli.EnvVars("WHITKIRK_CONFIG"),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Before:   runner.Setup,
		Commands: runner.register(),
	}

	if err := app.Run(ctx, os.Args); err != nil {
		if errors.Is(err, errBatchFailed) {
			runner.logger.Error("finished with failures", "err", err)
			os.Exit(1)
		}
		if errors.Is(err, config.ErrMissingConfig) {
			runner.logger.Error("configuration incomplete", "err", err)
			os.Exit(2)
		}
		runner.logger.Fatal("application error", "err", err)
	}
}
