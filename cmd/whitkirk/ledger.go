package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"whitkirk-services/internal/config"
	"whitkirk-services/internal/ledger"
)

func (r *Runner) ledger(ctx context.Context) (*ledger.Client, error) {
	if r.config.Ledger.ProjectID == "" {
		return nil, fmt.Errorf("%w: ledger.project_id", config.ErrMissingConfig)
	}
	return ledger.New(ctx, r.config.Ledger.ProjectID, r.config.Ledger.Collection)
}

// LedgerRecent prints the most recent ledger entries.
func (r *Runner) LedgerRecent(ctx context.Context, cmd *cli.Command) error {
	client, err := r.ledger(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	entries, err := client.Recent(ctx, int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	return r.printEntries(entries, cmd.Bool("json"))
}

// LedgerShow prints every entry of one run.
func (r *Runner) LedgerShow(ctx context.Context, cmd *cli.Command) error {
	runID := cmd.Args().First()
	if runID == "" {
		return errors.New("run id is required")
	}

	client, err := r.ledger(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	entries, err := client.Run(ctx, runID)
	if err != nil {
		return err
	}
	return r.printEntries(entries, cmd.Bool("json"))
}

func (r *Runner) printEntries(entries []ledger.Entry, asJSON bool) error {
	if asJSON {
		return r.writeJSON(entries, true)
	}
	for _, e := range entries {
		r.writePlain("%s  %-10s %-8s %-30s %s\n", e.At.Format("2006-01-02 15:04"), e.Task, e.Action, e.Slug, e.Error)
	}
	return nil
}

func ledgerCommand(r *Runner) *cli.Command {
	jsonFlag := func() cli.Flag {
		return &cli.BoolFlag{Name: "json", Usage: "Output JSON"}
	}
	return &cli.Command{
		Name:  "ledger",
		Usage: "Inspect recorded sync runs",
		Commands: []*cli.Command{
			{
				Name:  "recent",
				Usage: "Show the latest entries across runs",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Maximum entries", Value: 50},
					jsonFlag(),
				},
				Action: r.LedgerRecent,
			},
			{
				Name:      "show",
				Usage:     "Show every entry of one run",
				ArgsUsage: "<run-id>",
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.LedgerShow,
			},
		},
	}
}
