package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"whitkirk-services/internal/airtable"
)

var listQueries = map[string]airtable.Query{
	"streaming": airtable.UpcomingStreaming,
	"oos":       airtable.UpcomingWithOrderOfService,
	"undecided": airtable.UpcomingUndecidedStream,
}

// List prints a summary of upcoming services.
func (r *Runner) List(ctx context.Context, cmd *cli.Command) error {
	q, ok := listQueries[cmd.String("which")]
	if !ok {
		return fmt.Errorf("unknown service set %q: want streaming, oos or undecided", cmd.String("which"))
	}

	records, err := r.records()
	if err != nil {
		return err
	}
	tr, err := r.tasksRunner(records)
	if err != nil {
		return err
	}

	summaries, failed, err := tr.List(ctx, q)
	if err != nil {
		return err
	}
	for _, o := range failed {
		r.logger.Warn("skipping record", "record", o.RecordID, "err", o.Err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(summaries, true)
	}
	for _, s := range summaries {
		tech := "unassigned"
		if s.Technician != nil {
			tech = *s.Technician
		}
		r.writePlain("%s\n  %s\n  publish %s, %s, technician %s\n  %s\n\n", s.Title, s.Datetime, s.PublishDatetime, s.Privacy, tech, s.URL)
	}
	return nil
}

func listCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List upcoming services as they would be published",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "which",
				Usage: "Service set: streaming, oos or undecided",
				Value: "streaming",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output JSON",
			},
		},
		Action: r.List,
	}
}
