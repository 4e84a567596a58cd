package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"whitkirk-services/internal/ledger"
	"whitkirk-services/internal/tasks"
)

// errBatchFailed marks a batch that completed with per-record failures.
var errBatchFailed = errors.New("batch had failures")

func updateFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "update",
		Aliases: []string{"u"},
		Usage:   "Write changes; without it the batch only reports what it would do",
	}
}

// OrdersOfService syncs order of service documents.
func (r *Runner) OrdersOfService(ctx context.Context, cmd *cli.Command) error {
	records, err := r.records()
	if err != nil {
		return err
	}
	cms, err := r.cms()
	if err != nil {
		return err
	}
	tr, err := r.tasksRunner(records)
	if err != nil {
		return err
	}
	tr.CMS = cms

	report, err := tr.OrdersOfService(ctx, cmd.Bool("update"))
	return r.finish(ctx, report, err)
}

// Podcasts syncs podcast episodes.
func (r *Runner) Podcasts(ctx context.Context, cmd *cli.Command) error {
	records, err := r.records()
	if err != nil {
		return err
	}
	cms, err := r.cms()
	if err != nil {
		return err
	}
	tr, err := r.tasksRunner(records)
	if err != nil {
		return err
	}
	tr.CMS = cms

	report, err := tr.Podcasts(ctx, cmd.Bool("update"))
	return r.finish(ctx, report, err)
}

// Thumbnails generates missing thumbnails.
func (r *Runner) Thumbnails(ctx context.Context, cmd *cli.Command) error {
	records, err := r.records()
	if err != nil {
		return err
	}
	tr, err := r.tasksRunner(records)
	if err != nil {
		return err
	}
	tr.Generator = r.thumbnails()

	report, err := tr.Thumbnails(ctx)
	return r.finish(ctx, report, err)
}

// YouTube syncs video metadata, thumbnails and playlists.
func (r *Runner) YouTube(ctx context.Context, cmd *cli.Command) error {
	records, err := r.records()
	if err != nil {
		return err
	}
	videos, index, closeVideos, err := r.videos(ctx)
	if err != nil {
		return err
	}
	defer closeVideos()

	tr, err := r.tasksRunner(records)
	if err != nil {
		return err
	}
	tr.Videos = videos
	tr.Playlists = index
	tr.Generator = r.thumbnails()

	if cmd.Bool("refresh-playlists") {
		ids := append(r.config.Overrides().PlaylistIDs(), r.config.YouTube.DefaultPlaylistID)
		for _, id := range ids {
			if err := index.Invalidate(id); err != nil {
				r.logger.Warn("could not invalidate playlist cache", "playlist", id, "err", err)
			}
		}
	}

	report, err := tr.YouTube(ctx, cmd.Bool("update"))
	return r.finish(ctx, report, err)
}

// finish prints the report, records it in the ledger when one is configured
// and turns per-record failures into errBatchFailed.
func (r *Runner) finish(ctx context.Context, report tasks.Report, err error) error {
	r.printReport(report)
	r.recordRun(ctx, report)
	if err != nil {
		return fmt.Errorf("%s: %w", report.Task, err)
	}
	if n := report.Failed(); n > 0 {
		return fmt.Errorf("%w: %s: %d of %d services failed", errBatchFailed, report.Task, n, len(report.Outcomes))
	}
	return nil
}

func (r *Runner) printReport(report tasks.Report) {
	for _, o := range report.Outcomes {
		label := o.Slug
		if label == "" {
			label = o.RecordID
		}
		r.writePlain("%-8s %s\n", o.Action, label)
		for _, n := range o.Notes {
			r.writePlain("         %s\n", n)
		}
		if o.Err != nil {
			r.writePlain("         error: %v\n", o.Err)
		}
	}
}

// recordRun writes the report to the run ledger. Ledger failures are logged
// and never fail the batch.
func (r *Runner) recordRun(ctx context.Context, report tasks.Report) {
	if r.config.Ledger.ProjectID == "" || len(report.Outcomes) == 0 {
		return
	}

	client, err := ledger.New(ctx, r.config.Ledger.ProjectID, r.config.Ledger.Collection)
	if err != nil {
		r.logger.Warn("ledger unavailable", "err", err)
		return
	}
	defer client.Close()

	runID := uuid.NewString()
	if err := client.Record(ctx, runID, ledgerEntries(runID, report, time.Now().UTC())); err != nil {
		r.logger.Warn("could not record run", "run", runID, "err", err)
		return
	}
	r.logger.Info("recorded run", "run", runID)
}

func ledgerEntries(runID string, report tasks.Report, at time.Time) []ledger.Entry {
	entries := make([]ledger.Entry, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		e := ledger.Entry{
			RunID:    runID,
			Task:     report.Task,
			RecordID: o.RecordID,
			Slug:     o.Slug,
			Action:   string(o.Action),
			At:       at,
		}
		if o.Err != nil {
			e.Error = o.Err.Error()
		}
		entries = append(entries, e)
	}
	return entries
}

func oosCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "oos",
		Usage:  "Create or update order of service documents",
		Flags:  []cli.Flag{updateFlag()},
		Action: r.OrdersOfService,
	}
}

func podcastsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "podcasts",
		Usage:  "Create or update podcast episodes for streamed services",
		Flags:  []cli.Flag{updateFlag()},
		Action: r.Podcasts,
	}
}

func thumbnailsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "thumbnails",
		Usage:  "Generate missing video thumbnails",
		Action: r.Thumbnails,
	}
}

func youtubeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "youtube",
		Usage: "Update video metadata, thumbnails and playlists",
		Flags: []cli.Flag{
			updateFlag(),
			&cli.BoolFlag{
				Name:  "refresh-playlists",
				Usage: "Ignore cached playlist listings",
			},
		},
		Action: r.YouTube,
	}
}
