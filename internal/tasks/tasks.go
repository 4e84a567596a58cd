// Package tasks runs the sync batches: each batch lists records, derives
// services in date order, and pushes them to one downstream system. A failure
// on one record is reported in its Outcome and the batch moves on.
package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"whitkirk-services/internal/airtable"
	"whitkirk-services/internal/record"
	"whitkirk-services/internal/service"
	"whitkirk-services/internal/thumbnail"
	"whitkirk-services/internal/wordpress"
	"whitkirk-services/internal/youtube"
)

// Records is the record store.
type Records interface {
	All(ctx context.Context, q airtable.Query) ([]record.Record, error)
	UpdateFields(ctx context.Context, id string, values map[record.Field]any) (record.Record, error)
}

// CMS is the content management system.
type CMS interface {
	Save(ctx context.Context, postType, id string, doc wordpress.Document) (wordpress.Post, error)
	Get(ctx context.Context, postType, id string) (wordpress.Post, error)
	UploadMedia(ctx context.Context, u wordpress.Upload) (wordpress.Media, error)
	UpdateMedia(ctx context.Context, id string, meta wordpress.MediaMeta) error
	DeleteMedia(ctx context.Context, id string) error
}

// Videos is the video platform.
type Videos interface {
	UpdateVideo(ctx context.Context, u youtube.VideoUpdate) error
	SetThumbnail(ctx context.Context, videoID, path string) error
	InsertPlaylistItem(ctx context.Context, playlistID, videoID string) error
}

// Playlists answers playlist membership from an explicit index.
type Playlists interface {
	Contains(ctx context.Context, playlistID, videoID string) (bool, error)
	Add(playlistID, videoID string)
}

// Thumbnails makes sure a generated thumbnail exists.
type Thumbnails interface {
	Ensure(ctx context.Context, in thumbnail.Inputs) (thumbnail.Result, error)
}

// Action is what a batch did with one record.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionPreview Action = "preview"
	ActionSkipped Action = "skipped"
	ActionFailed  Action = "failed"
)

// Outcome is the result for one record.
type Outcome struct {
	RecordID string
	Slug     string
	Action   Action
	Notes    []string
	Err      error
}

func (o *Outcome) note(format string, args ...any) {
	o.Notes = append(o.Notes, fmt.Sprintf(format, args...))
}

// Report collects the outcomes of one batch in record order.
type Report struct {
	Task     string
	Outcomes []Outcome
}

// Failed counts outcomes with an error.
func (r Report) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// Err joins the per-record errors, or returns nil.
func (r Report) Err() error {
	var errs []error
	for _, o := range r.Outcomes {
		if o.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", o.RecordID, o.Err))
		}
	}
	return errors.Join(errs...)
}

// Runner holds the collaborators shared by every batch. Collaborators a batch
// does not use may be nil.
type Runner struct {
	Engine     *service.Engine
	Records    Records
	CMS        CMS
	Videos     Videos
	Playlists  Playlists
	Generator  Thumbnails
	Downloader service.Downloader
	Logger     *log.Logger

	// DefaultFeaturedImageID is the CMS media id used when neither the record
	// nor its category names one.
	DefaultFeaturedImageID string
}

// entry pairs a record with the service derived from it. previous is the
// service built from the record immediately before it, nil when that record
// failed or this is the first.
type entry struct {
	rec      record.Record
	svc      *service.Service
	previous *service.Service
	err      error
}

func (r *Runner) load(ctx context.Context, q airtable.Query) ([]entry, error) {
	recs, err := r.Records.All(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing services: %w", err)
	}

	entries := make([]entry, len(recs))
	var previous *service.Service
	for i, rec := range recs {
		svc, err := r.Engine.New(rec)
		entries[i] = entry{rec: rec, svc: svc, previous: previous, err: err}
		previous = svc
	}
	return entries, nil
}

func (r *Runner) logger() *log.Logger {
	if r.Logger == nil {
		return log.Default()
	}
	return r.Logger
}

// run applies fn to every entry that built, recording failures and carrying on.
func (r *Runner) run(ctx context.Context, task string, q airtable.Query, fn func(context.Context, *log.Logger, entry, *Outcome) error) (Report, error) {
	logger := r.logger().With("task", task)
	entries, err := r.load(ctx, q)
	if err != nil {
		return Report{Task: task}, err
	}
	logger.Info("loaded services", "count", len(entries))

	report := Report{Task: task, Outcomes: make([]Outcome, 0, len(entries))}
	for _, e := range entries {
		out := Outcome{RecordID: e.rec.ID}
		if e.err != nil {
			out.Action = ActionFailed
			out.Err = e.err
			logger.Error("skipping record", "record", e.rec.ID, "err", e.err)
			report.Outcomes = append(report.Outcomes, out)
			continue
		}
		out.Slug = e.svc.Slug()

		if err := ctx.Err(); err != nil {
			return report, err
		}

		rl := logger.With("service", e.svc.ID(), "slug", e.svc.Slug())
		if err := fn(ctx, rl, e, &out); err != nil {
			out.Action = ActionFailed
			out.Err = err
			rl.Error("sync failed", "err", err)
		} else {
			rl.Info("synced", "action", out.Action)
		}
		report.Outcomes = append(report.Outcomes, out)
	}

	logger.Info("batch complete", "services", len(report.Outcomes), "failed", report.Failed())
	return report, nil
}
