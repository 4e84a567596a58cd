package tasks

import (
	"context"
	"fmt"
	"html"

	"github.com/charmbracelet/log"

	"whitkirk-services/internal/airtable"
	"whitkirk-services/internal/record"
	"whitkirk-services/internal/service"
	"whitkirk-services/internal/wordpress"
)

// Podcasts creates or updates the podcast episode of every upcoming streamed service.
func (r *Runner) Podcasts(ctx context.Context, update bool) (Report, error) {
	return r.run(ctx, "podcasts", airtable.UpcomingStreaming, func(ctx context.Context, logger *log.Logger, e entry, out *Outcome) error {
		return r.podcast(ctx, logger, e.svc, update, out)
	})
}

// PodcastDocument builds the CMS body of a podcast episode.
func PodcastDocument(svc *service.Service) wordpress.Document {
	return wordpress.Document{
		Title:   svc.Title(),
		Slug:    svc.Slug(),
		Date:    svc.Datetime().Format(service.ISOLayout),
		Content: "<p>" + html.EscapeString(svc.Description()) + "</p>",
	}
}

func (r *Runner) podcast(ctx context.Context, logger *log.Logger, svc *service.Service, update bool, out *Outcome) error {
	doc := PodcastDocument(svc)
	podcastID, exists := svc.PodcastID()

	if !update {
		out.Action = ActionPreview
		if exists {
			out.note("would update podcast %s", podcastID)
		} else {
			out.note("would create draft podcast")
		}
		return nil
	}

	if exists {
		out.Action = ActionUpdated
	} else {
		doc.Status = "draft"
		out.Action = ActionCreated
	}
	post, err := r.CMS.Save(ctx, wordpress.PodcastType, podcastID, doc)
	if err != nil {
		return err
	}
	logger.Debug("saved podcast", "id", post.ID)

	if _, err := r.Records.UpdateFields(ctx, svc.ID(), map[record.Field]any{
		record.PodcastID: wordpress.ID(post.ID),
	}); err != nil {
		return fmt.Errorf("recording podcast id: %w", err)
	}
	return nil
}
