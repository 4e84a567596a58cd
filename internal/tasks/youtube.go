package tasks

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"

	"whitkirk-services/internal/airtable"
	"whitkirk-services/internal/record"
	"whitkirk-services/internal/service"
	"whitkirk-services/internal/thumbnail"
	"whitkirk-services/internal/youtube"
)

// Thumbnails generates the branded thumbnail of every upcoming streamed
// service. Thumbnails whose cache key already has a file are left alone.
func (r *Runner) Thumbnails(ctx context.Context) (Report, error) {
	return r.run(ctx, "thumbnails", airtable.UpcomingStreaming, func(ctx context.Context, logger *log.Logger, e entry, out *Outcome) error {
		res, err := r.thumbnail(ctx, e.svc)
		if err != nil {
			return err
		}
		if res.Generated {
			out.Action = ActionCreated
			out.note("generated %s", res.Path)
		} else {
			out.Action = ActionSkipped
		}
		return nil
	})
}

// thumbnail resolves the service image once and ensures the thumbnail for it.
func (r *Runner) thumbnail(ctx context.Context, svc *service.Service) (thumbnail.Result, error) {
	img, err := svc.ResolveImage(ctx, r.Downloader)
	if err != nil {
		return thumbnail.Result{}, err
	}
	res, err := r.Generator.Ensure(ctx, thumbnail.InputsFor(svc, img.Path))
	if err != nil {
		return thumbnail.Result{}, fmt.Errorf("thumbnail: %w", err)
	}
	return res, nil
}

// YouTube updates the video of every upcoming streamed service that has one:
// metadata, thumbnail and playlist membership.
func (r *Runner) YouTube(ctx context.Context, update bool) (Report, error) {
	return r.run(ctx, "youtube", airtable.UpcomingStreaming, func(ctx context.Context, logger *log.Logger, e entry, out *Outcome) error {
		return r.video(ctx, logger, e.svc, update, out)
	})
}

// VideoUpdate builds the metadata written to the video of svc.
func VideoUpdate(svc *service.Service, videoID string) youtube.VideoUpdate {
	return youtube.VideoUpdate{
		ID:          videoID,
		Title:       svc.TitleWithDate(),
		Description: svc.Description(),
		Privacy:     svc.YouTubePrivacy(),
		Embeddable:  svc.YouTubeEmbeddable(),
	}
}

func (r *Runner) video(ctx context.Context, logger *log.Logger, svc *service.Service, update bool, out *Outcome) error {
	videoID, ok := svc.YouTubeID()
	if !ok {
		out.Action = ActionSkipped
		out.note("no video id")
		return nil
	}

	out.Action = ActionUpdated
	if !update {
		out.Action = ActionPreview
	}

	if update {
		if err := r.Videos.UpdateVideo(ctx, VideoUpdate(svc, videoID)); err != nil {
			return err
		}
	} else {
		out.note("would set title %q and privacy %s", svc.TitleWithDate(), svc.YouTubePrivacy())
	}

	// Previews name the thumbnail from its key without downloading or rendering.
	name := filepath.Base(thumbnail.Path("", thumbnail.Key(thumbnail.InputsFor(svc, svc.ImageSource().Path))))
	if last, _ := svc.YouTubeImageLastUploadedName(); last != name {
		if !update {
			out.note("would set thumbnail %s", name)
		} else {
			thumb, err := r.thumbnail(ctx, svc)
			if err != nil {
				return err
			}
			if err := r.Videos.SetThumbnail(ctx, videoID, thumb.Path); err != nil {
				return err
			}
			if _, err := r.Records.UpdateFields(ctx, svc.ID(), map[record.Field]any{
				record.YouTubeImageLastUploadedName: name,
			}); err != nil {
				return fmt.Errorf("recording thumbnail name: %w", err)
			}
			out.note("set thumbnail %s", name)
		}
	}

	for _, playlistID := range svc.YouTubePlaylists().Sorted() {
		in, err := r.Playlists.Contains(ctx, playlistID, videoID)
		if err != nil {
			return err
		}
		if in {
			continue
		}
		if !update {
			out.note("would add to playlist %s", playlistID)
			continue
		}
		if err := r.Videos.InsertPlaylistItem(ctx, playlistID, videoID); err != nil {
			return err
		}
		r.Playlists.Add(playlistID, videoID)
		logger.Debug("added to playlist", "playlist", playlistID)
		out.note("added to playlist %s", playlistID)
	}
	return nil
}
