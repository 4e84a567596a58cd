package tasks

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"whitkirk-services/internal/airtable"
	"whitkirk-services/internal/record"
	"whitkirk-services/internal/service"
	"whitkirk-services/internal/wordpress"
)

// OrdersOfService creates or updates the order of service document for every
// upcoming service that has one. With update false nothing is written anywhere.
func (r *Runner) OrdersOfService(ctx context.Context, update bool) (Report, error) {
	return r.run(ctx, "oos", airtable.UpcomingWithOrderOfService, func(ctx context.Context, logger *log.Logger, e entry, out *Outcome) error {
		return r.orderOfService(ctx, logger, e, update, out)
	})
}

// OrderOfServiceDocument builds the CMS body for svc. previous is the service
// before it in date order, or nil.
func OrderOfServiceDocument(svc, previous *service.Service) wordpress.Document {
	acf := &wordpress.OrderOfServiceFields{
		Datetime:                  svc.NaiveDatetimeString(),
		Physical:                  true,
		ShowBCPReproductionNotice: svc.ShowBCPReproductionNotice(),
	}
	if svc.IsStreaming() {
		if id, ok := svc.YouTubeID(); ok {
			streamed := true
			acf.YouTube = id
			acf.Streamed = &streamed
		}
	} else {
		streamed := false
		acf.Streamed = &streamed
	}

	return wordpress.Document{
		Title:   svc.Title(),
		Slug:    svc.Slug(),
		Date:    svc.PublishDatetime(previous).Format(service.ISOLayout),
		Excerpt: svc.Description(),
		ACF:     acf,
	}
}

func (r *Runner) orderOfService(ctx context.Context, logger *log.Logger, e entry, update bool, out *Outcome) error {
	svc := e.svc
	doc := OrderOfServiceDocument(svc, e.previous)
	oosID, hasOOS := svc.OrderOfServiceID()

	media, err := r.featuredImage(ctx, logger, svc, update, out)
	if err != nil {
		return err
	}
	doc.FeaturedMedia = media

	if !update {
		out.Action = ActionPreview
		if hasOOS {
			out.note("would update order of service %s", oosID)
			r.compareExcerpt(ctx, oosID, doc, out)
		} else {
			out.note("would create draft order of service")
		}
		return nil
	}

	if hasOOS {
		out.Action = ActionUpdated
	} else {
		doc.Status = "draft"
		out.Action = ActionCreated
	}
	post, err := r.CMS.Save(ctx, wordpress.OrderOfServiceType, oosID, doc)
	if err != nil {
		return err
	}
	logger.Debug("saved order of service", "id", post.ID)

	if _, err := r.Records.UpdateFields(ctx, svc.ID(), map[record.Field]any{
		record.OrderOfServiceID: wordpress.ID(post.ID),
	}); err != nil {
		return fmt.Errorf("recording order of service id: %w", err)
	}
	return nil
}

// compareExcerpt notes when the published excerpt differs from the derived
// description. Lookup failures only add a note.
func (r *Runner) compareExcerpt(ctx context.Context, id string, doc wordpress.Document, out *Outcome) {
	post, err := r.CMS.Get(ctx, wordpress.OrderOfServiceType, id)
	if err != nil {
		out.note("could not fetch current order of service: %v", err)
		return
	}
	current, err := wordpress.RenderedText(post.Excerpt.Rendered)
	if err != nil {
		out.note("could not read current excerpt: %v", err)
		return
	}
	if current != doc.Excerpt {
		out.note("excerpt changes from %q", current)
	}
}

// featuredImage settles the featured media for an order of service and returns
// its id, or 0 when there is none. Precedence for the id is the record's own
// media id, then the category default, then the configured default. A
// service-specific image is uploaded when its file name differs from the one
// last uploaded.
func (r *Runner) featuredImage(ctx context.Context, logger *log.Logger, svc *service.Service, update bool, out *Outcome) (int, error) {
	featuredID := svc.FeaturedImageID(r.DefaultFeaturedImageID)
	meta := wordpress.MediaMeta{Title: "Featured image for " + svc.TitleWithDate()}
	if oosID, ok := svc.OrderOfServiceID(); ok {
		if post, err := strconv.Atoi(oosID); err == nil {
			meta.Post = post
		}
	}

	if !svc.HasServiceSpecificImage() {
		if featuredID == "" {
			return 0, nil
		}
		id, err := strconv.Atoi(featuredID)
		if err != nil {
			return 0, fmt.Errorf("featured image id %q: %w", featuredID, err)
		}
		if recorded, _ := svc.WordPressImageID(); recorded != featuredID {
			if !update {
				out.note("would record featured image %s", featuredID)
			} else if _, err := r.Records.UpdateFields(ctx, svc.ID(), map[record.Field]any{
				record.WordPressImageID: featuredID,
			}); err != nil {
				return 0, fmt.Errorf("recording featured image id: %w", err)
			}
		}
		return id, nil
	}

	src := svc.ImageSource()
	lastUploaded, _ := svc.WordPressImageLastUploadedName()
	if featuredID != "" && lastUploaded == src.Filename {
		id, err := strconv.Atoi(featuredID)
		if err != nil {
			return 0, fmt.Errorf("featured image id %q: %w", featuredID, err)
		}
		if !update {
			out.note("would refresh metadata of media %s", featuredID)
			return id, nil
		}
		if err := r.CMS.UpdateMedia(ctx, featuredID, meta); err != nil {
			return 0, err
		}
		return id, nil
	}

	if !update {
		out.note("would upload %s", src.Filename)
		return 0, nil
	}

	img, err := svc.ResolveImage(ctx, r.Downloader)
	if err != nil {
		return 0, err
	}

	// Only media this tool uploaded for the record is replaced; category and
	// site defaults are shared between services.
	if recorded, ok := svc.WordPressImageID(); ok && lastUploaded != "" {
		if err := r.CMS.DeleteMedia(ctx, recorded); err != nil {
			logger.Warn("could not delete replaced media", "id", recorded, "err", err)
		}
	}

	upload := wordpress.Upload{MediaMeta: meta, Path: img.Path}
	if img.Transfer != nil {
		upload.ContentType = img.Transfer.ContentType
	}
	if featuredID == "" {
		upload.Slug = strings.SplitN(src.Filename, ".", 2)[0]
	}
	media, err := r.CMS.UploadMedia(ctx, upload)
	if err != nil {
		return 0, err
	}
	out.note("uploaded %s as media %d", src.Filename, media.ID)

	if _, err := r.Records.UpdateFields(ctx, svc.ID(), map[record.Field]any{
		record.WordPressImageID:               wordpress.ID(media.ID),
		record.WordPressImageLastUploadedName: src.Filename,
	}); err != nil {
		return 0, fmt.Errorf("recording uploaded image: %w", err)
	}
	return media.ID, nil
}
