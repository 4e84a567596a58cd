package wordpress

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
)

const mediaResource = "media"

// Media is an attachment as returned by the API.
type Media struct {
	ID        int      `json:"id"`
	Slug      string   `json:"slug"`
	SourceURL string   `json:"source_url"`
	Title     Rendered `json:"title"`
}

// MediaMeta is the editable metadata of an attachment.
type MediaMeta struct {
	Title string `json:"title,omitempty"`
	// Post attaches the media to a post when non-zero.
	Post int `json:"post,omitempty"`
}

// Upload describes a file to add to the media library.
type Upload struct {
	MediaMeta
	Path        string
	ContentType string
	Slug        string
}

// UploadMedia adds a file to the media library.
func (c *Client) UploadMedia(ctx context.Context, u Upload) (Media, error) {
	data, err := os.ReadFile(u.Path)
	if err != nil {
		return Media{}, fmt.Errorf("reading %s: %w", u.Path, err)
	}

	contentType := u.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(u.Path))
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := map[string]string{"title": u.Title, "slug": u.Slug}
	if u.Post != 0 {
		fields["post"] = strconv.Itoa(u.Post)
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := w.WriteField(k, v); err != nil {
			return Media{}, fmt.Errorf("writing field %s: %w", k, err)
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     "file",
		"filename": filepath.Base(u.Path),
	}))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return Media{}, fmt.Errorf("creating file part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return Media{}, fmt.Errorf("writing file part: %w", err)
	}
	if err := w.Close(); err != nil {
		return Media{}, fmt.Errorf("closing multipart body: %w", err)
	}

	var media Media
	if err := c.do(ctx, http.MethodPost, c.endpoint(mediaResource), w.FormDataContentType(), buf.Bytes(), &media); err != nil {
		return Media{}, fmt.Errorf("uploading %s: %w", filepath.Base(u.Path), err)
	}
	c.logger.Debug("uploaded media", "id", media.ID, "file", filepath.Base(u.Path))
	return media, nil
}

// UpdateMedia replaces the metadata of an attachment.
func (c *Client) UpdateMedia(ctx context.Context, id string, meta MediaMeta) error {
	body, err := jsonBody(meta)
	if err != nil {
		return err
	}
	if err := c.do(ctx, http.MethodPost, c.endpoint(mediaResource)+"/"+id, "application/json", body, nil); err != nil {
		return fmt.Errorf("updating media %s: %w", id, err)
	}
	return nil
}

// DeleteMedia permanently removes an attachment. Media does not support the
// trash, so the request is always forced.
func (c *Client) DeleteMedia(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, c.endpoint(mediaResource)+"/"+id+"?force=true", "", nil, nil); err != nil {
		return fmt.Errorf("deleting media %s: %w", id, err)
	}
	return nil
}
