// Package youtube updates live-stream videos, their thumbnails and playlist
// membership through the YouTube Data API.
package youtube

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const maxResults = 50

// Client wraps the YouTube Data API service.
type Client struct {
	svc    *youtube.Service
	logger *log.Logger
}

// NewClient creates a YouTube client. Pass option.WithTokenSource for user
// credentials, or option.WithEndpoint and option.WithHTTPClient in tests.
func NewClient(ctx context.Context, logger *log.Logger, opts ...option.ClientOption) (*Client, error) {
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating youtube service: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Client{svc: svc, logger: logger}, nil
}

// PlaylistVideoIDs returns the ids of every video in a playlist, in playlist order.
func (c *Client) PlaylistVideoIDs(ctx context.Context, playlistID string) ([]string, error) {
	var ids []string
	pageToken := ""
	for {
		items, next, err := c.listPlaylistItems(ctx, playlistID, pageToken)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			if item.Snippet == nil || item.Snippet.ResourceId == nil {
				continue
			}
			if item.Snippet.ResourceId.Kind == "youtube#video" {
				ids = append(ids, item.Snippet.ResourceId.VideoId)
			}
		}
		if next == "" {
			break
		}
		pageToken = next
	}
	c.logger.Debug("loaded playlist", "playlist", playlistID, "videos", len(ids))
	return ids, nil
}

func (c *Client) listPlaylistItems(ctx context.Context, playlistID, pageToken string) ([]*youtube.PlaylistItem, string, error) {
	req := c.svc.PlaylistItems.List([]string{"snippet"}).PlaylistId(playlistID).MaxResults(maxResults)
	if pageToken != "" {
		req = req.PageToken(pageToken)
	}
	resp, err := req.Context(ctx).Do()
	if err != nil {
		return nil, "", fmt.Errorf("listing playlist %s: %w", playlistID, err)
	}
	return resp.Items, resp.NextPageToken, nil
}

// VideoUpdate is the metadata written to a video.
type VideoUpdate struct {
	ID          string
	Title       string
	Description string
	Privacy     string
	Embeddable  bool
}

// UpdateVideo replaces a video's title, description, privacy and embeddable flag.
// The remaining snippet fields are read back first because the API clears any
// snippet field missing from an update.
func (c *Client) UpdateVideo(ctx context.Context, u VideoUpdate) error {
	resp, err := c.svc.Videos.List([]string{"snippet", "status"}).Id(u.ID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("fetching video %s: %w", u.ID, err)
	}
	if len(resp.Items) == 0 {
		return fmt.Errorf("video %s not found", u.ID)
	}

	video := resp.Items[0]
	if video.Snippet == nil {
		video.Snippet = &youtube.VideoSnippet{}
	}
	if video.Status == nil {
		video.Status = &youtube.VideoStatus{}
	}
	video.Snippet.Title = u.Title
	video.Snippet.Description = u.Description
	video.Status.PrivacyStatus = u.Privacy
	video.Status.Embeddable = u.Embeddable
	video.Status.ForceSendFields = append(video.Status.ForceSendFields, "Embeddable")

	if _, err := c.svc.Videos.Update([]string{"snippet", "status"}, video).Context(ctx).Do(); err != nil {
		return fmt.Errorf("updating video %s: %w", u.ID, err)
	}
	return nil
}

// SetThumbnail uploads the image at path as the custom thumbnail of a video.
func (c *Client) SetThumbnail(ctx context.Context, videoID, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening thumbnail: %w", err)
	}
	defer f.Close()

	if _, err := c.svc.Thumbnails.Set(videoID).Media(f).Context(ctx).Do(); err != nil {
		return fmt.Errorf("setting thumbnail for %s: %w", videoID, err)
	}
	return nil
}

// InsertPlaylistItem appends a video to a playlist.
func (c *Client) InsertPlaylistItem(ctx context.Context, playlistID, videoID string) error {
	item := &youtube.PlaylistItem{
		Snippet: &youtube.PlaylistItemSnippet{
			PlaylistId: playlistID,
			ResourceId: &youtube.ResourceId{
				Kind:    "youtube#video",
				VideoId: videoID,
			},
		},
	}
	if _, err := c.svc.PlaylistItems.Insert([]string{"snippet"}, item).Context(ctx).Do(); err != nil {
		return fmt.Errorf("adding %s to playlist %s: %w", videoID, playlistID, err)
	}
	return nil
}
