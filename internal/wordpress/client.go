// Package wordpress talks to the WordPress REST API for orders of service,
// podcast episodes and their media.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://whitkirkchurch.org.uk"

	OrderOfServiceType = "whitkirk_oos"
	PodcastType        = "podcast"
)

// ErrAPI is returned when the API answers with a non-2xx status.
var ErrAPI = errors.New("wordpress API error")

// Options configures a Client.
type Options struct {
	BaseURL           string
	User              string
	Password          string
	HTTPClient        *http.Client
	RequestsPerSecond float64
	Logger            *log.Logger
}

// Client is an authenticated WordPress REST client.
type Client struct {
	baseURL    string
	user       string
	password   string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewClient creates a new WordPress client using application-password auth.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		user:       opts.User,
		password:   opts.Password,
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     opts.Logger,
	}
}

// OrderOfServiceFields are the custom fields of an order of service.
type OrderOfServiceFields struct {
	Datetime                  string `json:"datetime"`
	Physical                  bool   `json:"physical"`
	ShowBCPReproductionNotice bool   `json:"show_bcp_reproduction_notice"`
	YouTube                   string `json:"youtube,omitempty"`
	Streamed                  *bool  `json:"streamed,omitempty"`
}

// Document is the write body for a post of any type.
type Document struct {
	Title         string                `json:"title"`
	Slug          string                `json:"slug"`
	Date          string                `json:"date"`
	Status        string                `json:"status,omitempty"`
	Excerpt       string                `json:"excerpt,omitempty"`
	Content       string                `json:"content,omitempty"`
	FeaturedMedia int                   `json:"featured_media,omitempty"`
	ACF           *OrderOfServiceFields `json:"acf,omitempty"`
}

// Rendered is a field WordPress returns as HTML.
type Rendered struct {
	Rendered string `json:"rendered"`
}

// Post is a post of any type as returned by the API.
type Post struct {
	ID            int      `json:"id"`
	Slug          string   `json:"slug"`
	Status        string   `json:"status"`
	Date          string   `json:"date"`
	Link          string   `json:"link"`
	Title         Rendered `json:"title"`
	Excerpt       Rendered `json:"excerpt"`
	Content       Rendered `json:"content"`
	FeaturedMedia int      `json:"featured_media"`
}

// Save creates a post of postType when id is empty, otherwise updates it.
func (c *Client) Save(ctx context.Context, postType, id string, doc Document) (Post, error) {
	endpoint := c.endpoint(postType)
	if id != "" {
		endpoint += "/" + id
	}

	body, err := jsonBody(doc)
	if err != nil {
		return Post{}, err
	}

	var post Post
	if err := c.do(ctx, http.MethodPost, endpoint, "application/json", body, &post); err != nil {
		return Post{}, fmt.Errorf("saving %s %q: %w", postType, doc.Slug, err)
	}
	c.logger.Debug("saved post", "type", postType, "id", post.ID, "slug", post.Slug)
	return post, nil
}

// Get fetches a post of postType.
func (c *Client) Get(ctx context.Context, postType, id string) (Post, error) {
	var post Post
	if err := c.do(ctx, http.MethodGet, c.endpoint(postType)+"/"+id, "", nil, &post); err != nil {
		return Post{}, fmt.Errorf("getting %s %s: %w", postType, id, err)
	}
	return post, nil
}

func (c *Client) endpoint(resource string) string {
	return c.baseURL + "/wp-json/wp/v2/" + resource
}

func (c *Client) do(ctx context.Context, method, endpoint, contentType string, body []byte, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth(c.user, c.password)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Code != "" {
			return fmt.Errorf("%w (status %d): %s: %s", ErrAPI, resp.StatusCode, apiErr.Code, apiErr.Message)
		}
		return fmt.Errorf("%w (status %d): %s", ErrAPI, resp.StatusCode, string(data))
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
	}
	return nil
}

func jsonBody(v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	return body, nil
}

// ID formats a post or media id the way the record store keeps it.
func ID(id int) string {
	return strconv.Itoa(id)
}
