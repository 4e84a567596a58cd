// Package airtable is a minimal client for the services table.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"whitkirk-services/internal/record"
)

const (
	DefaultBaseURL = "https://api.airtable.com/v0"

	// The API allows five requests per second per base.
	defaultRequestsPerSecond = 5
)

// ErrAPI is returned when the API answers with a non-2xx status.
var ErrAPI = errors.New("airtable API error")

// Options configures a Client.
type Options struct {
	APIKey            string
	BaseID            string
	TableID           string
	BaseURL           string
	HTTPClient        *http.Client
	RequestsPerSecond float64
	Logger            *log.Logger
}

// Client reads and updates records in one table.
type Client struct {
	apiKey     string
	baseID     string
	tableID    string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewClient creates a new table client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = defaultRequestsPerSecond
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	return &Client{
		apiKey:     opts.APIKey,
		baseID:     opts.BaseID,
		tableID:    opts.TableID,
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		logger:     opts.Logger,
	}
}

// Query selects and orders records.
type Query struct {
	// Formula is passed as filterByFormula. Empty selects every record.
	Formula string
	// Sort lists column names, each sorted ascending.
	Sort []string
}

type listResponse struct {
	Records []record.Record `json:"records"`
	Offset  string          `json:"offset"`
}

// All returns every record matching q, following pagination.
func (c *Client) All(ctx context.Context, q Query) ([]record.Record, error) {
	var records []record.Record
	offset := ""

	for {
		params := url.Values{}
		if q.Formula != "" {
			params.Set("filterByFormula", q.Formula)
		}
		for i, field := range q.Sort {
			params.Set(fmt.Sprintf("sort[%d][field]", i), field)
			params.Set(fmt.Sprintf("sort[%d][direction]", i), "asc")
		}
		if offset != "" {
			params.Set("offset", offset)
		}

		var page listResponse
		if err := c.do(ctx, http.MethodGet, c.tableURL()+"?"+params.Encode(), nil, &page); err != nil {
			return nil, fmt.Errorf("listing records: %w", err)
		}
		records = append(records, page.Records...)

		if page.Offset == "" {
			break
		}
		offset = page.Offset
	}

	c.logger.Debug("listed records", "count", len(records), "formula", q.Formula)
	return records, nil
}

// Update sets fields on the record with the given id and returns the updated record.
// Keys are column names; use record.Fields to build them from logical names.
func (c *Client) Update(ctx context.Context, id string, fields map[string]any) (record.Record, error) {
	body, err := json.Marshal(map[string]any{"fields": fields})
	if err != nil {
		return record.Record{}, fmt.Errorf("marshaling update: %w", err)
	}

	var rec record.Record
	if err := c.do(ctx, http.MethodPatch, c.tableURL()+"/"+url.PathEscape(id), body, &rec); err != nil {
		return record.Record{}, fmt.Errorf("updating record %s: %w", id, err)
	}
	return rec, nil
}

func (c *Client) tableURL() string {
	return c.baseURL + "/" + url.PathEscape(c.baseID) + "/" + url.PathEscape(c.tableID)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, result any) error {
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
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
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
		return fmt.Errorf("%w (status %d): %s", ErrAPI, resp.StatusCode, errorMessage(data))
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
	}
	return nil
}

// errorMessage extracts the message from either error shape the API uses:
// {"error": "NOT_FOUND"} or {"error": {"type": "...", "message": "..."}}.
func errorMessage(data []byte) string {
	var resp struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(data, &resp); err != nil || len(resp.Error) == 0 {
		return string(data)
	}

	var detail struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Error, &detail); err == nil {
		if detail.Message == "" {
			return detail.Type
		}
		return detail.Type + ": " + detail.Message
	}

	if s, err := strconv.Unquote(string(resp.Error)); err == nil {
		return s
	}
	return string(resp.Error)
}
