package airtable

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whitkirk-services/internal/record"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Options{
		APIKey:            "key123",
		BaseID:            "appBase",
		TableID:           "tblServices",
		BaseURL:           srv.URL,
		RequestsPerSecond: 1000,
	})
}

func TestAllFollowsOffsets(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/appBase/tblServices", r.URL.Path)
		assert.Equal(t, "Bearer key123", r.Header.Get("Authorization"))

		q := r.URL.Query()
		assert.Equal(t, "AND({Date & time} >= TODAY(),{Streaming?} = 'Yes')", q.Get("filterByFormula"))
		assert.Equal(t, "Date & time", q.Get("sort[0][field]"))
		assert.Equal(t, "asc", q.Get("sort[0][direction]"))

		switch q.Get("offset") {
		case "":
			io.WriteString(w, `{"records":[{"id":"rec1","fields":{"Name":"Evensong"}}],"offset":"itr2"}`)
		case "itr2":
			io.WriteString(w, `{"records":[{"id":"rec2","fields":{"Name":"Compline"}}]}`)
		default:
			t.Errorf("unexpected offset %q", q.Get("offset"))
		}
	})

	recs, err := c.All(context.Background(), UpcomingStreaming)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "rec1", recs[0].ID)
	assert.Equal(t, "Compline", recs[1].Fields["Name"])
}

func TestUpdateFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/appBase/tblServices/rec1", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body struct {
			Fields map[string]any `json:"fields"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"Order of Service ID": "123"}, body.Fields)

		io.WriteString(w, `{"id":"rec1","fields":{"Order of Service ID":"123"}}`)
	})

	rec, err := c.UpdateFields(context.Background(), "rec1", map[record.Field]any{record.OrderOfServiceID: "123"})
	require.NoError(t, err)
	assert.Equal(t, "123", rec.Fields["Order of Service ID"])
}

func TestAPIErrors(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
		want   string
	}{
		"object": {http.StatusUnprocessableEntity, `{"error":{"type":"INVALID_FILTER_BY_FORMULA","message":"bad formula"}}`, "INVALID_FILTER_BY_FORMULA: bad formula"},
		"string": {http.StatusNotFound, `{"error":"NOT_FOUND"}`, "NOT_FOUND"},
		"plain":  {http.StatusBadGateway, `upstream`, "upstream"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				io.WriteString(w, tc.body)
			})
			_, err := c.All(context.Background(), Query{})
			require.ErrorIs(t, err, ErrAPI)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestQueries(t *testing.T) {
	assert.Equal(t, "AND({Date & time} >= TODAY(),{Has order of service?} = TRUE())", UpcomingWithOrderOfService.Formula)
	assert.Equal(t, "AND({Date & time} >= TODAY(),{Streaming?} = '')", UpcomingUndecidedStream.Formula)
	assert.Equal(t, []string{"Date & time"}, UpcomingUndecidedStream.Sort)
}
