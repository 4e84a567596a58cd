// Package ledger records the per-record outcome of every sync run in Firestore.
package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

const batchSize = 250 // Stay well under Firestore's 500 operation limit

// Entry is the outcome of one record in one run.
type Entry struct {
	RunID    string
	Task     string
	RecordID string
	Slug     string
	Action   string
	Error    string
	At       time.Time
}

// Client wraps the Firestore client for run ledger operations.
type Client struct {
	client     *firestore.Client
	collection string
}

// New creates a new Firestore client.
func New(ctx context.Context, projectID, collection string) (*Client, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	return &Client{
		client:     client,
		collection: collection,
	}, nil
}

// Close closes the Firestore client.
func (c *Client) Close() error {
	return c.client.Close()
}

// Record writes the entries of a run. Document ids derive from the run, task
// and record, so recording the same run id again overwrites those entries
// rather than duplicating them.
func (c *Client) Record(ctx context.Context, runID string, entries []Entry) error {
	coll := c.client.Collection(c.collection)

	for _, chunk := range batches(runID, entries) {
		batch := c.client.Batch()
		for _, e := range chunk {
			batch.Set(coll.Doc(docID(e)), entryToMap(e))
		}

		if _, err := batch.Commit(ctx); err != nil {
			return fmt.Errorf("committing batch: %w", err)
		}
	}

	return nil
}

// batches stamps runID on copies of entries and splits them into write batches.
func batches(runID string, entries []Entry) [][]Entry {
	var out [][]Entry
	for i := 0; i < len(entries); i += batchSize {
		end := min(i+batchSize, len(entries))
		chunk := make([]Entry, 0, end-i)
		for _, e := range entries[i:end] {
			e.RunID = runID
			chunk = append(chunk, e)
		}
		out = append(out, chunk)
	}
	return out
}

// Run returns the entries of one run.
func (c *Client) Run(ctx context.Context, runID string) ([]Entry, error) {
	return c.collect(ctx, c.client.Collection(c.collection).Where("run_id", "==", runID))
}

// Recent returns the latest entries across runs, newest first.
func (c *Client) Recent(ctx context.Context, limit int) ([]Entry, error) {
	q := c.client.Collection(c.collection).OrderBy("at", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	return c.collect(ctx, q)
}

func (c *Client) collect(ctx context.Context, q firestore.Query) ([]Entry, error) {
	var entries []Entry

	iter := q.Documents(ctx)
	defer iter.Stop()
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating documents: %w", err)
		}
		entries = append(entries, mapToEntry(doc.Data()))
	}

	return entries, nil
}

// docID creates a stable document ID for an entry.
func docID(e Entry) string {
	data := fmt.Sprintf("%s|%s|%s", e.RunID, e.Task, e.RecordID)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:16]) // Use first 16 bytes for shorter ID
}

func entryToMap(e Entry) map[string]any {
	m := map[string]any{
		"run_id":    e.RunID,
		"task":      e.Task,
		"record_id": e.RecordID,
		"action":    e.Action,
		"at":        e.At,
	}
	if e.Slug != "" {
		m["slug"] = e.Slug
	}
	if e.Error != "" {
		m["error"] = e.Error
	}
	return m
}

func mapToEntry(m map[string]any) Entry {
	var e Entry
	if v, ok := m["run_id"].(string); ok {
		e.RunID = v
	}
	if v, ok := m["task"].(string); ok {
		e.Task = v
	}
	if v, ok := m["record_id"].(string); ok {
		e.RecordID = v
	}
	if v, ok := m["slug"].(string); ok {
		e.Slug = v
	}
	if v, ok := m["action"].(string); ok {
		e.Action = v
	}
	if v, ok := m["error"].(string); ok {
		e.Error = v
	}
	if v, ok := m["at"].(time.Time); ok {
		e.At = v
	}
	return e
}
