// Package cache is a small disk-backed cache with a fixed TTL.
package cache

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/renameio/v2"
)

// Entry is a cached value with metadata.
type Entry[T any] struct {
	Value     T         `json:"value"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Cache provides disk-based caching of JSON-encodable values.
type Cache[T any] struct {
	dir string
	ttl time.Duration
	now func() time.Time
	mu  sync.RWMutex
}

// New creates a new disk-based cache.
func New[T any](cacheDir string, ttl time.Duration) (*Cache[T], error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, err
	}
	return &Cache[T]{
		dir: cacheDir,
		ttl: ttl,
		now: time.Now,
	}, nil
}

// Get retrieves a cached value if it exists and hasn't expired.
func (c *Cache[T]) Get(name string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero T
	data, err := os.ReadFile(c.filePath(name))
	if err != nil {
		return zero, false
	}

	var entry Entry[T]
	if err := json.Unmarshal(data, &entry); err != nil {
		return zero, false
	}

	if c.now().Sub(entry.FetchedAt) > c.ttl {
		return zero, false
	}

	return entry.Value, true
}

// Set stores a value in the cache.
func (c *Cache[T]) Set(name string, value T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := Entry[T]{
		Value:     value,
		FetchedAt: c.now(),
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}

	return renameio.WriteFile(c.filePath(name), data, 0644)
}

// Invalidate removes a single entry.
func (c *Cache[T]) Invalidate(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := os.Remove(c.filePath(name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// InvalidateAll removes all cached entries.
func (c *Cache[T]) InvalidateAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}

	var errs []error
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".json" {
			if err := os.Remove(filepath.Join(c.dir, entry.Name())); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (c *Cache[T]) filePath(name string) string {
	// Sanitize name to be filesystem-safe
	safeName := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, name)
	return filepath.Join(c.dir, safeName+".json")
}
