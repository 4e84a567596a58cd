package youtube

import (
	"context"
	"maps"
	"slices"
	"sync"

	"whitkirk-services/internal/cache"
)

// PlaylistLister returns the video ids of a playlist.
type PlaylistLister interface {
	PlaylistVideoIDs(ctx context.Context, playlistID string) ([]string, error)
}

// PlaylistIndex answers playlist membership questions, loading each playlist
// at most once until it is invalidated. An optional disk cache carries
// listings between runs.
type PlaylistIndex struct {
	lister PlaylistLister
	disk   *cache.Cache[[]string]

	mu        sync.Mutex
	playlists map[string]map[string]struct{}
}

// NewPlaylistIndex creates an index. disk may be nil.
func NewPlaylistIndex(lister PlaylistLister, disk *cache.Cache[[]string]) *PlaylistIndex {
	return &PlaylistIndex{
		lister:    lister,
		disk:      disk,
		playlists: make(map[string]map[string]struct{}),
	}
}

// Contains reports whether videoID is in playlistID.
func (x *PlaylistIndex) Contains(ctx context.Context, playlistID, videoID string) (bool, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	videos, err := x.load(ctx, playlistID)
	if err != nil {
		return false, err
	}
	_, ok := videos[videoID]
	return ok, nil
}

// Add records that videoID was inserted into playlistID.
func (x *PlaylistIndex) Add(playlistID, videoID string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	videos, ok := x.playlists[playlistID]
	if !ok {
		// Not loaded yet; the next load will see the insert.
		return
	}
	videos[videoID] = struct{}{}
	x.store(playlistID, slices.Sorted(maps.Keys(videos)))
}

// Invalidate forgets a playlist so the next lookup reloads it.
func (x *PlaylistIndex) Invalidate(playlistID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	delete(x.playlists, playlistID)
	if x.disk != nil {
		return x.disk.Invalidate(playlistID)
	}
	return nil
}

// load must be called with mu held.
func (x *PlaylistIndex) load(ctx context.Context, playlistID string) (map[string]struct{}, error) {
	if videos, ok := x.playlists[playlistID]; ok {
		return videos, nil
	}

	var ids []string
	cached := false
	if x.disk != nil {
		ids, cached = x.disk.Get(playlistID)
	}
	if !cached {
		var err error
		ids, err = x.lister.PlaylistVideoIDs(ctx, playlistID)
		if err != nil {
			return nil, err
		}
		x.store(playlistID, ids)
	}

	videos := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		videos[id] = struct{}{}
	}
	x.playlists[playlistID] = videos
	return videos, nil
}

// store writes a listing to the disk cache. A failed write only costs a reload.
func (x *PlaylistIndex) store(playlistID string, ids []string) {
	if x.disk != nil {
		_ = x.disk.Set(playlistID, ids)
	}
}
