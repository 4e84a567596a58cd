// Package overrides holds per-category behaviour overrides for derived service values.
package overrides

import (
	"maps"
	"slices"
)

// Set is an unordered set of playlist ids.
type Set map[string]struct{}

// NewSet returns a Set holding ids.
func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in s.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members of s in lexical order.
func (s Set) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

// Override alters default derivation for one category. Every field is optional.
type Override struct {
	DefaultThumbnail          *string
	DefaultFeaturedImageID    *string
	DescribeServiceAs         *string
	ShowBCPReproductionNotice *bool
	YouTubePlaylists          Set
	ExcludeYouTubePlaylists   Set

	// ExcludeDefaultPlaylist keeps the category out of whatever playlist is
	// configured as the default.
	ExcludeDefaultPlaylist bool
}

// Spec is the configuration file shape of an Override.
type Spec struct {
	DefaultThumbnail          *string  `toml:"default_thumbnail"`
	DefaultFeaturedImageID    *string  `toml:"default_featured_image_id"`
	DescribeServiceAs         *string  `toml:"describe_service_as"`
	ShowBCPReproductionNotice *bool    `toml:"show_bcp_reproduction_notice"`
	YouTubePlaylists          []string `toml:"youtube_playlists"`
	ExcludeYouTubePlaylists   []string `toml:"exclude_youtube_playlists"`
	ExcludeDefaultPlaylist    bool     `toml:"exclude_default_playlist"`
}

// Table maps category ids to overrides. It is built once and never modified.
type Table struct {
	entries map[string]Override
}

// NewTable builds a Table from configuration specs. Inputs are copied.
func NewTable(specs map[string]Spec) *Table {
	t := &Table{entries: make(map[string]Override, len(specs))}
	for id, spec := range specs {
		t.entries[id] = Override{
			DefaultThumbnail:          cloneString(spec.DefaultThumbnail),
			DefaultFeaturedImageID:    cloneString(spec.DefaultFeaturedImageID),
			DescribeServiceAs:         cloneString(spec.DescribeServiceAs),
			ShowBCPReproductionNotice: cloneBool(spec.ShowBCPReproductionNotice),
			YouTubePlaylists:          NewSet(spec.YouTubePlaylists...),
			ExcludeYouTubePlaylists:   NewSet(spec.ExcludeYouTubePlaylists...),
			ExcludeDefaultPlaylist:    spec.ExcludeDefaultPlaylist,
		}
	}
	return t
}

// Has reports whether categoryID has an entry.
func (t *Table) Has(categoryID string) bool {
	if t == nil {
		return false
	}
	_, ok := t.entries[categoryID]
	return ok
}

// For returns the override for categoryID, or the empty Override when none is configured.
// Callers that need to tell the two apart use Has.
func (t *Table) For(categoryID string) Override {
	if t == nil {
		return Override{}
	}
	o, ok := t.entries[categoryID]
	if !ok {
		return Override{}
	}
	return Override{
		DefaultThumbnail:          cloneString(o.DefaultThumbnail),
		DefaultFeaturedImageID:    cloneString(o.DefaultFeaturedImageID),
		DescribeServiceAs:         cloneString(o.DescribeServiceAs),
		ShowBCPReproductionNotice: cloneBool(o.ShowBCPReproductionNotice),
		YouTubePlaylists:          maps.Clone(o.YouTubePlaylists),
		ExcludeYouTubePlaylists:   maps.Clone(o.ExcludeYouTubePlaylists),
		ExcludeDefaultPlaylist:    o.ExcludeDefaultPlaylist,
	}
}

// DescribeServiceAs returns the configured descriptive phrase for categoryID.
func (t *Table) DescribeServiceAs(categoryID string) (string, bool) {
	return deref(t.For(categoryID).DescribeServiceAs)
}

// DefaultImage returns the configured default thumbnail file name for categoryID.
func (t *Table) DefaultImage(categoryID string) (string, bool) {
	return deref(t.For(categoryID).DefaultThumbnail)
}

// DefaultFeaturedImageID returns the configured CMS media id for categoryID.
func (t *Table) DefaultFeaturedImageID(categoryID string) (string, bool) {
	return deref(t.For(categoryID).DefaultFeaturedImageID)
}

// ShowBCPReproductionNotice reports whether documents for categoryID carry the notice.
func (t *Table) ShowBCPReproductionNotice(categoryID string) bool {
	v := t.For(categoryID).ShowBCPReproductionNotice
	return v != nil && *v
}

// PlaylistAdjustments returns the playlists added and excluded for categoryID.
// Both sets are empty, never nil, when nothing is configured.
func (t *Table) PlaylistAdjustments(categoryID string) (additions, exclusions Set) {
	o := t.For(categoryID)
	additions, exclusions = o.YouTubePlaylists, o.ExcludeYouTubePlaylists
	if additions == nil {
		additions = Set{}
	}
	if exclusions == nil {
		exclusions = Set{}
	}
	return additions, exclusions
}

// ExcludesDefaultPlaylist reports whether categoryID stays out of the default playlist.
func (t *Table) ExcludesDefaultPlaylist(categoryID string) bool {
	return t.For(categoryID).ExcludeDefaultPlaylist
}

// PlaylistIDs lists every playlist added by any category, sorted.
func (t *Table) PlaylistIDs() []string {
	ids := Set{}
	if t != nil {
		for _, o := range t.entries {
			for id := range o.YouTubePlaylists {
				ids[id] = struct{}{}
			}
		}
	}
	return ids.Sorted()
}

func deref(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}
