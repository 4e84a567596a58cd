package overrides

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func evensongTable() *Table {
	return NewTable(map[string]Spec{
		"34": {
			DefaultThumbnail:          ptr("evensong.jpg"),
			DefaultFeaturedImageID:    ptr("6899"),
			DescribeServiceAs:         ptr("service of Choral Evensong"),
			ShowBCPReproductionNotice: ptr(true),
			YouTubePlaylists:          []string{"PLevensong"},
		},
		"9": {
			DefaultThumbnail:        ptr("wedding.jpg"),
			ExcludeYouTubePlaylists: []string{"PLdefault"},
		},
	})
}

func TestForUnknownCategoryIsEmpty(t *testing.T) {
	table := evensongTable()

	assert.False(t, table.Has("123"))
	assert.Equal(t, Override{}, table.For("123"))

	_, ok := table.DescribeServiceAs("123")
	assert.False(t, ok)
	_, ok = table.DefaultImage("")
	assert.False(t, ok)
	assert.False(t, table.ShowBCPReproductionNotice("123"))
}

func TestLookups(t *testing.T) {
	table := evensongTable()
	require.True(t, table.Has("34"))

	describe, ok := table.DescribeServiceAs("34")
	require.True(t, ok)
	assert.Equal(t, "service of Choral Evensong", describe)

	img, ok := table.DefaultImage("9")
	require.True(t, ok)
	assert.Equal(t, "wedding.jpg", img)

	id, ok := table.DefaultFeaturedImageID("34")
	require.True(t, ok)
	assert.Equal(t, "6899", id)

	assert.True(t, table.ShowBCPReproductionNotice("34"))
	assert.False(t, table.ShowBCPReproductionNotice("9"))
}

func TestPlaylistAdjustmentsDefaultToEmpty(t *testing.T) {
	add, exclude := evensongTable().PlaylistAdjustments("nope")
	assert.NotNil(t, add)
	assert.NotNil(t, exclude)
	assert.Empty(t, add)
	assert.Empty(t, exclude)

	add, exclude = evensongTable().PlaylistAdjustments("9")
	assert.Empty(t, add)
	assert.True(t, exclude.Has("PLdefault"))
}

func TestTableIsImmutable(t *testing.T) {
	specs := map[string]Spec{"1": {YouTubePlaylists: []string{"A"}, DescribeServiceAs: ptr("x")}}
	table := NewTable(specs)

	specs["1"].YouTubePlaylists[0] = "changed"
	*specs["1"].DescribeServiceAs = "changed"

	got := table.For("1")
	got.YouTubePlaylists["B"] = struct{}{}
	*got.DescribeServiceAs = "mutated"

	add, _ := table.PlaylistAdjustments("1")
	assert.Equal(t, []string{"A"}, add.Sorted())
	describe, _ := table.DescribeServiceAs("1")
	assert.Equal(t, "x", describe)
}

func TestNilTable(t *testing.T) {
	var table *Table
	assert.False(t, table.Has("1"))
	add, exclude := table.PlaylistAdjustments("1")
	assert.Empty(t, add)
	assert.Empty(t, exclude)
}

func TestPlaylistIDs(t *testing.T) {
	table := NewTable(map[string]Spec{
		"34": {YouTubePlaylists: []string{"PLb", "PLa"}},
		"35": {YouTubePlaylists: []string{"PLa"}},
		"9":  {ExcludeYouTubePlaylists: []string{"PLdefault"}},
	})
	assert.Equal(t, []string{"PLa", "PLb"}, table.PlaylistIDs())

	var empty *Table
	assert.Empty(t, empty.PlaylistIDs())
}

func TestExcludesDefaultPlaylist(t *testing.T) {
	table := NewTable(map[string]Spec{
		"9":  {ExcludeDefaultPlaylist: true},
		"34": {YouTubePlaylists: []string{"PLevensong"}},
	})
	assert.True(t, table.ExcludesDefaultPlaylist("9"))
	assert.True(t, table.For("9").ExcludeDefaultPlaylist)
	assert.False(t, table.ExcludesDefaultPlaylist("34"))
	assert.False(t, table.ExcludesDefaultPlaylist("nope"))

	var empty *Table
	assert.False(t, empty.ExcludesDefaultPlaylist("9"))
}
