package tasks

import (
	"context"
	"io"
	"strconv"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"whitkirk-services/internal/airtable"
	"whitkirk-services/internal/overrides"
	"whitkirk-services/internal/record"
	"whitkirk-services/internal/service"
	"whitkirk-services/internal/thumbnail"
	"whitkirk-services/internal/wordpress"
	"whitkirk-services/internal/youtube"
)

type fieldUpdate struct {
	id     string
	values map[record.Field]any
}

type fakeRecords struct {
	recs    []record.Record
	err     error
	queries []airtable.Query
	updates []fieldUpdate
}

func (f *fakeRecords) All(_ context.Context, q airtable.Query) ([]record.Record, error) {
	f.queries = append(f.queries, q)
	return f.recs, f.err
}

func (f *fakeRecords) UpdateFields(_ context.Context, id string, values map[record.Field]any) (record.Record, error) {
	f.updates = append(f.updates, fieldUpdate{id: id, values: values})
	return record.Record{ID: id, Fields: record.Fields(values)}, nil
}

type savedDoc struct {
	postType string
	id       string
	doc      wordpress.Document
}

type fakeCMS struct {
	nextID       int
	saves        []savedDoc
	saveErr      error
	posts        map[string]wordpress.Post
	uploads      []wordpress.Upload
	mediaUpdates map[string]wordpress.MediaMeta
	deletes      []string
}

func (f *fakeCMS) Save(_ context.Context, postType, id string, doc wordpress.Document) (wordpress.Post, error) {
	if f.saveErr != nil {
		return wordpress.Post{}, f.saveErr
	}
	f.saves = append(f.saves, savedDoc{postType: postType, id: id, doc: doc})
	if id == "" {
		f.nextID++
		return wordpress.Post{ID: f.nextID, Slug: doc.Slug}, nil
	}
	n, _ := strconv.Atoi(id)
	return wordpress.Post{ID: n, Slug: doc.Slug}, nil
}

func (f *fakeCMS) Get(_ context.Context, _, id string) (wordpress.Post, error) {
	return f.posts[id], nil
}

func (f *fakeCMS) UploadMedia(_ context.Context, u wordpress.Upload) (wordpress.Media, error) {
	f.uploads = append(f.uploads, u)
	return wordpress.Media{ID: 700 + len(f.uploads)}, nil
}

func (f *fakeCMS) UpdateMedia(_ context.Context, id string, meta wordpress.MediaMeta) error {
	if f.mediaUpdates == nil {
		f.mediaUpdates = map[string]wordpress.MediaMeta{}
	}
	f.mediaUpdates[id] = meta
	return nil
}

func (f *fakeCMS) DeleteMedia(_ context.Context, id string) error {
	f.deletes = append(f.deletes, id)
	return nil
}

type fakeVideos struct {
	updates    []youtube.VideoUpdate
	thumbnails map[string]string
	inserts    []string
}

func (f *fakeVideos) UpdateVideo(_ context.Context, u youtube.VideoUpdate) error {
	f.updates = append(f.updates, u)
	return nil
}

func (f *fakeVideos) SetThumbnail(_ context.Context, videoID, path string) error {
	if f.thumbnails == nil {
		f.thumbnails = map[string]string{}
	}
	f.thumbnails[videoID] = path
	return nil
}

func (f *fakeVideos) InsertPlaylistItem(_ context.Context, playlistID, videoID string) error {
	f.inserts = append(f.inserts, playlistID+"/"+videoID)
	return nil
}

type fakePlaylists struct {
	members map[string]bool
	added   []string
}

func (f *fakePlaylists) Contains(_ context.Context, playlistID, videoID string) (bool, error) {
	return f.members[playlistID+"/"+videoID], nil
}

func (f *fakePlaylists) Add(playlistID, videoID string) {
	f.added = append(f.added, playlistID+"/"+videoID)
}

type fakeThumbnails struct {
	existing map[string]bool
	inputs   []thumbnail.Inputs
}

func (f *fakeThumbnails) Ensure(_ context.Context, in thumbnail.Inputs) (thumbnail.Result, error) {
	f.inputs = append(f.inputs, in)
	key := thumbnail.Key(in)
	return thumbnail.Result{Key: key, Path: thumbnail.Path("generated", key), Generated: !f.existing[key]}, nil
}

type fakeDownloader struct {
	urls []string
}

func (f *fakeDownloader) Download(_ context.Context, url, dest string) (service.Transfer, error) {
	f.urls = append(f.urls, url)
	return service.Transfer{Path: dest, ContentType: "image/jpeg"}, nil
}

const (
	defaultPlaylist  = "PLdefault"
	evensongPlaylist = "PLevensong"
)

type harness struct {
	runner     *Runner
	records    *fakeRecords
	cms        *fakeCMS
	videos     *fakeVideos
	playlists  *fakePlaylists
	thumbnails *fakeThumbnails
	downloader *fakeDownloader
}

func newHarness(t *testing.T, recs ...record.Record) *harness {
	t.Helper()
	engine, err := service.NewEngine(service.Settings{
		DefaultPlaylistID: defaultPlaylist,
		Overrides: overrides.NewTable(map[string]overrides.Spec{
			"34": {
				DefaultThumbnail:          ptr("evensong.jpg"),
				DefaultFeaturedImageID:    ptr("6899"),
				DescribeServiceAs:         ptr("service of Choral Evensong"),
				ShowBCPReproductionNotice: ptr(true),
				YouTubePlaylists:          []string{evensongPlaylist},
			},
			"9": {ExcludeDefaultPlaylist: true},
		}),
	})
	require.NoError(t, err)

	h := &harness{
		records:    &fakeRecords{recs: recs},
		cms:        &fakeCMS{nextID: 100},
		videos:     &fakeVideos{},
		playlists:  &fakePlaylists{members: map[string]bool{}},
		thumbnails: &fakeThumbnails{existing: map[string]bool{}},
		downloader: &fakeDownloader{},
	}
	h.runner = &Runner{
		Engine:                 engine,
		Records:                h.records,
		CMS:                    h.cms,
		Videos:                 h.videos,
		Playlists:              h.playlists,
		Generator:              h.thumbnails,
		Downloader:             h.downloader,
		Logger:                 log.New(io.Discard),
		DefaultFeaturedImageID: "1",
	}
	return h
}

// rec builds a record with the mandatory fields plus extra.
func rec(id, datetime string, extra map[record.Field]any) record.Record {
	values := map[record.Field]any{
		record.Datetime: datetime,
		record.Name:     "Choral Evensong",
		record.Slug:     "evensong-" + id,
		record.Type:     "Regular Service",
	}
	for k, v := range extra {
		values[k] = v
	}
	return record.Record{ID: id, Fields: record.Fields(values)}
}

func attachment(name string) []any {
	return []any{map[string]any{"id": "att1", "url": "https://cdn.example/" + name, "filename": name}}
}

func ptr[T any](v T) *T {
	return &v
}
