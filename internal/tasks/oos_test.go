package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whitkirk-services/internal/airtable"
	"whitkirk-services/internal/record"
	"whitkirk-services/internal/wordpress"
)

func TestOrdersOfServiceCreates(t *testing.T) {
	h := newHarness(t, rec("rec1", "2022-01-01T10:00:00.000Z", map[record.Field]any{
		record.CategoryID: "34",
		record.Streaming:  "Yes",
		record.YouTubeID:  "vid1",
	}))

	report, err := h.runner.OrdersOfService(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, ActionCreated, report.Outcomes[0].Action)
	assert.NoError(t, report.Err())
	assert.Equal(t, []airtable.Query{airtable.UpcomingWithOrderOfService}, h.records.queries)

	require.Len(t, h.cms.saves, 1)
	saved := h.cms.saves[0]
	assert.Equal(t, wordpress.OrderOfServiceType, saved.postType)
	assert.Equal(t, "", saved.id)
	assert.Equal(t, "draft", saved.doc.Status)
	assert.Equal(t, "Choral Evensong", saved.doc.Title)
	assert.Equal(t, "2021-12-31T10:00:00+00:00", saved.doc.Date)
	assert.Equal(t, "A service of Choral Evensong streamed live from St Mary's Church, Whitkirk.", saved.doc.Excerpt)
	assert.Equal(t, 6899, saved.doc.FeaturedMedia)
	assert.Equal(t, "2022-01-01 10:00:00", saved.doc.ACF.Datetime)
	assert.True(t, saved.doc.ACF.Physical)
	assert.True(t, saved.doc.ACF.ShowBCPReproductionNotice)
	assert.Equal(t, "vid1", saved.doc.ACF.YouTube)
	assert.Equal(t, ptr(true), saved.doc.ACF.Streamed)

	assert.Equal(t, []fieldUpdate{
		{id: "rec1", values: map[record.Field]any{record.WordPressImageID: "6899"}},
		{id: "rec1", values: map[record.Field]any{record.OrderOfServiceID: "101"}},
	}, h.records.updates)
}

func TestOrdersOfServiceUpdatesExisting(t *testing.T) {
	h := newHarness(t, rec("rec1", "2022-01-01T10:00:00.000Z", map[record.Field]any{
		record.OrderOfServiceID: "55",
		record.WordPressImageID: "1",
	}))

	report, err := h.runner.OrdersOfService(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, ActionUpdated, report.Outcomes[0].Action)

	require.Len(t, h.cms.saves, 1)
	assert.Equal(t, "55", h.cms.saves[0].id)
	assert.Empty(t, h.cms.saves[0].doc.Status)
	assert.Equal(t, ptr(false), h.cms.saves[0].doc.ACF.Streamed)
	assert.Empty(t, h.cms.saves[0].doc.ACF.YouTube)

	// The record already holds the featured image id, so only the document id is written back.
	assert.Equal(t, []fieldUpdate{
		{id: "rec1", values: map[record.Field]any{record.OrderOfServiceID: "55"}},
	}, h.records.updates)
}

func TestOrdersOfServiceStreamingWithoutVideoOmitsStreamed(t *testing.T) {
	h := newHarness(t, rec("rec1", "2022-01-01T10:00:00.000Z", map[record.Field]any{record.Streaming: "Yes"}))

	_, err := h.runner.OrdersOfService(context.Background(), true)
	require.NoError(t, err)
	assert.Nil(t, h.cms.saves[0].doc.ACF.Streamed)
}

func TestOrdersOfServiceChainsPublishDates(t *testing.T) {
	h := newHarness(t,
		rec("rec1", "2022-01-01T10:00:00.000Z", nil),
		rec("rec2", "2022-01-01T18:00:00.000Z", nil),
		rec("rec3", "2022-01-05T18:00:00.000Z", nil),
	)

	_, err := h.runner.OrdersOfService(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, h.cms.saves, 3)
	assert.Equal(t, "2021-12-31T10:00:00+00:00", h.cms.saves[0].doc.Date)
	assert.Equal(t, "2022-01-01T11:00:00+00:00", h.cms.saves[1].doc.Date)
	assert.Equal(t, "2022-01-04T18:00:00+00:00", h.cms.saves[2].doc.Date)
}

func TestOrdersOfServiceContinuesAfterBadRecord(t *testing.T) {
	bad := rec("bad", "2022-01-01T10:00:00.000Z", nil)
	delete(bad.Fields, record.MustExternalName(record.Slug))

	h := newHarness(t,
		bad,
		rec("rec2", "2022-01-01T18:00:00.000Z", nil),
	)

	report, err := h.runner.OrdersOfService(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, ActionFailed, report.Outcomes[0].Action)
	assert.ErrorIs(t, report.Outcomes[0].Err, record.ErrMissingField)
	assert.Equal(t, 1, report.Failed())
	assert.ErrorIs(t, report.Err(), record.ErrMissingField)

	// The failed record is not a publish-chaining predecessor.
	require.Len(t, h.cms.saves, 1)
	assert.Equal(t, "2021-12-31T18:00:00+00:00", h.cms.saves[0].doc.Date)
}

func TestOrdersOfServiceSaveError(t *testing.T) {
	h := newHarness(t,
		rec("rec1", "2022-01-01T10:00:00.000Z", nil),
		rec("rec2", "2022-01-02T10:00:00.000Z", nil),
	)
	h.cms.saveErr = errors.New("cms down")

	report, err := h.runner.OrdersOfService(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Failed())
}

func TestOrdersOfServiceListError(t *testing.T) {
	h := newHarness(t)
	h.records.err = errors.New("unauthorized")

	_, err := h.runner.OrdersOfService(context.Background(), true)
	require.Error(t, err)
}

func TestOrdersOfServicePreviewWritesNothing(t *testing.T) {
	h := newHarness(t,
		rec("rec1", "2022-01-01T10:00:00.000Z", map[record.Field]any{
			record.OrderOfServiceID: "55",
			record.CategoryID:       "34",
		}),
		rec("rec2", "2022-01-02T10:00:00.000Z", map[record.Field]any{record.Image: attachment("flowers.jpg")}),
	)
	h.cms.posts = map[string]wordpress.Post{
		"55": {ID: 55, Excerpt: wordpress.Rendered{Rendered: "<p>An old excerpt.</p>\n"}},
	}

	report, err := h.runner.OrdersOfService(context.Background(), false)
	require.NoError(t, err)

	for _, o := range report.Outcomes {
		assert.Equal(t, ActionPreview, o.Action)
	}
	assert.Contains(t, report.Outcomes[0].Notes, `excerpt changes from "An old excerpt."`)
	assert.Contains(t, report.Outcomes[1].Notes, "would upload flowers.jpg")

	assert.Empty(t, h.cms.saves)
	assert.Empty(t, h.cms.uploads)
	assert.Empty(t, h.cms.mediaUpdates)
	assert.Empty(t, h.records.updates)
	assert.Empty(t, h.downloader.urls)
}

func TestFeaturedImageUploadsNewServiceImage(t *testing.T) {
	h := newHarness(t, rec("rec1", "2022-01-01T10:00:00.000Z", map[record.Field]any{
		record.Image: attachment("flowers.jpg"),
	}))
	h.runner.DefaultFeaturedImageID = ""

	_, err := h.runner.OrdersOfService(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://cdn.example/flowers.jpg"}, h.downloader.urls)
	require.Len(t, h.cms.uploads, 1)
	up := h.cms.uploads[0]
	assert.Equal(t, "images/service_specific/flowers.jpg", up.Path)
	assert.Equal(t, "flowers", up.Slug)
	assert.Equal(t, "image/jpeg", up.ContentType)
	assert.Equal(t, "Featured image for Choral Evensong: 1 January 2022", up.Title)
	assert.Empty(t, h.cms.deletes)

	assert.Equal(t, 701, h.cms.saves[0].doc.FeaturedMedia)
	assert.Equal(t, map[record.Field]any{
		record.WordPressImageID:               "701",
		record.WordPressImageLastUploadedName: "flowers.jpg",
	}, h.records.updates[0].values)
}

func TestFeaturedImageRefreshesUnchangedImage(t *testing.T) {
	h := newHarness(t, rec("rec1", "2022-01-01T10:00:00.000Z", map[record.Field]any{
		record.Image:                          attachment("flowers.jpg"),
		record.WordPressImageID:               "88",
		record.WordPressImageLastUploadedName: "flowers.jpg",
		record.OrderOfServiceID:               "55",
	}))

	_, err := h.runner.OrdersOfService(context.Background(), true)
	require.NoError(t, err)

	assert.Empty(t, h.cms.uploads)
	assert.Empty(t, h.downloader.urls)
	assert.Equal(t, map[string]wordpress.MediaMeta{
		"88": {Title: "Featured image for Choral Evensong: 1 January 2022", Post: 55},
	}, h.cms.mediaUpdates)
	assert.Equal(t, 88, h.cms.saves[0].doc.FeaturedMedia)
}

func TestFeaturedImageReplacesChangedImage(t *testing.T) {
	h := newHarness(t, rec("rec1", "2022-01-01T10:00:00.000Z", map[record.Field]any{
		record.Image:                          attachment("lilies.jpg"),
		record.WordPressImageID:               "88",
		record.WordPressImageLastUploadedName: "flowers.jpg",
	}))

	_, err := h.runner.OrdersOfService(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, []string{"88"}, h.cms.deletes)
	require.Len(t, h.cms.uploads, 1)
	assert.Empty(t, h.cms.uploads[0].Slug)
	assert.Equal(t, 701, h.cms.saves[0].doc.FeaturedMedia)
}

func TestFeaturedImageKeepsSharedDefault(t *testing.T) {
	h := newHarness(t, rec("rec1", "2022-01-01T10:00:00.000Z", map[record.Field]any{
		record.Image:      attachment("lilies.jpg"),
		record.CategoryID: "34",
	}))

	_, err := h.runner.OrdersOfService(context.Background(), true)
	require.NoError(t, err)

	assert.Empty(t, h.cms.deletes)
	require.Len(t, h.cms.uploads, 1)
}

func TestFeaturedImageRejectsBadID(t *testing.T) {
	h := newHarness(t, rec("rec1", "2022-01-01T10:00:00.000Z", map[record.Field]any{
		record.WordPressImageID: "not-a-number",
	}))

	report, err := h.runner.OrdersOfService(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed())
	assert.Empty(t, h.cms.saves)
}

func TestOrdersOfServicePreviewIgnoresTypographicQuotes(t *testing.T) {
	h := newHarness(t, rec("rec1", "2022-01-01T10:00:00.000Z", map[record.Field]any{
		record.OrderOfServiceID: "55",
		record.WordPressImageID: "1",
	}))
	h.cms.posts = map[string]wordpress.Post{
		"55": {ID: 55, Excerpt: wordpress.Rendered{Rendered: "<p>A service streamed live from St Mary&#8217;s Church, Whitkirk.</p>\n"}},
	}

	report, err := h.runner.OrdersOfService(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, []string{"would update order of service 55"}, report.Outcomes[0].Notes)
}
