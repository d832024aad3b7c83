package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	version, dirty, err := RunMigrations(db)
	require.NoError(t, err)
	require.False(t, dirty)
	require.Equal(t, uint(2), version)

	return db
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	db := openTestDB(t)

	version, dirty, err := RunMigrations(db)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(2), version)
}

func TestFeedRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewFeedRepository(db)

	feed, err := repo.GetFeed("missing")
	require.NoError(t, err)
	assert.Nil(t, feed)

	require.NoError(t, repo.UpsertFeed("example", "https://example.com/feed.atom"))
	require.NoError(t, repo.UpsertFeed("other", "https://other.org/rss"))

	feed, err = repo.GetFeed("example")
	require.NoError(t, err)
	require.NotNil(t, feed)
	assert.NotEmpty(t, feed.ID)
	assert.Equal(t, "https://example.com/feed.atom", feed.FeedURL)
	assert.Nil(t, feed.NextFetchAt)
	assert.False(t, feed.CreatedAt.IsZero())

	updated := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	next := time.Now().Add(time.Hour)
	require.NoError(t, repo.UpdateFeedMetadata("example", FeedMetadata{
		Format:        "atom",
		Title:         "Example",
		Link:          "https://example.com/",
		Description:   "Subtitle",
		FeedUpdatedAt: &updated,
	}, next))

	feed, err = repo.GetFeed("example")
	require.NoError(t, err)
	assert.Equal(t, "atom", feed.Format)
	assert.Equal(t, "Example", feed.Title)
	require.NotNil(t, feed.FeedUpdatedAt)
	assert.True(t, feed.FeedUpdatedAt.Equal(updated))
	require.NotNil(t, feed.NextFetchAt)
	assert.WithinDuration(t, next, *feed.NextFetchAt, time.Second)
	assert.NotNil(t, feed.LastFetchedAt)

	// Same URL keeps the schedule, a new URL resets it.
	require.NoError(t, repo.UpsertFeed("example", "https://example.com/feed.atom"))
	feed, err = repo.GetFeed("example")
	require.NoError(t, err)
	assert.NotNil(t, feed.NextFetchAt)

	require.NoError(t, repo.UpsertFeed("example", "https://example.com/new.atom"))
	feed, err = repo.GetFeed("example")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/new.atom", feed.FeedURL)
	assert.Nil(t, feed.NextFetchAt)

	feeds, err := repo.GetFeeds()
	require.NoError(t, err)
	require.Len(t, feeds, 2)
	assert.Equal(t, "example", feeds[0].Name)
	assert.Equal(t, "other", feeds[1].Name)

	count, err := repo.GetFeedCount()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.Error(t, repo.UpdateFeedMetadata("missing", FeedMetadata{}, next))
}

func TestItemRepository(t *testing.T) {
	db := openTestDB(t)
	feeds := NewFeedRepository(db)
	repo := NewItemRepository(db)

	require.NoError(t, feeds.UpsertFeed("example", "https://example.com/feed.atom"))

	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.UpsertItem("example", FeedItem{
		GUID:        "urn:1",
		Title:       "First",
		Link:        "https://example.com/1",
		PublishedAt: older,
		Authors:     []string{"jane@example.com (Jane)"},
		Categories:  []string{"go", "atom"},
		ContentHash: "hash-1",
	}))
	require.NoError(t, repo.UpsertItem("example", FeedItem{
		GUID:         "urn:2",
		Title:        "Second",
		Link:         "https://example.com/2",
		PublishedAt:  newer,
		ContentHash:  "hash-2",
		IsFiltered:   true,
		FilterReason: "Excluded by title filter",
	}))

	assert.Error(t, repo.UpsertItem("missing", FeedItem{GUID: "x", ContentHash: "x"}))

	dup, id, err := repo.CheckDuplicate("example", "hash-1")
	require.NoError(t, err)
	assert.True(t, dup)
	require.NotNil(t, id)

	dup, _, err = repo.CheckDuplicate("example", "hash-3")
	require.NoError(t, err)
	assert.False(t, dup)

	visible, err := repo.GetVisibleItems("example", 10)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "urn:1", visible[0].GUID)
	assert.Equal(t, []string{"jane@example.com (Jane)"}, visible[0].Authors)
	assert.Equal(t, []string{"go", "atom"}, visible[0].Categories)
	assert.True(t, visible[0].PublishedAt.Equal(older))
	assert.Equal(t, ExtractionPending, visible[0].ContentExtractionStatus)

	all, err := repo.GetAllItems("example")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "urn:2", all[0].GUID, "newest first")
	assert.Equal(t, []string{}, all[0].Authors)

	total, visibleCount, filtered, err := repo.GetItemStats("example")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, visibleCount)
	assert.Equal(t, 1, filtered)

	require.NoError(t, repo.UpdateItemFilterStatus(all[0].ID, false, ""))
	visible, err = repo.GetVisibleItems("example", 10)
	require.NoError(t, err)
	assert.Len(t, visible, 2)

	// Upsert by guid updates in place.
	require.NoError(t, repo.UpsertItem("example", FeedItem{
		GUID:        "urn:1",
		Title:       "First (edited)",
		Link:        "https://example.com/1",
		PublishedAt: older,
		ContentHash: "hash-1b",
	}))
	count, err := repo.GetItemCount("example")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestItemRepositoryExtraction(t *testing.T) {
	db := openTestDB(t)
	feeds := NewFeedRepository(db)
	repo := NewItemRepository(db)

	require.NoError(t, feeds.UpsertFeed("example", "https://example.com/feed.atom"))
	for _, item := range []FeedItem{
		{GUID: "a", Link: "https://example.com/a", ContentHash: "a"},
		{GUID: "b", Link: "https://example.com/b", ContentHash: "b"},
		{GUID: "c", ContentHash: "c"},
	} {
		require.NoError(t, repo.UpsertItem("example", item))
	}

	pending, err := repo.GetItemsForExtraction("example", 10)
	require.NoError(t, err)
	require.Len(t, pending, 2, "items without a link are skipped")

	now := time.Now()
	byLink := map[string]string{}
	for _, item := range pending {
		byLink[item.Link] = item.ID
	}

	require.NoError(t, repo.UpdateExtractedContentAndStatus(byLink["https://example.com/a"], "<p>article</p>", ExtractionSuccess, &now, ""))
	for i := 0; i < MaxExtractionAttempts; i++ {
		require.NoError(t, repo.UpdateExtractionStatus(byLink["https://example.com/b"], ExtractionFailed, &now, "timeout"))
	}

	pending, err = repo.GetItemsForExtraction("example", 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	items, err := repo.GetAllItems("example")
	require.NoError(t, err)
	for _, item := range items {
		switch item.GUID {
		case "a":
			assert.Equal(t, "<p>article</p>", item.Content)
			assert.Equal(t, ExtractionSuccess, item.ContentExtractionStatus)
			assert.NotNil(t, item.ContentExtractedAt)
		case "b":
			assert.Equal(t, ExtractionFailed, item.ContentExtractionStatus)
			assert.Equal(t, MaxExtractionAttempts, item.ExtractionAttempts)
			assert.Equal(t, "timeout", item.ContentExtractionError)
		}
	}
}
