package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/atom-comb/app/database"
	"github.com/lysyi3m/atom-comb/app/feed"
)

// RefilterFeedTask reapplies the current filters to every stored item of a
// feed, so edited filters take effect without refetching.
type RefilterFeedTask struct {
	Task
	FeedConfig *feed.Config
	filterer   *feed.Filterer
	itemRepo   database.ItemRepository
}

func NewRefilterFeedTask(feedName string, feedConfig *feed.Config, filterer *feed.Filterer, itemRepo database.ItemRepository) *RefilterFeedTask {
	return &RefilterFeedTask{
		Task:       NewTask(TaskTypeRefilterFeed, feedName),
		FeedConfig: feedConfig,
		filterer:   filterer,
		itemRepo:   itemRepo,
	}
}

func (t *RefilterFeedTask) Execute(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	items, err := t.itemRepo.GetAllItems(t.FeedName)
	if err != nil {
		return fmt.Errorf("failed to get feed items: %w", err)
	}

	feedItems := make([]feed.Item, len(items))
	for i, item := range items {
		feedItems[i] = feed.Item{
			GUID:        item.GUID,
			Title:       item.Title,
			Link:        item.Link,
			Description: item.Description,
			Content:     item.Content,
			PublishedAt: item.PublishedAt,
			UpdatedAt:   item.UpdatedAt,
			Authors:     item.Authors,
			Categories:  item.Categories,
			ContentHash: item.ContentHash,
		}
	}

	// With no filters configured every item becomes visible again.
	refiltered := t.filterer.Run(feedItems, t.FeedConfig)

	updatedCount := 0
	errorCount := 0

	for i, item := range refiltered {
		stored := items[i]
		if stored.IsFiltered == item.IsFiltered && stored.FilterReason == item.FilterReason {
			continue
		}
		if err := t.itemRepo.UpdateItemFilterStatus(stored.ID, item.IsFiltered, item.FilterReason); err != nil {
			slog.Error("Failed to update item filter status", "item_id", stored.ID, "error", err)
			errorCount++
			continue
		}
		updatedCount++
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"feed", t.FeedName,
		"duration", t.GetDuration(),
		"updated", updatedCount,
		"errors", errorCount)

	if errorCount > 0 {
		return fmt.Errorf("failed to update %d of %d items", errorCount, len(items))
	}
	return nil
}
