package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/atom-comb/app/database"
	"github.com/lysyi3m/atom-comb/app/feed"
)

// ProcessFeedTask fetches a feed document, normalizes it, drops items seen
// before, applies filters and stores the rest.
type ProcessFeedTask struct {
	Task
	FeedConfig *feed.Config
	fetcher    *Fetcher
	parser     *feed.Parser
	filterer   *feed.Filterer
	feedRepo   database.FeedRepository
	itemRepo   database.ItemRepository
}

func NewProcessFeedTask(feedName string, feedConfig *feed.Config, fetcher *Fetcher, parser *feed.Parser, filterer *feed.Filterer, feedRepo database.FeedRepository, itemRepo database.ItemRepository) *ProcessFeedTask {
	return &ProcessFeedTask{
		Task:       NewTask(TaskTypeProcessFeed, feedName),
		FeedConfig: feedConfig,
		fetcher:    fetcher,
		parser:     parser,
		filterer:   filterer,
		feedRepo:   feedRepo,
		itemRepo:   itemRepo,
	}
}

func (t *ProcessFeedTask) Execute(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !t.FeedConfig.Settings.Enabled {
		slog.Debug("Feed disabled, skipping", "feed", t.FeedName)
		return nil
	}

	result, err := t.fetcher.Fetch(ctx, t.FeedConfig.URL, time.Duration(t.FeedConfig.Settings.Timeout)*time.Second)
	if err != nil {
		return fmt.Errorf("failed to fetch feed: %w", err)
	}

	metadata, items, err := t.parser.Run(result.Data, t.FeedConfig.Settings.SanitizeEnabled())
	if err != nil {
		return fmt.Errorf("failed to parse feed: %w", err)
	}

	if err := t.storeFeedMetadata(metadata); err != nil {
		return err
	}

	if limit := t.FeedConfig.Settings.MaxItems; limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	duplicateCount := 0
	filteredCount := 0
	newCount := 0

	var fresh []feed.Item
	for _, item := range items {
		isDuplicate, _, err := t.itemRepo.CheckDuplicate(t.FeedName, item.ContentHash)
		if err != nil {
			return fmt.Errorf("failed to check for duplicates: %w", err)
		}
		if isDuplicate {
			duplicateCount++
			continue
		}
		fresh = append(fresh, item)
	}

	if len(fresh) > 0 {
		fresh = t.filterer.Run(fresh, t.FeedConfig)
		for _, item := range fresh {
			if item.IsFiltered {
				filteredCount++
			} else {
				newCount++
			}
		}

		if err := t.storeItems(fresh); err != nil {
			return err
		}
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"feed", t.FeedName,
		"format", metadata.Format,
		"duration", t.GetDuration(),
		"total", len(items),
		"duplicates", duplicateCount,
		"filtered", filteredCount,
		"new", newCount)

	return nil
}

func (t *ProcessFeedTask) storeFeedMetadata(metadata *feed.Metadata) error {
	nextFetch := time.Now().UTC().Add(time.Duration(t.FeedConfig.Settings.RefreshInterval) * time.Second)

	err := t.feedRepo.UpdateFeedMetadata(t.FeedName, database.FeedMetadata{
		Format:        metadata.Format,
		Title:         metadata.Title,
		Link:          metadata.Link,
		Description:   metadata.Description,
		ImageURL:      metadata.ImageURL,
		Language:      metadata.Language,
		FeedUpdatedAt: metadata.FeedUpdatedAt,
	}, nextFetch)
	if err != nil {
		return fmt.Errorf("failed to store feed metadata: %w", err)
	}
	return nil
}

func (t *ProcessFeedTask) storeItems(items []feed.Item) error {
	for _, item := range items {
		err := t.itemRepo.UpsertItem(t.FeedName, database.FeedItem{
			GUID:            item.GUID,
			Link:            item.Link,
			Title:           item.Title,
			Description:     item.Description,
			Content:         item.Content,
			PublishedAt:     item.PublishedAt,
			UpdatedAt:       item.UpdatedAt,
			Authors:         item.Authors,
			Categories:      item.Categories,
			IsFiltered:      item.IsFiltered,
			FilterReason:    item.FilterReason,
			ContentHash:     item.ContentHash,
			EnclosureURL:    item.EnclosureURL,
			EnclosureLength: item.EnclosureLength,
			EnclosureType:   item.EnclosureType,
		})
		if err != nil {
			return fmt.Errorf("failed to store item %s: %w", item.GUID, err)
		}
	}
	return nil
}
