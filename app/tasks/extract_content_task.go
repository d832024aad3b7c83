package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lysyi3m/atom-comb/app/database"
	"github.com/lysyi3m/atom-comb/app/feed"
)

// ExtractContentTask replaces item content with the readable article
// fetched from each item's link.
type ExtractContentTask struct {
	Task
	FeedConfig       *feed.Config
	fetcher          *Fetcher
	contentExtractor *feed.ContentExtractor
	itemRepo         database.ItemRepository
}

func NewExtractContentTask(feedName string, feedConfig *feed.Config, fetcher *Fetcher, contentExtractor *feed.ContentExtractor, itemRepo database.ItemRepository) *ExtractContentTask {
	return &ExtractContentTask{
		Task:             NewTask(TaskTypeExtractContent, feedName),
		FeedConfig:       feedConfig,
		fetcher:          fetcher,
		contentExtractor: contentExtractor,
		itemRepo:         itemRepo,
	}
}

func (t *ExtractContentTask) Execute(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !t.FeedConfig.Settings.ExtractContent {
		slog.Debug("Content extraction disabled for feed", "feed", t.FeedName)
		return nil
	}

	items, err := t.itemRepo.GetItemsForExtraction(t.FeedName, t.FeedConfig.Settings.MaxItems)
	if err != nil {
		return fmt.Errorf("failed to get items for content extraction: %w", err)
	}

	if len(items) == 0 {
		slog.Debug("No items need content extraction", "feed", t.FeedName)
		return nil
	}

	successCount := 0
	errorCount := 0

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := t.extractContentForItem(ctx, item); err != nil {
			slog.Warn("Failed to extract content for item", "item_id", item.ID, "url", item.Link, "error", err)
			errorCount++

			now := time.Now().UTC()
			if err := t.itemRepo.UpdateExtractionStatus(item.ID, database.ExtractionFailed, &now, err.Error()); err != nil {
				slog.Error("Failed to update content extraction status", "item_id", item.ID, "error", err)
			}
			continue
		}
		successCount++
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"feed", t.FeedName,
		"duration", t.GetDuration(),
		"success", successCount,
		"errors", errorCount)

	return nil
}

func (t *ExtractContentTask) extractContentForItem(ctx context.Context, item database.ItemForExtraction) error {
	result, err := t.fetcher.Fetch(ctx, item.Link, time.Duration(t.FeedConfig.Settings.Timeout)*time.Second)
	if err != nil {
		return fmt.Errorf("failed to fetch article: %w", err)
	}

	if !strings.Contains(result.ContentType, "text/html") {
		return fmt.Errorf("content type is not HTML: %s", result.ContentType)
	}

	content, err := t.contentExtractor.Run(result.Data, item.Link)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if err := t.itemRepo.UpdateExtractedContentAndStatus(item.ID, content, database.ExtractionSuccess, &now, ""); err != nil {
		return fmt.Errorf("failed to store extracted content: %w", err)
	}

	slog.Debug("Content extracted", "item_id", item.ID, "url", item.Link, "content_length", len(content))
	return nil
}
