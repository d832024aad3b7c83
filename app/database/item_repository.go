package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ ItemRepository = (*SQLItemRepository)(nil)

type SQLItemRepository struct {
	db *DB
}

func NewItemRepository(db *DB) *SQLItemRepository {
	return &SQLItemRepository{db: db}
}

const itemColumns = `i.id, i.feed_id, i.guid, i.link, i.title, i.description, i.content,
	i.published_at, i.updated_at, i.authors, i.categories, i.is_filtered, i.filter_reason,
	i.content_hash, i.created_at, i.content_extracted_at, i.content_extraction_status,
	i.content_extraction_error, i.extraction_attempts, i.enclosure_url, i.enclosure_length,
	i.enclosure_type`

func (r *SQLItemRepository) CheckDuplicate(feedName, contentHash string) (bool, *string, error) {
	var duplicateID string
	err := r.db.QueryRow(`
		SELECT i.id FROM feed_items i
		JOIN feeds f ON f.id = i.feed_id
		WHERE f.name = ? AND i.content_hash = ?
		LIMIT 1
	`, feedName, contentHash).Scan(&duplicateID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, fmt.Errorf("failed to check duplicate: %w", err)
	}
	return true, &duplicateID, nil
}

// UpsertItem stores an item keyed by (feed, guid). Extraction state of an
// existing row is left alone.
func (r *SQLItemRepository) UpsertItem(feedName string, item FeedItem) error {
	authors, err := encodeList(item.Authors)
	if err != nil {
		return fmt.Errorf("failed to encode authors: %w", err)
	}
	categories, err := encodeList(item.Categories)
	if err != nil {
		return fmt.Errorf("failed to encode categories: %w", err)
	}

	publishedAt := item.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = time.Now()
	}

	result, err := r.db.Exec(`
		INSERT INTO feed_items (
			id, feed_id, guid, link, title, description, content,
			published_at, updated_at, authors, categories, is_filtered, filter_reason,
			content_hash, enclosure_url, enclosure_length, enclosure_type, created_at
		)
		SELECT ?, f.id, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		FROM feeds f WHERE f.name = ?
		ON CONFLICT (feed_id, guid) DO UPDATE SET
			link = excluded.link,
			title = excluded.title,
			description = excluded.description,
			content = excluded.content,
			updated_at = excluded.updated_at,
			authors = excluded.authors,
			categories = excluded.categories,
			is_filtered = excluded.is_filtered,
			filter_reason = excluded.filter_reason,
			content_hash = excluded.content_hash,
			enclosure_url = excluded.enclosure_url,
			enclosure_length = excluded.enclosure_length,
			enclosure_type = excluded.enclosure_type
	`, uuid.NewString(), item.GUID, item.Link, item.Title, item.Description, item.Content,
		publishedAt.UTC(), utcPtr(item.UpdatedAt), authors, categories, item.IsFiltered, item.FilterReason,
		item.ContentHash, item.EnclosureURL, item.EnclosureLength, item.EnclosureType, time.Now().UTC(),
		feedName)
	if err != nil {
		return fmt.Errorf("failed to upsert item: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("feed '%s' not found", feedName)
	}
	return nil
}

// GetVisibleItems returns unfiltered items, newest first.
func (r *SQLItemRepository) GetVisibleItems(feedName string, limit int) ([]Item, error) {
	return r.queryItems(`
		SELECT `+itemColumns+` FROM feed_items i
		JOIN feeds f ON f.id = i.feed_id
		WHERE f.name = ? AND i.is_filtered = 0
		ORDER BY i.published_at DESC
		LIMIT ?
	`, feedName, limit)
}

// GetAllItems returns every item of a feed, filtered ones included.
func (r *SQLItemRepository) GetAllItems(feedName string) ([]Item, error) {
	return r.queryItems(`
		SELECT `+itemColumns+` FROM feed_items i
		JOIN feeds f ON f.id = i.feed_id
		WHERE f.name = ?
		ORDER BY i.published_at DESC
	`, feedName)
}

func (r *SQLItemRepository) GetItemCount(feedName string) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM feed_items i
		JOIN feeds f ON f.id = i.feed_id
		WHERE f.name = ?
	`, feedName).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get item count: %w", err)
	}
	return count, nil
}

// GetItemStats returns the total, visible and filtered item counts.
func (r *SQLItemRepository) GetItemStats(feedName string) (int, int, int, error) {
	var total, visible, filtered int
	err := r.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN i.is_filtered = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN i.is_filtered = 1 THEN 1 ELSE 0 END), 0)
		FROM feed_items i
		JOIN feeds f ON f.id = i.feed_id
		WHERE f.name = ?
	`, feedName).Scan(&total, &visible, &filtered)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to get item stats: %w", err)
	}
	return total, visible, filtered, nil
}

func (r *SQLItemRepository) UpdateItemFilterStatus(itemID string, isFiltered bool, reason string) error {
	_, err := r.db.Exec(`UPDATE feed_items SET is_filtered = ?, filter_reason = ? WHERE id = ?`,
		isFiltered, reason, itemID)
	if err != nil {
		return fmt.Errorf("failed to update item filter status: %w", err)
	}
	return nil
}

// GetItemsForExtraction lists visible items with a link whose article has
// not been extracted yet, including failures with attempts left.
func (r *SQLItemRepository) GetItemsForExtraction(feedName string, limit int) ([]ItemForExtraction, error) {
	rows, err := r.db.Query(`
		SELECT i.id, i.link FROM feed_items i
		JOIN feeds f ON f.id = i.feed_id
		WHERE f.name = ?
		  AND i.is_filtered = 0
		  AND i.link != ''
		  AND (i.content_extraction_status = ?
		       OR (i.content_extraction_status = ? AND i.extraction_attempts < ?))
		ORDER BY i.published_at DESC
		LIMIT ?
	`, feedName, ExtractionPending, ExtractionFailed, MaxExtractionAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get items for extraction: %w", err)
	}
	defer rows.Close()

	var items []ItemForExtraction
	for rows.Next() {
		var item ItemForExtraction
		if err := rows.Scan(&item.ID, &item.Link); err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}

	return items, nil
}

func (r *SQLItemRepository) UpdateExtractionStatus(itemID string, status string, extractedAt *time.Time, errorMsg string) error {
	_, err := r.db.Exec(`
		UPDATE feed_items
		SET content_extraction_status = ?, content_extracted_at = ?, content_extraction_error = ?,
		    extraction_attempts = extraction_attempts + 1
		WHERE id = ?
	`, status, utcPtr(extractedAt), errorMsg, itemID)
	if err != nil {
		return fmt.Errorf("failed to update extraction status: %w", err)
	}
	return nil
}

func (r *SQLItemRepository) UpdateExtractedContentAndStatus(itemID string, content string, status string, extractedAt *time.Time, errorMsg string) error {
	_, err := r.db.Exec(`
		UPDATE feed_items
		SET content = ?, content_extraction_status = ?, content_extracted_at = ?, content_extraction_error = ?,
		    extraction_attempts = extraction_attempts + 1
		WHERE id = ?
	`, content, status, utcPtr(extractedAt), errorMsg, itemID)
	if err != nil {
		return fmt.Errorf("failed to update extracted content: %w", err)
	}
	return nil
}

func (r *SQLItemRepository) queryItems(query string, args ...any) ([]Item, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		var updatedAt, extractedAt sql.NullTime
		var authors, categories string
		err := rows.Scan(
			&item.ID, &item.FeedID, &item.GUID, &item.Link, &item.Title, &item.Description, &item.Content,
			&item.PublishedAt, &updatedAt, &authors, &categories, &item.IsFiltered, &item.FilterReason,
			&item.ContentHash, &item.CreatedAt, &extractedAt, &item.ContentExtractionStatus,
			&item.ContentExtractionError, &item.ExtractionAttempts, &item.EnclosureURL, &item.EnclosureLength,
			&item.EnclosureType,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		item.UpdatedAt = nullTime(updatedAt)
		item.ContentExtractedAt = nullTime(extractedAt)
		if item.Authors, err = decodeList(authors); err != nil {
			return nil, fmt.Errorf("failed to decode authors of item %s: %w", item.ID, err)
		}
		if item.Categories, err = decodeList(categories); err != nil {
			return nil, fmt.Errorf("failed to decode categories of item %s: %w", item.ID, err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}

	return items, nil
}

func encodeList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeList(s string) ([]string, error) {
	values := []string{}
	if s == "" {
		return values, nil
	}
	if err := json.Unmarshal([]byte(s), &values); err != nil {
		return nil, err
	}
	return values, nil
}
