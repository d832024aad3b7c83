package tasks

import (
	"sync"
	"time"

	"github.com/lysyi3m/atom-comb/app/database"
)

// MockFeedRepository records the calls the tasks make.
type MockFeedRepository struct {
	mu       sync.Mutex
	feeds    map[string]*database.Feed
	metadata map[string]database.FeedMetadata
	err      error
}

func NewMockFeedRepository() *MockFeedRepository {
	return &MockFeedRepository{
		feeds:    make(map[string]*database.Feed),
		metadata: make(map[string]database.FeedMetadata),
	}
}

func (m *MockFeedRepository) GetFeed(feedName string) (*database.Feed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.feeds[feedName], nil
}

func (m *MockFeedRepository) GetFeeds() ([]database.Feed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var feeds []database.Feed
	for _, f := range m.feeds {
		feeds = append(feeds, *f)
	}
	return feeds, m.err
}

func (m *MockFeedRepository) GetFeedCount() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.feeds), m.err
}

func (m *MockFeedRepository) UpsertFeed(feedName, feedURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.feeds[feedName] = &database.Feed{Name: feedName, FeedURL: feedURL}
	return nil
}

func (m *MockFeedRepository) UpdateFeedMetadata(feedName string, metadata database.FeedMetadata, nextFetch time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.metadata[feedName] = metadata
	if f, ok := m.feeds[feedName]; ok {
		f.NextFetchAt = &nextFetch
	}
	return nil
}

// MockItemRepository keeps items in memory, keyed by item ID.
type MockItemRepository struct {
	mu           sync.Mutex
	items        []database.Item
	filterErr    error
	extractCalls map[string]string
}

func NewMockItemRepository(items ...database.Item) *MockItemRepository {
	return &MockItemRepository{items: items, extractCalls: make(map[string]string)}
}

func (m *MockItemRepository) GetVisibleItems(feedName string, limit int) ([]database.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var visible []database.Item
	for _, item := range m.items {
		if !item.IsFiltered && len(visible) < limit {
			visible = append(visible, item)
		}
	}
	return visible, nil
}

func (m *MockItemRepository) GetAllItems(feedName string) ([]database.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]database.Item(nil), m.items...), nil
}

func (m *MockItemRepository) GetItemCount(feedName string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items), nil
}

func (m *MockItemRepository) GetItemStats(feedName string) (int, int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	filtered := 0
	for _, item := range m.items {
		if item.IsFiltered {
			filtered++
		}
	}
	return len(m.items), len(m.items) - filtered, filtered, nil
}

func (m *MockItemRepository) UpsertItem(feedName string, item database.FeedItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, database.Item{
		ID:           item.GUID,
		GUID:         item.GUID,
		Title:        item.Title,
		Link:         item.Link,
		IsFiltered:   item.IsFiltered,
		FilterReason: item.FilterReason,
		ContentHash:  item.ContentHash,
	})
	return nil
}

func (m *MockItemRepository) UpdateItemFilterStatus(itemID string, isFiltered bool, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.filterErr != nil {
		return m.filterErr
	}
	for i := range m.items {
		if m.items[i].ID == itemID {
			m.items[i].IsFiltered = isFiltered
			m.items[i].FilterReason = reason
		}
	}
	return nil
}

func (m *MockItemRepository) CheckDuplicate(feedName, contentHash string) (bool, *string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items {
		if item.ContentHash == contentHash {
			id := item.ID
			return true, &id, nil
		}
	}
	return false, nil, nil
}

func (m *MockItemRepository) GetItemsForExtraction(feedName string, limit int) ([]database.ItemForExtraction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var pending []database.ItemForExtraction
	for _, item := range m.items {
		if item.Link != "" && item.ContentExtractionStatus == "" {
			pending = append(pending, database.ItemForExtraction{ID: item.ID, Link: item.Link})
		}
	}
	return pending, nil
}

func (m *MockItemRepository) UpdateExtractionStatus(itemID string, status string, extractedAt *time.Time, errorMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extractCalls[itemID] = status
	return nil
}

func (m *MockItemRepository) UpdateExtractedContentAndStatus(itemID string, content string, status string, extractedAt *time.Time, errorMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extractCalls[itemID] = status
	for i := range m.items {
		if m.items[i].ID == itemID {
			m.items[i].Content = content
		}
	}
	return nil
}
