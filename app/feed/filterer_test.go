package feed

import (
	"strings"
	"testing"
)

func TestFilterer_NoFilters(t *testing.T) {
	filterer := NewFilterer()

	items := []Item{
		{Title: "Entry 1", Description: "Summary"},
		{Title: "Entry 2", Description: "Another summary"},
	}

	result := filterer.Run(items, &Config{})

	if len(result) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(result))
	}
	for i, item := range result {
		if item.IsFiltered || item.FilterReason != "" {
			t.Errorf("Item %d should not be filtered when no filters are configured", i)
		}
	}
}

func TestFilterer_Run(t *testing.T) {
	tests := []struct {
		name     string
		filters  []ConfigFilter
		item     Item
		filtered bool
	}{
		{
			name:     "include matches",
			filters:  []ConfigFilter{{Field: "title", Includes: []string{"atom", "rss"}}},
			item:     Item{Title: "Atom 1.0 released"},
			filtered: false,
		},
		{
			name:     "include misses",
			filters:  []ConfigFilter{{Field: "title", Includes: []string{"atom"}}},
			item:     Item{Title: "Weather report"},
			filtered: true,
		},
		{
			name:     "exclude matches",
			filters:  []ConfigFilter{{Field: "content", Excludes: []string{"sponsored"}}},
			item:     Item{Content: "<p>This post is SPONSORED by</p>"},
			filtered: true,
		},
		{
			name:     "exclude wins over include",
			filters:  []ConfigFilter{{Field: "title", Includes: []string{"go"}, Excludes: []string{"ad"}}},
			item:     Item{Title: "Go ad"},
			filtered: true,
		},
		{
			name: "every filter must pass",
			filters: []ConfigFilter{
				{Field: "title", Includes: []string{"go"}},
				{Field: "categories", Excludes: []string{"jobs"}},
			},
			item:     Item{Title: "Go 1.24", Categories: []string{"releases", "jobs"}},
			filtered: true,
		},
		{
			name:     "authors joined",
			filters:  []ConfigFilter{{Field: "authors", Excludes: []string{"spam@example.com"}}},
			item:     Item{Authors: []string{"jane@example.com (Jane)", "spam@example.com (Bot)"}},
			filtered: true,
		},
		{
			name:     "guid",
			filters:  []ConfigFilter{{Field: "guid", Includes: []string{"tag:example.org"}}},
			item:     Item{GUID: "tag:example.org,2003:3.2397"},
			filtered: false,
		},
		{
			name:     "unknown field never includes",
			filters:  []ConfigFilter{{Field: "unknown", Includes: []string{"x"}}},
			item:     Item{Title: "x"},
			filtered: true,
		},
	}

	filterer := NewFilterer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := filterer.Run([]Item{tt.item}, &Config{Filters: tt.filters})
			if len(result) != 1 {
				t.Fatalf("Expected 1 item, got %d", len(result))
			}
			if result[0].IsFiltered != tt.filtered {
				t.Errorf("Expected filtered %v, got %v (%s)", tt.filtered, result[0].IsFiltered, result[0].FilterReason)
			}
			if tt.filtered && result[0].FilterReason == "" {
				t.Error("Expected a filter reason")
			}
		})
	}
}

func TestFilterer_ReasonNamesField(t *testing.T) {
	filterer := NewFilterer()
	config := &Config{Filters: []ConfigFilter{{Field: "link", Excludes: []string{"/ads/"}}}}

	result := filterer.Run([]Item{{Link: "https://example.com/ads/1"}}, config)

	if !strings.Contains(result[0].FilterReason, "link filter") {
		t.Errorf("Expected reason to name the link filter, got '%s'", result[0].FilterReason)
	}
}

func TestFilterer_PreservesItemData(t *testing.T) {
	filterer := NewFilterer()
	original := Item{GUID: "urn:1", Title: "Drop me", ContentHash: "abc", EnclosureURL: "https://example.com/a.mp3"}
	config := &Config{Filters: []ConfigFilter{{Field: "title", Excludes: []string{"drop"}}}}

	result := filterer.Run([]Item{original}, config)

	got := result[0]
	if got.GUID != original.GUID || got.ContentHash != original.ContentHash || got.EnclosureURL != original.EnclosureURL {
		t.Errorf("Expected item data to be preserved, got %+v", got)
	}
}
