package feed

import (
	"fmt"
	"strings"
)

// filterFields maps a filter's field name to the item text it matches
// against. Config validation accepts exactly these names.
var filterFields = map[string]func(Item) string{
	"title":       func(i Item) string { return i.Title },
	"description": func(i Item) string { return i.Description },
	"content":     func(i Item) string { return i.Content },
	"authors":     func(i Item) string { return strings.Join(i.Authors, " ") },
	"link":        func(i Item) string { return i.Link },
	"categories":  func(i Item) string { return strings.Join(i.Categories, " ") },
	"guid":        func(i Item) string { return i.GUID },
}

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run marks items rejected by the feed's filters. Filtered items are kept so
// that a later refilter can restore them.
func (f *Filterer) Run(items []Item, feedConfig *Config) []Item {
	if len(feedConfig.Filters) == 0 {
		return items
	}

	filtered := make([]Item, 0, len(items))
	for _, item := range items {
		item.IsFiltered, item.FilterReason = f.applyFilters(item, feedConfig.Filters)
		filtered = append(filtered, item)
	}

	return filtered
}

func (f *Filterer) applyFilters(item Item, filters []ConfigFilter) (bool, string) {
	for _, filter := range filters {
		value := strings.ToLower(f.getFieldValue(item, filter.Field))

		for _, exclude := range filter.Excludes {
			if strings.Contains(value, strings.ToLower(exclude)) {
				return true, fmt.Sprintf("Excluded by %s filter: contains '%s'", filter.Field, exclude)
			}
		}

		if len(filter.Includes) == 0 {
			continue
		}
		matched := false
		for _, include := range filter.Includes {
			if strings.Contains(value, strings.ToLower(include)) {
				matched = true
				break
			}
		}
		if !matched {
			return true, fmt.Sprintf("Excluded by %s filter: does not contain any of %v", filter.Field, filter.Includes)
		}
	}

	return false, ""
}

func (f *Filterer) getFieldValue(item Item, field string) string {
	if get, ok := filterFields[field]; ok {
		return get(item)
	}
	return ""
}
