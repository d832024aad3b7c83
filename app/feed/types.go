package feed

import (
	"time"
)

// FormatAtom marks metadata read by the native Atom reader. Other formats
// carry the feed type reported by gofeed.
const FormatAtom = "atom"

type Metadata struct {
	Format        string
	Title         string
	Link          string
	Description   string
	ImageURL      string
	Language      string
	FeedUpdatedAt *time.Time
}

type Item struct {
	GUID        string
	Title       string
	Link        string
	Description string
	Content     string
	PublishedAt time.Time // zero when the source carries no usable date
	UpdatedAt   *time.Time
	Authors     []string // "email (name)", "name" or "email"
	Categories  []string

	ContentHash     string
	IsFiltered      bool
	FilterReason    string
	EnclosureURL    string
	EnclosureLength int64
	EnclosureType   string
}

type Config struct {
	Name     string         // Derived from filename (without .yml extension)
	URL      string         `yaml:"url"`
	Settings ConfigSettings `yaml:"settings"`
	Filters  []ConfigFilter `yaml:"filters"`
}

type ConfigSettings struct {
	Enabled         bool  `yaml:"enabled"`
	RefreshInterval int   `yaml:"refresh_interval"` // seconds
	MaxItems        int   `yaml:"max_items"`
	Timeout         int   `yaml:"timeout"`         // seconds
	ExtractContent  bool  `yaml:"extract_content"` // fetch and extract the linked article
	Sanitize        *bool `yaml:"sanitize"`        // strip unsafe markup from html/xhtml payloads, default true
}

// SanitizeEnabled reports whether markup payloads of this feed are cleaned
// before storage.
func (s ConfigSettings) SanitizeEnabled() bool {
	return s.Sanitize == nil || *s.Sanitize
}

type ConfigFilter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}
