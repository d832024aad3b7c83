package database

import (
	"time"
)

type Feed struct {
	ID            string // UUID
	Name          string // Configuration feed identifier derived from filename
	FeedURL       string // Document URL from configuration
	Format        string // "atom", or the type gofeed detected
	Link          string // Feed's alternate (homepage) link
	Title         string
	Description   string // Atom subtitle or RSS description
	ImageURL      string
	Language      string
	LastFetchedAt *time.Time
	NextFetchAt   *time.Time
	FeedUpdatedAt *time.Time // Feed's own updated timestamp
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FeedMetadata is what a successful fetch learns about a feed.
type FeedMetadata struct {
	Format        string
	Title         string
	Link          string
	Description   string
	ImageURL      string
	Language      string
	FeedUpdatedAt *time.Time
}

type Item struct {
	ID                      string
	FeedID                  string
	GUID                    string
	Link                    string
	Title                   string
	Description             string
	Content                 string
	PublishedAt             time.Time
	UpdatedAt               *time.Time
	Authors                 []string // "email (name)", "name" or "email"
	Categories              []string
	IsFiltered              bool
	FilterReason            string
	ContentHash             string
	CreatedAt               time.Time
	ContentExtractedAt      *time.Time
	ContentExtractionStatus string // pending, success, failed
	ContentExtractionError  string
	ExtractionAttempts      int
	EnclosureURL            string
	EnclosureLength         int64
	EnclosureType           string
}

// Extraction statuses stored in content_extraction_status.
const (
	ExtractionPending = "pending"
	ExtractionSuccess = "success"
	ExtractionFailed  = "failed"
)

// MaxExtractionAttempts bounds how often a failing article is retried.
const MaxExtractionAttempts = 3
