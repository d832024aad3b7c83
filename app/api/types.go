package api

import (
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/lysyi3m/atom-comb/app/atom"
	"github.com/lysyi3m/atom-comb/app/database"
	"github.com/lysyi3m/atom-comb/app/feed"
	"github.com/lysyi3m/atom-comb/app/tasks"
)

// maxParseBodySize caps documents accepted by POST /parse.
const maxParseBodySize = 10 << 20

type Handler struct {
	feedRepo    database.FeedRepository
	itemRepo    database.ItemRepository
	configCache *feed.ConfigCache
	filterer    *feed.Filterer
	scheduler   tasks.TaskSchedulerInterface
	atomParser  *atom.Parser
	feedCache   *cache.Cache // nil when response caching is off
}

// FeedResponse is the JSON rendering of a combed feed.
type FeedResponse struct {
	Name        string         `json:"name"`
	Format      string         `json:"format"`
	Title       string         `json:"title"`
	Link        string         `json:"link,omitempty"`
	Description string         `json:"description,omitempty"`
	ImageURL    string         `json:"image_url,omitempty"`
	Language    string         `json:"language,omitempty"`
	UpdatedAt   *time.Time     `json:"updated_at,omitempty"`
	Items       []ItemResponse `json:"items"`
}

type ItemResponse struct {
	GUID        string     `json:"guid"`
	Title       string     `json:"title"`
	Link        string     `json:"link,omitempty"`
	Description string     `json:"description,omitempty"`
	Content     string     `json:"content,omitempty"`
	PublishedAt time.Time  `json:"published_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	Authors     []string   `json:"authors"`
	Categories  []string   `json:"categories"`
	Enclosure   *Enclosure `json:"enclosure,omitempty"`
}

type Enclosure struct {
	URL    string `json:"url"`
	Length int64  `json:"length,omitempty"`
	Type   string `json:"type,omitempty"`
}

func newFeedResponse(f *database.Feed, items []database.Item) FeedResponse {
	resp := FeedResponse{
		Name:        f.Name,
		Format:      f.Format,
		Title:       f.Title,
		Link:        f.Link,
		Description: f.Description,
		ImageURL:    f.ImageURL,
		Language:    f.Language,
		UpdatedAt:   f.FeedUpdatedAt,
		Items:       make([]ItemResponse, 0, len(items)),
	}

	for _, item := range items {
		ir := ItemResponse{
			GUID:        item.GUID,
			Title:       item.Title,
			Link:        item.Link,
			Description: item.Description,
			Content:     item.Content,
			PublishedAt: item.PublishedAt,
			UpdatedAt:   item.UpdatedAt,
			Authors:     item.Authors,
			Categories:  item.Categories,
		}
		if ir.Authors == nil {
			ir.Authors = []string{}
		}
		if ir.Categories == nil {
			ir.Categories = []string{}
		}
		if item.EnclosureURL != "" {
			ir.Enclosure = &Enclosure{URL: item.EnclosureURL, Length: item.EnclosureLength, Type: item.EnclosureType}
		}
		resp.Items = append(resp.Items, ir)
	}

	return resp
}
