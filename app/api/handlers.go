package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"

	"github.com/lysyi3m/atom-comb/app/atom"
	"github.com/lysyi3m/atom-comb/app/database"
	"github.com/lysyi3m/atom-comb/app/feed"
	"github.com/lysyi3m/atom-comb/app/tasks"
)

// NewHandler wires the HTTP handlers. A cacheTTL of zero disables caching
// of feed responses.
func NewHandler(configCache *feed.ConfigCache, feedRepo database.FeedRepository,
	itemRepo database.ItemRepository, filterer *feed.Filterer,
	scheduler tasks.TaskSchedulerInterface, cacheTTL time.Duration) *Handler {
	h := &Handler{
		feedRepo:    feedRepo,
		itemRepo:    itemRepo,
		configCache: configCache,
		filterer:    filterer,
		scheduler:   scheduler,
		atomParser:  atom.NewParser(),
	}
	if cacheTTL > 0 {
		h.feedCache = cache.New(cacheTTL, 2*cacheTTL)
	}
	return h
}

func feedCacheKey(name string) string {
	return "feed:" + name
}

func (h *Handler) GetFeed(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing feed name parameter"})
		return
	}

	if h.feedCache != nil {
		if cached, ok := h.feedCache.Get(feedCacheKey(name)); ok {
			resp := cached.(FeedResponse)
			c.Header("X-Cache", "HIT")
			c.Header("X-Feed-Items", strconv.Itoa(len(resp.Items)))
			c.JSON(http.StatusOK, resp)
			return
		}
	}

	feedConfig, err := h.configCache.GetConfig(name)
	if err != nil {
		slog.Debug("Feed configuration not found", "feed", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed configuration not found"})
		return
	}

	dbFeed, err := h.feedRepo.GetFeed(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_feed", "feed", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if dbFeed == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed not found in database"})
		return
	}

	items, err := h.itemRepo.GetVisibleItems(name, feedConfig.Settings.MaxItems)
	if err != nil {
		slog.Error("Database error", "operation", "get_items", "feed", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	resp := newFeedResponse(dbFeed, items)
	if h.feedCache != nil {
		h.feedCache.SetDefault(feedCacheKey(name), resp)
	}

	c.Header("X-Cache", "MISS")
	c.Header("X-Feed-Items", strconv.Itoa(len(items)))
	c.Header("X-Last-Updated", dbFeed.UpdatedAt.Format(time.RFC3339))
	c.JSON(http.StatusOK, resp)
}

// ParseDocument runs the request body through the Atom reader and returns
// the document graph. Documents the reader rejects map to 422 for a foreign
// root element and 400 otherwise.
func (h *Handler) ParseDocument(c *gin.Context) {
	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxParseBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Document too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	doc, err := h.atomParser.ReadBytes(data)
	if err != nil {
		var atomErr *atom.Error
		if !errors.As(err, &atomErr) {
			slog.Error("Unexpected parse failure", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		status := http.StatusBadRequest
		if atomErr.Kind == atom.InvalidRootElement {
			status = http.StatusUnprocessableEntity
		}
		slog.Debug("Document rejected", "kind", atomErr.Kind, "element", atomErr.Element, "error", err)
		c.JSON(status, gin.H{
			"error":   err.Error(),
			"kind":    atomErr.Kind,
			"element": atomErr.Element,
		})
		return
	}

	c.Header("X-Feed-Entries", strconv.Itoa(len(doc.Entries)))
	c.JSON(http.StatusOK, doc)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"timestamp":             time.Now().In(time.Local).Format(time.RFC3339),
		"loaded_configurations": h.configCache.GetConfigCount(),
	}

	if feedCount, err := h.feedRepo.GetFeedCount(); err == nil {
		health["feeds"] = feedCount
	} else {
		slog.Warn("Health check could not count feeds", "error", err)
	}

	if h.feedCache != nil {
		health["cached_responses"] = h.feedCache.ItemCount()
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) APIListFeeds(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	feeds := make([]gin.H, 0, len(configs))
	for _, feedConfig := range configs {
		feedInfo := gin.H{
			"name":             feedConfig.Name,
			"url":              feedConfig.URL,
			"title":            "",
			"enabled":          feedConfig.Settings.Enabled,
			"max_items":        feedConfig.Settings.MaxItems,
			"refresh_interval": (time.Duration(feedConfig.Settings.RefreshInterval) * time.Second).String(),
			"filters":          len(feedConfig.Filters),
		}

		if dbFeed, err := h.feedRepo.GetFeed(feedConfig.Name); err == nil && dbFeed != nil {
			feedInfo["title"] = dbFeed.Title
			feedInfo["format"] = dbFeed.Format
			feedInfo["last_fetched_at"] = dbFeed.LastFetchedAt
			feedInfo["next_fetch_at"] = dbFeed.NextFetchAt
			feedInfo["updated_at"] = dbFeed.UpdatedAt
		}

		if itemCount, err := h.itemRepo.GetItemCount(feedConfig.Name); err == nil {
			feedInfo["item_count"] = itemCount
		}

		feeds = append(feeds, feedInfo)
	}

	c.JSON(http.StatusOK, gin.H{
		"feeds": feeds,
		"total": len(feeds),
	})
}

func (h *Handler) APIGetFeedDetails(c *gin.Context) {
	name := c.Param("name")

	feedConfig, err := h.configCache.GetConfig(name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed configuration not found"})
		return
	}

	dbFeed, err := h.feedRepo.GetFeed(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_feed", "feed", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if dbFeed == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed not found in database"})
		return
	}

	details := gin.H{
		"name":             name,
		"url":              feedConfig.URL,
		"title":            dbFeed.Title,
		"format":           dbFeed.Format,
		"enabled":          feedConfig.Settings.Enabled,
		"max_items":        feedConfig.Settings.MaxItems,
		"refresh_interval": (time.Duration(feedConfig.Settings.RefreshInterval) * time.Second).String(),
		"timeout":          (time.Duration(feedConfig.Settings.Timeout) * time.Second).String(),
		"extract_content":  feedConfig.Settings.ExtractContent,
		"sanitize":         feedConfig.Settings.SanitizeEnabled(),
		"filters":          feedConfig.Filters,
		"database": gin.H{
			"id":              dbFeed.ID,
			"last_fetched_at": dbFeed.LastFetchedAt,
			"next_fetch_at":   dbFeed.NextFetchAt,
			"feed_updated_at": dbFeed.FeedUpdatedAt,
			"created_at":      dbFeed.CreatedAt,
			"updated_at":      dbFeed.UpdatedAt,
		},
	}

	if total, visible, filtered, err := h.itemRepo.GetItemStats(name); err == nil {
		details["items"] = gin.H{
			"total":    total,
			"visible":  visible,
			"filtered": filtered,
		}
	}

	c.JSON(http.StatusOK, details)
}

// APIReloadFeed rereads the feed's YAML file, then queues a sync of its URL
// and a refilter of its stored items.
func (h *Handler) APIReloadFeed(c *gin.Context) {
	name := c.Param("name")

	if _, err := h.configCache.GetConfig(name); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed configuration not found"})
		return
	}

	feedConfig, err := h.configCache.LoadConfig(name)
	if err != nil {
		slog.Error("Error reloading configuration", "feed", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to reload configuration",
			"details": err.Error(),
		})
		return
	}

	syncTask := tasks.NewSyncFeedConfigTask(name, feedConfig, h.feedRepo)
	if err := h.scheduler.EnqueueTask(syncTask); err != nil {
		slog.Error("Error enqueueing sync task", "feed", name, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue sync task",
			"details": err.Error(),
		})
		return
	}

	refilterTask := tasks.NewRefilterFeedTask(name, feedConfig, h.filterer, h.itemRepo)
	if err := h.scheduler.EnqueueTask(refilterTask); err != nil {
		slog.Error("Error enqueueing refilter task", "feed", name, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue refilter task",
			"details": err.Error(),
		})
		return
	}

	if h.feedCache != nil {
		h.feedCache.Delete(feedCacheKey(name))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Configuration reloaded and tasks enqueued",
		"feed": gin.H{
			"name": name,
			"url":  feedConfig.URL,
		},
		"tasks": []gin.H{
			{"id": syncTask.ID, "type": syncTask.Type},
			{"id": refilterTask.ID, "type": refilterTask.Type},
		},
	})
}
