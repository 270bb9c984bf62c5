package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oppwire/harvester/app/database"
	"github.com/oppwire/harvester/app/pipeline"
)

func NewHandler(feedRepo database.FeedRepository, entityRepo database.EntityRepository,
	settings SettingsWriter, processor FeedProcessor, runner RunTrigger) *Handler {
	return &Handler{
		feedRepo:   feedRepo,
		entityRepo: entityRepo,
		settings:   settings,
		processor:  processor,
		runner:     runner,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if feedCount, err := h.feedRepo.GetFeedCount(); err == nil {
		health["feeds"] = feedCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if feedCount, err := h.feedRepo.GetFeedCount(); err == nil {
		stats["feeds"] = feedCount
	}

	if opportunities, posts, err := h.entityRepo.GetEntityCounts(); err == nil {
		stats["opportunities"] = opportunities
		stats["posts"] = posts
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) APIListFeeds(c *gin.Context) {
	active, err := h.feedRepo.GetActiveFeeds()
	if err != nil {
		slog.Error("Database error", "operation", "list_feeds", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	feeds := make([]map[string]interface{}, 0, len(active))
	for _, feed := range active {
		feeds = append(feeds, map[string]interface{}{
			"id":               feed.ID,
			"name":             feed.Name,
			"source_kind":      feed.SourceKind,
			"content_kind":     feed.ContentKind,
			"interval":         feed.Interval,
			"priority":         feed.Priority,
			"scraping_enabled": feed.ScrapingEnabled,
			"ai_enabled":       feed.AIEnabled,
			"last_fetched_at":  feed.LastFetchedAt,
			"total_processed":  feed.TotalProcessed,
			"total_published":  feed.TotalPublished,
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"feeds": feeds,
		"total": len(feeds),
	})
}

// APITriggerProcessing kicks off a run of all due feeds in the background.
func (h *Handler) APITriggerProcessing(c *gin.Context) {
	if !h.runner.TriggerAll() {
		c.JSON(http.StatusConflict, gin.H{"error": "A processing run is already in progress"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "Processing started"})
}

// APIProcessFeed runs one feed synchronously, ignoring the due check.
func (h *Handler) APIProcessFeed(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing feed id parameter"})
		return
	}

	result, err := h.processor.ProcessFeedByID(c.Request.Context(), id)
	if err != nil {
		slog.Error("Database error", "operation", "process_feed", "feed_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed not found"})
		return
	}

	c.JSON(http.StatusOK, processingResultJSON(result))
}

func (h *Handler) APISetSetting(c *gin.Context) {
	category := c.Param("category")
	key := c.Param("key")

	var body struct {
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.settings.Set(category, key, body.Value); err != nil {
		slog.Error("Failed to update setting", "category", category, "key", key, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update setting", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category": category,
		"key":      key,
		"value":    body.Value,
	})
}

func processingResultJSON(result *pipeline.ProcessingResult) map[string]interface{} {
	return map[string]interface{}{
		"feed_id":            result.FeedID,
		"feed_name":          result.FeedName,
		"success":            result.Success,
		"error":              result.Error,
		"items_processed":    result.ItemsProcessed,
		"entities_created":   result.EntitiesCreated,
		"entities_published": result.EntitiesPublished,
		"duplicates_skipped": result.DuplicatesSkipped,
		"ai_rejections":      result.AIRejections,
		"errors":             result.Errors,
		"execution_time":     result.ExecutionTime.String(),
	}
}
