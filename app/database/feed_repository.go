package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ FeedRepository = (*FeedRepo)(nil)

// FeedRepo handles database operations for feeds
type FeedRepo struct {
	db *DB
}

func NewFeedRepository(db *DB) *FeedRepo {
	return &FeedRepo{db: db}
}

const feedColumns = `id, name, source_kind, source_url, source_list, list_offset,
	content_kind, cron_interval, priority, enabled, scraping_enabled, allow_republishing,
	ai_enabled, COALESCE(ai_provider, ''), COALESCE(ai_model, ''), COALESCE(ai_api_key, ''),
	auto_publish, quality_threshold, COALESCE(fallback_image_url, ''),
	last_fetched_at, total_processed, total_published, created_at, updated_at`

func (r *FeedRepo) scanFeed(row interface{ Scan(...interface{}) error }) (*Feed, error) {
	var feed Feed
	err := row.Scan(
		&feed.ID, &feed.Name, &feed.SourceKind, &feed.SourceURL, &feed.SourceList, &feed.ListOffset,
		&feed.ContentKind, &feed.Interval, &feed.Priority, &feed.Enabled, &feed.ScrapingEnabled,
		&feed.AllowRepublishing, &feed.AIEnabled, &feed.AIProvider, &feed.AIModel, &feed.AIAPIKey,
		&feed.AutoPublish, &feed.QualityThreshold, &feed.FallbackImageURL,
		&feed.LastFetchedAt, &feed.TotalProcessed, &feed.TotalPublished,
		&feed.CreatedAt, &feed.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &feed, nil
}

func (r *FeedRepo) GetFeed(id string) (*Feed, error) {
	row := r.db.QueryRow(`SELECT `+feedColumns+` FROM feeds WHERE id = $1`, id)

	feed, err := r.scanFeed(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}

	return feed, nil
}

// GetActiveFeeds returns enabled feeds ordered by descending priority.
func (r *FeedRepo) GetActiveFeeds() ([]Feed, error) {
	rows, err := r.db.Query(`
		SELECT ` + feedColumns + `
		FROM feeds
		WHERE enabled = true
		ORDER BY priority DESC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get active feeds: %w", err)
	}
	defer rows.Close()

	var feeds []Feed
	for rows.Next() {
		feed, err := r.scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}
		feeds = append(feeds, *feed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed rows: %w", err)
	}

	return feeds, nil
}

func (r *FeedRepo) GetFeedCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM feeds").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get feed count: %w", err)
	}
	return count, nil
}

// UpsertFeed registers a feed definition, keyed by name. Run-state columns
// (bookmark, counters, last_fetched_at) are preserved on update.
func (r *FeedRepo) UpsertFeed(feed Feed) (string, error) {
	var id string
	err := r.db.QueryRow(`
		INSERT INTO feeds (
			name, source_kind, source_url, source_list, content_kind, cron_interval,
			priority, enabled, scraping_enabled, allow_republishing,
			ai_enabled, ai_provider, ai_model, ai_api_key,
			auto_publish, quality_threshold, fallback_image_url
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (name) DO UPDATE SET
			source_kind = EXCLUDED.source_kind,
			source_url = EXCLUDED.source_url,
			source_list = EXCLUDED.source_list,
			content_kind = EXCLUDED.content_kind,
			cron_interval = EXCLUDED.cron_interval,
			priority = EXCLUDED.priority,
			enabled = EXCLUDED.enabled,
			scraping_enabled = EXCLUDED.scraping_enabled,
			allow_republishing = EXCLUDED.allow_republishing,
			ai_enabled = EXCLUDED.ai_enabled,
			ai_provider = EXCLUDED.ai_provider,
			ai_model = EXCLUDED.ai_model,
			ai_api_key = EXCLUDED.ai_api_key,
			auto_publish = EXCLUDED.auto_publish,
			quality_threshold = EXCLUDED.quality_threshold,
			fallback_image_url = EXCLUDED.fallback_image_url,
			updated_at = NOW()
		RETURNING id
	`, feed.Name, feed.SourceKind, feed.SourceURL, feed.SourceList, feed.ContentKind,
		feed.Interval, feed.Priority, feed.Enabled, feed.ScrapingEnabled, feed.AllowRepublishing,
		feed.AIEnabled, feed.AIProvider, feed.AIModel, feed.AIAPIKey,
		feed.AutoPublish, feed.QualityThreshold, feed.FallbackImageURL).Scan(&id)

	if err != nil {
		return "", fmt.Errorf("failed to upsert feed: %w", err)
	}

	return id, nil
}

// UpdateFeedAfterRun persists the bookmark, cumulative counters and fetch
// timestamp after a completed feed run.
func (r *FeedRepo) UpdateFeedAfterRun(id string, listOffset int, processedDelta int, publishedDelta int, lastFetched time.Time) error {
	_, err := r.db.Exec(`
		UPDATE feeds
		SET list_offset = $2,
		    total_processed = total_processed + $3,
		    total_published = total_published + $4,
		    last_fetched_at = $5,
		    updated_at = NOW()
		WHERE id = $1
	`, id, listOffset, processedDelta, publishedDelta, lastFetched)

	if err != nil {
		return fmt.Errorf("failed to update feed after run: %w", err)
	}

	return nil
}
