package database

import (
	"fmt"
)

var _ AnalyticsRepository = (*AnalyticsRepo)(nil)

// AnalyticsRepo stores processing logs and run summaries. Callers treat every
// write as best-effort.
type AnalyticsRepo struct {
	db *DB
}

func NewAnalyticsRepository(db *DB) *AnalyticsRepo {
	return &AnalyticsRepo{db: db}
}

func (r *AnalyticsRepo) InsertProcessingLog(entry ProcessingLog) error {
	_, err := r.db.Exec(`
		INSERT INTO processing_logs (feed_id, item_url, outcome, detail, duration_ms)
		VALUES ($1, $2, $3, $4, $5)
	`, nullUUID(entry.FeedID), entry.ItemURL, entry.Outcome, entry.Detail, entry.Duration.Milliseconds())

	if err != nil {
		return fmt.Errorf("failed to insert processing log: %w", err)
	}

	return nil
}

func (r *AnalyticsRepo) InsertRunSummary(summary RunSummary) error {
	_, err := r.db.Exec(`
		INSERT INTO run_summaries (feed_id, items_processed, entities_created, duplicates_skipped, ai_rejections, errors, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, nullUUID(summary.FeedID), summary.ItemsProcessed, summary.EntitiesCreated,
		summary.DuplicatesSkipped, summary.AIRejections, summary.Errors, summary.Duration.Milliseconds())

	if err != nil {
		return fmt.Errorf("failed to insert run summary: %w", err)
	}

	return nil
}
