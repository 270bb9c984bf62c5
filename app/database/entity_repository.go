package database

import (
	"database/sql"
	"fmt"
)

var _ EntityRepository = (*EntityRepo)(nil)

// EntityRepo handles database operations for generated opportunities and posts
type EntityRepo struct {
	db *DB
}

func NewEntityRepository(db *DB) *EntityRepo {
	return &EntityRepo{db: db}
}

func (r *EntityRepo) InsertOpportunity(op Opportunity) (string, error) {
	var id string
	err := r.db.QueryRow(`
		INSERT INTO opportunities (
			title, slug, excerpt, content, kind, status,
			deadline, prize_value, requirements, location, confidence_score,
			source_url, source_feed_id, featured_image_url, published_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`, op.Title, op.Slug, op.Excerpt, op.Content, op.Kind, op.Status,
		op.Deadline, op.PrizeValue, op.Requirements, op.Location, op.ConfidenceScore,
		op.SourceURL, nullUUID(op.SourceFeedID), op.FeaturedImageURL, op.PublishedAt).Scan(&id)

	if err != nil {
		return "", fmt.Errorf("failed to insert opportunity: %w", err)
	}

	return id, nil
}

func (r *EntityRepo) InsertPost(post Post) (string, error) {
	var id string
	err := r.db.QueryRow(`
		INSERT INTO posts (
			title, slug, excerpt, content, status, confidence_score,
			source_url, source_feed_id, featured_image_url, published_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, post.Title, post.Slug, post.Excerpt, post.Content, post.Status, post.ConfidenceScore,
		post.SourceURL, nullUUID(post.SourceFeedID), post.FeaturedImageURL, post.PublishedAt).Scan(&id)

	if err != nil {
		return "", fmt.Errorf("failed to insert post: %w", err)
	}

	return id, nil
}

func (r *EntityRepo) SlugExists(table string, slug string) (bool, error) {
	query, err := entityQuery(table, `SELECT 1 FROM %s WHERE slug = $1 LIMIT 1`)
	if err != nil {
		return false, err
	}

	var one int
	err = r.db.QueryRow(query, slug).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}

	return true, nil
}

func (r *EntityRepo) GetEntityBody(table string, id string) (string, error) {
	query, err := entityQuery(table, `SELECT COALESCE(content, '') FROM %s WHERE id = $1`)
	if err != nil {
		return "", err
	}

	var content string
	err = r.db.QueryRow(query, id).Scan(&content)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get entity body: %w", err)
	}

	return content, nil
}

func (r *EntityRepo) GetEntityCounts() (int, int, error) {
	var opportunities, posts int
	err := r.db.QueryRow(`
		SELECT (SELECT COUNT(*) FROM opportunities), (SELECT COUNT(*) FROM posts)
	`).Scan(&opportunities, &posts)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get entity counts: %w", err)
	}
	return opportunities, posts, nil
}

// entityQuery guards against table names reaching SQL from anywhere but the
// two known entity tables.
func entityQuery(table string, format string) (string, error) {
	if table != TableOpportunities && table != TablePosts {
		return "", fmt.Errorf("unknown entity table: %s", table)
	}
	return fmt.Sprintf(format, table), nil
}

func nullUUID(id string) interface{} {
	if id == "" {
		return nil
	}
	return id
}
