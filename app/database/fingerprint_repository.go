package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ FingerprintRepository = (*FingerprintRepo)(nil)

// FingerprintRepo handles database operations for duplicate fingerprints
type FingerprintRepo struct {
	db *DB
}

func NewFingerprintRepository(db *DB) *FingerprintRepo {
	return &FingerprintRepo{db: db}
}

func (r *FingerprintRepo) Insert(fp Fingerprint) error {
	_, err := r.db.Exec(`
		INSERT INTO content_fingerprints (entity_id, entity_table, feed_id, url_hash, title_hash, content_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, fp.EntityID, fp.EntityTable, nullUUID(fp.FeedID), fp.URLHash, fp.TitleHash, fp.ContentHash)

	if err != nil {
		return fmt.Errorf("failed to insert fingerprint: %w", err)
	}

	return nil
}

func (r *FingerprintRepo) FindByURLHash(hash string) (*Fingerprint, error) {
	return r.findByHash("url_hash", hash)
}

func (r *FingerprintRepo) FindByContentHash(hash string) (*Fingerprint, error) {
	return r.findByHash("content_hash", hash)
}

func (r *FingerprintRepo) FindByTitleHash(hash string) (*Fingerprint, error) {
	return r.findByHash("title_hash", hash)
}

func (r *FingerprintRepo) findByHash(column string, hash string) (*Fingerprint, error) {
	var fp Fingerprint
	var feedID sql.NullString

	query := fmt.Sprintf(`
		SELECT id, entity_id, entity_table, feed_id, url_hash, title_hash, content_hash, created_at
		FROM content_fingerprints
		WHERE %s = $1
		LIMIT 1
	`, column)

	err := r.db.QueryRow(query, hash).Scan(
		&fp.ID, &fp.EntityID, &fp.EntityTable, &feedID,
		&fp.URLHash, &fp.TitleHash, &fp.ContentHash, &fp.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find fingerprint by %s: %w", column, err)
	}

	fp.FeedID = feedID.String
	return &fp, nil
}

// GetRecent returns fingerprints created since the given time, most recent
// first, capped at limit. Used by the fuzzy similarity fallback.
func (r *FingerprintRepo) GetRecent(since time.Time, limit int) ([]Fingerprint, error) {
	rows, err := r.db.Query(`
		SELECT id, entity_id, entity_table, feed_id, url_hash, title_hash, content_hash, created_at
		FROM content_fingerprints
		WHERE created_at >= $1
		ORDER BY created_at DESC
		LIMIT $2
	`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent fingerprints: %w", err)
	}
	defer rows.Close()

	var fps []Fingerprint
	for rows.Next() {
		var fp Fingerprint
		var feedID sql.NullString
		err := rows.Scan(
			&fp.ID, &fp.EntityID, &fp.EntityTable, &feedID,
			&fp.URLHash, &fp.TitleHash, &fp.ContentHash, &fp.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fingerprint row: %w", err)
		}
		fp.FeedID = feedID.String
		fps = append(fps, fp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fingerprint rows: %w", err)
	}

	return fps, nil
}
