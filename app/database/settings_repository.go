package database

import (
	"fmt"
)

var _ SettingsRepository = (*SettingsRepo)(nil)

// SettingsRepo handles database operations for runtime settings
type SettingsRepo struct {
	db *DB
}

func NewSettingsRepository(db *DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

func (r *SettingsRepo) GetCategory(category string) (map[string]string, error) {
	rows, err := r.db.Query(`
		SELECT key, value FROM settings WHERE category = $1
	`, category)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings category: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting row: %w", err)
		}
		values[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating setting rows: %w", err)
	}

	return values, nil
}

func (r *SettingsRepo) Set(category string, key string, value string) error {
	_, err := r.db.Exec(`
		INSERT INTO settings (category, key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (category, key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = NOW()
	`, category, key, value)

	if err != nil {
		return fmt.Errorf("failed to set setting: %w", err)
	}

	return nil
}
