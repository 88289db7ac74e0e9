package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bedrik/gospelbot/internal/models"
)

type SQLSettingsRepository struct {
	db *sql.DB
}

func NewSQLSettingsRepository(db *sql.DB) *SQLSettingsRepository {
	return &SQLSettingsRepository{db: db}
}

func (r *SQLSettingsRepository) Get(ctx context.Context, key string) (*models.Setting, error) {
	const query = `
SELECT setting_key, setting_value, setting_type, COALESCE(description, ''), updated_at
FROM ai_settings WHERE setting_key = ?`
	row := r.db.QueryRowContext(ctx, query, key)
	var s models.Setting
	if err := row.Scan(&s.Key, &s.Value, &s.Type, &s.Description, &s.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan setting: %w", err)
	}
	return &s, nil
}

func (r *SQLSettingsRepository) Upsert(ctx context.Context, setting *models.Setting) error {
	const query = `
INSERT INTO ai_settings (setting_key, setting_value, setting_type, description)
VALUES (?, ?, ?, NULLIF(?, ''))
ON DUPLICATE KEY UPDATE
    setting_value = VALUES(setting_value),
    setting_type = VALUES(setting_type),
    description = COALESCE(NULLIF(VALUES(description), ''), description)`
	if _, err := r.db.ExecContext(ctx, query, setting.Key, setting.Value, setting.Type, setting.Description); err != nil {
		return fmt.Errorf("upsert setting: %w", err)
	}
	return nil
}

func (r *SQLSettingsRepository) List(ctx context.Context) ([]models.Setting, error) {
	const query = `
SELECT setting_key, setting_value, setting_type, COALESCE(description, ''), updated_at
FROM ai_settings ORDER BY setting_key`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []models.Setting
	for rows.Next() {
		var s models.Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.Type, &s.Description, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan setting list: %w", err)
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}
