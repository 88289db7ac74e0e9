package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const usageDateLayout = "2006-01-02"

type SQLUsageRepository struct {
	db *sql.DB
}

func NewSQLUsageRepository(db *sql.DB) *SQLUsageRepository {
	return &SQLUsageRepository{db: db}
}

func (r *SQLUsageRepository) CountForDay(ctx context.Context, userID int64, day time.Time) (int, error) {
	const query = `
SELECT requests_count FROM ai_usage
WHERE user_id = ? AND usage_date = ?`
	row := r.db.QueryRowContext(ctx, query, userID, day.UTC().Format(usageDateLayout))
	var count int
	if err := row.Scan(&count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("count daily usage: %w", err)
	}
	return count, nil
}

func (r *SQLUsageRepository) Increment(ctx context.Context, userID int64, day time.Time) error {
	const query = `
INSERT INTO ai_usage (user_id, usage_date, requests_count)
VALUES (?, ?, 1)
ON DUPLICATE KEY UPDATE requests_count = requests_count + 1`
	if _, err := r.db.ExecContext(ctx, query, userID, day.UTC().Format(usageDateLayout)); err != nil {
		return fmt.Errorf("increment daily usage: %w", err)
	}
	return nil
}
