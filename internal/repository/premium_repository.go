package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bedrik/gospelbot/internal/models"
)

type SQLPremiumRepository struct {
	db *sql.DB
}

func NewSQLPremiumRepository(db *sql.DB) *SQLPremiumRepository {
	return &SQLPremiumRepository{db: db}
}

func (r *SQLPremiumRepository) Get(ctx context.Context, userID int64) (*models.PremiumAccount, error) {
	const query = `
SELECT user_id, requests_count, total_purchased, total_used, created_at, updated_at
FROM premium_requests WHERE user_id = ?`
	row := r.db.QueryRowContext(ctx, query, userID)
	var acc models.PremiumAccount
	if err := row.Scan(&acc.UserID, &acc.RequestsCount, &acc.TotalPurchased, &acc.TotalUsed, &acc.CreatedAt, &acc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan premium account: %w", err)
	}
	return &acc, nil
}

func (r *SQLPremiumRepository) AddRequests(ctx context.Context, userID int64, count int) error {
	const query = `
INSERT INTO premium_requests (user_id, requests_count, total_purchased, total_used)
VALUES (?, ?, ?, 0)
ON DUPLICATE KEY UPDATE
    requests_count = requests_count + VALUES(requests_count),
    total_purchased = total_purchased + VALUES(total_purchased)`
	if _, err := r.db.ExecContext(ctx, query, userID, count, count); err != nil {
		return fmt.Errorf("add premium requests: %w", err)
	}
	return nil
}

// ConsumeRequest relies on the conditional WHERE clause for atomicity; two
// concurrent consumers of the last credit cannot both see rows affected.
func (r *SQLPremiumRepository) ConsumeRequest(ctx context.Context, userID int64) (bool, error) {
	const query = `
UPDATE premium_requests
SET requests_count = requests_count - 1, total_used = total_used + 1
WHERE user_id = ? AND requests_count > 0`
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return false, fmt.Errorf("consume premium request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("premium rows affected: %w", err)
	}
	return affected > 0, nil
}
