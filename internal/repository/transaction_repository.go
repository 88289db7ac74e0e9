package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bedrik/gospelbot/internal/models"
)

type SQLTransactionRepository struct {
	db *sql.DB
}

func NewSQLTransactionRepository(db *sql.DB) *SQLTransactionRepository {
	return &SQLTransactionRepository{db: db}
}

func (r *SQLTransactionRepository) FindStarTransaction(ctx context.Context, chargeID string) (*models.StarTransaction, error) {
	const query = `
SELECT id, user_id, kind, amount_stars, requests_count, charge_id, created_at
FROM star_transactions WHERE charge_id = ?`
	row := r.db.QueryRowContext(ctx, query, chargeID)
	var txn models.StarTransaction
	if err := row.Scan(&txn.ID, &txn.UserID, &txn.Kind, &txn.AmountStars, &txn.RequestsCount, &txn.ChargeID, &txn.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan star transaction: %w", err)
	}
	return &txn, nil
}

func (r *SQLTransactionRepository) CreateStarTransaction(ctx context.Context, txn *models.StarTransaction) error {
	const query = `
INSERT INTO star_transactions (user_id, kind, amount_stars, requests_count, charge_id)
VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, txn.UserID, txn.Kind, txn.AmountStars, txn.RequestsCount, txn.ChargeID)
	if err != nil {
		return fmt.Errorf("insert star transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("star transaction last insert id: %w", err)
	}
	txn.ID = id
	return nil
}

func (r *SQLTransactionRepository) DeleteStarTransaction(ctx context.Context, chargeID string) error {
	const query = `DELETE FROM star_transactions WHERE charge_id = ?`
	if _, err := r.db.ExecContext(ctx, query, chargeID); err != nil {
		return fmt.Errorf("delete star transaction: %w", err)
	}
	return nil
}

func (r *SQLTransactionRepository) CreateDonation(ctx context.Context, donation *models.Donation) error {
	const query = `
INSERT INTO donations (user_id, amount_rub, amount_stars, payment_id, message, email, payment_status)
VALUES (?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), ?)`
	status := donation.PaymentStatus
	if status == "" {
		status = "pending"
	}
	res, err := r.db.ExecContext(ctx, query, donation.UserID, donation.AmountRub, donation.AmountStars, donation.PaymentID, donation.Message, "", status)
	if err != nil {
		return fmt.Errorf("insert donation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("donation last insert id: %w", err)
	}
	donation.ID = id
	donation.PaymentStatus = status
	return nil
}

func (r *SQLTransactionRepository) CreatePremiumPurchase(ctx context.Context, purchase *models.PremiumPurchase) error {
	const query = `
INSERT INTO premium_purchases (user_id, requests_count, amount_rub, amount_stars, payment_id, payment_status)
VALUES (?, ?, ?, ?, ?, ?)`
	status := purchase.PaymentStatus
	if status == "" {
		status = "pending"
	}
	res, err := r.db.ExecContext(ctx, query, purchase.UserID, purchase.RequestsCount, purchase.AmountRub, purchase.AmountStars, purchase.PaymentID, status)
	if err != nil {
		return fmt.Errorf("insert premium purchase: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("purchase last insert id: %w", err)
	}
	purchase.ID = id
	purchase.PaymentStatus = status
	return nil
}

func (r *SQLTransactionRepository) CompleteDonation(ctx context.Context, paymentID, status, email string) (bool, error) {
	const query = `
UPDATE donations
SET payment_status = ?, email = COALESCE(NULLIF(?, ''), email), completed_at = NOW()
WHERE payment_id = ? AND payment_status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, status, email, paymentID)
	if err != nil {
		return false, fmt.Errorf("complete donation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("donation rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *SQLTransactionRepository) CompletePurchase(ctx context.Context, paymentID string) (*models.PremiumPurchase, error) {
	const update = `
UPDATE premium_purchases
SET payment_status = 'completed', completed_at = NOW()
WHERE payment_id = ? AND payment_status = 'pending'`
	res, err := r.db.ExecContext(ctx, update, paymentID)
	if err != nil {
		return nil, fmt.Errorf("complete purchase: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("purchase rows affected: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	const query = `
SELECT id, user_id, requests_count, amount_rub, amount_stars, payment_id, payment_status, created_at, completed_at
FROM premium_purchases WHERE payment_id = ? LIMIT 1`
	row := r.db.QueryRowContext(ctx, query, paymentID)
	var p models.PremiumPurchase
	var completedAt sql.NullTime
	if err := row.Scan(&p.ID, &p.UserID, &p.RequestsCount, &p.AmountRub, &p.AmountStars, &p.PaymentID, &p.PaymentStatus, &p.CreatedAt, &completedAt); err != nil {
		return nil, fmt.Errorf("scan completed purchase: %w", err)
	}
	if completedAt.Valid {
		p.CompletedAt = &completedAt.Time
	}
	return &p, nil
}

func (r *SQLTransactionRepository) ReopenPurchase(ctx context.Context, paymentID string) error {
	const query = `
UPDATE premium_purchases
SET payment_status = 'pending', completed_at = NULL
WHERE payment_id = ? AND payment_status = 'completed'`
	if _, err := r.db.ExecContext(ctx, query, paymentID); err != nil {
		return fmt.Errorf("reopen purchase: %w", err)
	}
	return nil
}

func (r *SQLTransactionRepository) MarkPurchaseFailed(ctx context.Context, paymentID string) error {
	const query = `UPDATE premium_purchases SET payment_status = 'failed' WHERE payment_id = ?`
	if _, err := r.db.ExecContext(ctx, query, paymentID); err != nil {
		return fmt.Errorf("mark purchase failed: %w", err)
	}
	return nil
}
