package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/supabase-community/supabase-go"

	"github.com/bedrik/gospelbot/internal/models"
)

type SupabaseTransactionRepository struct {
	client *supabase.Client
}

func NewSupabaseTransactionRepository(client *supabase.Client) *SupabaseTransactionRepository {
	return &SupabaseTransactionRepository{client: client}
}

type starTransactionRow struct {
	ID            int64  `json:"id"`
	UserID        int64  `json:"user_id"`
	Kind          string `json:"kind"`
	AmountStars   int    `json:"amount_stars"`
	RequestsCount int    `json:"requests_count"`
	ChargeID      string `json:"charge_id"`
	CreatedAt     string `json:"created_at"`
}

type purchaseRow struct {
	ID            int64  `json:"id"`
	UserID        int64  `json:"user_id"`
	RequestsCount int    `json:"requests_count"`
	AmountRub     int    `json:"amount_rub"`
	AmountStars   int    `json:"amount_stars"`
	PaymentID     string `json:"payment_id"`
	PaymentStatus string `json:"payment_status"`
	CreatedAt     string `json:"created_at"`
}

func (r *SupabaseTransactionRepository) FindStarTransaction(ctx context.Context, chargeID string) (*models.StarTransaction, error) {
	data, _, err := r.client.From("star_transactions").
		Select("*", "", false).
		Eq("charge_id", chargeID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("find star transaction: %w", err)
	}

	var rows []starTransactionRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal star transaction: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	row := rows[0]
	createdAt, _ := time.Parse(time.RFC3339, row.CreatedAt)
	return &models.StarTransaction{
		ID:            row.ID,
		UserID:        row.UserID,
		Kind:          models.TransactionKind(row.Kind),
		AmountStars:   row.AmountStars,
		RequestsCount: row.RequestsCount,
		ChargeID:      row.ChargeID,
		CreatedAt:     createdAt,
	}, nil
}

func (r *SupabaseTransactionRepository) CreateStarTransaction(ctx context.Context, txn *models.StarTransaction) error {
	payload := map[string]interface{}{
		"user_id":        txn.UserID,
		"kind":           string(txn.Kind),
		"amount_stars":   txn.AmountStars,
		"requests_count": txn.RequestsCount,
		"charge_id":      txn.ChargeID,
	}
	_, _, err := r.client.From("star_transactions").
		Insert(payload, false, "", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("insert star transaction: %w", err)
	}
	return nil
}

func (r *SupabaseTransactionRepository) DeleteStarTransaction(ctx context.Context, chargeID string) error {
	_, _, err := r.client.From("star_transactions").
		Delete("", "").
		Eq("charge_id", chargeID).
		Execute()
	if err != nil {
		return fmt.Errorf("delete star transaction: %w", err)
	}
	return nil
}

func (r *SupabaseTransactionRepository) CreateDonation(ctx context.Context, donation *models.Donation) error {
	status := donation.PaymentStatus
	if status == "" {
		status = "pending"
	}
	payload := map[string]interface{}{
		"user_id":        donation.UserID,
		"amount_rub":     donation.AmountRub,
		"amount_stars":   donation.AmountStars,
		"payment_id":     donation.PaymentID,
		"payment_status": status,
	}
	if donation.Message != "" {
		payload["message"] = donation.Message
	}
	_, _, err := r.client.From("donations").
		Insert(payload, false, "", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("insert donation: %w", err)
	}
	donation.PaymentStatus = status
	return nil
}

func (r *SupabaseTransactionRepository) CreatePremiumPurchase(ctx context.Context, purchase *models.PremiumPurchase) error {
	status := purchase.PaymentStatus
	if status == "" {
		status = "pending"
	}
	payload := map[string]interface{}{
		"user_id":        purchase.UserID,
		"requests_count": purchase.RequestsCount,
		"amount_rub":     purchase.AmountRub,
		"amount_stars":   purchase.AmountStars,
		"payment_id":     purchase.PaymentID,
		"payment_status": status,
	}
	_, _, err := r.client.From("premium_purchases").
		Insert(payload, false, "", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("insert premium purchase: %w", err)
	}
	purchase.PaymentStatus = status
	return nil
}

func (r *SupabaseTransactionRepository) CompleteDonation(ctx context.Context, paymentID, status, email string) (bool, error) {
	payload := map[string]interface{}{
		"payment_status": status,
		"completed_at":   time.Now().UTC().Format(time.RFC3339),
	}
	if email != "" {
		payload["email"] = email
	}

	data, _, err := r.client.From("donations").
		Update(payload, "", "").
		Eq("payment_id", paymentID).
		Eq("payment_status", "pending").
		Execute()
	if err != nil {
		return false, fmt.Errorf("complete donation: %w", err)
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal(data, &rows); err != nil {
		return false, fmt.Errorf("unmarshal completed donation: %w", err)
	}
	return len(rows) > 0, nil
}

func (r *SupabaseTransactionRepository) CompletePurchase(ctx context.Context, paymentID string) (*models.PremiumPurchase, error) {
	payload := map[string]interface{}{
		"payment_status": "completed",
		"completed_at":   time.Now().UTC().Format(time.RFC3339),
	}

	data, _, err := r.client.From("premium_purchases").
		Update(payload, "", "").
		Eq("payment_id", paymentID).
		Eq("payment_status", "pending").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("complete purchase: %w", err)
	}

	var rows []purchaseRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal completed purchase: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	row := rows[0]
	createdAt, _ := time.Parse(time.RFC3339, row.CreatedAt)
	return &models.PremiumPurchase{
		ID:            row.ID,
		UserID:        row.UserID,
		RequestsCount: row.RequestsCount,
		AmountRub:     row.AmountRub,
		AmountStars:   row.AmountStars,
		PaymentID:     row.PaymentID,
		PaymentStatus: row.PaymentStatus,
		CreatedAt:     createdAt,
	}, nil
}

func (r *SupabaseTransactionRepository) ReopenPurchase(ctx context.Context, paymentID string) error {
	payload := map[string]interface{}{
		"payment_status": "pending",
		"completed_at":   nil,
	}
	_, _, err := r.client.From("premium_purchases").
		Update(payload, "", "").
		Eq("payment_id", paymentID).
		Eq("payment_status", "completed").
		Execute()
	if err != nil {
		return fmt.Errorf("reopen purchase: %w", err)
	}
	return nil
}

func (r *SupabaseTransactionRepository) MarkPurchaseFailed(ctx context.Context, paymentID string) error {
	payload := map[string]interface{}{
		"payment_status": "failed",
	}
	_, _, err := r.client.From("premium_purchases").
		Update(payload, "", "").
		Eq("payment_id", paymentID).
		Execute()
	if err != nil {
		return fmt.Errorf("mark purchase failed: %w", err)
	}
	return nil
}
