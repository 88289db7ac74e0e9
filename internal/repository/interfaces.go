package repository

import (
	"context"
	"time"

	"github.com/bedrik/gospelbot/internal/models"
)

// SettingsRepository persists typed key/value settings.
type SettingsRepository interface {
	// Get returns (nil, nil) when no row exists for the key.
	Get(ctx context.Context, key string) (*models.Setting, error)
	Upsert(ctx context.Context, setting *models.Setting) error
	List(ctx context.Context) ([]models.Setting, error)
}

// PremiumRepository is the premium-credit ledger.
type PremiumRepository interface {
	// Get returns (nil, nil) when the user has no ledger row.
	Get(ctx context.Context, userID int64) (*models.PremiumAccount, error)
	// AddRequests raises requests_count and total_purchased by count,
	// creating the row on first purchase.
	AddRequests(ctx context.Context, userID int64, count int) error
	// ConsumeRequest decrements requests_count and increments total_used in a
	// single conditional store-side update. Returns false without mutation
	// when the balance is already zero.
	ConsumeRequest(ctx context.Context, userID int64) (bool, error)
}

// UsageRepository tracks per-user AI usage keyed by UTC calendar day.
type UsageRepository interface {
	CountForDay(ctx context.Context, userID int64, day time.Time) (int, error)
	Increment(ctx context.Context, userID int64, day time.Time) error
}

// BookmarkRepository stores saved passage references per user.
type BookmarkRepository interface {
	List(ctx context.Context, userID int64) ([]models.Bookmark, error)
	// Find returns (nil, nil) when the user has no bookmark for the reference.
	Find(ctx context.Context, userID int64, reference string) (*models.Bookmark, error)
	Create(ctx context.Context, bookmark *models.Bookmark) error
	// Delete returns false when no bookmark with the id belongs to the user.
	Delete(ctx context.Context, userID, id int64) (bool, error)
}

// TransactionRepository records payment activity: append-only Stars
// transactions plus donation and purchase rows with a pending/completed
// lifecycle.
type TransactionRepository interface {
	// FindStarTransaction returns (nil, nil) when the charge id is unknown.
	FindStarTransaction(ctx context.Context, chargeID string) (*models.StarTransaction, error)
	CreateStarTransaction(ctx context.Context, txn *models.StarTransaction) error
	// DeleteStarTransaction removes a recorded charge. This is the compensation
	// path when crediting fails after the record was written; without it a
	// redelivered payment would read as a duplicate and never credit.
	DeleteStarTransaction(ctx context.Context, chargeID string) error

	CreateDonation(ctx context.Context, donation *models.Donation) error
	CreatePremiumPurchase(ctx context.Context, purchase *models.PremiumPurchase) error

	// CompleteDonation moves a pending donation to the given status. Returns
	// false when no pending row matches the payment id.
	CompleteDonation(ctx context.Context, paymentID, status, email string) (bool, error)
	// CompletePurchase moves a pending purchase to completed and returns it,
	// or (nil, nil) when no pending row matches.
	CompletePurchase(ctx context.Context, paymentID string) (*models.PremiumPurchase, error)
	// ReopenPurchase flips a completed purchase back to pending so a webhook
	// redelivery can retry a credit that failed after completion.
	ReopenPurchase(ctx context.Context, paymentID string) error
	// MarkPurchaseFailed records a cancelled payment.
	MarkPurchaseFailed(ctx context.Context, paymentID string) error
}
