package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bedrik/gospelbot/internal/models"
	"github.com/bedrik/gospelbot/internal/repository"
)

// PremiumService keeps the per-user balance of purchased premium requests.
// Reads fail soft to zero so chat handlers never break on a store hiccup;
// credit grants surface their error because silently losing a paid package
// is worse than a retry.
type PremiumService struct {
	log     *slog.Logger
	premium repository.PremiumRepository
	txns    repository.TransactionRepository
}

func NewPremiumService(log *slog.Logger, premium repository.PremiumRepository, txns repository.TransactionRepository) *PremiumService {
	return &PremiumService{
		log:     log,
		premium: premium,
		txns:    txns,
	}
}

// GetUserPremiumRequests returns the user's available balance, zero for a
// user with no account and zero on a store error.
func (s *PremiumService) GetUserPremiumRequests(ctx context.Context, userID int64) int {
	account, err := s.premium.Get(ctx, userID)
	if err != nil {
		s.log.Error("get premium balance", "user_id", userID, "err", err)
		return 0
	}
	if account == nil {
		return 0
	}
	return account.RequestsCount
}

// AddPremiumRequests credits the user's balance and lifetime-purchased total.
func (s *PremiumService) AddPremiumRequests(ctx context.Context, userID int64, count int) error {
	if count <= 0 {
		return fmt.Errorf("add premium requests: count must be positive, got %d", count)
	}
	if err := s.premium.AddRequests(ctx, userID, count); err != nil {
		return fmt.Errorf("add premium requests: %w", err)
	}
	s.log.Info("premium requests added", "user_id", userID, "count", count)
	return nil
}

// UsePremiumRequest atomically decrements one request from the balance.
// Returns false without error when the balance is already zero.
func (s *PremiumService) UsePremiumRequest(ctx context.Context, userID int64) (bool, error) {
	consumed, err := s.premium.ConsumeRequest(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("use premium request: %w", err)
	}
	if consumed {
		s.log.Info("premium request used", "user_id", userID)
	}
	return consumed, nil
}

// GetUserPremiumStats returns the balance together with lifetime totals,
// zero-valued for a user who never bought anything.
func (s *PremiumService) GetUserPremiumStats(ctx context.Context, userID int64) models.PremiumStats {
	account, err := s.premium.Get(ctx, userID)
	if err != nil {
		s.log.Error("get premium stats", "user_id", userID, "err", err)
		return models.PremiumStats{}
	}
	if account == nil {
		return models.PremiumStats{}
	}
	createdAt := account.CreatedAt
	return models.PremiumStats{
		Available:      account.RequestsCount,
		TotalPurchased: account.TotalPurchased,
		TotalUsed:      account.TotalUsed,
		CreatedAt:      &createdAt,
	}
}

// RecordStarDonation stores a completed Stars donation keyed by the Telegram
// charge id. A charge id seen before is skipped, so a replayed
// successful_payment update cannot double-count.
func (s *PremiumService) RecordStarDonation(ctx context.Context, userID int64, amountStars int, chargeID string) (bool, error) {
	existing, err := s.txns.FindStarTransaction(ctx, chargeID)
	if err != nil {
		return false, fmt.Errorf("record star donation: %w", err)
	}
	if existing != nil {
		s.log.Warn("duplicate star donation ignored", "user_id", userID, "charge_id", chargeID)
		return false, nil
	}

	txn := &models.StarTransaction{
		UserID:      userID,
		Kind:        models.TransactionDonation,
		AmountStars: amountStars,
		ChargeID:    chargeID,
	}
	if err := s.txns.CreateStarTransaction(ctx, txn); err != nil {
		return false, fmt.Errorf("record star donation: %w", err)
	}
	s.log.Info("star donation recorded", "user_id", userID, "amount_stars", amountStars)
	return true, nil
}

// RecordStarPurchase stores a completed Stars premium purchase and credits the
// balance. Crediting happens only on the first sighting of the charge id.
func (s *PremiumService) RecordStarPurchase(ctx context.Context, userID int64, requestsCount, amountStars int, chargeID string) (bool, error) {
	existing, err := s.txns.FindStarTransaction(ctx, chargeID)
	if err != nil {
		return false, fmt.Errorf("record star purchase: %w", err)
	}
	if existing != nil {
		s.log.Warn("duplicate star purchase ignored", "user_id", userID, "charge_id", chargeID)
		return false, nil
	}

	txn := &models.StarTransaction{
		UserID:        userID,
		Kind:          models.TransactionPremiumPurchase,
		AmountStars:   amountStars,
		RequestsCount: requestsCount,
		ChargeID:      chargeID,
	}
	if err := s.txns.CreateStarTransaction(ctx, txn); err != nil {
		return false, fmt.Errorf("record star purchase: %w", err)
	}
	if err := s.AddPremiumRequests(ctx, userID, requestsCount); err != nil {
		// Take the charge record back out, otherwise Telegram's redelivery of
		// the same update reads as a duplicate and the credit is lost.
		if delErr := s.txns.DeleteStarTransaction(ctx, chargeID); delErr != nil {
			s.log.Error("rollback star purchase record", "user_id", userID, "charge_id", chargeID, "err", delErr)
		}
		return false, err
	}
	s.log.Info("star purchase recorded", "user_id", userID, "requests", requestsCount, "amount_stars", amountStars)
	return true, nil
}

// CreatePendingPurchase registers a YooKassa premium purchase awaiting webhook
// confirmation. The balance is not touched until CompletePurchase.
func (s *PremiumService) CreatePendingPurchase(ctx context.Context, userID int64, requestsCount, amountRub int, paymentID string) error {
	purchase := &models.PremiumPurchase{
		UserID:        userID,
		RequestsCount: requestsCount,
		AmountRub:     amountRub,
		PaymentID:     paymentID,
		PaymentStatus: "pending",
	}
	if err := s.txns.CreatePremiumPurchase(ctx, purchase); err != nil {
		return fmt.Errorf("create pending purchase: %w", err)
	}
	s.log.Info("pending purchase created", "user_id", userID, "payment_id", paymentID)
	return nil
}

// CompletePurchase flips a pending YooKassa purchase to completed and credits
// the balance. The pending-state guard in the store makes a replayed webhook
// a no-op, and the purchase row is returned so the caller can notify the user.
func (s *PremiumService) CompletePurchase(ctx context.Context, paymentID string) (*models.PremiumPurchase, error) {
	purchase, err := s.txns.CompletePurchase(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("complete purchase: %w", err)
	}
	if purchase == nil {
		s.log.Warn("purchase not pending, nothing to complete", "payment_id", paymentID)
		return nil, nil
	}
	if err := s.AddPremiumRequests(ctx, purchase.UserID, purchase.RequestsCount); err != nil {
		// Put the row back to pending so the webhook redelivery retries the credit.
		if reopenErr := s.txns.ReopenPurchase(ctx, paymentID); reopenErr != nil {
			s.log.Error("reopen purchase after failed credit", "payment_id", paymentID, "err", reopenErr)
		}
		return nil, err
	}
	s.log.Info("purchase completed", "user_id", purchase.UserID, "payment_id", paymentID)
	return purchase, nil
}

// FailPurchase marks a YooKassa purchase cancelled without crediting anything.
func (s *PremiumService) FailPurchase(ctx context.Context, paymentID string) error {
	if err := s.txns.MarkPurchaseFailed(ctx, paymentID); err != nil {
		return fmt.Errorf("fail purchase: %w", err)
	}
	s.log.Info("purchase marked failed", "payment_id", paymentID)
	return nil
}

// CreatePendingDonation registers a YooKassa donation awaiting confirmation.
func (s *PremiumService) CreatePendingDonation(ctx context.Context, userID int64, amountRub int, paymentID, message string) error {
	donation := &models.Donation{
		UserID:        userID,
		AmountRub:     amountRub,
		PaymentID:     paymentID,
		PaymentStatus: "pending",
		Message:       message,
	}
	if err := s.txns.CreateDonation(ctx, donation); err != nil {
		return fmt.Errorf("create pending donation: %w", err)
	}
	s.log.Info("pending donation created", "user_id", userID, "payment_id", paymentID)
	return nil
}

// CompleteDonation updates a pending donation's status and optional receipt
// email. Returns false when no pending row matched the payment id.
func (s *PremiumService) CompleteDonation(ctx context.Context, paymentID, status, email string) (bool, error) {
	updated, err := s.txns.CompleteDonation(ctx, paymentID, status, email)
	if err != nil {
		return false, fmt.Errorf("complete donation: %w", err)
	}
	if updated {
		s.log.Info("donation completed", "payment_id", paymentID, "status", status)
	}
	return updated, nil
}
