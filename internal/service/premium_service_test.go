package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPremiumService(premium *fakePremiumRepo, txns *fakeTxnRepo) *PremiumService {
	return NewPremiumService(testLogger(), premium, txns)
}

func TestPremiumBalanceZeroForUnknownUser(t *testing.T) {
	svc := newTestPremiumService(newFakePremiumRepo(), newFakeTxnRepo())
	assert.Equal(t, 0, svc.GetUserPremiumRequests(context.Background(), 1))
}

func TestPremiumBalanceZeroOnStoreError(t *testing.T) {
	premium := newFakePremiumRepo()
	premium.getErr = assert.AnError
	svc := newTestPremiumService(premium, newFakeTxnRepo())
	assert.Equal(t, 0, svc.GetUserPremiumRequests(context.Background(), 1))
}

func TestPremiumAddThenConsumeToZero(t *testing.T) {
	premium := newFakePremiumRepo()
	svc := newTestPremiumService(premium, newFakeTxnRepo())
	ctx := context.Background()

	require.NoError(t, svc.AddPremiumRequests(ctx, 1, 3))
	assert.Equal(t, 3, svc.GetUserPremiumRequests(ctx, 1))

	for i := 0; i < 3; i++ {
		consumed, err := svc.UsePremiumRequest(ctx, 1)
		require.NoError(t, err)
		assert.True(t, consumed, "consume %d", i+1)
	}

	consumed, err := svc.UsePremiumRequest(ctx, 1)
	require.NoError(t, err)
	assert.False(t, consumed, "balance exhausted")
	assert.Equal(t, 0, svc.GetUserPremiumRequests(ctx, 1))

	stats := svc.GetUserPremiumStats(ctx, 1)
	assert.Equal(t, 0, stats.Available)
	assert.Equal(t, 3, stats.TotalPurchased)
	assert.Equal(t, 3, stats.TotalUsed)
}

func TestPremiumAddRejectsNonPositiveCount(t *testing.T) {
	svc := newTestPremiumService(newFakePremiumRepo(), newFakeTxnRepo())
	assert.Error(t, svc.AddPremiumRequests(context.Background(), 1, 0))
	assert.Error(t, svc.AddPremiumRequests(context.Background(), 1, -5))
}

func TestPremiumStatsZeroValuedForUnknownUser(t *testing.T) {
	svc := newTestPremiumService(newFakePremiumRepo(), newFakeTxnRepo())
	stats := svc.GetUserPremiumStats(context.Background(), 404)
	assert.Equal(t, 0, stats.Available)
	assert.Equal(t, 0, stats.TotalPurchased)
	assert.Equal(t, 0, stats.TotalUsed)
	assert.Nil(t, stats.CreatedAt)
}

func TestStarPurchaseCreditsOnce(t *testing.T) {
	premium := newFakePremiumRepo()
	svc := newTestPremiumService(premium, newFakeTxnRepo())
	ctx := context.Background()

	recorded, err := svc.RecordStarPurchase(ctx, 1, 25, 100, "charge-1")
	require.NoError(t, err)
	assert.True(t, recorded)
	assert.Equal(t, 25, svc.GetUserPremiumRequests(ctx, 1))

	// Telegram redelivers the same successful_payment update.
	recorded, err = svc.RecordStarPurchase(ctx, 1, 25, 100, "charge-1")
	require.NoError(t, err)
	assert.False(t, recorded)
	assert.Equal(t, 25, svc.GetUserPremiumRequests(ctx, 1))
}

func TestStarPurchaseRetriesAfterFailedCredit(t *testing.T) {
	premium := newFakePremiumRepo()
	txns := newFakeTxnRepo()
	svc := newTestPremiumService(premium, txns)
	ctx := context.Background()

	// The charge record is written but the ledger write dies.
	premium.addErr = assert.AnError
	_, err := svc.RecordStarPurchase(ctx, 1, 50, 175, "ch-1")
	require.Error(t, err)
	assert.Empty(t, txns.stars, "charge record rolled back so the retry is not a duplicate")

	// Telegram redelivers the update once the store is healthy again.
	premium.addErr = nil
	recorded, err := svc.RecordStarPurchase(ctx, 1, 50, 175, "ch-1")
	require.NoError(t, err)
	assert.True(t, recorded)
	assert.Equal(t, 50, svc.GetUserPremiumRequests(ctx, 1))
}

func TestCompletePurchaseRetriesAfterFailedCredit(t *testing.T) {
	premium := newFakePremiumRepo()
	txns := newFakeTxnRepo()
	svc := newTestPremiumService(premium, txns)
	ctx := context.Background()
	require.NoError(t, svc.CreatePendingPurchase(ctx, 7, 50, 100, "pay-1"))

	premium.addErr = assert.AnError
	_, err := svc.CompletePurchase(ctx, "pay-1")
	require.Error(t, err)
	assert.Equal(t, "pending", txns.purchases["pay-1"].PaymentStatus, "purchase reopened for the next webhook delivery")

	premium.addErr = nil
	purchase, err := svc.CompletePurchase(ctx, "pay-1")
	require.NoError(t, err)
	require.NotNil(t, purchase)
	assert.Equal(t, 50, svc.GetUserPremiumRequests(ctx, 7))
}

func TestStarDonationDeduplicatesByChargeID(t *testing.T) {
	txns := newFakeTxnRepo()
	svc := newTestPremiumService(newFakePremiumRepo(), txns)
	ctx := context.Background()

	recorded, err := svc.RecordStarDonation(ctx, 1, 50, "charge-d")
	require.NoError(t, err)
	assert.True(t, recorded)

	recorded, err = svc.RecordStarDonation(ctx, 1, 50, "charge-d")
	require.NoError(t, err)
	assert.False(t, recorded)
	assert.Len(t, txns.stars, 1)
}

func TestCompletePurchaseCreditsPendingOnly(t *testing.T) {
	premium := newFakePremiumRepo()
	svc := newTestPremiumService(premium, newFakeTxnRepo())
	ctx := context.Background()

	require.NoError(t, svc.CreatePendingPurchase(ctx, 7, 50, 100, "pay-1"))
	assert.Equal(t, 0, svc.GetUserPremiumRequests(ctx, 7), "no credit before completion")

	purchase, err := svc.CompletePurchase(ctx, "pay-1")
	require.NoError(t, err)
	require.NotNil(t, purchase)
	assert.Equal(t, int64(7), purchase.UserID)
	assert.Equal(t, 50, svc.GetUserPremiumRequests(ctx, 7))

	// A replayed webhook finds no pending row and credits nothing.
	purchase, err = svc.CompletePurchase(ctx, "pay-1")
	require.NoError(t, err)
	assert.Nil(t, purchase)
	assert.Equal(t, 50, svc.GetUserPremiumRequests(ctx, 7))
}

func TestCompleteDonationUpdatesPendingOnly(t *testing.T) {
	svc := newTestPremiumService(newFakePremiumRepo(), newFakeTxnRepo())
	ctx := context.Background()

	require.NoError(t, svc.CreatePendingDonation(ctx, 7, 300, "don-1", "спасибо"))

	updated, err := svc.CompleteDonation(ctx, "don-1", "completed", "user@example.com")
	require.NoError(t, err)
	assert.True(t, updated)

	updated, err = svc.CompleteDonation(ctx, "don-1", "completed", "")
	require.NoError(t, err)
	assert.False(t, updated)

	updated, err = svc.CompleteDonation(ctx, "unknown", "completed", "")
	require.NoError(t, err)
	assert.False(t, updated)
}
