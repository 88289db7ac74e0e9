package service

import (
	"context"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bedrik/gospelbot/internal/yookassa"
)

type paymentFixture struct {
	svc        *PaymentService
	premium    *PremiumService
	ledgerRepo *fakePremiumRepo
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cfg := testConfig()
	settings := newSettingsService(cfg, testLogger(), newFakeSettingsRepo(), func() time.Time { return now })
	ledgerRepo := newFakePremiumRepo()
	premium := NewPremiumService(testLogger(), ledgerRepo, newFakeTxnRepo())
	kassa := yookassa.NewClient(cfg, testLogger())
	return &paymentFixture{
		svc:        NewPaymentService(cfg, testLogger(), premium, settings, kassa),
		premium:    premium,
		ledgerRepo: ledgerRepo,
	}
}

func starsPayment(payload string, amount int, chargeID string) *tgbotapi.SuccessfulPayment {
	return &tgbotapi.SuccessfulPayment{
		Currency:                "XTR",
		TotalAmount:             amount,
		InvoicePayload:          payload,
		TelegramPaymentChargeID: chargeID,
	}
}

func TestHandleSuccessfulPaymentPremiumPackage(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	result, err := f.svc.HandleSuccessfulPayment(ctx, 7, starsPayment("premium_stars_25_100_7", 100, "ch-1"))
	require.NoError(t, err)
	assert.Equal(t, "premium", result.Kind)
	assert.Equal(t, 25, result.RequestsAdded)
	assert.False(t, result.Duplicate)
	assert.Equal(t, 25, f.premium.GetUserPremiumRequests(ctx, 7))
}

func TestHandleSuccessfulPaymentReplayedChargeDoesNotDoubleCredit(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	payment := starsPayment("premium_stars_25_100_7", 100, "ch-1")

	_, err := f.svc.HandleSuccessfulPayment(ctx, 7, payment)
	require.NoError(t, err)

	result, err := f.svc.HandleSuccessfulPayment(ctx, 7, payment)
	require.NoError(t, err)
	assert.True(t, result.Duplicate)
	assert.Equal(t, 0, result.RequestsAdded)
	assert.Equal(t, 25, f.premium.GetUserPremiumRequests(ctx, 7))
}

func TestHandleSuccessfulPaymentDonation(t *testing.T) {
	f := newPaymentFixture(t)

	result, err := f.svc.HandleSuccessfulPayment(context.Background(), 7, starsPayment("donation_stars_50_7", 50, "ch-d"))
	require.NoError(t, err)
	assert.Equal(t, "donation", result.Kind)
	assert.Equal(t, 50, result.AmountStars)
	assert.False(t, result.Duplicate)
}

func TestHandleSuccessfulPaymentRejectsMalformedPayload(t *testing.T) {
	f := newPaymentFixture(t)

	_, err := f.svc.HandleSuccessfulPayment(context.Background(), 7, starsPayment("garbage", 50, "ch-x"))
	assert.Error(t, err)

	_, err = f.svc.HandleSuccessfulPayment(context.Background(), 7, starsPayment("premium_stars_abc_100_7", 100, "ch-y"))
	assert.Error(t, err)
}

func TestHandleSuccessfulPaymentRejectsWrongCurrency(t *testing.T) {
	f := newPaymentFixture(t)
	payment := starsPayment("donation_stars_50_7", 50, "ch-z")
	payment.Currency = "RUB"

	_, err := f.svc.HandleSuccessfulPayment(context.Background(), 7, payment)
	assert.Error(t, err)
}

func TestHandleSuccessfulPaymentRequiresChargeID(t *testing.T) {
	f := newPaymentFixture(t)

	_, err := f.svc.HandleSuccessfulPayment(context.Background(), 7, starsPayment("donation_stars_50_7", 50, ""))
	assert.Error(t, err)
}

func TestFindStarPackage(t *testing.T) {
	pkg, ok := FindStarPackage(25)
	require.True(t, ok)
	assert.Equal(t, 100, pkg.Stars)

	_, ok = FindStarPackage(26)
	assert.False(t, ok)
}

func TestYooKassaWebhookSucceededCreditsPurchase(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	require.NoError(t, f.premium.CreatePendingPurchase(ctx, 7, 50, 100, "pay-1"))

	payload := []byte(`{"event":"payment.succeeded","object":{"id":"pay-1","status":"succeeded"}}`)
	outcome, err := f.svc.HandleYooKassaWebhook(ctx, payload)
	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.Equal(t, int64(7), outcome.UserID)
	assert.Equal(t, 50, outcome.RequestsAdded)
	assert.Equal(t, 50, f.premium.GetUserPremiumRequests(ctx, 7))

	// Replay: no pending row left, nothing credited.
	outcome, err = f.svc.HandleYooKassaWebhook(ctx, payload)
	require.NoError(t, err)
	assert.Nil(t, outcome)
	assert.Equal(t, 50, f.premium.GetUserPremiumRequests(ctx, 7))
}

func TestYooKassaWebhookRedeliveryCreditsAfterFailedLedgerWrite(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	require.NoError(t, f.premium.CreatePendingPurchase(ctx, 7, 50, 100, "pay-1"))
	payload := []byte(`{"event":"payment.succeeded","object":{"id":"pay-1","status":"succeeded"}}`)

	f.ledgerRepo.addErr = assert.AnError
	_, err := f.svc.HandleYooKassaWebhook(ctx, payload)
	require.Error(t, err)

	// YooKassa retries webhooks that did not get a 200; the purchase must
	// still be creditable.
	f.ledgerRepo.addErr = nil
	outcome, err := f.svc.HandleYooKassaWebhook(ctx, payload)
	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.Equal(t, 50, outcome.RequestsAdded)
	assert.Equal(t, 50, f.premium.GetUserPremiumRequests(ctx, 7))
}

func TestYooKassaWebhookCanceledLeavesBalanceAlone(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	require.NoError(t, f.premium.CreatePendingPurchase(ctx, 7, 50, 100, "pay-2"))

	payload := []byte(`{"event":"payment.canceled","object":{"id":"pay-2","status":"canceled"}}`)
	outcome, err := f.svc.HandleYooKassaWebhook(ctx, payload)
	require.NoError(t, err)
	assert.Nil(t, outcome)
	assert.Equal(t, 0, f.premium.GetUserPremiumRequests(ctx, 7))
}

func TestYooKassaWebhookRejectsMissingPaymentID(t *testing.T) {
	f := newPaymentFixture(t)

	_, err := f.svc.HandleYooKassaWebhook(context.Background(), []byte(`{"event":"payment.succeeded","object":{}}`))
	assert.Error(t, err)
}

func TestMarkDonationComplete(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	require.NoError(t, f.premium.CreatePendingDonation(ctx, 7, 300, "don-1", ""))

	updated, err := f.svc.MarkDonationComplete(ctx, "don-1", "", "user@example.com")
	require.NoError(t, err)
	assert.True(t, updated)

	_, err = f.svc.MarkDonationComplete(ctx, "", "completed", "")
	assert.Error(t, err)
}
