package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/bedrik/gospelbot/internal/config"
	"github.com/bedrik/gospelbot/internal/yookassa"
)

const starsCurrency = "XTR"

// StarPackage is a purchasable bundle of premium requests priced in Stars.
type StarPackage struct {
	Requests int
	Stars    int
}

// StarPackages are the bundles offered in the purchase menu, cheapest first.
var StarPackages = []StarPackage{
	{Requests: 10, Stars: 50},
	{Requests: 25, Stars: 100},
	{Requests: 50, Stars: 175},
}

// DonationAmounts are the preset Stars donation buttons.
var DonationAmounts = []int{25, 50, 100, 250}

func FindStarPackage(requests int) (StarPackage, bool) {
	for _, pkg := range StarPackages {
		if pkg.Requests == requests {
			return pkg, true
		}
	}
	return StarPackage{}, false
}

// PaymentService owns both payment rails: Telegram Stars invoices handled
// inside the bot, and YooKassa payments confirmed by webhook.
type PaymentService struct {
	cfg      config.Config
	log      *slog.Logger
	premium  *PremiumService
	settings *SettingsService
	kassa    *yookassa.Client
}

func NewPaymentService(cfg config.Config, log *slog.Logger, premium *PremiumService, settings *SettingsService, kassa *yookassa.Client) *PaymentService {
	return &PaymentService{
		cfg:      cfg,
		log:      log,
		premium:  premium,
		settings: settings,
		kassa:    kassa,
	}
}

// SendDonationInvoice sends a Stars invoice for a voluntary donation.
// Stars invoices carry an empty provider token.
func (s *PaymentService) SendDonationInvoice(bot *tgbotapi.BotAPI, chatID, userID int64, amountStars int) error {
	payload := fmt.Sprintf("donation_stars_%d_%d", amountStars, userID)
	prices := []tgbotapi.LabeledPrice{
		{Label: fmt.Sprintf("Пожертвование %d ⭐", amountStars), Amount: amountStars},
	}

	invoice := tgbotapi.NewInvoice(chatID,
		"Поддержать проект",
		"Добровольное пожертвование на развитие бота",
		payload,
		"",
		"donation",
		starsCurrency,
		prices,
	)
	if _, err := bot.Send(invoice); err != nil {
		return fmt.Errorf("send donation invoice: %w", err)
	}
	return nil
}

// SendPremiumInvoice sends a Stars invoice for a premium-request package.
func (s *PaymentService) SendPremiumInvoice(bot *tgbotapi.BotAPI, chatID, userID int64, pkg StarPackage) error {
	payload := fmt.Sprintf("premium_stars_%d_%d_%d", pkg.Requests, pkg.Stars, userID)
	prices := []tgbotapi.LabeledPrice{
		{Label: fmt.Sprintf("%d премиум-запросов", pkg.Requests), Amount: pkg.Stars},
	}

	invoice := tgbotapi.NewInvoice(chatID,
		fmt.Sprintf("Премиум ИИ: %d запросов", pkg.Requests),
		"Пакет премиум-запросов к ИИ-помощнику",
		payload,
		"",
		"premium",
		starsCurrency,
		prices,
	)
	if _, err := bot.Send(invoice); err != nil {
		return fmt.Errorf("send premium invoice: %w", err)
	}
	return nil
}

// HandlePreCheckout approves Stars checkouts and rejects anything in another
// currency: the bot never configures a fiat provider token for invoices.
func (s *PaymentService) HandlePreCheckout(bot *tgbotapi.BotAPI, query *tgbotapi.PreCheckoutQuery) error {
	response := tgbotapi.PreCheckoutConfig{
		PreCheckoutQueryID: query.ID,
		OK:                 true,
	}
	if query.Currency != starsCurrency {
		response.OK = false
		response.ErrorMessage = "Оплата доступна только в Telegram Stars"
	}
	if _, err := bot.Request(response); err != nil {
		return fmt.Errorf("answer pre-checkout: %w", err)
	}
	return nil
}

// SuccessfulPaymentResult tells the caller what to announce in chat.
type SuccessfulPaymentResult struct {
	Kind          string // "donation" or "premium"
	RequestsAdded int
	AmountStars   int
	Duplicate     bool
}

// HandleSuccessfulPayment routes a successful_payment update by its payload.
// The charge id de-duplication lives in PremiumService, so Telegram redelivery
// cannot credit twice.
func (s *PaymentService) HandleSuccessfulPayment(ctx context.Context, userID int64, payment *tgbotapi.SuccessfulPayment) (*SuccessfulPaymentResult, error) {
	if payment.Currency != starsCurrency {
		return nil, fmt.Errorf("unexpected payment currency %q", payment.Currency)
	}
	chargeID := payment.TelegramPaymentChargeID
	if chargeID == "" {
		return nil, fmt.Errorf("successful payment without charge id")
	}

	parts := strings.Split(payment.InvoicePayload, "_")
	switch {
	case len(parts) == 4 && parts[0] == "donation" && parts[1] == "stars":
		amount, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, fmt.Errorf("parse donation payload %q: %w", payment.InvoicePayload, err)
		}
		if amount != payment.TotalAmount {
			s.log.Warn("donation payload amount mismatch", "payload", amount, "paid", payment.TotalAmount)
			amount = payment.TotalAmount
		}
		recorded, err := s.premium.RecordStarDonation(ctx, userID, amount, chargeID)
		if err != nil {
			return nil, err
		}
		return &SuccessfulPaymentResult{Kind: "donation", AmountStars: amount, Duplicate: !recorded}, nil

	case len(parts) == 5 && parts[0] == "premium" && parts[1] == "stars":
		requests, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, fmt.Errorf("parse premium payload %q: %w", payment.InvoicePayload, err)
		}
		cost, err := strconv.Atoi(parts[3])
		if err != nil {
			return nil, fmt.Errorf("parse premium payload %q: %w", payment.InvoicePayload, err)
		}
		if cost != payment.TotalAmount {
			s.log.Warn("premium payload cost mismatch", "payload", cost, "paid", payment.TotalAmount)
		}
		recorded, err := s.premium.RecordStarPurchase(ctx, userID, requests, payment.TotalAmount, chargeID)
		if err != nil {
			return nil, err
		}
		result := &SuccessfulPaymentResult{Kind: "premium", AmountStars: payment.TotalAmount, Duplicate: !recorded}
		if recorded {
			result.RequestsAdded = requests
		}
		return result, nil

	default:
		return nil, fmt.Errorf("unknown invoice payload %q", payment.InvoicePayload)
	}
}

// CreatePremiumPayment starts a YooKassa purchase of the standard premium
// package and returns the confirmation the user needs to pay.
func (s *PaymentService) CreatePremiumPayment(ctx context.Context, userID int64, email string) (*yookassa.Payment, error) {
	price := s.settings.GetPremiumPrice(ctx)
	requests := s.settings.GetPremiumRequests(ctx)

	description := fmt.Sprintf("Премиум ИИ: %d запросов", requests)
	payment, err := s.kassa.CreatePaymentRedirect(ctx, price, description, email, map[string]string{
		"user_id": strconv.FormatInt(userID, 10),
		"kind":    "premium",
	})
	if err != nil {
		return nil, fmt.Errorf("create premium payment: %w", err)
	}
	if err := s.premium.CreatePendingPurchase(ctx, userID, requests, price, payment.ID); err != nil {
		return nil, err
	}
	return payment, nil
}

// CreateDonationPayment starts a YooKassa donation.
func (s *PaymentService) CreateDonationPayment(ctx context.Context, userID int64, amountRub int, email, message string) (*yookassa.Payment, error) {
	payment, err := s.kassa.CreatePaymentRedirect(ctx, amountRub, "Пожертвование на развитие бота", email, map[string]string{
		"user_id": strconv.FormatInt(userID, 10),
		"kind":    "donation",
	})
	if err != nil {
		return nil, fmt.Errorf("create donation payment: %w", err)
	}
	if err := s.premium.CreatePendingDonation(ctx, userID, amountRub, payment.ID, message); err != nil {
		return nil, err
	}
	return payment, nil
}

// WebhookOutcome is what a processed YooKassa notification did, so the bot
// can tell the payer.
type WebhookOutcome struct {
	UserID        int64
	Kind          string
	RequestsAdded int
}

// HandleYooKassaWebhook processes a payment.succeeded / payment.canceled
// notification. Unknown payment ids and repeated notifications are ignored.
func (s *PaymentService) HandleYooKassaWebhook(ctx context.Context, payload []byte) (*WebhookOutcome, error) {
	var evt struct {
		Event  string `json:"event"`
		Object struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"object"`
	}
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, fmt.Errorf("parse webhook: %w", err)
	}
	if evt.Object.ID == "" {
		return nil, fmt.Errorf("webhook missing payment id")
	}

	switch evt.Object.Status {
	case "succeeded":
		purchase, err := s.premium.CompletePurchase(ctx, evt.Object.ID)
		if err != nil {
			return nil, err
		}
		if purchase != nil {
			return &WebhookOutcome{
				UserID:        purchase.UserID,
				Kind:          "premium",
				RequestsAdded: purchase.RequestsCount,
			}, nil
		}
		// Not a purchase; try the donations ledger.
		updated, err := s.premium.CompleteDonation(ctx, evt.Object.ID, "completed", "")
		if err != nil {
			return nil, err
		}
		if !updated {
			s.log.Warn("webhook for unknown payment", "payment_id", evt.Object.ID)
		}
		return nil, nil

	case "canceled":
		if err := s.premium.FailPurchase(ctx, evt.Object.ID); err != nil {
			return nil, err
		}
		if _, err := s.premium.CompleteDonation(ctx, evt.Object.ID, "canceled", ""); err != nil {
			return nil, err
		}
		return nil, nil

	default:
		s.log.Info("yookassa webhook ignored", "event", evt.Event, "status", evt.Object.Status)
		return nil, nil
	}
}

// MarkDonationComplete is the manual completion path used by the admin API:
// the payment frontend posts back the payment id, final status, and the
// receipt email the user entered.
func (s *PaymentService) MarkDonationComplete(ctx context.Context, paymentID, status, email string) (bool, error) {
	if paymentID == "" {
		return false, fmt.Errorf("payment id is required")
	}
	if status == "" {
		status = "completed"
	}
	return s.premium.CompleteDonation(ctx, paymentID, status, email)
}
