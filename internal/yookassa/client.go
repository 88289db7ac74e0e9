package yookassa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bedrik/gospelbot/internal/config"
)

const defaultBaseURL = "https://api.yookassa.ru/v3"

// APIError is a response YooKassa itself produced, as opposed to a transport
// failure. Callers branch on it to decide between "payment rejected" and
// "try again later".
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("yookassa error: status=%d body=%s", e.Status, e.Body)
}

type Client struct {
	shopID     string
	secretKey  string
	baseURL    string
	returnURL  string
	httpClient *http.Client
	log        *slog.Logger
}

// Payment is the subset of the YooKassa payment object the bot acts on.
type Payment struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	Paid              bool   `json:"paid"`
	ConfirmationToken string
	ConfirmationURL   string
}

type paymentResponse struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Paid         bool   `json:"paid"`
	Confirmation struct {
		Type              string `json:"type"`
		ConfirmationToken string `json:"confirmation_token"`
		ConfirmationURL   string `json:"confirmation_url"`
	} `json:"confirmation"`
}

func NewClient(cfg config.Config, log *slog.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		shopID:    cfg.YooKassaShopID,
		secretKey: cfg.YooKassaSecretKey,
		baseURL:   defaultBaseURL,
		returnURL: cfg.YooKassaReturnURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Configured reports whether shop credentials are present. The bot degrades
// to Stars-only payments when they are not.
func (c *Client) Configured() bool {
	return c.shopID != "" && c.secretKey != ""
}

// CreatePayment creates an embedded-widget payment and returns the
// confirmation token the frontend widget needs.
func (c *Client) CreatePayment(ctx context.Context, amountRub int, description, email string, metadata map[string]string) (*Payment, error) {
	return c.createPayment(ctx, amountRub, description, email, metadata, map[string]any{
		"type": "embedded",
	})
}

// CreatePaymentSBP creates a payment confirmed through the SBP bank flow.
func (c *Client) CreatePaymentSBP(ctx context.Context, amountRub int, description, email string, metadata map[string]string) (*Payment, error) {
	return c.createPayment(ctx, amountRub, description, email, metadata, map[string]any{
		"type":       "redirect",
		"return_url": c.returnURL,
	}, withPaymentMethod("sbp"))
}

// CreatePaymentRedirect creates a payment confirmed on the YooKassa-hosted
// page; the returned ConfirmationURL is where the user goes to pay.
func (c *Client) CreatePaymentRedirect(ctx context.Context, amountRub int, description, email string, metadata map[string]string) (*Payment, error) {
	return c.createPayment(ctx, amountRub, description, email, metadata, map[string]any{
		"type":       "redirect",
		"return_url": c.returnURL,
	})
}

type createOption func(map[string]any)

func withPaymentMethod(method string) createOption {
	return func(body map[string]any) {
		body["payment_method_data"] = map[string]any{"type": method}
	}
}

func (c *Client) createPayment(ctx context.Context, amountRub int, description, email string, metadata map[string]string, confirmation map[string]any, opts ...createOption) (*Payment, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("yookassa credentials are not configured")
	}

	body := map[string]any{
		"amount": map[string]any{
			"value":    fmt.Sprintf("%d.00", amountRub),
			"currency": "RUB",
		},
		"confirmation": confirmation,
		"capture":      true,
		"description":  description,
	}
	if len(metadata) > 0 {
		body["metadata"] = metadata
	}
	if email != "" {
		// Чек по 54-ФЗ
		body["receipt"] = map[string]any{
			"customer": map[string]any{"email": email},
			"items": []map[string]any{
				{
					"description": description,
					"quantity":    "1.00",
					"amount": map[string]any{
						"value":    fmt.Sprintf("%d.00", amountRub),
						"currency": "RUB",
					},
					"vat_code": 1,
				},
			},
			"tax_system_code": 1,
		}
	}
	for _, opt := range opts {
		opt(body)
	}

	raw, err := c.post(ctx, "/payments", body)
	if err != nil {
		return nil, err
	}

	var resp paymentResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode payment response: %w (body=%s)", err, truncateBody(raw))
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("empty payment id in response")
	}

	if c.log != nil {
		c.log.Info("yookassa payment created", "payment_id", resp.ID, "status", resp.Status)
	}
	return &Payment{
		ID:                resp.ID,
		Status:            resp.Status,
		Paid:              resp.Paid,
		ConfirmationToken: resp.Confirmation.ConfirmationToken,
		ConfirmationURL:   resp.Confirmation.ConfirmationURL,
	}, nil
}

// GetPayment fetches the current state of a payment, used to verify webhook
// notifications against the API instead of trusting the webhook body alone.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("yookassa credentials are not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/payments/"+paymentID, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.SetBasicAuth(c.shopID, c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Body: truncateBody(rawBody)}
	}

	var payment paymentResponse
	if err := json.Unmarshal(rawBody, &payment); err != nil {
		return nil, fmt.Errorf("decode payment: %w (body=%s)", err, truncateBody(rawBody))
	}
	return &Payment{
		ID:                payment.ID,
		Status:            payment.Status,
		Paid:              payment.Paid,
		ConfirmationToken: payment.Confirmation.ConfirmationToken,
		ConfirmationURL:   payment.Confirmation.ConfirmationURL,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, payload map[string]any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.SetBasicAuth(c.shopID, c.secretKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Idempotence-Key", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post yookassa: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 300 {
		if c.log != nil {
			c.log.Error("yookassa request failed", "status", resp.StatusCode, "path", path, "body", truncateBody(rawBody))
		}
		return nil, &APIError{Status: resp.StatusCode, Body: truncateBody(rawBody)}
	}
	return rawBody, nil
}

func truncateBody(body []byte) string {
	const limit = 512
	text := strings.TrimSpace(string(body))
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}
