package ai

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

	"github.com/bedrik/gospelbot/internal/config"
	"github.com/bedrik/gospelbot/internal/models"
)

const systemPrompt = "Ты — православный помощник по изучению Библии. " +
	"Объясняй стихи кратко и по существу, опираясь на текст Синодального перевода. " +
	"Не выдумывай несуществующих цитат."

// Client talks to an OpenRouter-compatible chat completions API. The model
// is chosen per request by the quality tier the quota gate granted.
type Client struct {
	apiKey       string
	baseURL      string
	model        string
	premiumModel string
	httpClient   *http.Client
	log          *slog.Logger
}

func NewClient(cfg config.Config, log *slog.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		apiKey:       cfg.AIAPIKey,
		baseURL:      strings.TrimRight(cfg.AIBaseURL, "/"),
		model:        cfg.AIModel,
		premiumModel: cfg.AIPremiumModel,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

func (c *Client) modelFor(tier models.Tier) string {
	if tier == models.TierPremium && c.premiumModel != "" {
		return c.premiumModel
	}
	return c.model
}

// ExplainVerse asks the model to comment on the given passage text.
func (c *Client) ExplainVerse(ctx context.Context, reference, passage string, tier models.Tier) (string, error) {
	prompt := fmt.Sprintf("Объясни смысл отрывка %s:\n\n%s", reference, passage)
	return c.complete(ctx, prompt, tier)
}

// Answer handles a free-form question about Scripture.
func (c *Client) Answer(ctx context.Context, question string, tier models.Tier) (string, error) {
	return c.complete(ctx, question, tier)
}

func (c *Client) complete(ctx context.Context, prompt string, tier models.Tier) (string, error) {
	model := c.modelFor(tier)
	requestBody := map[string]any{
		"model": model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": prompt},
		},
	}

	body, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("post chat completion: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode >= 300 {
		if c.log != nil {
			c.log.Error("ai request failed", "status", resp.StatusCode, "model", model, "body", truncateBody(rawBody))
		}
		return "", fmt.Errorf("ai error: status=%d body=%s", resp.StatusCode, truncateBody(rawBody))
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(rawBody, &completion); err != nil {
		return "", fmt.Errorf("decode completion: %w (body=%s)", err, truncateBody(rawBody))
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("empty choices in completion")
	}

	answer := strings.TrimSpace(completion.Choices[0].Message.Content)
	if answer == "" {
		return "", fmt.Errorf("empty completion content")
	}
	return answer, nil
}

func truncateBody(body []byte) string {
	const limit = 512
	text := strings.TrimSpace(string(body))
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}
