package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/supabase-community/supabase-go"

	"github.com/bedrik/gospelbot/internal/models"
)

type SupabasePremiumRepository struct {
	client *supabase.Client
}

func NewSupabasePremiumRepository(client *supabase.Client) *SupabasePremiumRepository {
	return &SupabasePremiumRepository{client: client}
}

type premiumRow struct {
	UserID         int64  `json:"user_id"`
	RequestsCount  int    `json:"requests_count"`
	TotalPurchased int    `json:"total_purchased"`
	TotalUsed      int    `json:"total_used"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

func (r *SupabasePremiumRepository) Get(ctx context.Context, userID int64) (*models.PremiumAccount, error) {
	data, _, err := r.client.From("premium_requests").
		Select("*", "", false).
		Eq("user_id", strconv.FormatInt(userID, 10)).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("get premium account: %w", err)
	}

	var rows []premiumRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal premium account: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	row := rows[0]
	createdAt, _ := time.Parse(time.RFC3339, row.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, row.UpdatedAt)
	return &models.PremiumAccount{
		UserID:         row.UserID,
		RequestsCount:  row.RequestsCount,
		TotalPurchased: row.TotalPurchased,
		TotalUsed:      row.TotalUsed,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}, nil
}

func (r *SupabasePremiumRepository) AddRequests(ctx context.Context, userID int64, count int) error {
	existing, err := r.Get(ctx, userID)
	if err != nil {
		return err
	}

	payload := map[string]interface{}{
		"user_id":    userID,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}
	if existing != nil {
		payload["requests_count"] = existing.RequestsCount + count
		payload["total_purchased"] = existing.TotalPurchased + count
		payload["total_used"] = existing.TotalUsed
	} else {
		payload["requests_count"] = count
		payload["total_purchased"] = count
		payload["total_used"] = 0
	}

	_, _, err = r.client.From("premium_requests").
		Upsert(payload, "user_id", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("add premium requests: %w", err)
	}
	return nil
}

// ConsumeRequest goes through the use_premium_request Postgres function so
// the check-and-decrement happens in one statement inside the store:
//
//	CREATE FUNCTION use_premium_request(p_user_id BIGINT) RETURNS BOOLEAN AS $$
//	    UPDATE premium_requests
//	    SET requests_count = requests_count - 1,
//	        total_used = total_used + 1,
//	        updated_at = NOW()
//	    WHERE user_id = p_user_id AND requests_count > 0
//	    RETURNING TRUE;
//	$$ LANGUAGE sql;
//
// PostgREST alone cannot express a relative update, and a read-then-write
// pair would reopen the double-spend race on the last credit.
func (r *SupabasePremiumRepository) ConsumeRequest(ctx context.Context, userID int64) (bool, error) {
	result := r.client.Rpc("use_premium_request", "", map[string]interface{}{
		"p_user_id": userID,
	})
	switch strings.TrimSpace(result) {
	case "true":
		return true, nil
	case "false", "null", "":
		return false, nil
	default:
		return false, fmt.Errorf("use_premium_request rpc: unexpected response %q", result)
	}
}
