package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/supabase-community/supabase-go"
)

type SupabaseUsageRepository struct {
	client *supabase.Client
}

func NewSupabaseUsageRepository(client *supabase.Client) *SupabaseUsageRepository {
	return &SupabaseUsageRepository{client: client}
}

type usageRow struct {
	UserID        int64  `json:"user_id"`
	UsageDate     string `json:"usage_date"`
	RequestsCount int    `json:"requests_count"`
}

func (r *SupabaseUsageRepository) CountForDay(ctx context.Context, userID int64, day time.Time) (int, error) {
	data, _, err := r.client.From("ai_usage").
		Select("*", "", false).
		Eq("user_id", strconv.FormatInt(userID, 10)).
		Eq("usage_date", day.UTC().Format(usageDateLayout)).
		Execute()
	if err != nil {
		return 0, fmt.Errorf("count daily usage: %w", err)
	}

	var rows []usageRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return 0, fmt.Errorf("unmarshal daily usage: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].RequestsCount, nil
}

// Increment goes through the increment_ai_usage Postgres function so the
// upsert-and-add happens in one statement inside the store:
//
//	CREATE FUNCTION increment_ai_usage(p_user_id BIGINT, p_usage_date DATE) RETURNS INTEGER AS $$
//	    INSERT INTO ai_usage (user_id, usage_date, requests_count)
//	    VALUES (p_user_id, p_usage_date, 1)
//	    ON CONFLICT (user_id, usage_date)
//	    DO UPDATE SET requests_count = ai_usage.requests_count + 1
//	    RETURNING requests_count;
//	$$ LANGUAGE sql;
//
// A read-then-upsert pair can lose one of two concurrent updates and let a
// user slip one request past the daily limit.
func (r *SupabaseUsageRepository) Increment(ctx context.Context, userID int64, day time.Time) error {
	result := r.client.Rpc("increment_ai_usage", "", map[string]interface{}{
		"p_user_id":    userID,
		"p_usage_date": day.UTC().Format(usageDateLayout),
	})
	if _, err := strconv.Atoi(strings.TrimSpace(result)); err != nil {
		return fmt.Errorf("increment_ai_usage rpc: unexpected response %q", result)
	}
	return nil
}
