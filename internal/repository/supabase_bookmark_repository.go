package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/supabase-community/supabase-go"

	"github.com/bedrik/gospelbot/internal/models"
)

type SupabaseBookmarkRepository struct {
	client *supabase.Client
}

func NewSupabaseBookmarkRepository(client *supabase.Client) *SupabaseBookmarkRepository {
	return &SupabaseBookmarkRepository{client: client}
}

type bookmarkRow struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	Reference string `json:"reference"`
	CreatedAt string `json:"created_at"`
}

func (row bookmarkRow) toModel() models.Bookmark {
	createdAt, _ := time.Parse(time.RFC3339, row.CreatedAt)
	return models.Bookmark{
		ID:        row.ID,
		UserID:    row.UserID,
		Reference: row.Reference,
		CreatedAt: createdAt,
	}
}

func (r *SupabaseBookmarkRepository) List(ctx context.Context, userID int64) ([]models.Bookmark, error) {
	data, _, err := r.client.From("bookmarks").
		Select("*", "", false).
		Eq("user_id", strconv.FormatInt(userID, 10)).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}

	var rows []bookmarkRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal bookmarks: %w", err)
	}
	out := make([]models.Bookmark, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *SupabaseBookmarkRepository) Find(ctx context.Context, userID int64, reference string) (*models.Bookmark, error) {
	data, _, err := r.client.From("bookmarks").
		Select("*", "", false).
		Eq("user_id", strconv.FormatInt(userID, 10)).
		Eq("reference", reference).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("find bookmark: %w", err)
	}

	var rows []bookmarkRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal bookmark: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	bookmark := rows[0].toModel()
	return &bookmark, nil
}

func (r *SupabaseBookmarkRepository) Create(ctx context.Context, bookmark *models.Bookmark) error {
	payload := map[string]interface{}{
		"user_id":   bookmark.UserID,
		"reference": bookmark.Reference,
	}
	_, _, err := r.client.From("bookmarks").
		Insert(payload, false, "", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("insert bookmark: %w", err)
	}
	return nil
}

func (r *SupabaseBookmarkRepository) Delete(ctx context.Context, userID, id int64) (bool, error) {
	data, _, err := r.client.From("bookmarks").
		Delete("", "").
		Eq("id", strconv.FormatInt(id, 10)).
		Eq("user_id", strconv.FormatInt(userID, 10)).
		Execute()
	if err != nil {
		return false, fmt.Errorf("delete bookmark: %w", err)
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal(data, &rows); err != nil {
		return false, fmt.Errorf("unmarshal deleted bookmark: %w", err)
	}
	return len(rows) > 0, nil
}
