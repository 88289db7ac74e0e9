package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/supabase-community/supabase-go"

	"github.com/bedrik/gospelbot/internal/models"
)

type SupabaseSettingsRepository struct {
	client *supabase.Client
}

func NewSupabaseSettingsRepository(client *supabase.Client) *SupabaseSettingsRepository {
	return &SupabaseSettingsRepository{client: client}
}

type settingRow struct {
	Key         string `json:"setting_key"`
	Value       string `json:"setting_value"`
	Type        string `json:"setting_type"`
	Description string `json:"description"`
	UpdatedAt   string `json:"updated_at"`
}

func (row settingRow) toModel() models.Setting {
	updatedAt, _ := time.Parse(time.RFC3339, row.UpdatedAt)
	return models.Setting{
		Key:         row.Key,
		Value:       row.Value,
		Type:        models.SettingType(row.Type),
		Description: row.Description,
		UpdatedAt:   updatedAt,
	}
}

func (r *SupabaseSettingsRepository) Get(ctx context.Context, key string) (*models.Setting, error) {
	data, _, err := r.client.From("ai_settings").
		Select("*", "", false).
		Eq("setting_key", key).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("get setting: %w", err)
	}

	var rows []settingRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal setting: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	setting := rows[0].toModel()
	return &setting, nil
}

func (r *SupabaseSettingsRepository) Upsert(ctx context.Context, setting *models.Setting) error {
	payload := map[string]interface{}{
		"setting_key":   setting.Key,
		"setting_value": setting.Value,
		"setting_type":  string(setting.Type),
		"updated_at":    time.Now().UTC().Format(time.RFC3339),
	}
	if setting.Description != "" {
		payload["description"] = setting.Description
	}

	_, _, err := r.client.From("ai_settings").
		Upsert(payload, "setting_key", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("upsert setting: %w", err)
	}
	return nil
}

func (r *SupabaseSettingsRepository) List(ctx context.Context) ([]models.Setting, error) {
	data, _, err := r.client.From("ai_settings").
		Select("*", "", false).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}

	var rows []settingRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	settings := make([]models.Setting, 0, len(rows))
	for _, row := range rows {
		settings = append(settings, row.toModel())
	}
	sort.Slice(settings, func(i, j int) bool { return settings[i].Key < settings[j].Key })
	return settings, nil
}
