package database

import (
	"fmt"

	"github.com/supabase-community/supabase-go"

	"github.com/bedrik/gospelbot/internal/config"
)

// ConnectSupabase creates the PostgREST client for the hosted backend.
func ConnectSupabase(cfg config.Config) (*supabase.Client, error) {
	if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
		return nil, fmt.Errorf("supabase URL and key must be provided")
	}
	client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return client, nil
}
