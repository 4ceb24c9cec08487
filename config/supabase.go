package config

import (
	"errors"
	"fmt"

	supa "github.com/supabase-community/supabase-go"
)

// NewSupabaseClient creates the client for the session store. It requires
// both SUPABASE_URL and SUPABASE_SERVICE_KEY.
func NewSupabaseClient(cfg Config) (*supa.Client, error) {
	if !cfg.UsesSupabase() {
		return nil, errors.New("supabase url and service key are required")
	}
	client, err := supa.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("init supabase client: %w", err)
	}
	return client, nil
}
