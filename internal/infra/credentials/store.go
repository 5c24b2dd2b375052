package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"reelforge/server/internal/infra"
	"reelforge/server/internal/sqlinline"
)

// Providers with API keys managed through the integration_tokens table.
// Keyless providers (pollinations, gtts) and the self-hosted server are
// configured by base URL instead and have no entry here.
const (
	ProviderGemini     = "gemini"
	ProviderElevenLabs = "elevenlabs"
	ProviderRunway     = "runway"
)

var knownProviders = map[string]bool{
	ProviderGemini:     true,
	ProviderElevenLabs: true,
	ProviderRunway:     true,
}

// Store reads and writes provider API keys. Database-held keys can be
// rotated without a redeploy; environment values win when both are present.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// Token returns the stored key for a provider, or empty when none is stored.
func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	if !knownProviders[provider] {
		return "", fmt.Errorf("credentials: unknown provider %q", provider)
	}
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

// SetToken stores or replaces the key for a provider.
func (s *Store) SetToken(ctx context.Context, provider, token string) error {
	if !knownProviders[provider] {
		return fmt.Errorf("credentials: unknown provider %q", provider)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("credentials: %s api key is required", provider)
	}
	raw, err := json.Marshal(map[string]any{})
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token, raw)
	return err
}

// DeleteToken removes the stored key for a provider.
func (s *Store) DeleteToken(ctx context.Context, provider string) error {
	if !knownProviders[provider] {
		return fmt.Errorf("credentials: unknown provider %q", provider)
	}
	_, err := s.sql.Exec(ctx, sqlinline.QDeleteIntegrationToken, provider)
	return err
}

// Overlay fills empty API-key fields in the config from database-held keys.
func (s *Store) Overlay(ctx context.Context, cfg *infra.Config) error {
	targets := []struct {
		provider string
		field    *string
	}{
		{ProviderGemini, &cfg.GeminiAPIKey},
		{ProviderElevenLabs, &cfg.ElevenLabsAPIKey},
		{ProviderRunway, &cfg.RunwayAPIKey},
	}
	for _, t := range targets {
		if *t.field != "" {
			continue
		}
		token, err := s.Token(ctx, t.provider)
		if err != nil {
			return err
		}
		*t.field = token
	}
	return nil
}
