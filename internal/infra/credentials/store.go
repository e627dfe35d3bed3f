package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/linhaiwebs/sync/internal/infra"
	"github.com/linhaiwebs/sync/internal/sqlinline"
)

// Provider keys in the integration_tokens table.
const (
	ProviderSync   = "sync"
	ProviderUpload = "upload"
)

// Store reads and writes bearer tokens kept in Postgres, the secret-store
// alternative to SYNC_API_KEY / UPLOAD_API_KEY.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// IsProvider reports whether name is a provider key the store manages.
func IsProvider(name string) bool {
	switch name {
	case ProviderSync, ProviderUpload:
		return true
	}
	return false
}

// Token returns the stored token for provider, or "" when none is stored.
func (s *Store) Token(ctx context.Context, provider string) (string, error) {
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

// SetToken stores or rotates the token for provider.
func (s *Store) SetToken(ctx context.Context, provider, token string) error {
	if !IsProvider(provider) {
		return fmt.Errorf("unsupported provider %q", provider)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token is required")
	}
	raw, err := json.Marshal(map[string]any{"source": "synckey"})
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token, raw)
	return err
}

// FillConfig copies stored tokens into cfg for every token the environment
// left empty. Environment values always win.
func (s *Store) FillConfig(ctx context.Context, cfg *infra.Config) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if cfg.SyncAPIKey == "" {
		token, err := s.Token(ctx, ProviderSync)
		if err != nil {
			return fmt.Errorf("load %s token: %w", ProviderSync, err)
		}
		cfg.SyncAPIKey = token
	}
	if cfg.UploadAPIKey == "" {
		token, err := s.Token(ctx, ProviderUpload)
		if err != nil {
			return fmt.Errorf("load %s token: %w", ProviderUpload, err)
		}
		cfg.UploadAPIKey = token
	}
	return nil
}
