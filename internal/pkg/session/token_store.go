// internal/pkg/session/token_store.go
package session

import (
	"context"
	"errors"
	"fmt"

	"trackpro-client/internal/pkg/kvstore"
)

const (
	TokenKey = "gpx_auth_token"
	UserKey  = "gpx_auth_user"
)

// TokenStore holds the single opaque session token. It does no validation
// and tracks no expiry; an expired token is discovered through a 401.
type TokenStore struct {
	kv kvstore.Store
}

func NewTokenStore(kv kvstore.Store) *TokenStore {
	return &TokenStore{kv: kv}
}

// Get returns the stored token, or "" when there is none.
func (s *TokenStore) Get(ctx context.Context) (string, error) {
	v, err := s.kv.Get(ctx, TokenKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return v, nil
}

func (s *TokenStore) Set(ctx context.Context, token string) error {
	if err := s.kv.Set(ctx, TokenKey, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

func (s *TokenStore) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, TokenKey); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}
