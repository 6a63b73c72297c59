// internal/pkg/session/user_cache.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"trackpro-client/internal/domain/user"
	"trackpro-client/internal/pkg/kvstore"
)

// UserCache keeps the last known signed-in user so the client can show it
// before the "who am I" round trip completes.
type UserCache struct {
	kv     kvstore.Store
	logger *zap.Logger
}

func NewUserCache(kv kvstore.Store, logger *zap.Logger) *UserCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserCache{kv: kv, logger: logger}
}

// Get returns the cached user or nil. A corrupt entry reads as absent.
func (c *UserCache) Get(ctx context.Context) (*user.User, error) {
	raw, err := c.kv.Get(ctx, UserKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cached user: %w", err)
	}

	var u user.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		c.logger.Warn("discarding unreadable cached user", zap.Error(err))
		return nil, nil
	}
	return &u, nil
}

func (c *UserCache) Save(ctx context.Context, u user.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	if err := c.kv.Set(ctx, UserKey, string(data)); err != nil {
		return fmt.Errorf("store cached user: %w", err)
	}
	return nil
}

func (c *UserCache) Clear(ctx context.Context) error {
	if err := c.kv.Delete(ctx, UserKey); err != nil {
		return fmt.Errorf("clear cached user: %w", err)
	}
	return nil
}
