package kvstore

import (
	"fmt"

	"trackpro-client/internal/config"
)

// Open builds the store selected by cfg.Store.
func Open(cfg config.AppConfig) (Store, error) {
	switch cfg.Store {
	case "memory":
		return NewMemoryStore(), nil
	case "redis":
		client, err := NewRedisClient(RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
			Prefix:   "trackpro:",
		})
		if err != nil {
			return nil, err
		}
		return NewRedisStore(client, "trackpro:"), nil
	case "file", "":
		return NewFileStore(cfg.DataDir)
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store)
}
