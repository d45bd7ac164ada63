package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/indusops/opsdesk/internal/config"
)

// ErrMiss is returned by Get when the key is absent or expired
var ErrMiss = errors.New("cache miss")

// Cache stores serialized lookup data with a TTL
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// New returns a Redis cache when an address is configured, otherwise an
// in-memory one. A Redis that cannot be reached also falls back to memory.
func New(cfg config.CacheConfig) Cache {
	if cfg.RedisAddr == "" {
		log.Println("🗃️  Lookup cache: in-memory")
		return NewMemory()
	}
	rdb, err := ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Printf("⚠️  %v, using in-memory cache", err)
		return NewMemory()
	}
	log.Printf("🗃️  Lookup cache: redis at %s", cfg.RedisAddr)
	return NewRedis(rdb)
}

// Remember returns the cached value of key decoded into out, or calls load,
// stores its result for ttl and decodes that instead. Cache failures other
// than a miss are logged and bypassed.
func Remember[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var zero T
	if raw, err := c.Get(ctx, key); err == nil {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
	} else if !errors.Is(err, ErrMiss) {
		log.Printf("⚠️  cache get %s: %v", key, err)
	}

	v, err := load(ctx)
	if err != nil {
		return zero, err
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return zero, fmt.Errorf("failed to encode %s for cache: %w", key, err)
	}
	if err := c.Set(ctx, key, raw, ttl); err != nil {
		log.Printf("⚠️  cache set %s: %v", key, err)
	}
	return v, nil
}
