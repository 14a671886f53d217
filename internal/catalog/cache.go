package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/artcafe/storefront/pkg/redis"
)

var errCacheMiss = errors.New("catalog cache miss")

// KV is the slice of the redis client the catalog cache needs.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(parts ...string) string
}

type listCache struct {
	kv      KV
	baseTTL time.Duration
	jitter  time.Duration
}

func (c *listCache) key(kind string) string {
	return c.kv.CacheKey("catalog", kind)
}

func (c *listCache) get(ctx context.Context, kind string, dest any) error {
	data, err := c.kv.Get(ctx, c.key(kind))
	if redis.IsNil(err) {
		return errCacheMiss
	}
	if err != nil {
		return fmt.Errorf("redis get failed: %w", err)
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("unmarshal %s failed: %w", kind, err)
	}
	return nil
}

func (c *listCache) set(ctx context.Context, kind string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", kind, err)
	}
	ttl := c.baseTTL
	if c.jitter > 0 {
		ttl += time.Duration(rand.Int63n(int64(c.jitter)))
	}
	if err := c.kv.Set(ctx, c.key(kind), string(payload), ttl); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *listCache) invalidate(ctx context.Context, kinds ...string) error {
	keys := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		keys = append(keys, c.key(kind))
	}
	return c.kv.Del(ctx, keys...)
}
