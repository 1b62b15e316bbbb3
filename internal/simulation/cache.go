package simulation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheVersionKey = "refis:consolidation:version"

// Cache wraps Redis based caching of consolidation views with a
// versioned namespace. Bumping the version on any mutation invalidates
// every cached view at once without scanning keys.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Version returns the current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.Set(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// Bump advances the version, orphaning all previously cached views.
func (c *Cache) Bump(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Incr(ctx, cacheVersionKey).Err()
}

// FetchJSON loads a cached value or populates it using the loader.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("simulation: cache loader is nil")
	}
	if c == nil || c.client == nil {
		out, err := loader(ctx)
		if err != nil {
			return err
		}
		return reencode(out, dest)
	}

	ver, err := c.Version(ctx)
	if err != nil {
		return err
	}
	full := fmt.Sprintf("refis:consolidation:%s:%d", key, ver)

	raw, err := c.client.Get(ctx, full).Bytes()
	if err == nil {
		return json.Unmarshal(raw, dest)
	}
	if !errors.Is(err, redis.Nil) {
		return err
	}

	out, err := loader(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(out)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, full, payload, c.ttl).Err(); err != nil {
		return err
	}
	return json.Unmarshal(payload, dest)
}

func reencode(src, dest any) error {
	payload, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, dest)
}
