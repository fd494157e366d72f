package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key is absent.
var ErrMiss = errors.New("cache: miss")

// CacheService stores JSON values in redis. A nil *CacheService is valid and
// never hits, so callers work the same with redis disabled.
type CacheService struct {
	client *redis.Client
	prefix string
}

func NewCacheService(client *redis.Client, prefix string) *CacheService {
	if client == nil {
		return nil
	}
	return &CacheService{client: client, prefix: prefix}
}

func (c *CacheService) key(k string) string {
	return c.prefix + k
}

// Get decodes the cached value into dest.
func (c *CacheService) Get(ctx context.Context, key string, dest interface{}) error {
	if c == nil {
		return ErrMiss
	}
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (c *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return c.client.Set(ctx, c.key(key), data, ttl).Err()
}

// GetOrSet fills dest from cache, or from setter on a miss. A setter error is
// returned as is and nothing is stored. Cache write failures do not fail the call.
func (c *CacheService) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, setter func() (interface{}, error)) error {
	if err := c.Get(ctx, key, dest); err == nil {
		return nil
	}

	value, err := setter()
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	if c != nil {
		_ = c.client.Set(ctx, c.key(key), data, ttl).Err()
	}
	return json.Unmarshal(data, dest)
}
