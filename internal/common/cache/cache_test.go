package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name   string `json:"name"`
	Tokens uint64 `json:"tokens"`
}

func newCache(t *testing.T) (*CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheService(client, "swagly:"), mr
}

func TestGetOrSet(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()
	calls := 0
	setter := func() (interface{}, error) {
		calls++
		return payload{Name: "booth", Tokens: 10}, nil
	}

	var first, second payload
	require.NoError(t, c.GetOrSet(ctx, "decoded:1", &first, time.Hour, setter))
	require.NoError(t, c.GetOrSet(ctx, "decoded:1", &second, time.Hour, setter))

	assert.Equal(t, 1, calls)
	assert.Equal(t, payload{Name: "booth", Tokens: 10}, second)
	assert.True(t, mr.Exists("swagly:decoded:1"))
	assert.Equal(t, time.Hour, mr.TTL("swagly:decoded:1"))
}

func TestGetOrSetSetterError(t *testing.T) {
	c, mr := newCache(t)
	boom := errors.New("boom")

	var dest payload
	err := c.GetOrSet(context.Background(), "k", &dest, time.Minute, func() (interface{}, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("swagly:k"))
}

func TestGetMissAndPrefixedSet(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	var dest payload
	assert.ErrorIs(t, c.Get(ctx, "absent", &dest), ErrMiss)

	require.NoError(t, c.Set(ctx, "user:a:1", payload{}, time.Minute))
	assert.True(t, mr.Exists("swagly:user:a:1"))
	assert.Equal(t, time.Minute, mr.TTL("swagly:user:a:1"))
	assert.False(t, mr.Exists("user:a:1"))
}

func TestNilCacheAlwaysMisses(t *testing.T) {
	var c *CacheService
	ctx := context.Background()

	var dest payload
	assert.ErrorIs(t, c.Get(ctx, "k", &dest), ErrMiss)
	assert.NoError(t, c.Set(ctx, "k", payload{}, 0))

	calls := 0
	for i := 0; i < 2; i++ {
		require.NoError(t, c.GetOrSet(ctx, "k", &dest, 0, func() (interface{}, error) {
			calls++
			return payload{Name: "x"}, nil
		}))
	}
	assert.Equal(t, 2, calls)
	assert.Equal(t, "x", dest.Name)
}
