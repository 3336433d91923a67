package redis

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/holdwatch/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	client, err := New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestCache_Disabled(t *testing.T) {
	client, _ := New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	cache := NewCache(client, "test")
	ctx := context.Background()

	// When Redis is disabled, cache operations should be no-ops
	var result float64
	found, err := cache.Get(ctx, ReturnKey("AAPL", "2026-01-16"), &result)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, cache.Set(ctx, "key", 0.5, TTLShort))
	assert.NoError(t, cache.Delete(ctx, "key"))
}

func TestReturnKey(t *testing.T) {
	assert.Equal(t, "return:AAPL:2026-01-16", ReturnKey("AAPL", "2026-01-16"))
}

func TestCache_RoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if testing.Short() || addr == "" {
		t.Skip("REDIS_TEST_ADDR not set, skipping integration test")
	}

	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	client := NewFromRedis(rdb)
	defer client.Close()

	ctx := context.Background()
	cache := NewCache(client, "holdwatch-test")
	key := ReturnKey("AAPL", time.Now().Format("2006-01-02"))

	require.NoError(t, cache.Set(ctx, key, 0.0123, time.Minute))
	defer cache.Delete(ctx, key)

	var got float64
	found, err := cache.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 0.0123, got)
}
