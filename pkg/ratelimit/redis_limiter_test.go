package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.Limits[CategoryJobs] = RateLimit{Requests: 2, Window: time.Minute}
	return cfg
}

func TestRedisRateLimiter_BlocksAfterLimit(t *testing.T) {
	limiter := NewRedisRateLimiter(setupTestRedis(t), testConfig())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, _, err := limiter.Allow(ctx, "scheduler", CategoryJobs)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i+1)
	}

	allowed, reset, err := limiter.Allow(ctx, "scheduler", CategoryJobs)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Greater(t, reset, time.Duration(0))
	assert.LessOrEqual(t, reset, time.Minute)

	stats := limiter.Stats()
	assert.Equal(t, int64(3), stats.TotalRequests)
	assert.Equal(t, int64(1), stats.BlockedRequests)
}

func TestRedisRateLimiter_ClientsAndCategoriesAreSeparate(t *testing.T) {
	limiter := NewRedisRateLimiter(setupTestRedis(t), testConfig())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, _, err := limiter.Allow(ctx, "a", CategoryJobs)
		require.NoError(t, err)
	}

	allowed, _, err := limiter.Allow(ctx, "b", CategoryJobs)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, _, err = limiter.Allow(ctx, "a", CategoryVoiceCalls)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisRateLimiter_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	limiter := NewRedisRateLimiter(setupTestRedis(t), cfg)

	for i := 0; i < 5; i++ {
		allowed, _, err := limiter.Allow(context.Background(), "x", CategoryJobs)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
}

func TestRedisRateLimiter_UnknownCategoryUsesDefault(t *testing.T) {
	limiter := NewRedisRateLimiter(setupTestRedis(t), testConfig())
	assert.Equal(t, limiter.Limit(CategoryDefault), limiter.Limit("nope"))
}
