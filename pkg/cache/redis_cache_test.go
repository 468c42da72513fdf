package cache

import (
	"context"
	"testing"
	"time"

	"vindoc-backend/pkg/logger"
	"vindoc-backend/pkg/redis"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type advice struct {
	Tip     string `json:"tip"`
	Urgency string `json:"urgency"`
}

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.Wrap(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}), logger.Discard())
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client, "test:"), mr
}

func TestRedisCache_SetGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "insurance:7_day", advice{Tip: "Renew", Urgency: "high"}, time.Minute))
	assert.True(t, mr.Exists("test:insurance:7_day"))

	var got advice
	found, err := c.Get(ctx, "insurance:7_day", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Renew", got.Tip)
	assert.Equal(t, "high", got.Urgency)
}

func TestRedisCache_MissAndExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	var got advice
	found, err := c.Get(ctx, "absent", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "short", advice{Tip: "x"}, time.Second))
	mr.FastForward(2 * time.Second)

	found, err = c.Get(ctx, "short", &got)
	require.NoError(t, err)
	assert.False(t, found)

	stats := c.Stats()
	assert.Equal(t, int64(0), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
}

func TestRedisCache_CorruptEntry(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("test:bad", "{not json"))

	var got advice
	found, err := c.Get(context.Background(), "bad", &got)
	assert.Error(t, err)
	assert.False(t, found)
}

func TestRedisCache_Delete(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", advice{Tip: "x"}, time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))
	assert.False(t, mr.Exists("test:k"))
}

func TestRedisCache_Unavailable(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	var got advice
	found, err := c.Get(context.Background(), "k", &got)
	assert.Error(t, err)
	assert.False(t, found)
	assert.Error(t, c.Set(context.Background(), "k", advice{}, time.Minute))
}
