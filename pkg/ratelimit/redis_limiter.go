package ratelimit

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Category names used by the API routes.
const (
	CategoryJobs       = "jobs"
	CategoryVoiceCalls = "voice_calls"
	CategoryWebhook    = "webhook"
	CategoryDefault    = "default"
)

type Limiter interface {
	Allow(ctx context.Context, clientID, category string) (bool, time.Duration, error)
	Limit(category string) RateLimit
}

type RateLimit struct {
	Requests int           `json:"requests"`
	Window   time.Duration `json:"window"`
}

type Config struct {
	Limits    map[string]RateLimit
	KeyPrefix string
	Enabled   bool
}

func DefaultConfig() *Config {
	return &Config{
		Limits: map[string]RateLimit{
			// job triggers come from a scheduler; a handful per window is plenty
			CategoryJobs:       {Requests: 6, Window: time.Minute},
			CategoryVoiceCalls: {Requests: 30, Window: time.Minute},
			CategoryWebhook:    {Requests: 600, Window: time.Minute},
			CategoryDefault:    {Requests: 60, Window: time.Minute},
		},
		KeyPrefix: "vindoc:ratelimit:",
		Enabled:   true,
	}
}

type Stats struct {
	TotalRequests   int64 `json:"totalRequests"`
	BlockedRequests int64 `json:"blockedRequests"`
}

// RedisRateLimiter counts requests per (client, category) in fixed windows.
type RedisRateLimiter struct {
	client *redis.Client
	config *Config
	total  atomic.Int64
	denied atomic.Int64
}

var windowScript = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local count = tonumber(redis.call('HGET', key, 'count')) or 0
local start = tonumber(redis.call('HGET', key, 'window_start')) or now

if now - start >= window then
	count = 0
	start = now
end

local allowed = count < limit
if allowed then
	count = count + 1
end

local reset = 0
if not allowed then
	reset = (start + window) - now
end

redis.call('HSET', key, 'count', count, 'window_start', start)
redis.call('PEXPIRE', key, window + 1000)

if allowed then
	return {1, reset}
end
return {0, reset}
`)

func NewRedisRateLimiter(client *redis.Client, config *Config) *RedisRateLimiter {
	if config == nil {
		config = DefaultConfig()
	}
	return &RedisRateLimiter{client: client, config: config}
}

// Allow reports whether the request fits in the current window and, when it
// does not, how long until the window resets.
func (r *RedisRateLimiter) Allow(ctx context.Context, clientID, category string) (bool, time.Duration, error) {
	if !r.config.Enabled {
		return true, 0, nil
	}
	r.total.Add(1)

	limit := r.Limit(category)
	key := fmt.Sprintf("%s%s:%s", r.config.KeyPrefix, category, clientID)

	res, err := windowScript.Run(ctx, r.client, []string{key},
		limit.Requests,
		limit.Window.Milliseconds(),
		time.Now().UnixMilli(),
	).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit check failed: %w", err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("unexpected script result %v", res)
	}

	if res[0] != 1 {
		r.denied.Add(1)
		return false, time.Duration(res[1]) * time.Millisecond, nil
	}
	return true, 0, nil
}

func (r *RedisRateLimiter) Limit(category string) RateLimit {
	if l, ok := r.config.Limits[category]; ok {
		return l
	}
	if l, ok := r.config.Limits[CategoryDefault]; ok {
		return l
	}
	return RateLimit{Requests: 60, Window: time.Minute}
}

func (r *RedisRateLimiter) Stats() Stats {
	return Stats{TotalRequests: r.total.Load(), BlockedRequests: r.denied.Load()}
}
