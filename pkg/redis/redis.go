package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"vindoc-backend/internal/config"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Client struct {
	client *redis.Client
	config config.RedisConfig
	log    logrus.FieldLogger

	mu          sync.RWMutex
	isConnected bool
}

type HealthStatus struct {
	IsConnected  bool          `json:"isConnected"`
	LastPing     time.Time     `json:"lastPing"`
	ResponseTime time.Duration `json:"responseTime"`
	Address      string        `json:"address"`
	Error        string        `json:"error,omitempty"`
}

// NewClient creates a pooled Redis client. A failed initial ping is logged,
// not returned; callers treat Redis as optional and check IsConnected.
func NewClient(cfg config.RedisConfig, log logrus.FieldLogger) *Client {
	c := &Client{
		client: redis.NewClient(options(cfg, log)),
		config: cfg,
		log:    log,
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout+time.Second)
	defer cancel()
	c.ping(ctx)

	return c
}

// Wrap adopts an existing go-redis client.
func Wrap(client *redis.Client, log logrus.FieldLogger) *Client {
	c := &Client{client: client, log: log}
	c.ping(context.Background())
	return c
}

func options(cfg config.RedisConfig, log logrus.FieldLogger) *redis.Options {
	var opt *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			log.WithError(err).Warn("invalid REDIS_URL, falling back to host:port")
		} else {
			opt = parsed
		}
	}
	if opt == nil {
		opt = &redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}

	opt.PoolSize = cfg.PoolSize
	opt.MinIdleConns = cfg.MinIdleConns
	opt.MaxRetries = cfg.MaxRetries
	opt.MinRetryBackoff = cfg.RetryDelay
	opt.DialTimeout = cfg.DialTimeout
	opt.ReadTimeout = cfg.ReadTimeout
	opt.WriteTimeout = cfg.WriteTimeout
	opt.PoolTimeout = cfg.PoolTimeout
	opt.ConnMaxIdleTime = cfg.IdleTimeout
	return opt
}

func (c *Client) ping(ctx context.Context) error {
	err := c.client.Ping(ctx).Err()

	c.mu.Lock()
	c.isConnected = err == nil
	c.mu.Unlock()

	if err != nil {
		c.log.WithError(err).Warn("redis ping failed")
	}
	return err
}

// GetClient returns the underlying go-redis client.
func (c *Client) GetClient() *redis.Client {
	return c.client
}

func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}

func (c *Client) HealthCheck(ctx context.Context) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	start := time.Now()
	err := c.ping(ctx)

	status := HealthStatus{
		IsConnected:  err == nil,
		LastPing:     time.Now(),
		ResponseTime: time.Since(start),
		Address:      c.client.Options().Addr,
	}
	if err != nil {
		status.Error = err.Error()
	}
	return status
}

func (c *Client) Close() error {
	return c.client.Close()
}
