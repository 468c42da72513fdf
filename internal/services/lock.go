package services

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	goredis "github.com/redis/go-redis/v9"
)

// RunLocker serializes job runs across instances.
type RunLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

type RedisRunLocker struct {
	locker *redislock.Client
}

func NewRedisRunLocker(client *goredis.Client) *RedisRunLocker {
	return &RedisRunLocker{locker: redislock.New(client)}
}

// Acquire returns ErrRunInProgress when another holder owns the key.
func (l *RedisRunLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	lock, err := l.locker.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrRunInProgress
	}
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context) error {
		err := lock.Release(ctx)
		if errors.Is(err, redislock.ErrLockNotHeld) {
			return nil
		}
		return err
	}, nil
}
