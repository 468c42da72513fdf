package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisRunLocker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	locker := NewRedisRunLocker(client)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "job", time.Minute)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "job", time.Minute)
	assert.ErrorIs(t, err, ErrRunInProgress)

	require.NoError(t, release(ctx))

	release, err = locker.Acquire(ctx, "job", time.Minute)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	assert.NoError(t, release(ctx))
}
