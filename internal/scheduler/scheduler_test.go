package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"vindoc-backend/internal/services"
	"vindoc-backend/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func TestScheduler_RunsTasksUntilStopped(t *testing.T) {
	var runs atomic.Int32
	s := New(logger.Discard(), Task{
		Name:     "tick",
		Interval: 10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	})

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()

	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
}

func TestScheduler_SkipsDisabledTasks(t *testing.T) {
	var runs atomic.Int32
	s := New(logger.Discard(), Task{
		Name:     "disabled",
		Interval: 0,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	})

	s.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	assert.Zero(t, runs.Load())
}

func TestScheduler_KeepsRunningAfterErrors(t *testing.T) {
	var runs atomic.Int32
	s := New(logger.Discard(), Task{
		Name:     "busy",
		Interval: 5 * time.Millisecond,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return services.ErrRunInProgress
		},
	})

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
	s.Stop()
}
