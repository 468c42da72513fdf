package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"vindoc-backend/internal/services"

	"github.com/sirupsen/logrus"
)

// Task is one periodic job.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler runs tasks on fixed intervals inside the server process. With
// several replicas the expiry job's run lock keeps passes from overlapping.
type Scheduler struct {
	tasks  []Task
	log    logrus.FieldLogger
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(log logrus.FieldLogger, tasks ...Task) *Scheduler {
	return &Scheduler{tasks: tasks, log: log}
}

// Start launches one loop per task with a positive interval.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	for _, task := range s.tasks {
		if task.Interval <= 0 || task.Run == nil {
			continue
		}
		s.wg.Add(1)
		go s.loop(ctx, task)
	}
}

// Stop cancels running loops and waits for in-flight runs to return.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, task Task) {
	defer s.wg.Done()
	log := s.log.WithField("task", task.Name)
	log.WithField("interval", task.Interval.String()).Info("scheduled task started")

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx, task, log)
		case <-ctx.Done():
			log.Info("scheduled task stopped")
			return
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, task Task, log logrus.FieldLogger) {
	err := task.Run(ctx)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrRunInProgress):
		log.Debug("another replica is running this task")
	case errors.Is(err, context.Canceled):
	default:
		log.WithError(err).Error("scheduled task failed")
	}
}
