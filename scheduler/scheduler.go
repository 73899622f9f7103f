// Package scheduler runs the session's recurring maintenance tasks: the
// liveness ping and the two proactive refreshes. It is a small table of named
// interval tasks rather than ad hoc timers, so each task is independently
// configurable and runnable on demand in tests.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/crewdock/go-crewdock-client/internal/metrics"
)

// Task is one recurring maintenance job. Run decides for itself whether
// there is anything to do (no credential means no work); returned errors are
// logged here, escalation policy belongs to the task closure.
type Task struct {
	Name  string
	Every time.Duration
	Run   func(ctx context.Context) error
}

// Scheduler owns one goroutine per task. Start fires exactly once; Stop is
// idempotent and only signals, so a task may stop its own scheduler.
type Scheduler struct {
	tasks   []Task
	metrics *metrics.Metrics

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
}

func New(m *metrics.Metrics, tasks ...Task) *Scheduler {
	return &Scheduler{
		tasks:   tasks,
		metrics: m,
		stop:    make(chan struct{}),
	}
}

// Start launches every task ticker. Calling Start again is a no-op; the
// timers for one scheduler are created exactly once.
func (s *Scheduler) Start() {
	s.startOnce.Do(func() {
		for _, task := range s.tasks {
			go s.loop(task)
		}
	})
}

// Stop cancels all task tickers. Safe to call repeatedly and from within a
// running task.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

// RunTask executes one named task immediately, outside its interval. Used by
// tests and manual triggers.
func (s *Scheduler) RunTask(ctx context.Context, name string) error {
	for _, task := range s.tasks {
		if task.Name == name {
			s.execute(ctx, task)
			return nil
		}
	}
	return errors.Errorf("[Scheduler.RunTask] unknown task %q", name)
}

// TaskNames returns the registered task names in registration order.
func (s *Scheduler) TaskNames() []string {
	names := make([]string, 0, len(s.tasks))
	for _, task := range s.tasks {
		names = append(names, task.Name)
	}
	return names
}

func (s *Scheduler) loop(task Task) {
	ticker := time.NewTicker(task.Every)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.execute(context.Background(), task)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, task Task) {
	s.metrics.SchedulerTicks.WithLabelValues(task.Name).Inc()
	if err := task.Run(ctx); err != nil {
		log.Warn().Err(err).Str("task", task.Name).Msg("scheduler: task failed")
	}
}
