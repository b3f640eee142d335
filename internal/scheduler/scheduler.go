// Package scheduler triggers task runs on their configured intervals.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/outage-alert-service/internal/domain"
	"github.com/couchcryptid/outage-alert-service/internal/engine"
	"github.com/couchcryptid/outage-alert-service/internal/observability"
)

// DefaultTick is how often active tasks are checked when none is configured.
const DefaultTick = time.Minute

// Runner executes one task.
type Runner interface {
	ExecuteTask(ctx context.Context, task domain.Task) engine.Report
}

// Scheduler runs due tasks one at a time on every tick.
type Scheduler struct {
	tasks   domain.TaskLister
	runner  Runner
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
	tick    time.Duration

	// attempted holds the start of the latest run per task, successful or
	// not, so a failing task waits its interval like any other.
	attempted map[int64]time.Time
}

// New creates a Scheduler. A non-positive tick selects DefaultTick.
func New(tasks domain.TaskLister, runner Runner, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics, tick time.Duration) *Scheduler {
	if tick <= 0 {
		tick = DefaultTick
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		tasks:     tasks,
		runner:    runner,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
		tick:      tick,
		attempted: make(map[int64]time.Time),
	}
}

// Run checks tasks immediately and then on every tick until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", "tick", s.tick)
	s.metrics.SchedulerActive.Set(1)
	defer s.metrics.SchedulerActive.Set(0)

	ticker := s.clock.NewTicker(s.tick)
	defer ticker.Stop()

	s.RunDue(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			s.RunDue(ctx)
		}
	}
}

// RunDue executes every due active task in id order and returns how many
// were started.
func (s *Scheduler) RunDue(ctx context.Context) int {
	tasks, err := s.tasks.ActiveTasks(ctx)
	if err != nil {
		s.logger.Error("load active tasks failed", "error", err)
		return 0
	}

	started := 0
	for _, task := range tasks {
		if ctx.Err() != nil {
			break
		}
		if err := ValidateInterval(task.Interval); err != nil {
			s.logger.Warn("task has invalid interval", "task_id", task.ID, "error", err)
			continue
		}

		last := task.LastRun
		if at, ok := s.attempted[task.ID]; ok && at.After(last) {
			last = at
		}
		now := s.clock.Now()
		if !Due(task.Interval, last, now) {
			continue
		}

		s.attempted[task.ID] = now
		rep := s.runner.ExecuteTask(ctx, task)
		started++
		s.logger.Info("scheduled task finished",
			"task_id", task.ID,
			"run_id", rep.RunID,
			"outcome", rep.Outcome,
			"duration", rep.Duration,
		)
	}
	return started
}
