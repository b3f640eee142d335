// Package engine executes scheduled tasks. A task names one or more kinds;
// each kind is a handler looked up in the Registry and run in task order.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/outage-alert-service/internal/domain"
	"github.com/couchcryptid/outage-alert-service/internal/notify"
	"github.com/couchcryptid/outage-alert-service/internal/observability"
)

// DefaultFetchTimeout bounds one source fetch when none is configured.
const DefaultFetchTimeout = 30 * time.Second

// finalizeTimeout bounds the store writes that follow a dispatch.
const finalizeTimeout = 30 * time.Second

// Decoder turns the fetched body into HTML text.
type Decoder func([]byte) (string, error)

// Deps are the collaborators every Engine needs.
type Deps struct {
	Store     domain.Store
	Fetcher   domain.Fetcher
	Transport domain.Transport
	Logger    *slog.Logger
	Metrics   *observability.Metrics
	// Clock defaults to the real clock.
	Clock clockwork.Clock
}

// Engine runs tasks against the store, the source and the transport.
type Engine struct {
	store     domain.Store
	fetcher   domain.Fetcher
	publisher domain.OutagePublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock

	lock         RunLock
	registry     *Registry
	formatter    *notify.Formatter
	dispatcher   *notify.Dispatcher
	fetchTimeout time.Duration
	decode       Decoder

	transport    domain.Transport
	messageLimit int
	concurrency  int
}

// Option configures an Engine.
type Option func(*Engine)

// WithPublisher streams first-seen outages to p.
func WithPublisher(p domain.OutagePublisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithRunLock replaces the in-process run lock, e.g. with a distributed one.
func WithRunLock(l RunLock) Option {
	return func(e *Engine) { e.lock = l }
}

// WithMessageLimit sets the digest budget in runes.
func WithMessageLimit(n int) Option {
	return func(e *Engine) { e.messageLimit = n }
}

// WithConcurrency bounds parallel sends per run.
func WithConcurrency(n int) Option {
	return func(e *Engine) { e.concurrency = n }
}

// WithFetchTimeout bounds the source fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(e *Engine) { e.fetchTimeout = d }
}

// WithDecoder sets how the fetched body is decoded before parsing.
func WithDecoder(d Decoder) Option {
	return func(e *Engine) { e.decode = d }
}

// New creates an Engine with the built-in outages_check kind registered.
func New(deps Deps, opts ...Option) (*Engine, error) {
	switch {
	case deps.Store == nil:
		return nil, errors.New("engine: store is required")
	case deps.Fetcher == nil:
		return nil, errors.New("engine: fetcher is required")
	case deps.Transport == nil:
		return nil, errors.New("engine: transport is required")
	case deps.Logger == nil:
		return nil, errors.New("engine: logger is required")
	case deps.Metrics == nil:
		return nil, errors.New("engine: metrics are required")
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}

	e := &Engine{
		store:        deps.Store,
		fetcher:      deps.Fetcher,
		transport:    deps.Transport,
		logger:       deps.Logger,
		metrics:      deps.Metrics,
		clock:        deps.Clock,
		lock:         &LocalLock{},
		registry:     NewRegistry(),
		fetchTimeout: DefaultFetchTimeout,
		decode:       func(b []byte) (string, error) { return string(b), nil },
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.fetchTimeout <= 0 {
		e.fetchTimeout = DefaultFetchTimeout
	}

	e.formatter = notify.NewFormatter(e.messageLimit)
	e.dispatcher = notify.NewDispatcher(e.transport, e.store, e.clock, e.logger, e.concurrency)

	if err := e.registry.Register(KindOutagesCheck, e.checkOutages); err != nil {
		return nil, err
	}
	return e, nil
}

// Register adds a task kind.
func (e *Engine) Register(kind string, h HandlerFunc) error {
	return e.registry.Register(kind, h)
}

// Registry exposes the kind registry for validation.
func (e *Engine) Registry() *Registry { return e.registry }

// RunTaskByID loads a task and executes it.
func (e *Engine) RunTaskByID(ctx context.Context, id int64) (Report, error) {
	task, err := e.store.TaskByID(ctx, id)
	if err != nil {
		return Report{}, fmt.Errorf("load task %d: %w", id, err)
	}
	return e.ExecuteTask(ctx, task), nil
}

// ExecuteTask runs every known kind of task in order. Unknown kinds are
// logged and skipped. The task's last run is recorded only when every kind
// succeeded; a run that finds another run in flight is skipped untouched.
func (e *Engine) ExecuteTask(ctx context.Context, task domain.Task) Report {
	started := e.clock.Now()
	rep := Report{
		RunID:   uuid.NewString(),
		TaskID:  task.ID,
		Started: started,
	}
	logger := e.logger.With("run_id", rep.RunID, "task_id", task.ID, "task", task.Name)

	finish := func(outcome Outcome, err error) Report {
		rep.Outcome = outcome
		rep.Finished = e.clock.Now()
		rep.Duration = rep.Finished.Sub(started)
		if err != nil {
			rep.Error = err.Error()
		}
		return rep
	}

	release, ok, err := e.lock.TryLock(ctx)
	if err != nil {
		logger.Error("acquire run lock failed", "error", err)
		return finish(OutcomeFailed, fmt.Errorf("acquire run lock: %w", err))
	}
	if !ok {
		logger.Warn("another run is in progress, skipping")
		return finish(OutcomeSkipped, nil)
	}
	defer release()

	known, unknown := e.registry.Split(task.Kinds)
	rep.Unknown = unknown
	for _, k := range unknown {
		logger.Warn("unknown task kind skipped", "kind", k)
		e.metrics.TaskRuns.WithLabelValues(k, string(OutcomeSkipped)).Inc()
	}
	if len(known) == 0 {
		logger.Warn("task has no runnable kinds", "kinds", task.Kinds)
		return finish(OutcomeSkipped, nil)
	}

	logger.Info("task run started", "kinds", known)
	var failed error
	for _, kind := range known {
		kr := e.runKind(ctx, logger, task, rep.RunID, kind)
		rep.Kinds = append(rep.Kinds, kr)
		if kr.Outcome == OutcomeFailed && failed == nil {
			failed = fmt.Errorf("kind %s failed at %s: %s", kind, kr.FailedStep, kr.Error)
		}
	}
	if failed != nil {
		logger.Error("task run failed", "error", failed)
		return finish(OutcomeFailed, failed)
	}

	if task.ID > 0 {
		fctx, cancel := e.detached(ctx)
		err := e.store.UpdateTaskLastRun(fctx, task.ID, e.clock.Now().UTC())
		cancel()
		if err != nil {
			e.metrics.StepFailures.WithLabelValues(string(StepUpdateLastRun)).Inc()
			err = &StepError{Step: StepUpdateLastRun, Err: err}
			logger.Error("record last run failed", "error", err)
			return finish(OutcomeFailed, err)
		}
	}
	e.metrics.LastSuccess.Set(float64(e.clock.Now().Unix()))

	rep = finish(OutcomeSuccess, nil)
	logger.Info("task run finished", "duration", rep.Duration)
	return rep
}

// detached returns a context that outlives ctx's cancellation but keeps its
// values, bounded by finalizeTimeout.
func (e *Engine) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
}

// runKind executes one handler, converting panics and errors into a
// failed KindReport.
func (e *Engine) runKind(ctx context.Context, logger *slog.Logger, task domain.Task, runID, kind string) (kr KindReport) {
	h, _ := e.registry.Lookup(kind)
	start := e.clock.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("task kind panicked", "kind", kind, "panic", r)
			kr = KindReport{Kind: kind, Outcome: OutcomeFailed, Error: fmt.Sprint("panic: ", r)}
		}
		e.metrics.TaskRuns.WithLabelValues(kind, string(kr.Outcome)).Inc()
		e.metrics.TaskDuration.WithLabelValues(kind).Observe(e.clock.Since(start).Seconds())
	}()

	kr, err := h(ctx, task, runID)
	kr.Kind = kind
	if err != nil {
		kr.Outcome = OutcomeFailed
		kr.Error = err.Error()
		var se *StepError
		if errors.As(err, &se) {
			kr.FailedStep = se.Step
			e.metrics.StepFailures.WithLabelValues(string(se.Step)).Inc()
		}
		logger.Error("task kind failed", "kind", kind, "step", kr.FailedStep, "error", err)
		return kr
	}
	if kr.Outcome == "" {
		kr.Outcome = OutcomeSuccess
	}
	return kr
}
