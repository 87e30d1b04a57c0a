// Package scheduler fires due summary jobs. The engine runs as a periodic
// tick: every tick it asks the store for jobs whose fire time has passed,
// runs each through the summarization pipeline with bounded concurrency,
// delivers the result, and advances the job's fire time. An engine restart
// picks up overdue jobs on the first tick, which is what makes schedules
// survive process crashes.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/recapd/recapd/internal/interval"
	"github.com/recapd/recapd/internal/schedule"
	"github.com/recapd/recapd/internal/summarize"
)

// Delivery is the sink receiving finished summaries and failure notices.
type Delivery interface {
	Deliver(ctx context.Context, subscriberID, text string) error
}

// Runner produces one summary for a conversation. *summarize.Pipeline is the
// production implementation.
type Runner interface {
	Run(ctx context.Context, conversationID string) (string, error)
}

// Config controls the engine's tick cadence and dispatch limits.
type Config struct {
	// Tick is the cadence at which due jobs are checked. Default: 30s.
	Tick time.Duration

	// Workers bounds how many jobs run concurrently within a tick.
	// Default: 4.
	Workers int

	// JobTimeout bounds one job's pipeline run plus delivery. Default: 3m.
	JobTimeout time.Duration
}

// handoffTimeout bounds delivery and reschedule after the run finishes. It is
// deliberately separate from JobTimeout: a run that consumed its whole budget
// must still hand off its notice and advance the job.
const handoffTimeout = 15 * time.Second

// defaults fills zero-value fields with sensible defaults.
func (c *Config) defaults() {
	if c.Tick <= 0 {
		c.Tick = 30 * time.Second
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = 3 * time.Minute
	}
}

// Engine is the periodic dispatch job. It implements cron.Job so the cron
// scheduler drives it; TryLock there guarantees ticks never overlap.
type Engine struct {
	store    schedule.Store
	runner   Runner
	delivery Delivery
	cfg      Config
	logger   *slog.Logger
	metrics  *Metrics

	// now is injectable for testing. Defaults to time.Now.
	now func() time.Time
}

// NewEngine creates an Engine. A nil logger defaults to slog.Default();
// nil metrics disables instrumentation.
func NewEngine(store schedule.Store, runner Runner, delivery Delivery, cfg Config, logger *slog.Logger, metrics *Metrics) *Engine {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:    store,
		runner:   runner,
		delivery: delivery,
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Name implements cron.Job.
func (e *Engine) Name() string {
	return "summary_dispatch"
}

// Schedule implements cron.Job.
func (e *Engine) Schedule() string {
	return "@every " + e.cfg.Tick.Truncate(time.Second).String()
}

// Run implements cron.Job: one dispatch tick. Store errors abort the tick
// (the next tick retries); per-job failures are contained to their job.
func (e *Engine) Run(ctx context.Context) error {
	now := e.now()

	due, err := e.store.ListDue(ctx, now)
	if err != nil {
		return fmt.Errorf("scheduler: listing due jobs: %w", err)
	}
	if len(due) == 0 {
		return nil
	}

	e.logger.Debug("dispatching due jobs", "count", len(due))

	sem := make(chan struct{}, e.cfg.Workers)
	var wg sync.WaitGroup
	for _, job := range due {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(job schedule.Job) {
			defer wg.Done()
			defer func() { <-sem }()
			e.fire(ctx, job, now)
		}(job)
	}
	wg.Wait()

	return nil
}

// fire runs one due job end to end: summarize, deliver, advance. The fire
// time advances by exactly the interval from the tick time, even when the
// run fails, so a broken conversation cannot wedge or drift the schedule;
// the failure surfaces to the subscriber as a notice.
func (e *Engine) fire(ctx context.Context, job schedule.Job, tick time.Time) {
	start := e.now()
	runCtx, cancel := context.WithTimeout(ctx, e.cfg.JobTimeout)
	defer cancel()

	text, runErr := e.runner.Run(runCtx, job.ConversationID)
	if runErr != nil {
		e.logger.Warn("summary run failed",
			"subscriber", job.SubscriberID,
			"conversation", job.ConversationID,
			"error", runErr,
		)
		text = failureNotice(job, runErr)
	} else {
		text = fmt.Sprintf("📝 Summary of %s (%s)\n\n%s",
			job.ConversationID, interval.Format(job.IntervalSeconds), text)
	}

	// The run may have exhausted its deadline; delivery and the reschedule
	// get a fresh one or an expired run would leave the job due on every
	// tick.
	handoffCtx, cancelHandoff := context.WithTimeout(context.WithoutCancel(ctx), handoffTimeout)
	defer cancelHandoff()

	if err := e.delivery.Deliver(handoffCtx, job.SubscriberID, text); err != nil {
		e.logger.Error("delivery failed",
			"subscriber", job.SubscriberID,
			"conversation", job.ConversationID,
			"error", err,
		)
	}

	if err := e.store.Advance(handoffCtx, job.Key(), tick); err != nil {
		e.logger.Error("advancing job failed",
			"subscriber", job.SubscriberID,
			"conversation", job.ConversationID,
			"error", err,
		)
	}

	e.metrics.ObserveFiring(runErr, e.now().Sub(start))
}

// failureNotice builds the subscriber-facing text for a failed run.
func failureNotice(job schedule.Job, err error) string {
	reason := "the summarization service is temporarily unavailable"
	switch {
	case errors.Is(err, summarize.ErrExhausted):
		reason = "the summarization service is rate limited right now"
	case errors.Is(err, summarize.ErrRejected):
		reason = "the summarization service rejected the request"
	}
	return fmt.Sprintf("⚠️ Could not summarize %s: %s. The next attempt runs in %s.",
		job.ConversationID, reason, interval.Format(job.IntervalSeconds))
}
