package cron

import (
	"context"
	"log/slog"
)

// SessionSweeper is the subset of the session tracker needed by the sweep
// job. Defined here to avoid a dependency on the session package.
type SessionSweeper interface {
	Sweep() int
}

// SessionSweepJob evicts expired interactive sessions on a fixed cadence.
// Expired sessions are also dropped lazily on access; the sweep only bounds
// how long a dead session can occupy memory.
type SessionSweepJob struct {
	Tracker      SessionSweeper
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "@every 1m"
}

// Compile-time interface check.
var _ Job = (*SessionSweepJob)(nil)

// Name implements Job.
func (j *SessionSweepJob) Name() string {
	return "session_sweep"
}

// Schedule implements Job.
func (j *SessionSweepJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "@every 1m"
}

// Run evicts expired sessions.
func (j *SessionSweepJob) Run(_ context.Context) error {
	swept := j.Tracker.Sweep()
	if swept > 0 {
		j.Logger.Info("cron: swept expired sessions", "count", swept)
	}
	return nil
}
