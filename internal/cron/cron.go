// Package cron provides a job scheduler for periodic background tasks
// such as the summary dispatch tick and session sweeping.
package cron

import "context"

// Job defines a periodic background task.
type Job interface {
	// Name returns a unique identifier for this job (used for logging and dedup).
	Name() string

	// Schedule returns a cron expression or descriptor (e.g. "@every 30s",
	// "*/5 * * * *").
	Schedule() string

	// Run executes the job. Implementations should check ctx.Done() for
	// graceful cancellation.
	Run(ctx context.Context) error
}
