// Package schedule owns recurring summarization job records, the durable
// store contract, and the request-path service that validates and registers
// jobs on behalf of the subscriber-facing front-end.
package schedule

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for schedule operations.
var (
	// ErrPersistence indicates a durable write or read failed. The requested
	// mutation was not applied; in-memory state matches what is on disk.
	ErrPersistence = errors.New("schedule: persistence failure")

	// ErrInvalidConversation indicates a malformed or empty conversation id.
	ErrInvalidConversation = errors.New("schedule: invalid conversation id")

	// ErrInvalidSubscriber indicates a malformed or empty subscriber id.
	ErrInvalidSubscriber = errors.New("schedule: invalid subscriber id")
)

// Key uniquely identifies a job: one job exists per (subscriber, conversation)
// pair at any time.
type Key struct {
	SubscriberID   string
	ConversationID string
}

// Job is one recurring summarization subscription.
type Job struct {
	SubscriberID    string
	ConversationID  string
	IntervalSeconds int64
	NextFireAt      time.Time
	CreatedAt       time.Time
}

// Key returns the job's identity.
func (j Job) Key() Key {
	return Key{SubscriberID: j.SubscriberID, ConversationID: j.ConversationID}
}

// Interval returns the firing interval as a duration.
func (j Job) Interval() time.Duration {
	return time.Duration(j.IntervalSeconds) * time.Second
}

// Due reports whether the job should fire at the given instant. A job whose
// NextFireAt is already in the past (e.g. after downtime) is simply due:
// missed intervals are not backfilled, one firing catches up.
func (j Job) Due(now time.Time) bool {
	return !j.NextFireAt.After(now)
}

// Store is the durable record of all recurring jobs. Implementations must
// persist every mutation before returning and must be safe for concurrent
// use; the tick loop and request handlers share one instance, and no caller
// caches job state beyond the current tick's working set.
type Store interface {
	// Upsert inserts the job or replaces an existing job with the same key.
	Upsert(ctx context.Context, job Job) error

	// Remove deletes the job for the key. Removing an absent job is a no-op.
	Remove(ctx context.Context, key Key) error

	// ListDue returns all jobs with NextFireAt <= now, ordered by NextFireAt
	// ascending with insertion order breaking ties.
	ListDue(ctx context.Context, now time.Time) ([]Job, error)

	// ListBySubscriber returns all jobs belonging to one subscriber.
	ListBySubscriber(ctx context.Context, subscriberID string) ([]Job, error)

	// Advance reschedules the job to now + interval. Advancing a job that
	// was concurrently removed is a no-op; it must not resurrect the job.
	Advance(ctx context.Context, key Key, now time.Time) error
}
