package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/recapd/recapd/internal/schedule"
)

// JobStore is the SQLite-backed schedule.Store. A single *sql.DB connection
// serialises all writes, giving the per-key mutual exclusion the scheduler
// relies on without additional locking.
type JobStore struct {
	db *sql.DB
}

// Compile-time interface guard.
var _ schedule.Store = (*JobStore)(nil)

// Close releases the underlying database handle.
func (s *JobStore) Close() error {
	return s.db.Close()
}

// Upsert inserts the job or replaces the row sharing its key. The conflict
// update keeps the original rowid, preserving insertion order for ListDue
// tie-breaks.
func (s *JobStore) Upsert(ctx context.Context, job schedule.Job) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (subscriber_id, conversation_id, interval_seconds, next_fire_at, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(subscriber_id, conversation_id) DO UPDATE SET
			interval_seconds = excluded.interval_seconds,
			next_fire_at     = excluded.next_fire_at,
			created_at       = excluded.created_at`,
		job.SubscriberID, job.ConversationID, job.IntervalSeconds,
		job.NextFireAt.Unix(), job.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("sqlite: upsert job: %v: %w", err, schedule.ErrPersistence)
	}
	return nil
}

// Remove deletes the job for the key. Absent jobs are a silent no-op.
func (s *JobStore) Remove(ctx context.Context, key schedule.Key) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM jobs WHERE subscriber_id = ? AND conversation_id = ?",
		key.SubscriberID, key.ConversationID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: remove job: %v: %w", err, schedule.ErrPersistence)
	}
	return nil
}

// ListDue returns jobs with next_fire_at <= now, soonest first, insertion
// order breaking ties. Jobs overdue from before a restart appear here
// immediately (catch-up semantics).
func (s *JobStore) ListDue(ctx context.Context, now time.Time) ([]schedule.Job, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT subscriber_id, conversation_id, interval_seconds, next_fire_at, created_at
		FROM jobs
		WHERE next_fire_at <= ?
		ORDER BY next_fire_at, rowid`,
		now.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list due jobs: %v: %w", err, schedule.ErrPersistence)
	}
	defer func() { _ = rows.Close() }()

	return scanJobs(rows)
}

// ListBySubscriber returns all jobs belonging to one subscriber.
func (s *JobStore) ListBySubscriber(ctx context.Context, subscriberID string) ([]schedule.Job, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT subscriber_id, conversation_id, interval_seconds, next_fire_at, created_at
		FROM jobs
		WHERE subscriber_id = ?
		ORDER BY rowid`,
		subscriberID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list jobs for %s: %v: %w", subscriberID, err, schedule.ErrPersistence)
	}
	defer func() { _ = rows.Close() }()

	return scanJobs(rows)
}

// ListAll enumerates every job, for the status endpoint and startup logging.
func (s *JobStore) ListAll(ctx context.Context) ([]schedule.Job, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT subscriber_id, conversation_id, interval_seconds, next_fire_at, created_at
		FROM jobs
		ORDER BY rowid`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list all jobs: %v: %w", err, schedule.ErrPersistence)
	}
	defer func() { _ = rows.Close() }()

	return scanJobs(rows)
}

// Advance reschedules the job to now + interval_seconds. Updating zero rows
// means the job was concurrently removed; that is not an error and must not
// resurrect the job.
func (s *JobStore) Advance(ctx context.Context, key schedule.Key, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE jobs
		SET next_fire_at = ? + interval_seconds
		WHERE subscriber_id = ? AND conversation_id = ?`,
		now.Unix(), key.SubscriberID, key.ConversationID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: advance job: %v: %w", err, schedule.ErrPersistence)
	}
	return nil
}

func scanJobs(rows *sql.Rows) ([]schedule.Job, error) {
	var jobs []schedule.Job
	for rows.Next() {
		var (
			job        schedule.Job
			nextFireAt int64
			createdAt  string
		)
		if err := rows.Scan(&job.SubscriberID, &job.ConversationID, &job.IntervalSeconds, &nextFireAt, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan job: %v: %w", err, schedule.ErrPersistence)
		}

		job.NextFireAt = time.Unix(nextFireAt, 0).UTC()
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("sqlite: parse created_at %q: %v: %w", createdAt, err, schedule.ErrPersistence)
		}
		job.CreatedAt = t

		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: scan job rows: %v: %w", err, schedule.ErrPersistence)
	}
	return jobs, nil
}
