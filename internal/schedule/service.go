package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/recapd/recapd/internal/interval"
)

// ServiceConfig bounds the intervals the service accepts.
type ServiceConfig struct {
	// MinIntervalSeconds is the shortest accepted interval. Default: 60.
	MinIntervalSeconds int64

	// MaxIntervalSeconds is the longest accepted interval. Default: 86400.
	MaxIntervalSeconds int64
}

// defaults fills zero-value fields with the interval package bounds.
func (c *ServiceConfig) defaults() {
	if c.MinIntervalSeconds <= 0 {
		c.MinIntervalSeconds = interval.MinSeconds
	}
	if c.MaxIntervalSeconds <= 0 {
		c.MaxIntervalSeconds = interval.MaxSeconds
	}
}

// Service is the request-path API for managing recurring jobs. It validates
// input before any store write; a validation failure never creates or
// modifies a job.
type Service struct {
	store  Store
	cfg    ServiceConfig
	logger *slog.Logger

	// now is injectable for testing. Defaults to time.Now.
	now func() time.Time
}

// NewService creates a Service over the given store.
func NewService(store Store, cfg ServiceConfig, logger *slog.Logger) *Service {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Schedule registers (or replaces) a recurring summarization for the pair,
// first firing one interval from now. The interval string follows the
// <integer><s|m|h> grammar and must fall within the configured bounds.
func (s *Service) Schedule(ctx context.Context, subscriberID, conversationID, intervalStr string) (Job, error) {
	if err := validateIDs(subscriberID, conversationID); err != nil {
		return Job{}, err
	}

	seconds, err := interval.ParseBounded(intervalStr, s.cfg.MinIntervalSeconds, s.cfg.MaxIntervalSeconds)
	if err != nil {
		return Job{}, err
	}

	now := s.now().Truncate(time.Second)
	job := Job{
		SubscriberID:    subscriberID,
		ConversationID:  conversationID,
		IntervalSeconds: seconds,
		NextFireAt:      now.Add(interval.Duration(seconds)),
		CreatedAt:       now,
	}

	if err := s.store.Upsert(ctx, job); err != nil {
		return Job{}, err
	}

	s.logger.Info("schedule: job registered",
		"subscriber", subscriberID,
		"conversation", conversationID,
		"interval", interval.Format(seconds),
	)
	return job, nil
}

// Remove deletes the job for the pair. Removing an absent job succeeds.
func (s *Service) Remove(ctx context.Context, subscriberID, conversationID string) error {
	if err := validateIDs(subscriberID, conversationID); err != nil {
		return err
	}

	if err := s.store.Remove(ctx, Key{SubscriberID: subscriberID, ConversationID: conversationID}); err != nil {
		return err
	}

	s.logger.Info("schedule: job removed",
		"subscriber", subscriberID,
		"conversation", conversationID,
	)
	return nil
}

// List returns all jobs belonging to the subscriber, for status display.
func (s *Service) List(ctx context.Context, subscriberID string) ([]Job, error) {
	if strings.TrimSpace(subscriberID) == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidSubscriber)
	}
	return s.store.ListBySubscriber(ctx, subscriberID)
}

// validateIDs rejects empty or whitespace-only identifiers.
func validateIDs(subscriberID, conversationID string) error {
	if strings.TrimSpace(subscriberID) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidSubscriber)
	}
	if strings.TrimSpace(conversationID) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidConversation)
	}
	return nil
}
