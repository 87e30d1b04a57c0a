package summarize

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/recapd/recapd/internal/window"
)

// DefaultTimeout bounds one full summarization (fetch plus backend failover).
const DefaultTimeout = 2 * time.Minute

// Pipeline chains window fetching and summarization into the single call the
// scheduler fires per due job.
type Pipeline struct {
	fetcher *window.Fetcher
	client  *Client
	timeout time.Duration
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewPipeline creates a Pipeline. A non-positive timeout falls back to
// DefaultTimeout; a nil logger defaults to slog.Default().
func NewPipeline(fetcher *window.Fetcher, client *Client, timeout time.Duration, logger *slog.Logger) *Pipeline {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		fetcher: fetcher,
		client:  client,
		timeout: timeout,
		logger:  logger,
		tracer:  otel.Tracer("recapd/summarize"),
	}
}

// Run fetches the conversation window and summarizes it, under the pipeline
// timeout. Fetch and summarization errors propagate unchanged so callers can
// classify them with errors.Is.
func (p *Pipeline) Run(ctx context.Context, conversationID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ctx, span := p.tracer.Start(ctx, "summarize.run",
		trace.WithAttributes(attribute.String("conversation.id", conversationID)))
	defer span.End()

	win, err := p.fetcher.Fetch(ctx, conversationID, 0, 0)
	if err != nil {
		span.SetStatus(codes.Error, "fetch failed")
		span.RecordError(err)
		return "", err
	}

	span.SetAttributes(
		attribute.Int("window.messages", len(win.Entries)),
		attribute.Int("window.chars", win.Chars),
		attribute.Bool("window.truncated", win.Truncated),
	)

	text, err := p.client.Summarize(ctx, win)
	if err != nil {
		span.SetStatus(codes.Error, "summarize failed")
		span.RecordError(err)
		return "", err
	}

	p.logger.Debug("summary produced",
		"conversation", conversationID,
		"messages", len(win.Entries),
		"truncated", win.Truncated,
	)
	return text, nil
}
