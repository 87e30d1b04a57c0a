// Package summarize turns message windows into natural-language summaries
// through a rate-limited backend, rotating credentials on retryable failures.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/recapd/recapd/internal/credential"
	"github.com/recapd/recapd/internal/window"
)

// EmptySummary is returned for windows with no messages; the backend is not
// called in that case.
const EmptySummary = "Nothing to summarize: no recent messages were found."

// promptHeader frames the serialized conversation for the model.
const promptHeader = "Below is a chat conversation. Please provide a concise summary " +
	"of the main topics, key points, and any decisions or action items mentioned. " +
	"Focus on the most important information.\n\nChat conversation:\n"

// Backend performs one outbound summarization call with the supplied
// credential. Implementations classify failures with the package sentinels.
type Backend interface {
	Summarize(ctx context.Context, cred credential.Slot, prompt string) (string, error)
}

// Client composes the credential pool and a backend into a failover-aware
// summarization call.
type Client struct {
	pool    *credential.Pool
	backend Backend
	logger  *slog.Logger
}

// NewClient creates a Client. A nil logger defaults to slog.Default().
func NewClient(pool *credential.Pool, backend Backend, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{pool: pool, backend: backend, logger: logger}
}

// Summarize produces a summary for the window. An empty window returns
// EmptySummary without touching the backend. On a retryable failure the
// client reports the outcome, rotates to the next credential, and tries up
// to pool-size additional credentials before returning ErrExhausted. A
// non-retryable backend failure returns ErrRejected immediately. Every
// acquired credential has its outcome reported exactly once.
func (c *Client) Summarize(ctx context.Context, win window.Window) (string, error) {
	if win.Empty() {
		return EmptySummary, nil
	}

	prompt := BuildPrompt(win)
	attempts := c.pool.Size() + 1

	var lastErr error
	for range attempts {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("summarize: deadline during failover: %v: %w", err, ErrExhausted)
		}

		cred, err := c.pool.Acquire()
		if err != nil {
			if lastErr != nil {
				return "", fmt.Errorf("summarize: %v: %w", lastErr, ErrExhausted)
			}
			return "", fmt.Errorf("summarize: no eligible credential: %w", ErrExhausted)
		}

		text, err := c.backend.Summarize(ctx, cred, prompt)
		if err == nil {
			c.pool.ReportOutcome(cred, true)
			return text, nil
		}

		c.pool.ReportOutcome(cred, false)

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return "", fmt.Errorf("summarize: attempt deadline exceeded: %v: %w", err, ErrExhausted)
		}
		if !IsRetryable(err) {
			return "", fmt.Errorf("summarize: credential %s: %v: %w", cred.Name, err, ErrRejected)
		}

		lastErr = err
		c.logger.Warn("summarize: credential failed, rotating",
			"credential", cred.Name,
			"error", err,
		)
	}

	return "", fmt.Errorf("summarize: tried %d credentials: %v: %w", attempts, lastErr, ErrExhausted)
}

// BuildPrompt serializes the window in chronological order (oldest first,
// the reverse of fetch order) under the summarization instruction.
func BuildPrompt(win window.Window) string {
	var b strings.Builder
	b.Grow(len(promptHeader) + win.Chars + len(win.Entries)*16)
	b.WriteString(promptHeader)
	for i := len(win.Entries) - 1; i >= 0; i-- {
		e := win.Entries[i]
		b.WriteString(e.Sender)
		b.WriteString(": ")
		b.WriteString(e.Text)
		b.WriteByte('\n')
	}
	return b.String()
}
