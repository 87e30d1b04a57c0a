package openrouter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/recapd/recapd/internal/summarize"
)

// apiError represents an error response from the OpenRouter API.
type apiError struct {
	Error struct {
		Message string `json:"message"`
		Code    any    `json:"code"` // Can be string or int depending on upstream.
	} `json:"error"`
}

// mapHTTPError converts an HTTP status code and response body into the
// appropriate summarize sentinel error. Statuses that another credential
// could fix (429, 5xx) map to the retryable class; everything else is
// terminal.
func mapHTTPError(statusCode int, body io.Reader) error {
	var ae apiError

	data, readErr := io.ReadAll(io.LimitReader(body, 4096))
	if readErr == nil && len(data) > 0 {
		_ = json.Unmarshal(data, &ae)
	}

	msg := ae.Error.Message
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", statusCode)
	}

	switch {
	case statusCode == 429:
		return fmt.Errorf("openrouter: %s: %w", msg, summarize.ErrRateLimited)
	case statusCode == 401 || statusCode == 403:
		// Invalid keys rotate too: the next credential may be valid.
		return fmt.Errorf("openrouter: %s: %w", msg, summarize.ErrRateLimited)
	case statusCode >= 500:
		return fmt.Errorf("openrouter: %s: %w", msg, summarize.ErrUnavailable)
	default:
		return fmt.Errorf("openrouter: %s: %w", msg, summarize.ErrRejected)
	}
}

// mapAPIError converts an in-body API error (delivered with HTTP 200) into a
// summarize error.
func mapAPIError(msg string) error {
	lmsg := strings.ToLower(msg)
	switch {
	case strings.Contains(lmsg, "rate limit"):
		return fmt.Errorf("openrouter: %s: %w", msg, summarize.ErrRateLimited)
	default:
		return fmt.Errorf("openrouter: %s: %w", msg, summarize.ErrUnavailable)
	}
}
