package summarize

import "errors"

// Sentinel errors for summarization calls. Backend implementations return
// ErrRateLimited and ErrUnavailable (the retryable class); the Client maps
// terminal outcomes to ErrRejected and gives up with ErrExhausted.
var (
	// ErrRateLimited indicates the backend rate limited the credential used.
	ErrRateLimited = errors.New("summarize: backend rate limited")

	// ErrUnavailable indicates a transient backend or network failure.
	ErrUnavailable = errors.New("summarize: backend unavailable")

	// ErrRejected indicates the backend rejected the request for a reason
	// that retrying with another credential cannot fix.
	ErrRejected = errors.New("summarize: backend rejected request")

	// ErrExhausted indicates every credential was tried (or was in cooldown)
	// without producing a summary, or the attempt deadline expired.
	ErrExhausted = errors.New("summarize: all credentials exhausted")
)

// IsRetryable reports whether a backend error warrants trying the next
// credential in the pool.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnavailable)
}
