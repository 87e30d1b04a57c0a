// Package window builds the bounded slice of conversation history handed to
// summarization. A window respects two hard caps: a message count and a
// cumulative character budget over the message texts. Growth stops before
// the message that would cross either cap; the over-budget message is never
// partially included.
package window

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/recapd/recapd/internal/transport"
)

// Default caps, matching the configuration surface defaults.
const (
	DefaultMaxMessages = 100
	DefaultMaxChars    = 500
)

// Entry is one message inside a window.
type Entry struct {
	Sender    string
	Text      string
	Timestamp time.Time
}

// Window is the bounded, newest-first slice of history for one summarization
// call. It is built fresh per call and discarded after use.
type Window struct {
	ConversationID string
	Entries        []Entry // newest first, as fetched
	Chars          int     // cumulative rune count of Entry texts
	Truncated      bool    // true when either cap bound the result
}

// Empty reports whether the window holds no messages.
func (w Window) Empty() bool {
	return len(w.Entries) == 0
}

// Fetcher pulls message windows from the chat transport.
type Fetcher struct {
	transport   transport.Transport
	maxMessages int
	maxChars    int
}

// NewFetcher creates a Fetcher with the given default caps. Non-positive
// caps fall back to DefaultMaxMessages / DefaultMaxChars.
func NewFetcher(t transport.Transport, maxMessages, maxChars int) *Fetcher {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Fetcher{transport: t, maxMessages: maxMessages, maxChars: maxChars}
}

// Fetch retrieves up to maxMessages newest-first messages for the
// conversation and accumulates them into a Window under the character
// budget. Non-positive caps use the fetcher defaults. Transport failures are
// returned wrapped in transport.ErrUnavailable and are not retried here;
// retry policy belongs to the caller.
func (f *Fetcher) Fetch(ctx context.Context, conversationID string, maxMessages, maxChars int) (Window, error) {
	if maxMessages <= 0 {
		maxMessages = f.maxMessages
	}
	if maxChars <= 0 {
		maxChars = f.maxChars
	}

	msgs, err := f.transport.FetchMessages(ctx, conversationID, maxMessages)
	if err != nil {
		if errors.Is(err, transport.ErrUnavailable) {
			return Window{}, fmt.Errorf("window: fetching %s: %w", conversationID, err)
		}
		return Window{}, fmt.Errorf("window: fetching %s: %v: %w", conversationID, err, transport.ErrUnavailable)
	}

	win := Window{ConversationID: conversationID}
	for _, m := range msgs {
		if m.Text == "" {
			continue // counts against the fetch limit, never the window
		}
		if len(win.Entries) >= maxMessages {
			win.Truncated = true
			break
		}
		chars := utf8.RuneCountInString(m.Text)
		if win.Chars+chars > maxChars {
			win.Truncated = true
			break
		}
		win.Entries = append(win.Entries, Entry{Sender: m.Sender, Text: m.Text, Timestamp: m.Timestamp})
		win.Chars += chars
	}

	// A full page from the transport means the count cap bound the result
	// even when every fetched message fit the character budget.
	if !win.Truncated && len(win.Entries) == maxMessages && len(msgs) >= maxMessages {
		win.Truncated = true
	}

	return win, nil
}
