package window

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/recapd/recapd/internal/transport"
)

func messages(n, textLen int) []transport.Message {
	msgs := make([]transport.Message, n)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := range msgs {
		msgs[i] = transport.Message{
			Sender:    fmt.Sprintf("user%d", i%3),
			Text:      strings.Repeat("x", textLen),
			Timestamp: base.Add(-time.Duration(i) * time.Minute), // newest first
		}
	}
	return msgs
}

func TestFetch_AllFit(t *testing.T) {
	t.Parallel()

	// 40 messages, ~300 chars total: everything fits, no truncation.
	mock := transport.NewMockTransport()
	mock.SetMessages("c1", messages(40, 7)) // 280 chars

	f := NewFetcher(mock, 100, 500)
	win, err := f.Fetch(context.Background(), "c1", 0, 0)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if len(win.Entries) != 40 {
		t.Errorf("got %d entries, want 40", len(win.Entries))
	}
	if win.Truncated {
		t.Error("truncated = true, want false")
	}
	if win.Chars != 280 {
		t.Errorf("chars = %d, want 280", win.Chars)
	}
}

func TestFetch_CharBudgetStopsBeforeOverflow(t *testing.T) {
	t.Parallel()

	// 14-char messages against a 500-char budget: 35 fit (490 chars), the
	// 36th would reach 504 and must be excluded entirely.
	mock := transport.NewMockTransport()
	mock.SetMessages("c1", messages(200, 14))

	f := NewFetcher(mock, 100, 500)
	win, err := f.Fetch(context.Background(), "c1", 0, 0)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if len(win.Entries) != 35 {
		t.Errorf("got %d entries, want 35", len(win.Entries))
	}
	if win.Chars != 490 {
		t.Errorf("chars = %d, want 490", win.Chars)
	}
	if !win.Truncated {
		t.Error("truncated = false, want true")
	}
	// Maximal-but-bounded: one more message would cross the budget.
	if win.Chars+14 <= 500 {
		t.Error("window is not maximal: next message would still fit")
	}
}

func TestFetch_MessageCapBinds(t *testing.T) {
	t.Parallel()

	mock := transport.NewMockTransport()
	mock.SetMessages("c1", messages(50, 3))

	f := NewFetcher(mock, 10, 500)
	win, err := f.Fetch(context.Background(), "c1", 0, 0)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if len(win.Entries) != 10 {
		t.Errorf("got %d entries, want 10", len(win.Entries))
	}
	if !win.Truncated {
		t.Error("truncated = false, want true when the count cap binds")
	}
}

func TestFetch_SkipsEmptyText(t *testing.T) {
	t.Parallel()

	mock := transport.NewMockTransport()
	mock.SetMessages("c1", []transport.Message{
		{Sender: "a", Text: "hello"},
		{Sender: "b", Text: ""}, // media-only message
		{Sender: "c", Text: "world"},
	})

	f := NewFetcher(mock, 100, 500)
	win, err := f.Fetch(context.Background(), "c1", 0, 0)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if len(win.Entries) != 2 {
		t.Errorf("got %d entries, want 2", len(win.Entries))
	}
}

func TestFetch_CountsRunesNotBytes(t *testing.T) {
	t.Parallel()

	mock := transport.NewMockTransport()
	mock.SetMessages("c1", []transport.Message{
		{Sender: "a", Text: strings.Repeat("é", 10)}, // 20 bytes, 10 runes
	})

	f := NewFetcher(mock, 100, 10)
	win, err := f.Fetch(context.Background(), "c1", 0, 0)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if win.Truncated || len(win.Entries) != 1 {
		t.Errorf("10-rune message should fit a 10-char budget exactly, got entries=%d truncated=%v",
			len(win.Entries), win.Truncated)
	}
}

func TestFetch_TransportError(t *testing.T) {
	t.Parallel()

	mock := transport.NewMockTransport()
	mock.FailFetch(errors.New("connection reset"))

	f := NewFetcher(mock, 100, 500)
	_, err := f.Fetch(context.Background(), "c1", 0, 0)
	if !errors.Is(err, transport.ErrUnavailable) {
		t.Fatalf("got %v, want transport.ErrUnavailable", err)
	}

	// No internal retry: exactly one transport call.
	if mock.FetchCalls() != 1 {
		t.Errorf("fetch calls = %d, want 1", mock.FetchCalls())
	}
}

func TestFetch_EmptyConversation(t *testing.T) {
	t.Parallel()

	mock := transport.NewMockTransport()
	f := NewFetcher(mock, 100, 500)

	win, err := f.Fetch(context.Background(), "silent", 0, 0)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !win.Empty() || win.Truncated {
		t.Errorf("empty conversation: entries=%d truncated=%v", len(win.Entries), win.Truncated)
	}
}
