package summarize

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/recapd/recapd/internal/transport"
	"github.com/recapd/recapd/internal/window"
)

func TestPipeline_EndToEnd(t *testing.T) {
	t.Parallel()

	mock := transport.NewMockTransport()
	mock.SetMessages("c1", []transport.Message{
		{Sender: "bob", Text: "ship it", Timestamp: time.Now()},
		{Sender: "alice", Text: "review done", Timestamp: time.Now().Add(-time.Minute)},
	})

	backend := &scriptedBackend{results: []scriptedResult{
		{text: "alice finished the review and bob agreed to ship"},
	}}
	client := NewClient(testPool(t, 1), backend, nil)
	p := NewPipeline(window.NewFetcher(mock, 100, 500), client, 0, nil)

	got, err := p.Run(context.Background(), "c1")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got != "alice finished the review and bob agreed to ship" {
		t.Errorf("got %q", got)
	}
}

func TestPipeline_EmptyConversation(t *testing.T) {
	t.Parallel()

	mock := transport.NewMockTransport()
	backend := &scriptedBackend{}
	client := NewClient(testPool(t, 1), backend, nil)
	p := NewPipeline(window.NewFetcher(mock, 100, 500), client, 0, nil)

	got, err := p.Run(context.Background(), "silent")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got != EmptySummary {
		t.Errorf("got %q, want EmptySummary", got)
	}
	if len(backend.calls) != 0 {
		t.Errorf("backend called for an empty conversation")
	}
}

func TestPipeline_FetchErrorPropagates(t *testing.T) {
	t.Parallel()

	mock := transport.NewMockTransport()
	mock.FailFetch(errors.New("socket closed"))

	client := NewClient(testPool(t, 1), &scriptedBackend{}, nil)
	p := NewPipeline(window.NewFetcher(mock, 100, 500), client, 0, nil)

	_, err := p.Run(context.Background(), "c1")
	if !errors.Is(err, transport.ErrUnavailable) {
		t.Fatalf("got %v, want transport.ErrUnavailable", err)
	}
}
