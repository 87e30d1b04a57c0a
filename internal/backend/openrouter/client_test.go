package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/recapd/recapd/internal/credential"
	"github.com/recapd/recapd/internal/summarize"
)

func testBackend(t *testing.T, handler http.HandlerFunc) *Backend {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	b, err := New(Config{Model: "test/model", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	return b
}

func completionBody(content string) []byte {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}, "finish_reason": "stop"},
		},
	})
	return body
}

func TestSummarize_Success(t *testing.T) {
	t.Parallel()

	var gotAuth, gotPath string
	b := testBackend(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path

		var req apiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.Model != "test/model" {
			t.Errorf("model = %q", req.Model)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("messages = %+v", req.Messages)
		}
		if req.Stream {
			t.Error("stream should be false")
		}

		_, _ = w.Write(completionBody("the team shipped the release"))
	})

	got, err := b.Summarize(context.Background(), credential.Slot{Name: "k1", Secret: "sk-or-v1-abc"}, "prompt")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if got != "the team shipped the release" {
		t.Errorf("got %q", got)
	}
	if gotAuth != "Bearer sk-or-v1-abc" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotPath != "/chat/completions" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestSummarize_StripsThinkingBlock(t *testing.T) {
	t.Parallel()

	b := testBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(completionBody("<think>\nLet me look at the messages...\n</think>\n\nThey planned a release."))
	})

	got, err := b.Summarize(context.Background(), credential.Slot{Name: "k1"}, "prompt")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if got != "They planned a release." {
		t.Errorf("got %q", got)
	}
}

func TestSummarize_RateLimited(t *testing.T) {
	t.Parallel()

	b := testBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limit exceeded","code":429}}`))
	})

	_, err := b.Summarize(context.Background(), credential.Slot{Name: "k1"}, "prompt")
	if !errors.Is(err, summarize.ErrRateLimited) {
		t.Fatalf("got %v, want ErrRateLimited", err)
	}
}

func TestSummarize_ServerError(t *testing.T) {
	t.Parallel()

	b := testBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := b.Summarize(context.Background(), credential.Slot{Name: "k1"}, "prompt")
	if !errors.Is(err, summarize.ErrUnavailable) {
		t.Fatalf("got %v, want ErrUnavailable", err)
	}
}

func TestSummarize_BadRequestIsTerminal(t *testing.T) {
	t.Parallel()

	b := testBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid model"}}`))
	})

	_, err := b.Summarize(context.Background(), credential.Slot{Name: "k1"}, "prompt")
	if !errors.Is(err, summarize.ErrRejected) {
		t.Fatalf("got %v, want ErrRejected", err)
	}
	if errors.Is(err, summarize.ErrRateLimited) || errors.Is(err, summarize.ErrUnavailable) {
		t.Error("terminal error must not match the retryable class")
	}
}

func TestSummarize_EmptyCompletionIsRetryable(t *testing.T) {
	t.Parallel()

	b := testBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(completionBody(""))
	})

	_, err := b.Summarize(context.Background(), credential.Slot{Name: "k1"}, "prompt")
	if !errors.Is(err, summarize.ErrUnavailable) {
		t.Fatalf("got %v, want ErrUnavailable on empty completion", err)
	}
}

func TestSummarize_NetworkErrorIsRetryable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // connection refused from here on

	b, err := New(Config{Model: "test/model", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}

	_, err = b.Summarize(context.Background(), credential.Slot{Name: "k1"}, "prompt")
	if !errors.Is(err, summarize.ErrUnavailable) {
		t.Fatalf("got %v, want ErrUnavailable on network failure", err)
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"defaults", Config{}, true},
		{"bad scheme", Config{BaseURL: "ftp://example.com"}, false},
		{"no host", Config{BaseURL: "https://"}, false},
		{"bad timeout", Config{Timeout: "soon"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := New(tt.cfg)
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestExtractFinalAnswer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"plain summary", "plain summary"},
		{"<think>reasoning</think>answer", "answer"},
		{"<think>multi\nline</think>\n\n  padded  ", "padded"},
		{"<think>only thinking</think>", ""},
	}

	for _, tt := range tests {
		if got := extractFinalAnswer(tt.in); got != tt.want {
			t.Errorf("extractFinalAnswer(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
