package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/recapd/recapd/internal/schedule"
)

// fakeJobs serves a fixed job list.
type fakeJobs struct {
	jobs []schedule.Job
}

func (f *fakeJobs) ListAll(_ context.Context) ([]schedule.Job, error) {
	return f.jobs, nil
}

// fakePool reports fixed credential counts.
type fakePool struct {
	size, available int
}

func (f *fakePool) Size() int      { return f.size }
func (f *fakePool) Available() int { return f.available }

// fakeSessions reports a fixed session count.
type fakeSessions struct{ n int }

func (f *fakeSessions) Len() int { return f.n }

func testGateway(t *testing.T, cfg Config, pool *fakePool) *Gateway {
	t.Helper()

	jobs := &fakeJobs{jobs: []schedule.Job{
		{SubscriberID: "u1", ConversationID: "c1", IntervalSeconds: 1800},
		{SubscriberID: "u2", ConversationID: "c2", IntervalSeconds: 3600},
	}}

	g := New(cfg, nil, jobs, pool, &fakeSessions{n: 1}, prometheus.NewRegistry(), "1.2.3", "test/model")
	g.startedAt = time.Now().Add(-time.Minute)
	return g
}

func TestHealth_Public(t *testing.T) {
	t.Parallel()

	g := testGateway(t, Config{}, &fakePool{size: 3, available: 2})
	srv := httptest.NewServer(g.buildRouter())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var hr HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&hr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if hr.Status != "ok" || hr.CredentialsAvailable != 2 || hr.CredentialsTotal != 3 {
		t.Errorf("health = %+v", hr)
	}
}

func TestHealth_DegradedWhenPoolExhausted(t *testing.T) {
	t.Parallel()

	g := testGateway(t, Config{}, &fakePool{size: 3, available: 0})
	srv := httptest.NewServer(g.buildRouter())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestStatus_RequiresAuth(t *testing.T) {
	t.Parallel()

	cfg := Config{Auth: AuthConfig{BearerToken: "s3cret"}}
	g := testGateway(t, cfg, &fakePool{size: 2, available: 2})
	srv := httptest.NewServer(g.buildRouter())
	defer srv.Close()

	// No token: rejected.
	resp, err := http.Get(srv.URL + "/status")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", resp.StatusCode)
	}

	// Wrong token: rejected.
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/status", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong-token status = %d, want 401", resp.StatusCode)
	}

	// Correct token: full status.
	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/status", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("authenticated status = %d, want 200", resp.StatusCode)
	}

	var sr StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sr.Version != "1.2.3" || sr.Model != "test/model" {
		t.Errorf("status = %+v", sr)
	}
	if sr.Jobs != 2 || sr.Sessions != 1 {
		t.Errorf("counts = %+v", sr)
	}
	if sr.UptimeSeconds <= 0 {
		t.Errorf("uptime = %v, want > 0", sr.UptimeSeconds)
	}
}

func TestStatus_NotMountedWithoutAuth(t *testing.T) {
	t.Parallel()

	g := testGateway(t, Config{}, &fakePool{size: 1, available: 1})
	srv := httptest.NewServer(g.buildRouter())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/status")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404 when auth is unset", resp.StatusCode)
	}
}

func TestMetrics_BehindAuth(t *testing.T) {
	t.Parallel()

	cfg := Config{Auth: AuthConfig{BearerToken: "s3cret"}}
	g := testGateway(t, cfg, &fakePool{size: 1, available: 1})
	srv := httptest.NewServer(g.buildRouter())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated metrics = %d, want 401", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/metrics", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("authenticated metrics = %d, want 200", resp.StatusCode)
	}
}

func TestValidate_BindAddress(t *testing.T) {
	t.Parallel()

	g := New(Config{Bind: "not a bind addr"}, nil, nil, nil, nil, nil, "", "")
	if err := g.Validate(); err == nil {
		t.Error("expected error for invalid bind address")
	}

	g = New(Config{Bind: "127.0.0.1:0"}, nil, nil, nil, nil, nil, "", "")
	if err := g.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestStartStop(t *testing.T) {
	t.Parallel()

	g := testGateway(t, Config{Bind: "127.0.0.1:0"}, &fakePool{size: 1, available: 1})
	if err := g.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := g.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	// Stop without a running server must not panic.
	g2 := New(Config{}, nil, nil, nil, nil, nil, "", "")
	if err := g2.Stop(context.Background()); err != nil {
		t.Fatalf("stop without start: %v", err)
	}
}
