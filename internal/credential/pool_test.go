package credential

import (
	"errors"
	"testing"
	"time"
)

func newTestPool(t *testing.T, n int) (*Pool, *time.Time) {
	t.Helper()

	slots := make([]Slot, n)
	for i := range slots {
		slots[i] = Slot{Name: "key-" + string(rune('a'+i)), Secret: "secret"}
	}

	p, err := NewPool(slots, BackoffConfig{Initial: 10 * time.Second, Max: time.Minute})
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return clock }
	return p, &clock
}

func TestNewPool_Empty(t *testing.T) {
	t.Parallel()

	if _, err := NewPool(nil, BackoffConfig{}); !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("got %v, want ErrNoCredentials", err)
	}
}

func TestAcquire_RoundRobin(t *testing.T) {
	t.Parallel()

	p, _ := newTestPool(t, 3)

	var got []string
	for range 6 {
		s, err := p.Acquire()
		if err != nil {
			t.Fatalf("acquire: %v", err)
		}
		got = append(got, s.Name)
	}

	want := []string{"key-a", "key-b", "key-c", "key-a", "key-b", "key-c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("acquire order = %v, want %v", got, want)
		}
	}
}

func TestAcquire_SkipsCooldown(t *testing.T) {
	t.Parallel()

	p, _ := newTestPool(t, 3)

	first, _ := p.Acquire()
	p.ReportOutcome(first, false)

	// The failed credential must not be handed out again while cooling.
	for range 4 {
		s, err := p.Acquire()
		if err != nil {
			t.Fatalf("acquire: %v", err)
		}
		if s.Name == first.Name {
			t.Fatalf("acquired %s while in cooldown", s.Name)
		}
	}
}

func TestAcquire_Exhausted(t *testing.T) {
	t.Parallel()

	p, clock := newTestPool(t, 2)

	for range 2 {
		s, err := p.Acquire()
		if err != nil {
			t.Fatalf("acquire: %v", err)
		}
		p.ReportOutcome(s, false)
	}

	if _, err := p.Acquire(); !errors.Is(err, ErrExhausted) {
		t.Fatalf("got %v, want ErrExhausted", err)
	}
	if p.Available() != 0 {
		t.Fatalf("available = %d, want 0", p.Available())
	}

	// Once the cooldown expires the pool recovers.
	*clock = clock.Add(11 * time.Second)
	if _, err := p.Acquire(); err != nil {
		t.Fatalf("acquire after cooldown: %v", err)
	}
}

func TestReportOutcome_SuccessResets(t *testing.T) {
	t.Parallel()

	p, _ := newTestPool(t, 1)

	s, _ := p.Acquire()
	p.ReportOutcome(s, false)
	p.ReportOutcome(s, true)

	if _, err := p.Acquire(); err != nil {
		t.Fatalf("acquire after success: %v", err)
	}
	if got := p.slots[0].failures; got != 0 {
		t.Fatalf("failures = %d, want 0", got)
	}
}

func TestBackoff_GrowsAndCaps(t *testing.T) {
	t.Parallel()

	p, _ := newTestPool(t, 1)

	cases := []struct {
		failures int
		want     time.Duration
	}{
		{1, 10 * time.Second},
		{2, 20 * time.Second},
		{3, 40 * time.Second},
		{4, time.Minute},  // 80s capped at 60s
		{10, time.Minute}, // stays capped, no overflow
	}

	for _, tc := range cases {
		if got := p.backoffFor(tc.failures); got != tc.want {
			t.Errorf("backoffFor(%d) = %v, want %v", tc.failures, got, tc.want)
		}
	}
}

func TestReportOutcome_UnknownSlot(t *testing.T) {
	t.Parallel()

	p, _ := newTestPool(t, 1)
	p.ReportOutcome(Slot{Name: "ghost"}, false) // must not panic

	if p.Available() != 1 {
		t.Fatalf("available = %d, want 1", p.Available())
	}
}
