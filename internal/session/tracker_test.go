package session

import (
	"testing"
	"time"
)

// advanceableTracker returns a tracker with a controllable clock.
func advanceableTracker(ttl time.Duration) (*Tracker, *time.Time) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	t := NewTracker(ttl)
	t.now = func() time.Time { return now }
	return t, &now
}

func TestBeginAndActive(t *testing.T) {
	t.Parallel()

	tr, _ := advanceableTracker(time.Minute)
	tr.Begin("u1", ActionAwaitConversation, "30m")

	s, ok := tr.Active("u1")
	if !ok {
		t.Fatal("session should be active")
	}
	if s.Action != ActionAwaitConversation || s.Payload != "30m" {
		t.Errorf("session = %+v", s)
	}

	if _, ok := tr.Active("u2"); ok {
		t.Error("unknown subscriber should have no session")
	}
}

func TestBegin_ReplacesExisting(t *testing.T) {
	t.Parallel()

	tr, _ := advanceableTracker(time.Minute)
	tr.Begin("u1", ActionAwaitConversation, "30m")
	tr.Begin("u1", ActionAwaitConversation, "2h")

	s, ok := tr.Active("u1")
	if !ok || s.Payload != "2h" {
		t.Errorf("session = %+v, ok = %v; want replaced payload", s, ok)
	}
	if tr.Len() != 1 {
		t.Errorf("len = %d, want 1", tr.Len())
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	tr, _ := advanceableTracker(time.Minute)
	tr.Begin("u1", ActionAwaitConversation, "")

	if _, ok := tr.Resolve("u1"); !ok {
		t.Fatal("resolve should find the session")
	}
	if _, ok := tr.Active("u1"); ok {
		t.Error("session should be gone after resolve")
	}
	if _, ok := tr.Resolve("u1"); ok {
		t.Error("second resolve should report absent")
	}
}

func TestCancel(t *testing.T) {
	t.Parallel()

	tr, _ := advanceableTracker(time.Minute)
	tr.Begin("u1", ActionAwaitConversation, "")
	tr.Cancel("u1")
	tr.Cancel("never-seen") // must not panic

	if _, ok := tr.Active("u1"); ok {
		t.Error("session should be gone after cancel")
	}
}

func TestExpiry_LazyDrop(t *testing.T) {
	t.Parallel()

	tr, now := advanceableTracker(time.Minute)
	tr.Begin("u1", ActionAwaitConversation, "")

	*now = now.Add(time.Minute) // exactly at expiry: gone
	if _, ok := tr.Active("u1"); ok {
		t.Error("expired session should be dropped on access")
	}
	if tr.Len() != 0 {
		t.Errorf("len = %d, want 0 after lazy drop", tr.Len())
	}
}

func TestSweep(t *testing.T) {
	t.Parallel()

	tr, now := advanceableTracker(time.Minute)
	tr.Begin("old1", ActionAwaitConversation, "")
	tr.Begin("old2", ActionAwaitConversation, "")

	*now = now.Add(30 * time.Second)
	tr.Begin("fresh", ActionAwaitConversation, "")

	*now = now.Add(45 * time.Second) // old1/old2 expired, fresh alive
	if swept := tr.Sweep(); swept != 2 {
		t.Errorf("swept = %d, want 2", swept)
	}
	if _, ok := tr.Active("fresh"); !ok {
		t.Error("fresh session should survive the sweep")
	}
}
