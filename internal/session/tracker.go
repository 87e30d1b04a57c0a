// Package session tracks short-lived interactive state for subscribers who
// are mid-way through a multi-step command, such as picking which
// conversation to schedule. State is in-memory only and expires after a TTL;
// losing it on restart just means the subscriber restarts the exchange.
package session

import (
	"sync"
	"time"
)

// DefaultTTL is how long a pending action survives without being resolved.
const DefaultTTL = 10 * time.Minute

// PendingAction is what the tracker is waiting on from a subscriber.
type PendingAction int

const (
	// ActionNone means no exchange is in progress.
	ActionNone PendingAction = iota

	// ActionAwaitConversation means the subscriber was shown their recent
	// conversations and the next input picks one.
	ActionAwaitConversation
)

// String returns the action name for logging.
func (a PendingAction) String() string {
	switch a {
	case ActionAwaitConversation:
		return "await_conversation"
	default:
		return "none"
	}
}

// Session is one subscriber's pending exchange.
type Session struct {
	SubscriberID string
	Action       PendingAction

	// Payload carries exchange-specific data, e.g. the interval string
	// captured before the conversation is chosen.
	Payload string

	expiresAt time.Time
}

// Tracker holds at most one pending exchange per subscriber. All methods are
// safe for concurrent use. Expired sessions are dropped lazily on access and
// in bulk by Sweep.
type Tracker struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration

	// now is injectable for testing. Defaults to time.Now.
	now func() time.Time
}

// NewTracker creates a Tracker. A non-positive ttl falls back to DefaultTTL.
func NewTracker(ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Tracker{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Begin starts (or replaces) the subscriber's pending exchange.
func (t *Tracker) Begin(subscriberID string, action PendingAction, payload string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sessions[subscriberID] = &Session{
		SubscriberID: subscriberID,
		Action:       action,
		Payload:      payload,
		expiresAt:    t.now().Add(t.ttl),
	}
}

// Active returns the subscriber's pending session, if any. An expired
// session is dropped and reported as absent.
func (t *Tracker) Active(subscriberID string) (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[subscriberID]
	if !ok {
		return Session{}, false
	}
	if !s.expiresAt.After(t.now()) {
		delete(t.sessions, subscriberID)
		return Session{}, false
	}
	return *s, true
}

// Resolve ends the subscriber's exchange and returns the session it closed.
// Resolving an absent or expired session reports false.
func (t *Tracker) Resolve(subscriberID string) (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[subscriberID]
	if !ok {
		return Session{}, false
	}
	delete(t.sessions, subscriberID)
	if !s.expiresAt.After(t.now()) {
		return Session{}, false
	}
	return *s, true
}

// Cancel drops the subscriber's pending exchange, if any.
func (t *Tracker) Cancel(subscriberID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, subscriberID)
}

// Len returns the number of tracked sessions, expired ones included.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// Sweep drops every expired session and returns how many were removed.
func (t *Tracker) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	removed := 0
	for id, s := range t.sessions {
		if !s.expiresAt.After(now) {
			delete(t.sessions, id)
			removed++
		}
	}
	return removed
}
