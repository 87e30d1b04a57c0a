// Package credential manages the rotating pool of summarization-backend
// credentials. Multiple credentials exist specifically to survive
// per-credential rate limiting: the pool hands them out round-robin,
// puts failing credentials into an exponentially growing cooldown, and
// signals exhaustion when every credential is cooling down.
//
// Cooldown state is in-memory only; a restart clears all backoff.
package credential

import (
	"errors"
	"sync"
	"time"
)

// Sentinel errors for pool operations.
var (
	// ErrExhausted is returned by Acquire when every credential is in cooldown.
	ErrExhausted = errors.New("credential: all credentials in cooldown")

	// ErrNoCredentials is returned by NewPool without any credentials.
	ErrNoCredentials = errors.New("credential: at least one credential is required")
)

// Slot identifies one backend credential. Name is used for logging and
// outcome reporting; Secret is the API key itself and must never be logged.
type Slot struct {
	Name   string
	Secret string
}

// BackoffConfig controls the per-credential failure cooldown.
type BackoffConfig struct {
	// Initial is the cooldown after the first failure. Default: 10s.
	Initial time.Duration

	// Max caps the exponential backoff duration. Default: 10m.
	Max time.Duration
}

// defaults fills zero-value fields with sensible defaults.
func (c *BackoffConfig) defaults() {
	if c.Initial <= 0 {
		c.Initial = 10 * time.Second
	}
	if c.Max <= 0 {
		c.Max = 10 * time.Minute
	}
}

// slotState couples a Slot with its in-memory failure tracking.
type slotState struct {
	Slot
	failures      int
	cooldownUntil time.Time
}

// Pool rotates across credentials with failover. All methods are safe for
// concurrent use; the cursor and cooldown state are shared by every in-flight
// summarization.
type Pool struct {
	mu      sync.Mutex
	slots   []*slotState
	cursor  int
	backoff BackoffConfig

	// now is injectable for testing. Defaults to time.Now.
	now func() time.Time
}

// NewPool creates a pool over the given credentials.
func NewPool(slots []Slot, backoff BackoffConfig) (*Pool, error) {
	if len(slots) == 0 {
		return nil, ErrNoCredentials
	}
	backoff.defaults()

	states := make([]*slotState, len(slots))
	for i, s := range slots {
		states[i] = &slotState{Slot: s}
	}
	return &Pool{
		slots:   states,
		backoff: backoff,
		now:     time.Now,
	}, nil
}

// Size returns the number of credentials in the pool.
func (p *Pool) Size() int {
	return len(p.slots)
}

// Acquire returns the next eligible credential in round-robin order,
// skipping any credential currently in cooldown. It returns ErrExhausted
// when every credential is cooling down; it never blocks.
func (p *Pool) Acquire() (Slot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	for i := range p.slots {
		idx := (p.cursor + i) % len(p.slots)
		s := p.slots[idx]
		if s.cooldownUntil.After(now) {
			continue
		}
		p.cursor = (idx + 1) % len(p.slots)
		return s.Slot, nil
	}
	return Slot{}, ErrExhausted
}

// ReportOutcome records the result of a call made with the given credential.
// Success clears the failure count and any cooldown. Failure increments the
// consecutive failure count and starts a cooldown of Initial << (failures-1),
// capped at Max.
func (p *Pool) ReportOutcome(slot Slot, success bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.lookup(slot.Name)
	if s == nil {
		return
	}

	if success {
		s.failures = 0
		s.cooldownUntil = time.Time{}
		return
	}

	s.failures++
	s.cooldownUntil = p.now().Add(p.backoffFor(s.failures))
}

// Available returns the number of credentials currently eligible for Acquire.
func (p *Pool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	n := 0
	for _, s := range p.slots {
		if !s.cooldownUntil.After(now) {
			n++
		}
	}
	return n
}

// backoffFor computes the cooldown for the given consecutive failure count.
// Callers must hold p.mu.
func (p *Pool) backoffFor(failures int) time.Duration {
	d := p.backoff.Initial
	for i := 1; i < failures; i++ {
		d *= 2
		if d >= p.backoff.Max {
			return p.backoff.Max
		}
	}
	if d > p.backoff.Max {
		return p.backoff.Max
	}
	return d
}

// lookup finds a slot state by credential name. Callers must hold p.mu.
func (p *Pool) lookup(name string) *slotState {
	for _, s := range p.slots {
		if s.Name == name {
			return s
		}
	}
	return nil
}
