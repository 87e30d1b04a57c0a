package transport

import (
	"context"
	"fmt"
	"sync"
)

// Delivered records one handed-off summary or failure notice.
type Delivered struct {
	SubscriberID string
	Text         string
}

// MockTransport is a test double implementing Transport plus the delivery
// sink. It serves canned conversations and messages, can be forced to fail,
// and records everything delivered through it.
type MockTransport struct {
	mu            sync.Mutex
	conversations map[string][]Conversation
	messages      map[string][]Message
	listErr       error
	fetchErr      error
	deliverErr    error
	deliveries    []Delivered
	fetchCalls    int
}

// Compile-time interface guard.
var _ Transport = (*MockTransport)(nil)

// NewMockTransport creates an empty mock.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		conversations: make(map[string][]Conversation),
		messages:      make(map[string][]Message),
	}
}

// SetConversations registers the recent conversations served for an identity.
func (m *MockTransport) SetConversations(identity string, convs []Conversation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversations[identity] = convs
}

// SetMessages registers the newest-first message history for a conversation.
func (m *MockTransport) SetMessages(conversationID string, msgs []Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[conversationID] = msgs
}

// FailFetch forces subsequent FetchMessages calls to return err (nil resets).
func (m *MockTransport) FailFetch(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchErr = err
}

// FailList forces subsequent ListRecentConversations calls to return err.
func (m *MockTransport) FailList(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listErr = err
}

// FailDeliver forces subsequent Deliver calls to return err.
func (m *MockTransport) FailDeliver(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliverErr = err
}

// ListRecentConversations implements Transport.
func (m *MockTransport) ListRecentConversations(_ context.Context, identity string) ([]Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.listErr != nil {
		return nil, fmt.Errorf("mock: listing conversations: %v: %w", m.listErr, ErrUnavailable)
	}
	return append([]Conversation(nil), m.conversations[identity]...), nil
}

// FetchMessages implements Transport. Messages are returned newest first,
// capped at limit.
func (m *MockTransport) FetchMessages(_ context.Context, conversationID string, limit int) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.fetchCalls++
	if m.fetchErr != nil {
		return nil, fmt.Errorf("mock: fetching messages: %v: %w", m.fetchErr, ErrUnavailable)
	}

	msgs := m.messages[conversationID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return append([]Message(nil), msgs...), nil
}

// Deliver records a finished summary or failure notice. It satisfies the
// scheduler's delivery-sink interface.
func (m *MockTransport) Deliver(_ context.Context, subscriberID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deliverErr != nil {
		return m.deliverErr
	}
	m.deliveries = append(m.deliveries, Delivered{SubscriberID: subscriberID, Text: text})
	return nil
}

// Deliveries returns a snapshot of everything delivered so far.
func (m *MockTransport) Deliveries() []Delivered {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Delivered(nil), m.deliveries...)
}

// FetchCalls returns how many times FetchMessages was invoked.
func (m *MockTransport) FetchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchCalls
}
