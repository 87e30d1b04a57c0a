// Package transport defines the chat-transport collaborator contract: listing
// a subscriber's recent conversations and fetching raw messages from one
// conversation. Concrete transports (Telegram, Slack, ...) live outside this
// module and are injected at wiring time; MockTransport ships in-tree for
// tests and local development.
package transport

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable indicates the underlying chat transport failed to serve a
// request. Implementations wrap it so callers can classify fetch failures
// with errors.Is.
var ErrUnavailable = errors.New("transport: unavailable")

// ConversationKind distinguishes the flavors of conversation a transport exposes.
type ConversationKind string

// Conversation kinds.
const (
	KindDirect  ConversationKind = "direct"
	KindGroup   ConversationKind = "group"
	KindChannel ConversationKind = "channel"
)

// Conversation is one entry in a subscriber's recent-conversations listing.
type Conversation struct {
	ID          string
	DisplayName string
	Kind        ConversationKind
}

// Message is a single raw chat message as served by the transport.
type Message struct {
	Sender    string
	Text      string
	Timestamp time.Time
}

// Transport is the consumed collaborator interface. Implementations must be
// safe for concurrent use; both the tick loop and on-demand requests call it.
type Transport interface {
	// ListRecentConversations returns the most recently active conversations
	// for the given identity, most recent first.
	ListRecentConversations(ctx context.Context, identity string) ([]Conversation, error)

	// FetchMessages returns up to limit messages from the conversation,
	// newest first.
	FetchMessages(ctx context.Context, conversationID string, limit int) ([]Message, error)
}
