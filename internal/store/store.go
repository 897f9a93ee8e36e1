// Package store defines the conversation persistence contract. Two
// implementations exist: sqlite for local development and postgres for
// production, selected once at startup.
package store

import (
	"context"
	"errors"

	"github.com/priyansh203/spur-chatbot/internal/model"
)

// ErrNotFound is returned when a conversation does not exist.
var ErrNotFound = errors.New("conversation not found")

// Store is the durable mapping from conversation id to its ordered
// messages. All operations are atomic at the single-statement level; no
// transaction spans a full turn.
type Store interface {
	// CreateConversation creates a conversation and returns its id. When
	// id is empty a new one is minted; a non-empty id is adopted verbatim.
	// Creating an id that already exists is a no-op.
	CreateConversation(ctx context.Context, id string) (string, error)

	// ConversationExists reports whether the conversation id is known.
	ConversationExists(ctx context.Context, id string) (bool, error)

	// AppendMessage persists one message and returns its id.
	AppendMessage(ctx context.Context, conversationID string, sender model.Sender, text string) (string, error)

	// ListMessages returns all messages for the conversation ordered by
	// timestamp ascending. An unknown or empty conversation yields an
	// empty slice, not an error.
	ListMessages(ctx context.Context, conversationID string) ([]model.Message, error)

	// TouchConversation bumps the conversation's updated_at timestamp.
	TouchConversation(ctx context.Context, id string) error

	// Ping verifies the backing database is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connection pool.
	Close() error
}
