// Package service provides the chat turn business logic.
package service

import (
	"context"
	"fmt"

	"github.com/priyansh203/spur-chatbot/internal/model"
	"github.com/priyansh203/spur-chatbot/internal/store"
)

// HistoryAssembler loads a conversation's prior turns for prompt
// construction and history retrieval.
type HistoryAssembler struct {
	store store.Store
}

// NewHistoryAssembler creates a new history assembler.
func NewHistoryAssembler(st store.Store) *HistoryAssembler {
	return &HistoryAssembler{store: st}
}

// Load returns all messages for the conversation ordered by timestamp
// ascending. A conversation with no messages yields an empty slice. Store
// failures are returned to the caller; the coordinator decides fallback.
func (a *HistoryAssembler) Load(ctx context.Context, conversationID string) ([]model.Message, error) {
	messages, err := a.store.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if messages == nil {
		messages = []model.Message{}
	}
	return messages, nil
}

// Bound returns the last n entries of history, preserving order. Used only
// for prompt construction; persisted and returned history stays unbounded.
func Bound(history []model.Message, n int) []model.Message {
	if n <= 0 || len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
