package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/priyansh203/spur-chatbot/internal/llm"
	"github.com/priyansh203/spur-chatbot/internal/model"
	"github.com/priyansh203/spur-chatbot/pkg/logger"
)

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

// memStore is an in-memory store.Store for coordinator tests.
type memStore struct {
	conversations map[string]bool
	messages      map[string][]model.Message
	touched       map[string]int
	seq           int

	failCreate bool
	failList   bool
	failAppend bool
}

func newMemStore() *memStore {
	return &memStore{
		conversations: map[string]bool{},
		messages:      map[string][]model.Message{},
		touched:       map[string]int{},
	}
}

var errStoreDown = errors.New("store unavailable")

func (m *memStore) CreateConversation(_ context.Context, id string) (string, error) {
	if m.failCreate {
		return "", errStoreDown
	}
	if id == "" {
		m.seq++
		id = fmt.Sprintf("minted-%d", m.seq)
	}
	m.conversations[id] = true
	return id, nil
}

func (m *memStore) ConversationExists(_ context.Context, id string) (bool, error) {
	return m.conversations[id], nil
}

func (m *memStore) AppendMessage(_ context.Context, conversationID string, sender model.Sender, text string) (string, error) {
	if m.failAppend {
		return "", errStoreDown
	}
	m.seq++
	msg := model.Message{
		ID:             fmt.Sprintf("msg-%d", m.seq),
		ConversationID: conversationID,
		Sender:         sender,
		Text:           text,
		Timestamp:      time.Unix(0, int64(m.seq)).UTC(),
	}
	m.messages[conversationID] = append(m.messages[conversationID], msg)
	return msg.ID, nil
}

func (m *memStore) ListMessages(_ context.Context, conversationID string) ([]model.Message, error) {
	if m.failList {
		return nil, errStoreDown
	}
	out := make([]model.Message, len(m.messages[conversationID]))
	copy(out, m.messages[conversationID])
	return out, nil
}

func (m *memStore) TouchConversation(_ context.Context, id string) error {
	m.touched[id]++
	return nil
}

func (m *memStore) Ping(context.Context) error { return nil }
func (m *memStore) Close() error               { return nil }

// stubClient is a canned llm.Client that records the last request.
type stubClient struct {
	lastReq *llm.CompletionRequest
	calls   int
	content string
	err     error
}

func (c *stubClient) Complete(_ context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	c.lastReq = req
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &llm.CompletionResponse{
		Content:   c.content,
		Model:     "stub-model",
		TokensIn:  10,
		TokensOut: 20,
		LatencyMs: 1,
	}, nil
}

func (c *stubClient) Name() string { return "stub" }
