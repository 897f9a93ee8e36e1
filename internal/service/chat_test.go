package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/priyansh203/spur-chatbot/internal/llm"
	"github.com/priyansh203/spur-chatbot/internal/model"
)

func newTestChat(st *memStore, client llm.Client) *ChatService {
	history := NewHistoryAssembler(st)
	replies := NewReplyGenerator(client, "test-model", DefaultHistoryLimit, testLogger())
	return NewChatService(st, history, replies, nil, testLogger())
}

func TestProcessMessage_NewSessionMinted(t *testing.T) {
	st := newMemStore()
	svc := newTestChat(st, &stubClient{content: "Happy to help with returns."})

	resp := svc.ProcessMessage(context.Background(), &model.ChatRequest{Message: "What is your return policy?"})

	assert.Equal(t, "Happy to help with returns.", resp.Reply)
	assert.Empty(t, resp.Error)
	require.NotEmpty(t, resp.SessionID)
	assert.True(t, st.conversations[resp.SessionID], "conversation must be created")

	msgs := st.messages[resp.SessionID]
	require.Len(t, msgs, 2)
	assert.Equal(t, model.SenderUser, msgs[0].Sender)
	assert.Equal(t, "What is your return policy?", msgs[0].Text)
	assert.Equal(t, model.SenderAI, msgs[1].Sender)
	assert.Equal(t, "Happy to help with returns.", msgs[1].Text)
	assert.Equal(t, 1, st.touched[resp.SessionID])
}

func TestProcessMessage_KnownSessionEchoed(t *testing.T) {
	st := newMemStore()
	svc := newTestChat(st, &stubClient{content: "ok"})

	first := svc.ProcessMessage(context.Background(), &model.ChatRequest{Message: "hello"})
	second := svc.ProcessMessage(context.Background(), &model.ChatRequest{
		Message:   "and shipping?",
		SessionID: first.SessionID,
	})

	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Len(t, st.messages[first.SessionID], 4)
}

func TestProcessMessage_UnknownSessionAdopted(t *testing.T) {
	st := newMemStore()
	svc := newTestChat(st, &stubClient{content: "ok"})

	resp := svc.ProcessMessage(context.Background(), &model.ChatRequest{
		Message:   "hello",
		SessionID: "client-chosen-id",
	})

	assert.Equal(t, "client-chosen-id", resp.SessionID)
	assert.True(t, st.conversations["client-chosen-id"])
	assert.Len(t, st.messages["client-chosen-id"], 2)
}

func TestProcessMessage_TurnsAlternate(t *testing.T) {
	st := newMemStore()
	svc := newTestChat(st, &stubClient{content: "reply"})

	const turns = 3
	sessionID := ""
	for i := 0; i < turns; i++ {
		resp := svc.ProcessMessage(context.Background(), &model.ChatRequest{
			Message:   fmt.Sprintf("question %d", i),
			SessionID: sessionID,
		})
		require.Empty(t, resp.Error)
		sessionID = resp.SessionID
	}

	msgs := st.messages[sessionID]
	require.Len(t, msgs, 2*turns)
	for i, msg := range msgs {
		want := model.SenderUser
		if i%2 == 1 {
			want = model.SenderAI
		}
		assert.Equal(t, want, msg.Sender, "message %d", i)
		if i > 0 {
			assert.False(t, msg.Timestamp.Before(msgs[i-1].Timestamp))
		}
	}
}

func TestProcessMessage_PromptExcludesCurrentTurn(t *testing.T) {
	st := newMemStore()
	client := &stubClient{content: "reply"}
	svc := newTestChat(st, client)

	first := svc.ProcessMessage(context.Background(), &model.ChatRequest{Message: "first"})
	svc.ProcessMessage(context.Background(), &model.ChatRequest{
		Message:   "second",
		SessionID: first.SessionID,
	})

	// Second turn's prompt: system + first user/ai pair + new user turn.
	// The just-persisted "second" message must not appear twice.
	req := client.lastReq
	require.Len(t, req.Messages, 4)
	assert.Equal(t, "first", req.Messages[1].Content)
	assert.Equal(t, "reply", req.Messages[2].Content)
	assert.Equal(t, "second", req.Messages[3].Content)
}

func TestProcessMessage_EmptyMessageNoStateMutation(t *testing.T) {
	st := newMemStore()
	client := &stubClient{content: "ok"}
	svc := newTestChat(st, client)

	resp := svc.ProcessMessage(context.Background(), &model.ChatRequest{Message: "   "})

	assert.Equal(t, "empty_message", resp.Error)
	assert.Empty(t, st.conversations)
	assert.Empty(t, st.messages)
	assert.Zero(t, client.calls)
}

func TestProcessMessage_GeneratorDownStillPersistsTurn(t *testing.T) {
	st := newMemStore()
	client := &stubClient{err: &llm.Error{Kind: llm.FailureRateLimited}}
	svc := newTestChat(st, client)

	resp := svc.ProcessMessage(context.Background(), &model.ChatRequest{Message: "hello"})

	assert.Equal(t, "rate_limited", resp.Error)
	require.NotEmpty(t, resp.SessionID)

	msgs := st.messages[resp.SessionID]
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[0].Text)
	// The persisted ai turn is the fallback string, never empty.
	assert.Equal(t, resp.Reply, msgs[1].Text)
	assert.NotEmpty(t, msgs[1].Text)
}

func TestProcessMessage_StoreDownDegradesToApology(t *testing.T) {
	st := newMemStore()
	st.failCreate = true
	svc := newTestChat(st, &stubClient{content: "ok"})

	resp := svc.ProcessMessage(context.Background(), &model.ChatRequest{Message: "hello"})

	assert.Equal(t, "store_error", resp.Error)
	assert.Equal(t, apologyReply, resp.Reply)
	assert.NotEmpty(t, resp.SessionID)
}

func TestProcessMessage_AppendFailureDegradesToApology(t *testing.T) {
	st := newMemStore()
	st.failAppend = true
	svc := newTestChat(st, &stubClient{content: "ok"})

	resp := svc.ProcessMessage(context.Background(), &model.ChatRequest{
		Message:   "hello",
		SessionID: "sess-1",
	})

	assert.Equal(t, "store_error", resp.Error)
	assert.Equal(t, "sess-1", resp.SessionID, "supplied session id is kept in the degraded response")
}

func TestHistory_Idempotent(t *testing.T) {
	st := newMemStore()
	svc := newTestChat(st, &stubClient{content: "ok"})

	resp := svc.ProcessMessage(context.Background(), &model.ChatRequest{Message: "hello"})

	first := svc.History(context.Background(), resp.SessionID)
	second := svc.History(context.Background(), resp.SessionID)

	assert.Equal(t, first, second)
	require.Len(t, first.Messages, 2)
	assert.Equal(t, resp.SessionID, first.SessionID)
}

func TestHistory_UnknownSessionEmpty(t *testing.T) {
	st := newMemStore()
	svc := newTestChat(st, &stubClient{content: "ok"})

	got := svc.History(context.Background(), "never-seen")

	require.NotNil(t, got.Messages)
	assert.Empty(t, got.Messages)
}

func TestHistory_StoreDownDegradesToEmptyList(t *testing.T) {
	st := newMemStore()
	st.failList = true
	svc := newTestChat(st, &stubClient{content: "ok"})

	got := svc.History(context.Background(), "sess-1")

	require.NotNil(t, got.Messages)
	assert.Empty(t, got.Messages)
}
