package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/priyansh203/spur-chatbot/internal/llm"
	"github.com/priyansh203/spur-chatbot/internal/model"
)

func newTestGenerator(client llm.Client) *ReplyGenerator {
	return NewReplyGenerator(client, "test-model", DefaultHistoryLimit, testLogger())
}

func TestReplyGenerator_Success(t *testing.T) {
	client := &stubClient{content: "Our return window is 30 days."}
	g := newTestGenerator(client)

	reply := g.Generate(context.Background(), nil, "What is your return policy?")

	assert.Equal(t, "Our return window is 30 days.", reply.Content)
	assert.Empty(t, reply.ErrLabel)

	req := client.lastReq
	require.NotNil(t, req)
	assert.Equal(t, "test-model", req.Model)
	assert.Equal(t, maxReplyTokens, req.MaxTokens)
	assert.InDelta(t, replyTemperature, req.Temperature, 0.001)

	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "TechStore")
	assert.Equal(t, "user", req.Messages[1].Role)
	assert.Equal(t, "What is your return policy?", req.Messages[1].Content)
}

func TestReplyGenerator_HistoryRolesAndBound(t *testing.T) {
	client := &stubClient{content: "ok"}
	g := newTestGenerator(client)

	var history []model.Message
	for i := 0; i < 13; i++ {
		sender := model.SenderUser
		if i%2 == 1 {
			sender = model.SenderAI
		}
		history = append(history, model.Message{Sender: sender, Text: "turn"})
	}

	g.Generate(context.Background(), history, "latest")

	// system + last 10 of history + new user turn
	req := client.lastReq
	require.Len(t, req.Messages, 12)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Equal(t, "latest", req.Messages[11].Content)

	// history[3] is the earliest retained entry (odd index, ai sender),
	// which must be mapped to the assistant role.
	assert.Equal(t, "assistant", req.Messages[1].Role)
	assert.Equal(t, "user", req.Messages[2].Role)
}

func TestReplyGenerator_TruncatesLongInput(t *testing.T) {
	client := &stubClient{content: "ok"}
	g := newTestGenerator(client)

	long := strings.Repeat("x", 1500)
	reply := g.Generate(context.Background(), nil, long)

	assert.Empty(t, reply.ErrLabel)
	sent := client.lastReq.Messages[1].Content
	assert.True(t, strings.HasSuffix(sent, truncationMarker))
	assert.Len(t, []rune(sent), maxPromptChars+len([]rune(truncationMarker)))
}

func TestReplyGenerator_ShortInputNotTruncated(t *testing.T) {
	client := &stubClient{content: "ok"}
	g := newTestGenerator(client)

	exact := strings.Repeat("y", maxPromptChars)
	g.Generate(context.Background(), nil, exact)

	assert.Equal(t, exact, client.lastReq.Messages[1].Content)
}

func TestReplyGenerator_FallbackPerFailureKind(t *testing.T) {
	tests := []struct {
		kind     llm.FailureKind
		label    string
		fragment string
	}{
		{llm.FailureQuota, "quota_exceeded", "high demand"},
		{llm.FailureRateLimited, "rate_limited", "a lot of messages"},
		{llm.FailureTimeout, "timeout", "longer than usual"},
		{llm.FailureEmpty, "empty_completion", "trouble generating a response"},
		{llm.FailureUnknown, "llm_error", "technical difficulties"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			client := &stubClient{err: &llm.Error{Kind: tt.kind}}
			g := newTestGenerator(client)

			reply := g.Generate(context.Background(), nil, "hello")

			assert.Equal(t, tt.label, reply.ErrLabel)
			assert.NotEmpty(t, reply.Content)
			assert.Contains(t, reply.Content, tt.fragment)
		})
	}
}

func TestReplyGenerator_EmptyInput(t *testing.T) {
	client := &stubClient{content: "ok"}
	g := newTestGenerator(client)

	reply := g.Generate(context.Background(), nil, "   \n\t ")

	assert.Equal(t, "empty_message", reply.ErrLabel)
	assert.NotEmpty(t, reply.Content)
	assert.Zero(t, client.calls, "generator must not call the remote on empty input")
}

func TestReplyGenerator_NilClient(t *testing.T) {
	g := newTestGenerator(nil)

	reply := g.Generate(context.Background(), nil, "hello")

	assert.Equal(t, "not_configured", reply.ErrLabel)
	assert.NotEmpty(t, reply.Content)
}
