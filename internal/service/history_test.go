package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/priyansh203/spur-chatbot/internal/model"
)

func TestBound(t *testing.T) {
	history := []model.Message{
		{Text: "one"}, {Text: "two"}, {Text: "three"}, {Text: "four"},
	}

	tests := []struct {
		name string
		n    int
		want []string
	}{
		{"smaller than history", 2, []string{"three", "four"}},
		{"equal to history", 4, []string{"one", "two", "three", "four"}},
		{"larger than history", 10, []string{"one", "two", "three", "four"}},
		{"zero keeps everything", 0, []string{"one", "two", "three", "four"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bound(history, tt.n)
			require.Len(t, got, len(tt.want))
			for i, text := range tt.want {
				assert.Equal(t, text, got[i].Text)
			}
		})
	}
}

func TestBound_PreservesOrder(t *testing.T) {
	history := []model.Message{
		{Sender: model.SenderUser, Text: "q1"},
		{Sender: model.SenderAI, Text: "a1"},
		{Sender: model.SenderUser, Text: "q2"},
		{Sender: model.SenderAI, Text: "a2"},
	}

	got := Bound(history, 3)
	require.Len(t, got, 3)
	assert.Equal(t, "a1", got[0].Text)
	assert.Equal(t, "q2", got[1].Text)
	assert.Equal(t, "a2", got[2].Text)
}

func TestHistoryAssembler_Load(t *testing.T) {
	st := newMemStore()
	asm := NewHistoryAssembler(st)
	ctx := context.Background()

	id, err := st.CreateConversation(ctx, "sess-1")
	require.NoError(t, err)

	// No messages yet: empty slice, not an error.
	history, err := asm.Load(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, history)
	assert.Empty(t, history)

	_, err = st.AppendMessage(ctx, id, model.SenderUser, "hello")
	require.NoError(t, err)
	_, err = st.AppendMessage(ctx, id, model.SenderAI, "hi there")
	require.NoError(t, err)

	history, err = asm.Load(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.SenderUser, history[0].Sender)
	assert.Equal(t, model.SenderAI, history[1].Sender)
}

func TestHistoryAssembler_LoadStoreFailure(t *testing.T) {
	st := newMemStore()
	st.failList = true
	asm := NewHistoryAssembler(st)

	_, err := asm.Load(context.Background(), "sess-1")
	require.Error(t, err)
}
