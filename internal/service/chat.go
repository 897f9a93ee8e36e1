package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/priyansh203/spur-chatbot/internal/model"
	"github.com/priyansh203/spur-chatbot/internal/store"
	"github.com/priyansh203/spur-chatbot/pkg/logger"
	"github.com/priyansh203/spur-chatbot/pkg/metrics"
)

// apologyReply is returned when a turn fails after validation. The HTTP
// status stays 200; the Error label carries the diagnostic.
const apologyReply = "I apologize, but I'm experiencing technical difficulties. Please try again or contact our support team at support@techstore.com."

// TurnPublisher receives an event after each completed turn. Implementations
// must not block the request path on delivery.
type TurnPublisher interface {
	PublishTurn(ctx context.Context, ev model.TurnEvent) error
}

// ChatService is the session coordinator: it resolves an inbound request's
// session token to a conversation, orchestrates store reads and writes
// around the reply generator, and degrades post-validation failures to a
// success-shaped apology response.
type ChatService struct {
	store   store.Store
	history *HistoryAssembler
	replies *ReplyGenerator
	events  TurnPublisher
	logger  *logger.Logger
}

// NewChatService creates a chat service. events may be nil when turn event
// publishing is disabled.
func NewChatService(st store.Store, history *HistoryAssembler, replies *ReplyGenerator, events TurnPublisher, log *logger.Logger) *ChatService {
	return &ChatService{
		store:   st,
		history: history,
		replies: replies,
		events:  events,
		logger:  log,
	}
}

// ProcessMessage handles one chat turn. Input validation happens before
// this point; any failure here is converted to an apology response so the
// caller always receives the response shape.
func (s *ChatService) ProcessMessage(ctx context.Context, req *model.ChatRequest) *model.ChatResponse {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		// Guarded again here so no store access can happen on an empty
		// message even if a caller skips the HTTP validation layer.
		return &model.ChatResponse{
			Reply:     "Please enter a message to continue our conversation.",
			SessionID: req.SessionID,
			Error:     "empty_message",
		}
	}

	resp, err := s.processTurn(ctx, text, req.SessionID)
	if err != nil {
		s.logger.Error("chat turn failed",
			zap.String("session_id", req.SessionID),
			zap.Error(err),
		)
		metrics.TurnFailuresTotal.WithLabelValues("store_error").Inc()

		sessionID := req.SessionID
		if sessionID == "" {
			sessionID = uuid.Must(uuid.NewV7()).String()
		}
		return &model.ChatResponse{
			Reply:     apologyReply,
			SessionID: sessionID,
			Error:     "store_error",
		}
	}
	return resp
}

func (s *ChatService) processTurn(ctx context.Context, text, sessionID string) (*model.ChatResponse, error) {
	start := time.Now()

	conversationID, err := s.resolveConversation(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// Loaded before the user turn is persisted, so the prompt history
	// excludes the message being answered.
	history, err := s.history.Load(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.AppendMessage(ctx, conversationID, model.SenderUser, text); err != nil {
		return nil, err
	}
	metrics.MessagesTotal.WithLabelValues(string(model.SenderUser)).Inc()

	reply := s.replies.Generate(ctx, history, text)

	if _, err := s.store.AppendMessage(ctx, conversationID, model.SenderAI, reply.Content); err != nil {
		return nil, err
	}
	metrics.MessagesTotal.WithLabelValues(string(model.SenderAI)).Inc()

	if err := s.store.TouchConversation(ctx, conversationID); err != nil {
		return nil, err
	}

	metrics.TurnsTotal.Inc()
	s.publishTurn(ctx, model.TurnEvent{
		SessionID:  conversationID,
		UserChars:  len([]rune(text)),
		ReplyChars: len([]rune(reply.Content)),
		Fallback:   reply.ErrLabel,
		LatencyMs:  time.Since(start).Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	})

	return &model.ChatResponse{
		Reply:     reply.Content,
		SessionID: conversationID,
		Error:     reply.ErrLabel,
	}, nil
}

// resolveConversation maps the client session token to a conversation id.
// A missing token mints a new conversation; an unknown token is adopted
// verbatim as a new conversation id rather than rejected.
func (s *ChatService) resolveConversation(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return s.store.CreateConversation(ctx, "")
	}

	exists, err := s.store.ConversationExists(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if !exists {
		return s.store.CreateConversation(ctx, sessionID)
	}
	return sessionID, nil
}

// History returns the full (unbounded) message history for a session. A
// store read failure degrades to an empty list rather than an error.
func (s *ChatService) History(ctx context.Context, sessionID string) *model.HistoryResponse {
	messages, err := s.history.Load(ctx, sessionID)
	if err != nil {
		s.logger.Warn("history fetch failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		messages = []model.Message{}
	}
	return &model.HistoryResponse{
		SessionID: sessionID,
		Messages:  messages,
	}
}

func (s *ChatService) publishTurn(ctx context.Context, ev model.TurnEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishTurn(ctx, ev); err != nil {
		s.logger.Warn("turn event publish failed", zap.Error(err))
	}
}
