// Package handler provides HTTP handlers for the chat API.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/priyansh203/spur-chatbot/internal/middleware"
	"github.com/priyansh203/spur-chatbot/internal/model"
	"github.com/priyansh203/spur-chatbot/internal/service"
	"github.com/priyansh203/spur-chatbot/pkg/logger"
)

// ChatHandler handles the message and history endpoints.
type ChatHandler struct {
	chat   *service.ChatService
	logger *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chat *service.ChatService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		chat:   chat,
		logger: log,
	}
}

// SendMessage handles POST /api/chat/message.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Covers malformed JSON and non-string message/sessionId values.
		writeRejection(w, http.StatusBadRequest, "Message must be a string", "Invalid message format.", "")
		return
	}

	if verr := middleware.ValidateChatMessage(req.Message); verr != nil {
		writeRejection(w, http.StatusBadRequest, verr.Reason, verr.Reply, req.SessionID)
		return
	}

	resp := h.chat.ProcessMessage(r.Context(), &req)
	if resp.Error != "" {
		h.logger.Warn("degraded chat response",
			zap.String("session_id", resp.SessionID),
			zap.String("reason", resp.Error),
		)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetHistory handles GET /api/chat/history/{sessionId}.
func (h *ChatHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if verr := middleware.ValidateSessionID(sessionID); verr != nil {
		writeError(w, http.StatusBadRequest, verr.Reason)
		return
	}

	writeJSON(w, http.StatusOK, h.chat.History(r.Context(), sessionID))
}
