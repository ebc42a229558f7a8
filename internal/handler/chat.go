package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/inside-thenga/thenga/internal/llm"
	"github.com/inside-thenga/thenga/internal/middleware"
	"github.com/inside-thenga/thenga/internal/model"
	"github.com/inside-thenga/thenga/internal/service"
	"github.com/inside-thenga/thenga/pkg/logger"
)

// ChatHandler handles the chat endpoint.
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

// Chat handles POST /chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "No JSON data provided")
		return
	}

	resp, err := h.chat.Chat(r.Context(), req.Message)
	if err != nil {
		var cerr *llm.CompletionError
		switch {
		case errors.Is(err, service.ErrEmptyMessage):
			writeError(w, http.StatusBadRequest, "No message provided")
		case errors.As(err, &cerr) && resp != nil:
			writeJSON(w, http.StatusBadGateway, resp)
		default:
			middleware.LoggerFrom(r.Context(), h.logger).Error("chat failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
