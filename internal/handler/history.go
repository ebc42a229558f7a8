package handler

import (
	"net/http"

	"github.com/inside-thenga/thenga/internal/service"
)

// HistoryHandler exposes the conversation log.
type HistoryHandler struct {
	history *service.ConversationLog
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(history *service.ConversationLog) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// History handles GET /history
func (h *HistoryHandler) History(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"history": h.history.History(),
	})
}

// Clear handles POST /clear_history
func (h *HistoryHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.history.Clear()
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "History cleared",
	})
}
