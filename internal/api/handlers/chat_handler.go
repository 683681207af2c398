package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/markdave123-py/AskNest/internal/services"
)

type ChatHandler struct {
	chat *services.ChatService
	log  *zap.Logger
}

func NewChatHandler(chat *services.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, log: logger}
}

type askRequest struct {
	Question string `json:"question"`
}

// Ask answers a question from the caller's organization knowledge base.
func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.log, err, "")
		return
	}
	answer, err := h.chat.Ask(r.Context(), principal(r), req.Question)
	if err != nil {
		writeError(w, h.log, err, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}
