package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/markdave123-py/AskNest/internal/services"
)

type UserHandler struct {
	users *services.UserService
	log   *zap.Logger
}

func NewUserHandler(users *services.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, log: logger}
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.CurrentUser(r.Context(), principal(r))
	if err != nil {
		writeError(w, h.log, err, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

type createUserRequest struct {
	OrganizationID string `json:"organizationId"`
	Role           string `json:"role"`
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.log, err, "")
		return
	}
	user, err := h.users.CreateUser(r.Context(), principal(r), req.OrganizationID, req.Role)
	if err != nil {
		writeError(w, h.log, err, "Failed to create user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}
