package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/markdave123-py/AskNest/internal/services"
)

type OrgHandler struct {
	orgs *services.OrgService
	log  *zap.Logger
}

func NewOrgHandler(orgs *services.OrgService, logger *zap.Logger) *OrgHandler {
	return &OrgHandler{orgs: orgs, log: logger}
}

type createOrgRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *OrgHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrgRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.log, err, "")
		return
	}
	res, err := h.orgs.CreateOrganization(r.Context(), principal(r), req.Name, req.Description)
	if err != nil {
		writeError(w, h.log, err, "Failed to create organization")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type joinOrgRequest struct {
	InviteCode string `json:"inviteCode"`
}

func (h *OrgHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req joinOrgRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.log, err, "")
		return
	}
	res, err := h.orgs.JoinOrganization(r.Context(), principal(r), req.InviteCode)
	if err != nil {
		writeError(w, h.log, err, "Failed to join organization")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *OrgHandler) Get(w http.ResponseWriter, r *http.Request) {
	res, err := h.orgs.OrganizationDetail(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
