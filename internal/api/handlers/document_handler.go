package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/markdave123-py/AskNest/internal/apperr"
	"github.com/markdave123-py/AskNest/internal/core/ingestion_engine"
	"github.com/markdave123-py/AskNest/internal/models"
	"github.com/markdave123-py/AskNest/internal/services"
)

// RunLister lists recorded ingestion runs of an organization.
type RunLister interface {
	ListRuns(ctx context.Context, organizationID string, limit int) ([]models.IngestionRun, error)
}

type DocumentHandler struct {
	ingestor   ingestion_engine.Ingestor
	users      *services.UserService
	runs       RunLister
	maxUploadB int64
	log        *zap.Logger
}

// NewDocumentHandler builds the upload handlers. runs may be nil when
// ingestion runs are not recorded.
func NewDocumentHandler(ing ingestion_engine.Ingestor, users *services.UserService, runs RunLister, maxUploadMB int, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		ingestor:   ing,
		users:      users,
		runs:       runs,
		maxUploadB: int64(maxUploadMB) << 20,
		log:        logger,
	}
}

// UploadDocument ingests a multipart PDF upload (fields "file" and
// "organizationId") and responds with the stored document and FAQs.
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadB)

	req := ingestion_engine.UploadRequest{Principal: principal(r)}

	if err := r.ParseMultipartForm(h.maxUploadB); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, h.log, apperr.Validation(fmt.Sprintf("File exceeds %d MB", h.maxUploadB>>20)), "")
			return
		}
		h.log.Debug("upload without multipart form", zap.Error(err))
	} else {
		req.OrganizationID = r.FormValue("organizationId")
		file, header, err := r.FormFile("file")
		if err == nil {
			defer file.Close()
			data, err := io.ReadAll(file)
			if err != nil {
				writeError(w, h.log, apperr.Wrap(apperr.KindInternal, "Failed to read upload", err), "")
				return
			}
			req.Data = data
			req.FileName = header.Filename
			req.ContentType = header.Header.Get("Content-Type")
		}
	}

	res, err := h.ingestor.Ingest(r.Context(), req)
	if err != nil {
		writeError(w, h.log, err, "Failed to process PDF file")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListIngestions returns the latest upload runs of an organization to its
// admin.
func (h *DocumentHandler) ListIngestions(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "id")

	user, err := h.users.CurrentUser(r.Context(), principal(r))
	if err != nil {
		writeError(w, h.log, err, "Internal server error")
		return
	}
	if !user.IsAdmin() || user.OrganizationID != orgID {
		writeError(w, h.log, apperr.Forbidden("Access denied"), "")
		return
	}

	limit := 20
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}

	runs := []models.IngestionRun{}
	if h.runs != nil {
		runs, err = h.runs.ListRuns(r.Context(), orgID, limit)
		if err != nil {
			writeError(w, h.log, apperr.Upstream("Internal server error", err), "")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}
