package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	middleware "github.com/markdave123-py/AskNest/internal/api/middlewares"
	"github.com/markdave123-py/AskNest/internal/apperr"
	"github.com/markdave123-py/AskNest/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err as {"error": message} with its mapped status.
// Server-side failures are logged with their cause.
func writeError(w http.ResponseWriter, log *zap.Logger, err error, fallback string) {
	status := apperr.StatusOf(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": apperr.MessageOf(err, fallback)})
}

func principal(r *http.Request) models.Principal {
	p, _ := middleware.PrincipalFrom(r.Context())
	return p
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return apperr.Validation("Invalid request body")
}
