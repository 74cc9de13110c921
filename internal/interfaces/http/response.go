package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"finlink/internal/shared/apperr"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}

// writeServiceError maps the error taxonomy to a status code. Upstream
// failures keep the aggregator's status and body.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	if upstream, ok := apperr.AsUpstream(err); ok {
		logger.Warn("upstream request failed",
			zap.Int("upstream_status", upstream.StatusCode),
			zap.String("upstream_body", upstream.Body),
		)
		writeError(w, upstream.StatusCode, upstream.Body)
		return
	}

	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "Could not validate credentials")
	case errors.Is(err, apperr.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, apperr.ErrConflict):
		writeError(w, http.StatusConflict, "Already exists")
	default:
		logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
