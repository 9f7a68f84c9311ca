package api

import (
	"encoding/json"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/air-restore/restore-cli/internal/claim"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the domain error taxonomy onto HTTP statuses. Expected
// conditions carry enough detail to correct the request; storage failures
// are logged with full context and surfaced opaque.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case claim.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
	case claim.IsAuthorization(err):
		writeJSON(w, http.StatusForbidden, map[string]any{"error": err.Error()})
	case claim.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": err.Error()})
	case claim.IsConflict(err):
		writeJSON(w, http.StatusConflict, map[string]any{"error": err.Error()})
	case claim.IsRateLimited(err):
		writeJSON(w, http.StatusTooManyRequests, map[string]any{"error": err.Error()})
	default:
		zap.L().Error("request failed", zap.String("detail", eris.ToString(err, true)))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
	}
}
