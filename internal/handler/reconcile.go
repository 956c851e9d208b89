package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// PostReconcile handles POST /v1/users/{userID}/reconcile.
// The optional ?force=true query parameter wipes all travel entries before
// rebuilding. The run is synchronous: the response body is the full report.
func (s *Server) PostReconcile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	force := false
	if raw := r.URL.Query().Get("force"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			requestError(w, "force must be a boolean")
			return
		}
		force = parsed
	}

	report, err := s.runner.Reconcile(r.Context(), userID, force)
	if err != nil {
		s.log.ErrorContext(r.Context(), "reconciliation failed", "user_id", userID, "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}
