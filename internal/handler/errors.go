package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/tripperbot/tripper/internal/domain"
)

// ErrorResponse is the JSON body of every non-2xx answer.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable machine-readable code plus a human-readable
// message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON renders v as the response body with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto an HTTP status and a stable error code.
// Unanticipated errors become an opaque 500; the caller is expected to have
// logged the details already.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: ErrorDetail{Code: "not_found", Message: unwrapMessage(err)}})
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: ErrorDetail{Code: "validation_error", Message: unwrapMessage(err)}})
	case errors.Is(err, domain.ErrOracleUnavailable):
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: ErrorDetail{Code: "oracle_unavailable", Message: unwrapMessage(err)}})
	default:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: ErrorDetail{Code: "internal_error", Message: "internal error"}})
	}
}

// requestError answers a request rejected before reaching any service
// (e.g. missing or malformed body).
func requestError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrorDetail{Code: "bad_request", Message: message}})
}

// unwrapMessage strips the error wrapping prefixes so clients see
// "unknown mode \"teleport\": invalid input" rather than the full call chain.
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	parts := strings.Split(err.Error(), ": ")
	if len(parts) > 2 {
		// Keep the sentinel text plus the detail immediately before it.
		return strings.Join(parts[len(parts)-2:], ": ")
	}
	return err.Error()
}
