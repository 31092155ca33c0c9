// Package handler contains the HTTP handlers. Handlers decode requests,
// resolve the caller identity from the auth middleware, call the service
// layer, and translate domain errors to status codes. No business rules
// live here.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/collabcampus/internal/apperror"
)

// ErrorResponse is the standard error body for every API endpoint:
//
//	{"error": "conflict", "message": "you already have a pending request..."}
//
// One shape for all status codes keeps the frontend's error handling in
// one place.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// writeJSON sends a JSON response with the given status code. Headers and
// status must go out before the body; Encode writes the body.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError translates a domain error into an HTTP response.
//
// The service layer speaks the apperror taxonomy, not HTTP; the mapping to
// status codes happens only here. errors.Is walks the wrap chain, so a
// service error wrapped with fmt.Errorf still matches its sentinel.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	errorType := "internal_error"

	switch {
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusBadRequest
		errorType = "validation_error"
	case errors.Is(err, apperror.ErrUnauthenticated):
		status = http.StatusUnauthorized
		errorType = "unauthenticated"
	case errors.Is(err, apperror.ErrForbidden):
		status = http.StatusForbidden
		errorType = "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
		errorType = "not_found"
	case errors.Is(err, apperror.ErrConflict):
		status = http.StatusConflict
		errorType = "conflict"
	case errors.Is(err, apperror.ErrTransient):
		// Transient messages carry the underlying cause for logs; the
		// client only needs to know a retry is reasonable.
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   "temporarily_unavailable",
			Message: "the service is temporarily unavailable, please retry",
		})
		return
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) && status != http.StatusInternalServerError {
		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
			Field:   appErr.Field,
		})
		return
	}

	// Unknown or untyped error. Never leak internals to the client.
	writeJSON(w, status, ErrorResponse{
		Error:   errorType,
		Message: "an internal error occurred",
	})
}
