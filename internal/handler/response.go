package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// CONSISTENT ERROR FORMAT:
// Every error response from our API has the same shape:
//   {"error": "authentication_error", "message": "credential rejected by issuer"}
//
// This makes it easy for clients to parse errors — they always know what
// fields to expect, regardless of whether it's a 400, 401, or 503.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/gradient-mcp/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // Machine-readable error type (e.g., "authentication_error")
	Message string `json:"message"` // Human-readable description
}

// writeJSON sends a JSON response with the given status code.
//
// Headers and status code MUST be set before writing the body: once Encode
// calls w.Write(), the headers are sent and later changes are silently
// ignored.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers already sent — all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to the appropriate HTTP status code and sends it.
//
// This is where domain errors (from the service layer) get translated to
// HTTP. The service layer returns apperror.ErrUnauthenticated,
// apperror.ErrUnavailable, etc.; this function maps those to 401, 503, etc.
// The service layer itself never knows about HTTP status codes — a different
// transport (the MCP tool surface) maps the same errors its own way.
//
// errors.Is() walks the whole wrap chain, so it matches sentinels wrapped by
// both AppError and the service layer's fmt.Errorf("%w") annotations.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, apperror.ErrInvalidArgument):
		status = http.StatusBadRequest // 400
	case errors.Is(err, apperror.ErrUnauthenticated):
		status = http.StatusUnauthorized // 401
	case errors.Is(err, apperror.ErrNotFound), errors.Is(err, apperror.ErrUnknownTool):
		status = http.StatusNotFound // 404
	case errors.Is(err, apperror.ErrUnavailable):
		status = http.StatusServiceUnavailable // 503
	}

	// Use the curated AppError message when there is one. For everything
	// else (storage failures, unexpected errors) keep the body generic:
	// the raw message might contain SQL or file paths, and those details
	// belong in the log, not the response.
	message := "An internal error occurred"
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	writeJSON(w, status, ErrorResponse{
		Error:   apperror.Code(err),
		Message: message,
	})
}
