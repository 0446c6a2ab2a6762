package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
//   writeJSON(w, http.StatusOK, data)
//   writeError(w, logger, err)
//
// CONSISTENT ERROR FORMAT:
// Every error response from our API has the same shape:
//   {"error": "validation_error", "code": "invalid_card_count", "message": "..."}
//
// "error" is the kind (one per HTTP status), "code" the specific rule that
// failed (may be empty), "message" is for humans.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/flashcards/internal/apperror"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string        `json:"error"`   // Machine-readable kind (e.g., "not_found")
	Code    apperror.Code `json:"code"`    // Specific rule, "" when the kind says it all
	Message string        `json:"message"` // Human-readable description
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status must be set BEFORE the body is written. Once Encode
// writes, the headers are sent and later changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; we can only log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// statusFor maps an error kind (and, for credentials, its code) to an HTTP
// status and the "error" string of the body.
func statusFor(appErr *apperror.AppError) (int, string) {
	switch appErr.Err {
	case apperror.ErrValidation:
		return http.StatusBadRequest, "validation_error"
	case apperror.ErrCredential:
		// A mismatched confirmation is a bad form, not a failed login.
		if appErr.Code == apperror.CodePasswordMismatch {
			return http.StatusBadRequest, "credential_error"
		}
		return http.StatusUnauthorized, "unauthorized"
	case apperror.ErrNotFound:
		return http.StatusNotFound, "not_found"
	case apperror.ErrForbidden:
		return http.StatusForbidden, "forbidden"
	case apperror.ErrConflict:
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeError maps a domain error to the appropriate HTTP status code and sends it.
//
// The OUTERMOST *AppError decides the status: a store failure whose cause
// happens to be a NotFound is still a 500.
//
// Store failures and unknown errors get a generic message; the details go to
// the log only. The raw error might contain SQL or file paths.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Err == apperror.ErrStore {
		logger.Error("request failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	status, kind := statusFor(appErr)
	writeJSON(w, status, ErrorResponse{
		Error:   kind,
		Code:    apperror.CodeOf(err),
		Message: appErr.Message,
	})
}

// decodeJSON reads a single JSON object from the request body into dst.
//
// Unknown fields are rejected so a typo ("qestion") fails loudly instead of
// silently producing an empty field. Failures come back as ErrValidation.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return apperror.ValidationFailed("", "body", fmt.Sprintf("invalid JSON body: %v", err))
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperror.ValidationFailed("", "body", "request body must contain a single JSON object")
	}
	return nil
}
