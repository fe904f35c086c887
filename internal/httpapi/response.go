package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "mrxstudio/pkg/errors"
)

// Contact endpoint messages
const (
	msgAccepted        = "Message received! We'll get back to you soon."
	msgValidation      = "Validation failed"
	msgOpaqueRejection = "Submission failed validation"
	msgRateLimited     = "Too many submissions. Please try again later."
	msgServerError     = "Server error. Please try again later."
	msgMethod          = "Method not allowed"
)

// contactResponse is the wire shape of every /api/contact reply.
type contactResponse struct {
	Success      bool              `json:"success"`
	Message      string            `json:"message,omitempty"`
	SubmissionID string            `json:"submissionId,omitempty"`
	Error        string            `json:"error,omitempty"`
	Details      map[string]string `json:"details,omitempty"`
	RetryAfter   int               `json:"retryAfter,omitempty"`
}

// errorResponse is the body of staff API errors.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "component", "http", "error", err)
	}
}

func writeServerError(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, contactResponse{Error: msgServerError})
}

// writeAppError maps an AppError code to its HTTP status. Internal
// detail is logged, never returned.
func writeAppError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)
	status := http.StatusInternalServerError
	msg := "internal server error"

	var appErr *apperrors.AppError
	switch code {
	case apperrors.ErrCodeNotFound:
		status = http.StatusNotFound
	case apperrors.ErrCodeUnauthorized:
		status = http.StatusUnauthorized
	case apperrors.ErrCodeForbidden:
		status = http.StatusForbidden
	case apperrors.ErrCodeBadRequest, apperrors.ErrCodeValidation:
		status = http.StatusBadRequest
	case apperrors.ErrCodeStoreUnavailable:
		status = http.StatusServiceUnavailable
		msg = "service temporarily unavailable"
	}
	if status < http.StatusInternalServerError && errors.As(err, &appErr) {
		msg = appErr.Message
	} else {
		slog.Error("request failed", "component", "http", "code", string(code), "error", err)
	}
	writeJSON(w, status, errorResponse{Error: msg, Code: string(code)})
}
