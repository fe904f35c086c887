package httpapi

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"mrxstudio/internal/services"
	"mrxstudio/internal/util"
)

// maxBodyBytes bounds the contact payload; real submissions are far smaller.
const maxBodyBytes = 64 << 10

// Submitter runs one contact submission through the pipeline.
type Submitter interface {
	Submit(ctx context.Context, req services.SubmitRequest) services.Outcome
}

// ContactHandler serves POST /api/contact
type ContactHandler struct {
	svc Submitter
}

// NewContactHandler creates a new contact handler
func NewContactHandler(svc Submitter) *ContactHandler {
	return &ContactHandler{svc: svc}
}

func (h *ContactHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, contactResponse{Error: msgMethod})
		return
	}

	// A body that cannot be read is handed on empty and rejected as
	// malformed, after the rate limit check.
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		body = nil
	}

	out := h.svc.Submit(r.Context(), services.SubmitRequest{
		Body:        body,
		Fingerprint: util.Fingerprint(r.Header),
		UserAgent:   r.UserAgent(),
	})
	writeOutcome(w, out)
}

// writeOutcome maps an outcome to the wire. Field and opaque rejections
// share the 400 shape; causes never leave the process.
func writeOutcome(w http.ResponseWriter, out services.Outcome) {
	switch out.Kind {
	case services.OutcomeAccepted:
		writeJSON(w, http.StatusOK, contactResponse{
			Success:      true,
			Message:      msgAccepted,
			SubmissionID: out.Submission.ID,
		})
	case services.OutcomeRejectedField:
		writeJSON(w, http.StatusBadRequest, contactResponse{Error: msgValidation, Details: out.Errors})
	case services.OutcomeRejectedOpaque:
		writeJSON(w, http.StatusBadRequest, contactResponse{Error: msgOpaqueRejection})
	case services.OutcomeRateLimited:
		secs := out.RetryAfterSeconds()
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		writeJSON(w, http.StatusTooManyRequests, contactResponse{Error: msgRateLimited, RetryAfter: secs})
	default:
		writeServerError(w)
	}
}
