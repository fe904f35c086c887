package services

import (
	"time"

	"mrxstudio/internal/domain"
)

// OutcomeKind tags the result of one contact submission.
type OutcomeKind int

const (
	OutcomeAccepted OutcomeKind = iota
	OutcomeRejectedField
	OutcomeRejectedOpaque
	OutcomeRateLimited
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeRejectedField:
		return "rejected_field"
	case OutcomeRejectedOpaque:
		return "rejected_opaque"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// Cause says which stage produced a rejection or failure. It is kept for
// logs and metrics and never sent to the client.
type Cause string

const (
	CauseNone          Cause = ""
	CauseRateLimit     Cause = "rate_limit"
	CauseMalformed     Cause = "malformed_body"
	CauseHoneypot      Cause = "honeypot"
	CauseSchema        Cause = "schema"
	CauseSpamEmail     Cause = "spam_email"
	CauseSpamContent   Cause = "spam_content"
	CauseStore         Cause = "store"
	CauseInternalPanic Cause = "panic"
)

// Outcome is what ContactService.Submit hands back to the transport.
type Outcome struct {
	Kind       OutcomeKind
	Cause      Cause
	Errors     FieldErrors
	RetryAfter time.Duration
	Submission *domain.Submission
	Notify     *NotifyResult
	Err        error
}

// RetryAfterSeconds is RetryAfter in whole seconds, rounded up.
func (o Outcome) RetryAfterSeconds() int {
	secs := int((o.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

func accepted(sub *domain.Submission, notify *NotifyResult) Outcome {
	return Outcome{Kind: OutcomeAccepted, Submission: sub, Notify: notify}
}

func rejectField(cause Cause, errs FieldErrors) Outcome {
	return Outcome{Kind: OutcomeRejectedField, Cause: cause, Errors: errs}
}

func rejectOpaque(cause Cause) Outcome {
	return Outcome{Kind: OutcomeRejectedOpaque, Cause: cause}
}

func rateLimited(retryAfter time.Duration) Outcome {
	return Outcome{Kind: OutcomeRateLimited, Cause: CauseRateLimit, RetryAfter: retryAfter}
}

func failed(cause Cause, err error) Outcome {
	return Outcome{Kind: OutcomeFailed, Cause: cause, Err: err}
}
