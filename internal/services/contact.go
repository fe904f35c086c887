package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"mrxstudio/internal/metrics"
	"mrxstudio/internal/ratelimit"
)

// notifyTimeout bounds the owner notification once the submission is stored.
const notifyTimeout = 15 * time.Second

// RateChecker answers whether a fingerprint may submit now.
type RateChecker interface {
	Check(ctx context.Context, fingerprint string) ratelimit.Result
}

// SubmitRequest is one contact form request as seen by the service.
type SubmitRequest struct {
	Body        []byte
	Fingerprint string
	UserAgent   string
}

// ContactService runs the contact form pipeline
type ContactService struct {
	limiter   RateChecker
	validator *Validator
	spam      *SpamFilter
	store     SubmissionStore
	notifier  OwnerNotifier
	logger    *slog.Logger
}

// NewContactService creates a new contact service
func NewContactService(limiter RateChecker, validator *Validator, spam *SpamFilter, store SubmissionStore, notifier OwnerNotifier) *ContactService {
	return &ContactService{
		limiter:   limiter,
		validator: validator,
		spam:      spam,
		store:     store,
		notifier:  notifier,
		logger:    slog.Default().With("component", "contact"),
	}
}

// Submit runs rate limiting, parsing, honeypot, validation, spam checks,
// persistence and notification in that order. The first failing stage
// decides the outcome. A notification failure never changes it.
func (s *ContactService) Submit(ctx context.Context, req SubmitRequest) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("contact pipeline panic", "fingerprint", req.Fingerprint, "panic", r)
			out = failed(CauseInternalPanic, fmt.Errorf("panic: %v", r))
		}
		s.record(req.Fingerprint, out)
	}()

	if res := s.limiter.Check(ctx, req.Fingerprint); !res.Allowed {
		return rateLimited(res.RetryAfter)
	}

	var raw map[string]any
	if err := json.Unmarshal(req.Body, &raw); err != nil || raw == nil {
		return rejectField(CauseMalformed, FieldErrors{"general": "Invalid request format"})
	}

	if s.spam.HoneypotTriggered(raw) {
		return rejectOpaque(CauseHoneypot)
	}

	in, errs := s.validator.ValidateSubmission(raw)
	if errs != nil {
		return rejectField(CauseSchema, errs)
	}

	if s.spam.IsSpamEmail(in.Email) {
		return rejectField(CauseSpamEmail, FieldErrors{"email": "Invalid email address"})
	}
	if s.spam.IsSpamContent(in.Message) {
		return rejectField(CauseSpamContent, FieldErrors{"message": "Message contains invalid content"})
	}

	sub, err := s.store.Create(ctx, NewSubmission{
		Email:     in.Email,
		Phone:     in.Phone,
		Message:   in.Message,
		IPHash:    req.Fingerprint,
		UserAgent: req.UserAgent,
	})
	if err != nil {
		return failed(CauseStore, err)
	}

	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	res := s.notifier.Notify(nctx, Notification{
		SubmissionID: sub.ID,
		Email:        sub.Email,
		Phone:        in.Phone,
		Message:      sub.Message,
		SubmittedAt:  sub.CreatedAt,
	})
	if !res.Delivered {
		s.logger.Warn("failed to send notification", "submission_id", sub.ID)
	}

	return accepted(sub, &res)
}

// record logs and counts an outcome. Only the fingerprint hash is logged.
func (s *ContactService) record(fingerprint string, out Outcome) {
	switch out.Kind {
	case OutcomeAccepted:
		metrics.RecordContactSubmission()
		s.logger.Info("submission accepted", "submission_id", out.Submission.ID, "fingerprint", fingerprint)
	case OutcomeRateLimited:
		metrics.RecordRateLimited()
		s.logger.Info("submission rate limited", "fingerprint", fingerprint, "retry_after", out.RetryAfterSeconds())
	case OutcomeRejectedField, OutcomeRejectedOpaque:
		metrics.RecordContactRejection(string(out.Cause))
		level := slog.LevelInfo
		if out.Cause == CauseHoneypot || out.Cause == CauseSpamEmail || out.Cause == CauseSpamContent {
			level = slog.LevelWarn
		}
		s.logger.Log(context.Background(), level, "submission rejected",
			"cause", string(out.Cause),
			"kind", out.Kind.String(),
			"fingerprint", fingerprint,
		)
	case OutcomeFailed:
		metrics.RecordContactRejection(string(out.Cause))
		s.logger.Error("submission failed", "cause", string(out.Cause), "fingerprint", fingerprint, "error", out.Err)
	}
}
