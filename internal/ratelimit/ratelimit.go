// Package ratelimit implements the sliding-window limit applied to contact
// form submissions, keyed by client fingerprint.
package ratelimit

import (
	"context"
	"log/slog"
	"math"
	"time"

	"mrxstudio/internal/metrics"
)

// Policy allows at most Max hits per key within any trailing Window.
type Policy struct {
	Window time.Duration
	Max    int
}

// DefaultPolicy is 5 requests per 15 minutes.
func DefaultPolicy() Policy {
	return Policy{Window: 15 * time.Minute, Max: 5}
}

// Result is the outcome of a single hit.
type Result struct {
	Allowed bool
	// RetryAfter is set when Allowed is false; it is never below one second.
	RetryAfter time.Duration
}

// RetryAfterSeconds returns RetryAfter as whole seconds.
func (r Result) RetryAfterSeconds() int {
	return int(r.RetryAfter / time.Second)
}

// Store records a hit for key at now and decides whether it is allowed.
// Implementations must make check-and-record atomic per key.
type Store interface {
	Hit(ctx context.Context, key string, now time.Time) (Result, error)
	Name() string
}

// retryAfter is the time until oldest leaves the window, rounded up to
// whole seconds with a one second minimum.
func retryAfter(oldest, now time.Time, window time.Duration) time.Duration {
	remaining := oldest.Add(window).Sub(now)
	secs := int64(math.Ceil(remaining.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return time.Duration(secs) * time.Second
}

// Limiter answers from a shared primary store and degrades to a
// process-local fallback when the primary is missing or failing.
type Limiter struct {
	primary  Store
	fallback Store
	now      func() time.Time
	log      *slog.Logger
}

// NewLimiter creates a Limiter. primary may be nil, in which case every
// check goes to fallback.
func NewLimiter(primary, fallback Store) *Limiter {
	return &Limiter{
		primary:  primary,
		fallback: fallback,
		now:      time.Now,
		log:      slog.With(slog.String("component", "ratelimit")),
	}
}

// Backend names the store that answers checks while healthy.
func (l *Limiter) Backend() string {
	if l.primary != nil {
		return l.primary.Name()
	}
	return l.fallback.Name()
}

// Check records a request for fingerprint. It never fails: when both
// stores error the request is allowed and the error logged.
func (l *Limiter) Check(ctx context.Context, fingerprint string) Result {
	now := l.now()

	if l.primary != nil {
		res, err := l.primary.Hit(ctx, fingerprint, now)
		if err == nil {
			return res
		}
		l.log.Warn("shared rate limit store unavailable, using local fallback",
			slog.String("store", l.primary.Name()),
			slog.Any("error", err),
		)
		metrics.RecordRateLimitFallback()
	}

	res, err := l.fallback.Hit(ctx, fingerprint, now)
	if err != nil {
		l.log.Error("fallback rate limit store failed", slog.Any("error", err))
		return Result{Allowed: true}
	}
	return res
}
