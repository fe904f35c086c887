package services

import (
	"context"
	"time"

	"mrxstudio/internal/domain"
	apperrors "mrxstudio/pkg/errors"
)

// Listing limits for the staff review API
const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// ReviewService lets staff browse submissions and change their status
type ReviewService struct {
	repo SubmissionRepository
}

// NewReviewService creates a new review service
func NewReviewService(repo SubmissionRepository) *ReviewService {
	return &ReviewService{repo: repo}
}

// List returns submissions newest first, clamping pagination and
// rejecting unknown status filters.
func (s *ReviewService) List(ctx context.Context, opts ListOptions) ([]domain.Submission, error) {
	if opts.Skip < 0 {
		opts.Skip = 0
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultListLimit
	}
	if opts.Limit > MaxListLimit {
		opts.Limit = MaxListLimit
	}
	if opts.Status != "" && opts.Status != "all" && !domain.IsValidStatus(opts.Status) {
		return nil, apperrors.New(apperrors.ErrCodeBadRequest, "unknown status filter")
	}
	return s.repo.List(ctx, opts)
}

// SetStatus moves a submission to status
func (s *ReviewService) SetStatus(ctx context.Context, id, status string) (*domain.Submission, error) {
	if id == "" {
		return nil, apperrors.New(apperrors.ErrCodeBadRequest, "submission id is required")
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

// Purge deletes submissions older than the retention period and returns
// how many were removed.
func (s *ReviewService) Purge(ctx context.Context, retention time.Duration, now time.Time) (int64, error) {
	if retention <= 0 {
		return 0, apperrors.New(apperrors.ErrCodeBadRequest, "retention must be positive")
	}
	return s.repo.PurgeOlderThan(ctx, now.Add(-retention))
}
