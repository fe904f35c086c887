package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"mrxstudio/internal/domain"
	"mrxstudio/internal/metrics"
	apperrors "mrxstudio/pkg/errors"
)

// NewSubmission is a validated payload plus request metadata.
type NewSubmission struct {
	Email     string
	Phone     string
	Message   string
	IPHash    string
	UserAgent string
}

// ListOptions filters and paginates submission listings.
type ListOptions struct {
	Status string
	Skip   int
	Limit  int
}

// SubmissionStore persists accepted submissions.
type SubmissionStore interface {
	Create(ctx context.Context, in NewSubmission) (*domain.Submission, error)
}

// SubmissionRepository is the staff-facing view of stored submissions.
type SubmissionRepository interface {
	SubmissionStore
	List(ctx context.Context, opts ListOptions) ([]domain.Submission, error)
	Get(ctx context.Context, id string) (*domain.Submission, error)
	UpdateStatus(ctx context.Context, id, status string) (*domain.Submission, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// GormSubmissionStore stores submissions through gorm.
type GormSubmissionStore struct {
	db *gorm.DB
}

// NewGormSubmissionStore creates a store on db.
func NewGormSubmissionStore(db *gorm.DB) *GormSubmissionStore {
	return &GormSubmissionStore{db: db}
}

var _ SubmissionRepository = (*GormSubmissionStore)(nil)

// Create inserts one submission and returns it with ID and CreatedAt set.
func (s *GormSubmissionStore) Create(ctx context.Context, in NewSubmission) (*domain.Submission, error) {
	sub := &domain.Submission{
		Email:   in.Email,
		Message: in.Message,
		IPHash:  in.IPHash,
		Status:  domain.StatusNew,
	}
	if phone := strings.TrimSpace(in.Phone); phone != "" {
		sub.Phone = &phone
	}
	if ua := strings.TrimSpace(in.UserAgent); ua != "" {
		sub.UserAgent = &ua
	}

	start := time.Now()
	err := s.db.WithContext(ctx).Create(sub).Error
	metrics.RecordDBQuery("create_submission", time.Since(start), err)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, "failed to save submission", err)
	}
	return sub, nil
}

// List returns submissions newest first.
func (s *GormSubmissionStore) List(ctx context.Context, opts ListOptions) ([]domain.Submission, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC").Offset(opts.Skip).Limit(opts.Limit)
	if opts.Status != "" && opts.Status != "all" {
		q = q.Where("status = ?", opts.Status)
	}

	var subs []domain.Submission
	start := time.Now()
	err := q.Find(&subs).Error
	metrics.RecordDBQuery("list_submissions", time.Since(start), err)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, "failed to list submissions", err)
	}
	return subs, nil
}

// Get returns one submission by ID.
func (s *GormSubmissionStore) Get(ctx context.Context, id string) (*domain.Submission, error) {
	var sub domain.Submission
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.ErrCodeNotFound, "submission not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, "failed to load submission", err)
	}
	return &sub, nil
}

// UpdateStatus sets the review status of a submission.
func (s *GormSubmissionStore) UpdateStatus(ctx context.Context, id, status string) (*domain.Submission, error) {
	if !domain.IsValidStatus(status) {
		return nil, apperrors.New(apperrors.ErrCodeBadRequest, "unknown status")
	}

	now := s.db.NowFunc()
	start := time.Now()
	res := s.db.WithContext(ctx).Model(&domain.Submission{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": now})
	metrics.RecordDBQuery("update_submission_status", time.Since(start), res.Error)
	if res.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, "failed to update submission", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.New(apperrors.ErrCodeNotFound, "submission not found")
	}
	return s.Get(ctx, id)
}

// PurgeOlderThan deletes submissions created before cutoff.
func (s *GormSubmissionStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	start := time.Now()
	res := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&domain.Submission{})
	metrics.RecordDBQuery("purge_submissions", time.Since(start), res.Error)
	if res.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, "failed to purge submissions", res.Error)
	}
	return res.RowsAffected, nil
}
