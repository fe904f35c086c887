package services

import (
	"context"
	"testing"
	"time"

	"mrxstudio/internal/domain"
	apperrors "mrxstudio/pkg/errors"
)

type fakeRepo struct {
	fakeStore
	listOpts ListOptions
	cutoff   time.Time
}

func (f *fakeRepo) List(ctx context.Context, opts ListOptions) ([]domain.Submission, error) {
	f.listOpts = opts
	return nil, nil
}

func (f *fakeRepo) Get(ctx context.Context, id string) (*domain.Submission, error) {
	return nil, apperrors.New(apperrors.ErrCodeNotFound, "submission not found")
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, id, status string) (*domain.Submission, error) {
	return &domain.Submission{ID: id, Status: status}, nil
}

func (f *fakeRepo) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return 3, nil
}

func TestReviewService_ListClampsPagination(t *testing.T) {
	tests := []struct {
		in        ListOptions
		wantSkip  int
		wantLimit int
	}{
		{ListOptions{}, 0, DefaultListLimit},
		{ListOptions{Skip: -4, Limit: 1000}, 0, MaxListLimit},
		{ListOptions{Skip: 10, Limit: 20}, 10, 20},
	}
	for _, tt := range tests {
		repo := &fakeRepo{}
		if _, err := NewReviewService(repo).List(context.Background(), tt.in); err != nil {
			t.Fatalf("List(%+v) error = %v", tt.in, err)
		}
		if repo.listOpts.Skip != tt.wantSkip || repo.listOpts.Limit != tt.wantLimit {
			t.Errorf("List(%+v) passed %+v", tt.in, repo.listOpts)
		}
	}
}

func TestReviewService_ListRejectsUnknownStatus(t *testing.T) {
	_, err := NewReviewService(&fakeRepo{}).List(context.Background(), ListOptions{Status: "deleted"})
	if !apperrors.IsBadRequest(err) {
		t.Errorf("error = %v, want BAD_REQUEST", err)
	}
}

func TestReviewService_SetStatus(t *testing.T) {
	svc := NewReviewService(&fakeRepo{})
	sub, err := svc.SetStatus(context.Background(), "abc", domain.StatusReplied)
	if err != nil || sub.Status != domain.StatusReplied {
		t.Errorf("SetStatus() = %+v, %v", sub, err)
	}
	if _, err := svc.SetStatus(context.Background(), "", domain.StatusRead); !apperrors.IsBadRequest(err) {
		t.Errorf("empty id error = %v, want BAD_REQUEST", err)
	}
}

func TestReviewService_Purge(t *testing.T) {
	repo := &fakeRepo{}
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	n, err := NewReviewService(repo).Purge(context.Background(), 60*24*time.Hour, now)
	if err != nil || n != 3 {
		t.Fatalf("Purge() = %d, %v", n, err)
	}
	if want := now.AddDate(0, 0, -60); !repo.cutoff.Equal(want) {
		t.Errorf("cutoff = %v, want %v", repo.cutoff, want)
	}
	if _, err := NewReviewService(repo).Purge(context.Background(), 0, now); err == nil {
		t.Error("zero retention accepted")
	}
}
