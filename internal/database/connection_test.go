package database

import (
	"context"
	"testing"

	"mrxstudio/internal/config"
	"mrxstudio/internal/domain"
)

func TestOpen_SQLiteMemory(t *testing.T) {
	db, err := Open(&config.DatabaseConfig{URL: ":memory:"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer Close(db)

	if err := Ping(context.Background(), db); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if !db.Migrator().HasTable(&domain.Submission{}) {
		t.Error("contact_submissions table missing after migration")
	}
	if !db.Migrator().HasTable(&domain.User{}) {
		t.Error("staff_users table missing after migration")
	}
}

func TestSubmissionDefaults(t *testing.T) {
	db, err := Open(&config.DatabaseConfig{URL: ":memory:"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer Close(db)

	s := &domain.Submission{
		Email:   "a@b.com",
		Message: "Hello, I need a website built.",
		IPHash:  "abc",
		Status:  domain.StatusReplied,
	}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if s.ID == "" {
		t.Error("ID not generated")
	}
	if s.Status != domain.StatusNew {
		t.Errorf("Status = %q, want %q", s.Status, domain.StatusNew)
	}
	if s.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}

	stats, err := Stats(db)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.MaxOpenConnections != 1 {
		t.Errorf("MaxOpenConnections = %d, want 1 for sqlite", stats.MaxOpenConnections)
	}
}
