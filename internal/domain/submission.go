package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Submission statuses. New submissions always start as StatusNew; the
// others are set by staff review.
const (
	StatusNew      = "new"
	StatusRead     = "read"
	StatusReplied  = "replied"
	StatusSpam     = "spam"
	StatusArchived = "archived"
)

// Submission represents an accepted contact form submission
type Submission struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	Email     string     `gorm:"size:254;not null;index" json:"email"`
	Phone     *string    `gorm:"size:64" json:"phone"`
	Message   string     `gorm:"type:text;not null" json:"message"`
	IPHash    string     `gorm:"size:64;not null;index" json:"-"`
	UserAgent *string    `gorm:"type:text" json:"user_agent"`
	Status    string     `gorm:"size:20;not null;default:'new';index" json:"status"`
	CreatedAt time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// TableName specifies the table name for Submission
func (Submission) TableName() string {
	return "contact_submissions"
}

// BeforeCreate assigns the identifier, creation time and initial status.
func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = tx.NowFunc()
	}
	s.Status = StatusNew
	return nil
}

// IsValidStatus reports whether status is a known submission status
func IsValidStatus(status string) bool {
	switch status {
	case StatusNew, StatusRead, StatusReplied, StatusSpam, StatusArchived:
		return true
	}
	return false
}
