package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Report statuses.
const (
	ReportStatusPending  = "pending"
	ReportStatusReviewed = "reviewed"
	ReportStatusResolved = "resolved"
)

// Report is a user-submitted complaint about a post or message, queued
// for admin review.
type Report struct {
	ID string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`

	ReporterID string `gorm:"not null;index;type:uuid" json:"reporter_id"`
	Reporter   *User  `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`

	ContentType string `gorm:"not null" json:"content_type"` // "post" or "message"
	ContentID   string `gorm:"not null;index;type:uuid" json:"content_id"`
	Reason      string `gorm:"type:text;not null" json:"reason"`

	Status     string  `gorm:"default:pending" json:"status"`
	ReviewerID *string `gorm:"type:uuid" json:"reviewer_id,omitempty"`
	Resolution *string `gorm:"type:text" json:"resolution,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Report) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
