package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Follow is a directed follower edge between two users.
type Follow struct {
	ID string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`

	FollowerID string `gorm:"not null;index;type:uuid;uniqueIndex:idx_follow_pair" json:"follower_id"`
	FolloweeID string `gorm:"not null;index;type:uuid;uniqueIndex:idx_follow_pair" json:"followee_id"`

	Follower *User `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	Followee *User `gorm:"foreignKey:FolloweeID" json:"followee,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (f *Follow) BeforeCreate(*gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
