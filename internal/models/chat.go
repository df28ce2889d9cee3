package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Chat is a direct or group conversation. Direct chats have exactly two
// participants and no group metadata.
type Chat struct {
	ID string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`

	Participants []User `gorm:"many2many:chat_participants" json:"participants,omitempty"`

	IsGroupChat  bool    `gorm:"default:false" json:"is_group_chat"`
	GroupName    string  `json:"group_name,omitempty"`
	GroupAdminID *string `gorm:"type:uuid" json:"group_admin_id,omitempty"`

	LastMessageID *string `gorm:"type:uuid" json:"last_message_id,omitempty"`

	// Toggled by participants or admin moderation; blocked chats reject
	// new messages.
	IsBlocked bool `gorm:"default:false" json:"is_blocked"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Chat) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// HasParticipant reports whether a user belongs to the chat. Participants
// must be preloaded.
func (c *Chat) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}
