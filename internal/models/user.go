package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role constants for User.Role.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Warning is an admin-issued strike against a user, stored inline on the
// account so moderation history travels with it.
type Warning struct {
	ID          string    `json:"id"`
	Reason      string    `json:"reason"`
	AdminID     string    `json:"admin_id"`
	AdminName   string    `json:"admin_name"`
	ContentType string    `json:"content_type"` // "post" or "message"
	ContentID   string    `json:"content_id"`
	Date        time.Time `json:"date"`
}

// AdminNotification is a persisted copy of a moderation notice shown to
// the user on next login, mirroring what was pushed over the socket.
type AdminNotification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	Severity  string    `json:"severity"` // "low", "medium", "high"
	AdminName string    `json:"admin_name"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// User represents an account. Moderation state (ban, warnings, notices)
// lives here because admin tooling operates on the account as a whole.
type User struct {
	ID       string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Name     string `gorm:"not null" json:"name"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Role     string `gorm:"default:user" json:"role"`
	Verified bool   `gorm:"default:false" json:"verified"`

	PasswordHash *string `gorm:"type:text" json:"-"`

	AvatarURL string `json:"avatar_url"`
	Bio       string `gorm:"type:text" json:"bio"`

	// Moderation state
	IsBanned           bool                `gorm:"default:false" json:"is_banned"`
	BanReason          *string             `gorm:"type:text" json:"ban_reason,omitempty"`
	Warnings           []Warning           `gorm:"type:jsonb;serializer:json" json:"warnings,omitempty"`
	AdminNotifications []AdminNotification `gorm:"type:jsonb;serializer:json" json:"admin_notifications,omitempty"`

	// Presence (cached; the realtime hub is the live source of truth)
	IsOnline     bool       `gorm:"default:false" json:"is_online"`
	LastActiveAt *time.Time `json:"last_active_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns an ID when the database default is unavailable,
// notably under sqlite in tests.
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// IsAdmin reports whether the account has moderation privileges.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Public returns the subset of the user safe to embed in payloads others
// can see.
func (u *User) Public() map[string]interface{} {
	return map[string]interface{}{
		"id":         u.ID,
		"name":       u.Name,
		"avatar_url": u.AvatarURL,
		"is_online":  u.IsOnline,
	}
}
