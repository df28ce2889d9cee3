package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post is a feed entry with likes and comments.
type Post struct {
	ID string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`

	AuthorID string `gorm:"not null;index;type:uuid" json:"author_id"`
	Author   *User  `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	Content  string `gorm:"type:text;not null" json:"content"`
	ImageURL string `json:"image_url,omitempty"`

	Likes     []User    `gorm:"many2many:post_likes" json:"-"`
	LikeCount int       `gorm:"default:0" json:"like_count"`
	Comments  []Comment `gorm:"foreignKey:PostID" json:"comments,omitempty"`

	Moderation ModerationResult `gorm:"type:jsonb;serializer:json" json:"moderation"`

	// Admin moderation: hidden posts stay persisted but drop out of feeds.
	IsHidden     bool    `gorm:"default:false" json:"is_hidden"`
	HiddenReason *string `gorm:"type:text" json:"hidden_reason,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns IDs for databases without gen_random_uuid().
func (p *Post) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Comment is a reply on a post.
type Comment struct {
	ID string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`

	PostID string `gorm:"not null;index;type:uuid" json:"post_id"`

	AuthorID string `gorm:"not null;type:uuid" json:"author_id"`
	Author   *User  `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	Content string `gorm:"type:text;not null" json:"content"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (cm *Comment) BeforeCreate(*gorm.DB) error {
	if cm.ID == "" {
		cm.ID = uuid.NewString()
	}
	return nil
}
