package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message status progression.
const (
	MessageStatusSent      = "sent"
	MessageStatusDelivered = "delivered"
	MessageStatusRead      = "read"
	MessageStatusDeleted   = "deleted"
)

// ModerationResult is the classifier's verdict, stored with the content
// it judged.
type ModerationResult struct {
	Flagged    bool            `json:"flagged"`
	Categories map[string]bool `json:"categories,omitempty"`
}

// Message is one chat message, text or transcribed voice.
type Message struct {
	ID string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`

	ChatID string `gorm:"not null;index;type:uuid" json:"chat_id"`
	Chat   *Chat  `gorm:"foreignKey:ChatID" json:"-"`

	SenderID string `gorm:"not null;index;type:uuid" json:"sender_id"`
	Sender   *User  `gorm:"foreignKey:SenderID" json:"sender,omitempty"`

	// Direct chats record the counterparty for read receipts; group chats
	// leave it empty.
	RecipientID *string `gorm:"type:uuid" json:"recipient_id,omitempty"`

	Content            string  `gorm:"type:text;not null" json:"content"`
	IsVoice            bool    `gorm:"default:false" json:"is_voice"`
	VoiceTranscription *string `gorm:"type:text" json:"voice_transcription,omitempty"`

	Moderation ModerationResult `gorm:"type:jsonb;serializer:json" json:"moderation"`

	Status     string `gorm:"default:sent" json:"status"`
	ReadStatus bool   `gorm:"default:false" json:"read_status"`

	IsReported   bool    `gorm:"default:false" json:"is_reported"`
	ReportReason *string `gorm:"type:text" json:"report_reason,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (m *Message) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// WirePayload shapes the message the way socket consumers expect it, with
// the document-store style "_id" key the clients key dedup on.
func (m *Message) WirePayload() map[string]interface{} {
	payload := map[string]interface{}{
		"_id":       m.ID,
		"chat":      m.ChatID,
		"sender":    m.SenderID,
		"content":   m.Content,
		"isVoice":   m.IsVoice,
		"status":    m.Status,
		"createdAt": m.CreatedAt,
	}
	if m.Sender != nil {
		payload["sender"] = m.Sender.Public()
	}
	return payload
}
