package realtime

import (
	"encoding/json"
	"fmt"
	"time"
)

// Inbound event names (client -> server).
const (
	EventAuthenticate    = "authenticate"
	EventJoinRoom        = "join-room"
	EventLeaveRoom       = "leave-room"
	EventJoinChatRoom    = "join-chat-room"
	EventJoinAdminRoom   = "join-admin-room"
	EventTypingStart     = "typing-start"
	EventTypingStop      = "typing-stop"
	EventMessageRead     = "message-read"
	EventMessageReceived = "message-received"
	EventNewMessage      = "new-message"
	EventStatusChange    = "user-status-change"
	EventFollowUser      = "follow-user"
	EventProfileView     = "user-profile-view"
	EventPostInteraction = "post-interaction"
)

// Outbound event names (server -> client).
const (
	EventUserJoinedRoom  = "user-joined-room"
	EventUserLeftRoom    = "user-left-room"
	EventUserTyping      = "user-typing"
	EventUserStopTyping  = "user-stopped-typing"
	EventUserDisconnect  = "user-disconnected"
	EventNewFollower     = "new-follower"
	EventProfileViewed   = "profile-viewed"
	EventMessageDeleted  = "message-deleted"
	EventChatBlocked     = "chat-blocked"
	EventChatUpdated     = "chat-updated"
	EventNewPost         = "new-post"
	EventPostLiked       = "post-liked"
	EventPostCommented   = "post-commented"
	EventPostUpdated     = "post-updated"
	EventPostDeleted     = "post-deleted"
	EventPostModeration  = "post-moderation"
	EventAdminMsgDeleted = "admin-message-deleted"
	EventAdminUserBlock  = "admin-user-blocked"
	EventAdminUserBanned = "admin-user-banned"
	EventAdminNotice     = "admin-notification"
)

// RoomAdmin is the moderation broadcast room joined by admin sessions.
const RoomAdmin = "admin"

// UserRoom returns the personal room id for a user.
func UserRoom(userID string) string {
	return "user:" + userID
}

// ChatRoom returns the room id for a chat conversation.
func ChatRoom(chatID string) string {
	return "chat:" + chatID
}

// Event is the wire envelope for both directions of the socket protocol.
// Payload shapes are pass-through: the router never interprets them beyond
// the few fields the inbound handlers need.
type Event struct {
	Name      string      `json:"event"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent creates an outbound event stamped with the current time.
func NewEvent(name string, payload interface{}) *Event {
	return &Event{
		Name:      name,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

func (e *Event) marshal() ([]byte, error) {
	return json.Marshal(e)
}

// ParsePayload unmarshals the payload into a typed struct. Payloads arrive
// as map[string]interface{} from the JSON decoder, so round-trip through
// json to get typed fields.
func (e *Event) ParsePayload(target interface{}) error {
	if e.Payload == nil {
		return fmt.Errorf("event %q has no payload", e.Name)
	}
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

// AuthenticatePayload binds a user identity to the session.
type AuthenticatePayload struct {
	UserID string `json:"userId"`
}

// RoomPayload addresses a generic room.
type RoomPayload struct {
	RoomID string `json:"roomId"`
}

// ChatPayload addresses a chat room.
type ChatPayload struct {
	ChatID string `json:"chatId"`
}

// TypingPayload is broadcast to chat members while a user types.
type TypingPayload struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

// ReceiptPayload carries read/delivery receipts for a message.
type ReceiptPayload struct {
	ChatID    string `json:"chatId"`
	MessageID string `json:"messageId"`
	UserID    string `json:"userId,omitempty"`
}

// ChatMessagePayload relays a persisted message into its chat room. The
// message object itself is opaque; only the id matters for dedup.
type ChatMessagePayload struct {
	ChatID  string                 `json:"chatId"`
	Message map[string]interface{} `json:"message"`
}

// MessageID extracts the message identifier, supporting both the document
// store's "_id" and a plain "id" key.
func (p *ChatMessagePayload) MessageID() string {
	for _, key := range []string{"_id", "id"} {
		if v, ok := p.Message[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// StatusChangePayload announces an online/offline/away transition.
type StatusChangePayload struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}

// FollowPayload notifies a user of a new follower.
type FollowPayload struct {
	TargetUserID string `json:"targetUserId"`
	FollowerID   string `json:"followerId"`
	FollowerName string `json:"followerName,omitempty"`
}

// ProfileViewPayload notifies a user their profile was viewed.
type ProfileViewPayload struct {
	ProfileUserID string `json:"profileUserId"`
	ViewerID      string `json:"viewerId,omitempty"`
	ViewerName    string `json:"viewerName,omitempty"`
}

// RoomNoticePayload announces membership changes to remaining members.
type RoomNoticePayload struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId,omitempty"`
}

// DisconnectPayload is the presence update broadcast when an authenticated
// session goes away.
type DisconnectPayload struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}
