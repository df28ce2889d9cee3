package realtime

import (
	"github.com/ripple-app/backend/internal/logger"
)

// Notifier is the seam between request handlers and the event router.
// Every method is fire-and-forget and must be called only after the state
// change it announces has committed. A nil Notifier (or one built over a
// nil hub) degrades to a logged no-op so real-time delivery can never fail
// an HTTP response.
type Notifier struct {
	hub *Hub
}

// NewNotifier creates a dispatcher over the hub.
func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

func (n *Notifier) ready() bool {
	if n == nil || n.hub == nil {
		logger.Log.Debug("notifier unavailable, event dropped")
		return false
	}
	return true
}

// MessageCreated relays a persisted chat message to its room and mirrors
// it to the admin room for monitoring.
func (n *Notifier) MessageCreated(chatID string, message map[string]interface{}) {
	if !n.ready() {
		return
	}
	payload := ChatMessagePayload{ChatID: chatID, Message: message}
	n.hub.EmitToRoom(ChatRoom(chatID), EventNewMessage, payload)
	n.hub.EmitToRoom(RoomAdmin, EventNewMessage, payload)
}

// MessageDeleted announces a deletion to the chat room.
func (n *Notifier) MessageDeleted(chatID, messageID, deletedBy string) {
	if !n.ready() {
		return
	}
	n.hub.EmitToRoom(ChatRoom(chatID), EventMessageDeleted, map[string]interface{}{
		"chatId":    chatID,
		"messageId": messageID,
		"deletedBy": deletedBy,
	})
}

// MessageRead notifies the sender their message was read.
func (n *Notifier) MessageRead(senderID, chatID, messageID, readerID string) {
	if !n.ready() {
		return
	}
	n.hub.EmitToUser(senderID, EventMessageRead, ReceiptPayload{
		ChatID:    chatID,
		MessageID: messageID,
		UserID:    readerID,
	})
}

// TypingChanged broadcasts typing state to a chat room, excluding the
// typist's own session when known.
func (n *Notifier) TypingChanged(chatID, userID, exceptSessionID string, typing bool) {
	if !n.ready() {
		return
	}
	name := EventUserTyping
	if !typing {
		name = EventUserStopTyping
	}
	n.hub.EmitToRoomExcept(ChatRoom(chatID), name, TypingPayload{ChatID: chatID, UserID: userID}, exceptSessionID)
}

// ChatBlocked announces a participant blocking or unblocking the
// conversation to the chat room.
func (n *Notifier) ChatBlocked(chatID, byUserID string, blocked bool) {
	if !n.ready() {
		return
	}
	n.hub.EmitToRoom(ChatRoom(chatID), EventChatBlocked, map[string]interface{}{
		"chatId":  chatID,
		"userId":  byUserID,
		"blocked": blocked,
	})
}

// ChatUpdated announces group rename or membership changes to the chat room.
func (n *Notifier) ChatUpdated(chatID string, payload map[string]interface{}) {
	if !n.ready() {
		return
	}
	n.hub.EmitToRoom(ChatRoom(chatID), EventChatUpdated, payload)
}

// PostCreated announces a new post to everyone.
func (n *Notifier) PostCreated(post interface{}) {
	if !n.ready() {
		return
	}
	n.hub.EmitGlobal(EventNewPost, post)
}

// PostUpdated announces an edit to everyone.
func (n *Notifier) PostUpdated(post interface{}) {
	if !n.ready() {
		return
	}
	n.hub.EmitGlobal(EventPostUpdated, post)
}

// PostDeleted announces a removal to everyone.
func (n *Notifier) PostDeleted(postID string) {
	if !n.ready() {
		return
	}
	n.hub.EmitGlobal(EventPostDeleted, map[string]string{"postId": postID})
}

// PostLiked announces a like to everyone viewing the post.
func (n *Notifier) PostLiked(postID, userID string, likeCount int) {
	if !n.ready() {
		return
	}
	n.hub.EmitGlobal(EventPostLiked, map[string]interface{}{
		"postId":    postID,
		"userId":    userID,
		"likeCount": likeCount,
	})
}

// PostCommented announces a new comment.
func (n *Notifier) PostCommented(postID string, comment interface{}) {
	if !n.ready() {
		return
	}
	n.hub.EmitGlobal(EventPostCommented, map[string]interface{}{
		"postId":  postID,
		"comment": comment,
	})
}

// Followed notifies a user they gained a follower.
func (n *Notifier) Followed(targetUserID, followerID, followerName string) {
	if !n.ready() {
		return
	}
	n.hub.EmitToUser(targetUserID, EventNewFollower, FollowPayload{
		TargetUserID: targetUserID,
		FollowerID:   followerID,
		FollowerName: followerName,
	})
}

// ProfileViewed notifies a user their profile was viewed.
func (n *Notifier) ProfileViewed(profileUserID, viewerID, viewerName string) {
	if !n.ready() {
		return
	}
	n.hub.EmitToUser(profileUserID, EventProfileViewed, ProfileViewPayload{
		ProfileUserID: profileUserID,
		ViewerID:      viewerID,
		ViewerName:    viewerName,
	})
}

// PresenceChanged broadcasts an online/offline transition.
func (n *Notifier) PresenceChanged(userID, status string) {
	if !n.ready() {
		return
	}
	n.hub.EmitGlobal(EventStatusChange, StatusChangePayload{UserID: userID, Status: status})
}

// ModerationAction notifies a content author of an admin action on their
// post (deleted, hidden, warning) and mirrors it to the admin room.
func (n *Notifier) ModerationAction(authorID string, payload map[string]interface{}) {
	if !n.ready() {
		return
	}
	n.hub.EmitToUser(authorID, EventPostModeration, payload)
	n.hub.EmitToRoom(RoomAdmin, EventAdminNotice, payload)
}

// AdminMessageDeleted mirrors an admin message removal to the chat room
// and the admin room.
func (n *Notifier) AdminMessageDeleted(chatID, messageID, adminName string) {
	if !n.ready() {
		return
	}
	payload := map[string]interface{}{
		"chatId":    chatID,
		"messageId": messageID,
		"adminName": adminName,
	}
	n.hub.EmitToRoom(ChatRoom(chatID), EventMessageDeleted, payload)
	n.hub.EmitToRoom(RoomAdmin, EventAdminMsgDeleted, payload)
}

// UserBanned notifies the banned user and the admin room.
func (n *Notifier) UserBanned(userID, reason, adminName string, banned bool) {
	if !n.ready() {
		return
	}
	payload := map[string]interface{}{
		"userId":    userID,
		"reason":    reason,
		"adminName": adminName,
		"banned":    banned,
	}
	n.hub.EmitToUser(userID, EventAdminUserBanned, payload)
	n.hub.EmitToRoom(RoomAdmin, EventAdminUserBanned, payload)
}

// UserBlocked notifies a user one of their chats was blocked.
func (n *Notifier) UserBlocked(userID, chatID, adminName string, blocked bool) {
	if !n.ready() {
		return
	}
	payload := map[string]interface{}{
		"userId":    userID,
		"chatId":    chatID,
		"adminName": adminName,
		"blocked":   blocked,
	}
	n.hub.EmitToUser(userID, EventAdminUserBlock, payload)
	n.hub.EmitToRoom(RoomAdmin, EventAdminUserBlock, payload)
}

// AdminNotice pushes a notification to every session in the admin room.
func (n *Notifier) AdminNotice(payload interface{}) {
	if !n.ready() {
		return
	}
	n.hub.EmitToRoom(RoomAdmin, EventAdminNotice, payload)
}
