package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotifierNilSafe(t *testing.T) {
	var n *Notifier
	assert.NotPanics(t, func() {
		n.MessageCreated("c1", map[string]interface{}{"_id": "m1"})
		n.PostCreated(nil)
		n.UserBanned("u1", "spam", "admin", true)
	})

	n = NewNotifier(nil)
	assert.NotPanics(t, func() {
		n.MessageDeleted("c1", "m1", "u1")
		n.PresenceChanged("u1", "offline")
	})
}

func TestNotifierMessageCreatedMirrorsToAdmin(t *testing.T) {
	hub := startHub(t)
	member, memberSink := connect(hub)
	admin, adminSink := connect(hub)
	hub.JoinRoom(member.ID, ChatRoom("c1"))
	hub.JoinRoom(admin.ID, RoomAdmin)

	n := NewNotifier(hub)
	n.MessageCreated("c1", map[string]interface{}{"_id": "m1", "content": "hello"})

	waitDelivered(t, memberSink, EventNewMessage, 1)
	waitDelivered(t, adminSink, EventNewMessage, 1)
}

func TestNotifierModerationActionRouting(t *testing.T) {
	hub := startHub(t)
	author, authorSink := connect(hub)
	admin, adminSink := connect(hub)
	bystander, bystanderSink := connect(hub)
	hub.Authenticate(author.ID, "u1")
	hub.JoinRoom(admin.ID, RoomAdmin)
	_ = bystander

	n := NewNotifier(hub)
	n.ModerationAction("u1", map[string]interface{}{"action": "hidden", "postId": "p1"})

	waitDelivered(t, authorSink, EventPostModeration, 1)
	waitDelivered(t, adminSink, EventAdminNotice, 1)
	assert.Zero(t, bystanderSink.count(EventPostModeration))
}

func TestNotifierChatEventsScopedToRoom(t *testing.T) {
	hub := startHub(t)
	member, memberSink := connect(hub)
	_, bystanderSink := connect(hub)
	hub.JoinRoom(member.ID, ChatRoom("c1"))

	n := NewNotifier(hub)
	n.ChatBlocked("c1", "u1", true)
	n.ChatUpdated("c1", map[string]interface{}{"chatId": "c1", "groupName": "team"})

	waitDelivered(t, memberSink, EventChatBlocked, 1)
	waitDelivered(t, memberSink, EventChatUpdated, 1)
	assert.Zero(t, bystanderSink.count(EventChatBlocked))
	assert.Zero(t, bystanderSink.count(EventChatUpdated))
}

func TestNotifierUserBannedReachesUserAndAdmins(t *testing.T) {
	hub := startHub(t)
	banned, bannedSink := connect(hub)
	admin, adminSink := connect(hub)
	hub.Authenticate(banned.ID, "u1")
	hub.JoinRoom(admin.ID, RoomAdmin)

	NewNotifier(hub).UserBanned("u1", "harassment", "mod-alice", true)

	waitDelivered(t, bannedSink, EventAdminUserBanned, 1)
	waitDelivered(t, adminSink, EventAdminUserBanned, 1)
}

func TestNotifierGlobalPostEvents(t *testing.T) {
	hub := startHub(t)
	_, sink := connect(hub)

	n := NewNotifier(hub)
	n.PostCreated(map[string]interface{}{"id": "p1"})
	n.PostLiked("p1", "u2", 3)
	n.PostCommented("p1", map[string]interface{}{"id": "cm1"})
	n.PostDeleted("p1")

	waitDelivered(t, sink, EventNewPost, 1)
	waitDelivered(t, sink, EventPostLiked, 1)
	waitDelivered(t, sink, EventPostCommented, 1)
	waitDelivered(t, sink, EventPostDeleted, 1)
}
