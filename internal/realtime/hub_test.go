package realtime

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ripple-app/backend/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	_ = logger.Initialize("error", "")
	os.Exit(m.Run())
}

// recordingSink captures delivered events in order, standing in for a live
// transport connection.
type recordingSink struct {
	mu     sync.Mutex
	events []Event
	reject bool
}

func (r *recordingSink) TrySend(data []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reject {
		return false
	}
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return false
	}
	r.events = append(r.events, ev)
	return true
}

func (r *recordingSink) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Name
	}
	return out
}

func (r *recordingSink) count(name string) int {
	n := 0
	for _, got := range r.names() {
		if got == name {
			n++
		}
	}
	return n
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	RegisterDefaultHandlers(hub)
	go hub.Run()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = hub.Shutdown(ctx)
	})
	return hub
}

func connect(hub *Hub) (*Session, *recordingSink) {
	sink := &recordingSink{}
	return hub.Connect(sink), sink
}

func waitDelivered(t *testing.T, sink *recordingSink, name string, want int) {
	t.Helper()
	assert.Eventually(t, func() bool {
		return sink.count(name) == want
	}, time.Second, 5*time.Millisecond, "expected %d %q events, got %v", want, name, sink.names())
}

func TestJoinLeaveMembership(t *testing.T) {
	hub := startHub(t)
	s, _ := connect(hub)

	require.True(t, hub.JoinRoom(s.ID, "chat:c1"))
	assert.Contains(t, hub.MembersOf("chat:c1"), s.ID)

	hub.LeaveRoom(s.ID, "chat:c1")
	assert.NotContains(t, hub.MembersOf("chat:c1"), s.ID)
}

func TestJoinIdempotent(t *testing.T) {
	hub := startHub(t)
	s, _ := connect(hub)

	hub.JoinRoom(s.ID, "chat:c1")
	hub.JoinRoom(s.ID, "chat:c1")
	assert.Len(t, hub.MembersOf("chat:c1"), 1)
}

func TestDisconnectPurgesAllRooms(t *testing.T) {
	hub := startHub(t)
	s, _ := connect(hub)

	rooms := []string{"chat:c1", "chat:c2", RoomAdmin, "user:u9"}
	for _, room := range rooms {
		hub.JoinRoom(s.ID, room)
	}

	hub.Disconnect(s.ID)
	for _, room := range rooms {
		assert.NotContains(t, hub.MembersOf(room), s.ID, "room %s still holds the session", room)
	}
}

func TestDisconnectIdempotent(t *testing.T) {
	hub := startHub(t)
	s, _ := connect(hub)

	hub.Disconnect(s.ID)
	assert.NotPanics(t, func() { hub.Disconnect(s.ID) })
}

func TestAuthenticateJoinsUserRoom(t *testing.T) {
	hub := startHub(t)
	s, _ := connect(hub)

	hub.Authenticate(s.ID, "u1")
	assert.Contains(t, hub.MembersOf(UserRoom("u1")), s.ID)
	assert.True(t, hub.IsUserOnline("u1"))

	// Re-auth with the same user is a no-op.
	hub.Authenticate(s.ID, "u1")
	assert.Len(t, hub.MembersOf(UserRoom("u1")), 1)

	// Rebinding moves the session to the new personal room.
	hub.Authenticate(s.ID, "u2")
	assert.Empty(t, hub.MembersOf(UserRoom("u1")))
	assert.Contains(t, hub.MembersOf(UserRoom("u2")), s.ID)
}

func TestAuthenticateUnknownSessionNoop(t *testing.T) {
	hub := startHub(t)
	assert.NotPanics(t, func() { hub.Authenticate("missing", "u1") })
	assert.Empty(t, hub.MembersOf(UserRoom("u1")))
}

func TestEmitToRoomOrdering(t *testing.T) {
	hub := startHub(t)
	s, sink := connect(hub)
	hub.JoinRoom(s.ID, "chat:c1")

	const n = 50
	for i := 0; i < n; i++ {
		hub.EmitToRoom("chat:c1", EventNewMessage, map[string]int{"seq": i})
	}
	waitDelivered(t, sink, EventNewMessage, n)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	for i, ev := range sink.events {
		payload := ev.Payload.(map[string]interface{})
		assert.Equal(t, float64(i), payload["seq"], "event %d out of order", i)
	}
}

func TestEmitToRoomExceptIsolation(t *testing.T) {
	hub := startHub(t)
	sender, senderSink := connect(hub)
	other, otherSink := connect(hub)
	hub.JoinRoom(sender.ID, "chat:c1")
	hub.JoinRoom(other.ID, "chat:c1")

	hub.EmitToRoomExcept("chat:c1", EventUserTyping, TypingPayload{ChatID: "c1"}, sender.ID)

	waitDelivered(t, otherSink, EventUserTyping, 1)
	assert.Zero(t, senderSink.count(EventUserTyping), "sender must not be echoed its own event")
}

func TestEmitGlobalReachesAllSessions(t *testing.T) {
	hub := startHub(t)
	_, sink1 := connect(hub)
	s2, sink2 := connect(hub)
	hub.JoinRoom(s2.ID, "chat:c1") // room membership is irrelevant to global emits

	hub.EmitGlobal(EventStatusChange, StatusChangePayload{UserID: "u1", Status: "online"})

	waitDelivered(t, sink1, EventStatusChange, 1)
	waitDelivered(t, sink2, EventStatusChange, 1)
}

func TestEmitToUserTargetsPersonalRoom(t *testing.T) {
	hub := startHub(t)
	target, targetSink := connect(hub)
	_, bystanderSink := connect(hub)
	hub.Authenticate(target.ID, "u1")

	hub.EmitToUser("u1", EventNewFollower, FollowPayload{TargetUserID: "u1", FollowerID: "u2"})

	waitDelivered(t, targetSink, EventNewFollower, 1)
	assert.Zero(t, bystanderSink.count(EventNewFollower))
}

func TestFailedSinkDoesNotBlockOthers(t *testing.T) {
	hub := startHub(t)
	dead, deadSink := connect(hub)
	deadSink.reject = true
	live, liveSink := connect(hub)
	hub.JoinRoom(dead.ID, "chat:c1")
	hub.JoinRoom(live.ID, "chat:c1")

	hub.EmitToRoom("chat:c1", EventNewMessage, map[string]string{"_id": "m1"})

	waitDelivered(t, liveSink, EventNewMessage, 1)
	// The failing session is eventually torn down.
	assert.Eventually(t, func() bool {
		return !hub.InRoom(dead.ID, "chat:c1")
	}, time.Second, 5*time.Millisecond)
}

// B relays a message into chat:c1 twice (client echo); A receives it
// exactly once.
func TestDuplicateRelaySuppressed(t *testing.T) {
	hub := startHub(t)
	a, aSink := connect(hub)
	b, _ := connect(hub)
	hub.Authenticate(a.ID, "u1")
	hub.JoinRoom(a.ID, ChatRoom("c1"))
	hub.JoinRoom(b.ID, ChatRoom("c1"))

	msg := map[string]interface{}{
		"chatId":  "c1",
		"message": map[string]interface{}{"_id": "m1", "content": "hey"},
	}
	hub.HandleInbound(b, &Event{Name: EventNewMessage, Payload: msg})
	hub.HandleInbound(b, &Event{Name: EventNewMessage, Payload: msg})

	waitDelivered(t, aSink, EventNewMessage, 1)
	// Give the loop a chance to (incorrectly) deliver a duplicate.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, aSink.count(EventNewMessage))
	assert.Equal(t, int64(1), hub.GetMetrics().DuplicatesCulled)
}

// A message persisted over REST is broadcast to the room, then a
// recipient's client echoes the same id back over the socket. The room
// must not see the message a second time.
func TestEchoAfterServerBroadcastSuppressed(t *testing.T) {
	hub := startHub(t)
	notifier := NewNotifier(hub)
	a, aSink := connect(hub)
	b, bSink := connect(hub)
	hub.JoinRoom(a.ID, ChatRoom("c1"))
	hub.JoinRoom(b.ID, ChatRoom("c1"))

	notifier.MessageCreated("c1", map[string]interface{}{"_id": "m1", "content": "hey"})
	waitDelivered(t, aSink, EventNewMessage, 1)
	waitDelivered(t, bSink, EventNewMessage, 1)

	hub.HandleInbound(b, &Event{Name: EventNewMessage, Payload: map[string]interface{}{
		"chatId":  "c1",
		"message": map[string]interface{}{"_id": "m1", "content": "hey"},
	}})

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, aSink.count(EventNewMessage), "echoed message must not be re-broadcast")
	assert.Equal(t, 1, bSink.count(EventNewMessage))
	assert.Equal(t, int64(1), hub.GetMetrics().DuplicatesCulled)
}

// Any new-message relayed into a chat room also shows up exactly once in
// the admin room.
func TestAdminRoomMirrorsChatMessages(t *testing.T) {
	hub := startHub(t)
	admin, adminSink := connect(hub)
	b, _ := connect(hub)
	hub.HandleInbound(admin, &Event{Name: EventJoinAdminRoom})
	hub.JoinRoom(b.ID, ChatRoom("c1"))

	hub.HandleInbound(b, &Event{Name: EventNewMessage, Payload: map[string]interface{}{
		"chatId":  "c1",
		"message": map[string]interface{}{"_id": "m7"},
	}})

	waitDelivered(t, adminSink, EventNewMessage, 1)
}

// A member who saw typing-start but no typing-stop still observes the
// typist's disconnect, so no stuck typing state remains.
func TestTypingClearedByDisconnectNotice(t *testing.T) {
	hub := startHub(t)
	typist, _ := connect(hub)
	watcher, watcherSink := connect(hub)
	hub.Authenticate(typist.ID, "u1")
	hub.JoinRoom(typist.ID, ChatRoom("c1"))
	hub.JoinRoom(watcher.ID, ChatRoom("c1"))

	hub.HandleInbound(typist, &Event{Name: EventTypingStart, Payload: map[string]interface{}{"chatId": "c1"}})
	waitDelivered(t, watcherSink, EventUserTyping, 1)

	hub.Disconnect(typist.ID)
	waitDelivered(t, watcherSink, EventUserDisconnect, 1)

	names := watcherSink.names()
	assert.Equal(t, []string{EventUserTyping, EventUserDisconnect}, names)
}

func TestInboundJoinChatRoomNotifiesOthersOnly(t *testing.T) {
	hub := startHub(t)
	first, firstSink := connect(hub)
	second, secondSink := connect(hub)
	hub.Authenticate(second.ID, "u2")

	hub.HandleInbound(first, &Event{Name: EventJoinChatRoom, Payload: map[string]interface{}{"chatId": "c1"}})
	hub.HandleInbound(second, &Event{Name: EventJoinChatRoom, Payload: map[string]interface{}{"chatId": "c1"}})

	waitDelivered(t, firstSink, EventUserJoinedRoom, 1)
	assert.Zero(t, secondSink.count(EventUserJoinedRoom), "joiner must not be told about its own join")
}

func TestMalformedInboundEventDropped(t *testing.T) {
	hub := startHub(t)
	s, sink := connect(hub)
	hub.JoinRoom(s.ID, ChatRoom("c1"))

	assert.NotPanics(t, func() {
		hub.HandleInbound(s, &Event{Name: EventTypingStart, Payload: map[string]interface{}{"bogus": true}})
		hub.HandleInbound(s, &Event{Name: "no-such-event"})
	})
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, sink.names())
}

func TestMembersOfUnknownRoomIsEmpty(t *testing.T) {
	hub := startHub(t)
	assert.Empty(t, hub.MembersOf("chat:never-seen"))
}

func TestShutdownStopsDispatch(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, hub.Shutdown(ctx))
}
