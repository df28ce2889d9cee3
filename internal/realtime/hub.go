// Package realtime implements the event fan-out layer that keeps chat
// state, presence, typing indicators, and moderation notices synchronized
// across connected clients. REST handlers feed it through the Notifier;
// clients feed it through their socket connection.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ripple-app/backend/internal/logger"
	"go.uber.org/zap"
)

// Hub is the event router. Session and room state are guarded by mu so
// REST-side queries are safe, while all fan-out flows through a single
// dispatch goroutine: events emitted to the same room in call order are
// delivered to every member in that order. No cross-room guarantee.
type Hub struct {
	mu       sync.RWMutex
	registry *SessionRegistry
	rooms    *RoomIndex
	handlers map[string]EventHandler

	dispatch chan delivery

	metrics *Metrics

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	rateLimitConfig RateLimitConfig
}

// EventHandler processes one inbound event from a session.
type EventHandler func(s *Session, ev *Event) error

type deliveryScope int

const (
	scopeRoom deliveryScope = iota
	scopeRoomExcept
	scopeGlobal
)

type delivery struct {
	scope  deliveryScope
	roomID string
	except string
	event  *Event
}

// Metrics tracks fan-out statistics.
type Metrics struct {
	TotalConnections  atomic.Int64
	ActiveConnections atomic.Int64
	EventsReceived    atomic.Int64
	EventsDelivered   atomic.Int64
	EventsDropped     atomic.Int64
	DuplicatesCulled  atomic.Int64
}

// MetricsSnapshot is a point-in-time copy of the hub metrics.
type MetricsSnapshot struct {
	TotalConnections  int64 `json:"total_connections"`
	ActiveConnections int64 `json:"active_connections"`
	EventsReceived    int64 `json:"events_received"`
	EventsDelivered   int64 `json:"events_delivered"`
	EventsDropped     int64 `json:"events_dropped"`
	DuplicatesCulled  int64 `json:"duplicates_culled"`
}

func (m MetricsSnapshot) String() string {
	return fmt.Sprintf("connections=%d/%d events=rx:%d/tx:%d dropped=%d dup=%d",
		m.ActiveConnections, m.TotalConnections,
		m.EventsReceived, m.EventsDelivered,
		m.EventsDropped, m.DuplicatesCulled)
}

// RateLimitConfig bounds inbound event rates per client connection.
type RateLimitConfig struct {
	MaxEventsPerSecond int
	BurstSize          int
}

// DefaultRateLimitConfig returns sensible defaults.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{MaxEventsPerSecond: 20, BurstSize: 40}
}

const dispatchBuffer = 512

// NewHub creates a hub. Call Run in a goroutine to start dispatch.
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		registry:        NewSessionRegistry(),
		rooms:           NewRoomIndex(),
		handlers:        make(map[string]EventHandler),
		dispatch:        make(chan delivery, dispatchBuffer),
		metrics:         &Metrics{},
		ctx:             ctx,
		cancel:          cancel,
		done:            make(chan struct{}),
		rateLimitConfig: DefaultRateLimitConfig(),
	}
}

// Run consumes the dispatch queue until Shutdown. Exactly one Run loop per
// hub; it is what serializes delivery order.
func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.drainAndClose()
			return
		case d := <-h.dispatch:
			h.deliver(d)
		}
	}
}

// Shutdown stops the dispatch loop and waits for it to finish.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.cancel()
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("hub shutdown: %w", ctx.Err())
	}
}

// Connect allocates a session for a freshly accepted transport connection.
func (h *Hub) Connect(sink Sink) *Session {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.registry.Connect(sink)
	h.metrics.TotalConnections.Add(1)
	h.metrics.ActiveConnections.Add(1)
	logger.Log.Debug("session connected", zap.String("session", s.ID))
	return s
}

// Authenticate binds a user identity to a session and auto-joins the
// user's personal room. Rebinding to a different user leaves the previous
// personal room first. Unknown sessions are a no-op.
func (h *Hub) Authenticate(sessionID, userID string) {
	if userID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.registry.Get(sessionID)
	if s == nil {
		return
	}
	if s.UserID == userID {
		return // idempotent re-auth
	}
	if s.UserID != "" {
		h.rooms.Leave(sessionID, UserRoom(s.UserID))
	}
	h.registry.Authenticate(sessionID, userID)
	h.rooms.Join(sessionID, UserRoom(userID))
	logger.Log.Info("session authenticated",
		zap.String("session", sessionID),
		zap.String("user", userID))
}

// Disconnect tears a session down: it is removed from every room, its
// dedup state is discarded, and if an identity was bound a best-effort
// offline notice is broadcast globally. Idempotent; unknown ids no-op.
func (h *Hub) Disconnect(sessionID string) {
	h.mu.Lock()
	s := h.registry.Remove(sessionID)
	if s == nil {
		h.mu.Unlock()
		return
	}
	h.rooms.Purge(sessionID)
	h.metrics.ActiveConnections.Add(-1)
	h.mu.Unlock()

	logger.Log.Debug("session disconnected",
		zap.String("session", sessionID),
		zap.String("user", s.UserID))

	if s.Authenticated() {
		h.EmitGlobal(EventUserDisconnect, DisconnectPayload{
			UserID: s.UserID,
			Status: "offline",
		})
	}
}

// JoinRoom subscribes a session to a room. Unknown sessions are a no-op
// (the session may have disconnected in a race).
func (h *Hub) JoinRoom(sessionID, roomID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.registry.Get(sessionID) == nil {
		return false
	}
	h.rooms.Join(sessionID, roomID)
	return true
}

// LeaveRoom unsubscribes a session from a room.
func (h *Hub) LeaveRoom(sessionID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rooms.Leave(sessionID, roomID)
}

// MembersOf returns the session ids currently subscribed to a room.
func (h *Hub) MembersOf(roomID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms.Members(roomID)
}

// InRoom reports whether a session is subscribed to a room.
func (h *Hub) InRoom(sessionID, roomID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms.Contains(sessionID, roomID)
}

// IsUserOnline reports whether any session is bound to the user.
func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.registry.userSessions(userID)) > 0
}

// OnlineUsers returns the ids of all users with at least one session.
func (h *Hub) OnlineUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[string]struct{})
	h.registry.each(func(s *Session) {
		if s.UserID != "" {
			seen[s.UserID] = struct{}{}
		}
	})
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	return out
}

// ShouldRelay consults the session's dedup guard for a message id. The
// first call for an id returns true; repeats return false until evicted.
// Unknown sessions report false: nothing should be relayed for them.
func (h *Hub) ShouldRelay(sessionID, messageID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.registry.Get(sessionID)
	if s == nil {
		return false
	}
	ok := s.relayed.ShouldRelay(messageID)
	if !ok {
		h.metrics.DuplicatesCulled.Add(1)
	}
	return ok
}

// EmitToRoom queues an event for every member of a room, best-effort.
func (h *Hub) EmitToRoom(roomID, name string, payload interface{}) {
	h.enqueue(delivery{scope: scopeRoom, roomID: roomID, event: NewEvent(name, payload)})
}

// EmitToRoomExcept is EmitToRoom minus one session, so a sender is never
// echoed the event it just produced.
func (h *Hub) EmitToRoomExcept(roomID, name string, payload interface{}, exceptSessionID string) {
	h.enqueue(delivery{scope: scopeRoomExcept, roomID: roomID, except: exceptSessionID, event: NewEvent(name, payload)})
}

// EmitGlobal queues an event for every connected session regardless of
// room membership. Broadcast-storm risk accepted for a small user base.
func (h *Hub) EmitGlobal(name string, payload interface{}) {
	h.enqueue(delivery{scope: scopeGlobal, event: NewEvent(name, payload)})
}

// EmitToUser targets the user's personal room.
func (h *Hub) EmitToUser(userID, name string, payload interface{}) {
	h.EmitToRoom(UserRoom(userID), name, payload)
}

func (h *Hub) enqueue(d delivery) {
	select {
	case h.dispatch <- d:
	case <-h.ctx.Done():
	default:
		// Queue full: delivery is best-effort, not a correctness path.
		h.metrics.EventsDropped.Add(1)
		logger.Log.Warn("dispatch queue full, dropping event",
			zap.String("event", d.event.Name),
			zap.String("room", d.roomID))
	}
}

// deliver fans one event out to its resolved targets. A send failure to
// one session never blocks delivery to the rest; the failing session is
// scheduled for teardown.
func (h *Hub) deliver(d delivery) {
	data, err := json.Marshal(d.event)
	if err != nil {
		logger.Log.Error("marshal outbound event", zap.String("event", d.event.Name), zap.Error(err))
		return
	}

	h.mu.RLock()
	var targets []*Session
	switch d.scope {
	case scopeGlobal:
		h.registry.each(func(s *Session) {
			targets = append(targets, s)
		})
	default:
		for _, sid := range h.rooms.Members(d.roomID) {
			if d.scope == scopeRoomExcept && sid == d.except {
				continue
			}
			if s := h.registry.Get(sid); s != nil {
				targets = append(targets, s)
			}
		}
	}
	h.mu.RUnlock()

	// A delivered chat message counts as seen for every recipient, so a
	// client echoing the id back over the socket is not relayed again.
	if id := deliveredMessageID(d.event); id != "" {
		h.mu.Lock()
		for _, s := range targets {
			s.relayed.Record(id)
		}
		h.mu.Unlock()
	}

	for _, s := range targets {
		if s.sink == nil {
			continue
		}
		if s.sink.TrySend(data) {
			h.metrics.EventsDelivered.Add(1)
		} else {
			h.metrics.EventsDropped.Add(1)
			go h.Disconnect(s.ID)
		}
	}
}

// deliveredMessageID extracts the dedup key from an outbound new-message
// event. Events with other names or untyped payloads carry none.
func deliveredMessageID(ev *Event) string {
	if ev.Name != EventNewMessage {
		return ""
	}
	switch p := ev.Payload.(type) {
	case ChatMessagePayload:
		return p.MessageID()
	case *ChatMessagePayload:
		return p.MessageID()
	}
	return ""
}

// drainAndClose flushes queued deliveries and drops remaining sessions.
func (h *Hub) drainAndClose() {
	for {
		select {
		case d := <-h.dispatch:
			h.deliver(d)
		default:
			h.mu.Lock()
			h.registry = NewSessionRegistry()
			h.rooms = NewRoomIndex()
			h.mu.Unlock()
			return
		}
	}
}

// RegisterHandler registers a handler for an inbound event name.
func (h *Hub) RegisterHandler(name string, handler EventHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[name] = handler
}

// GetHandler returns the handler for an event name.
func (h *Hub) GetHandler(name string) (EventHandler, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	handler, ok := h.handlers[name]
	return handler, ok
}

// HandleInbound routes one client event to its registered handler.
// Malformed or unknown events are dropped: the socket protocol has no
// response channel for validation errors.
func (h *Hub) HandleInbound(s *Session, ev *Event) {
	h.metrics.EventsReceived.Add(1)

	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	handler, ok := h.GetHandler(ev.Name)
	if !ok {
		logger.Log.Warn("unknown inbound event",
			zap.String("session", s.ID),
			zap.String("event", ev.Name))
		return
	}
	if err := handler(s, ev); err != nil {
		logger.Log.Warn("dropping malformed inbound event",
			zap.String("session", s.ID),
			zap.String("event", ev.Name),
			zap.Error(err))
	}
}

// GetMetrics returns a snapshot of the hub metrics.
func (h *Hub) GetMetrics() MetricsSnapshot {
	return MetricsSnapshot{
		TotalConnections:  h.metrics.TotalConnections.Load(),
		ActiveConnections: h.metrics.ActiveConnections.Load(),
		EventsReceived:    h.metrics.EventsReceived.Load(),
		EventsDelivered:   h.metrics.EventsDelivered.Load(),
		EventsDropped:     h.metrics.EventsDropped.Load(),
		DuplicatesCulled:  h.metrics.DuplicatesCulled.Load(),
	}
}

// SetRateLimitConfig updates the per-connection rate limit parameters.
func (h *Hub) SetRateLimitConfig(config RateLimitConfig) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rateLimitConfig = config
}

// GetRateLimitConfig returns the current rate limit parameters.
func (h *Hub) GetRateLimitConfig() RateLimitConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rateLimitConfig
}
