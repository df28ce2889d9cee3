package realtime

import (
	"time"

	"github.com/google/uuid"
)

// Sink is the transport half of a session. TrySend must not block: it
// reports whether the payload was accepted, and a full buffer or closed
// connection returns false.
type Sink interface {
	TrySend(data []byte) bool
}

// Session is the transient state of one live connection: an id, an
// optional authenticated identity, and the dedup log for relayed messages.
// Room membership lives in the RoomIndex, not here.
type Session struct {
	ID          string
	UserID      string // empty until the client authenticates
	ConnectedAt time.Time
	RemoteAddr  string
	UserAgent   string

	sink    Sink
	relayed *relayLog
}

// Authenticated reports whether an identity has been bound.
func (s *Session) Authenticated() bool {
	return s.UserID != ""
}

// SessionRegistry owns session lifetime: create on connect, destroy on
// disconnect. Like RoomIndex it is lock-free; the Hub serializes access.
type SessionRegistry struct {
	sessions map[string]*Session
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*Session)}
}

// Connect allocates a new unauthenticated session bound to a transport sink.
func (sr *SessionRegistry) Connect(sink Sink) *Session {
	s := &Session{
		ID:          uuid.NewString(),
		ConnectedAt: time.Now().UTC(),
		sink:        sink,
		relayed:     newRelayLog(),
	}
	sr.sessions[s.ID] = s
	return s
}

// Get returns the session for an id, or nil if it already disconnected.
func (sr *SessionRegistry) Get(sessionID string) *Session {
	return sr.sessions[sessionID]
}

// Authenticate binds a user identity. Re-authenticating with the same user
// is a no-op; a different user rebinds (last write wins). Returns the
// session, or nil for unknown ids.
func (sr *SessionRegistry) Authenticate(sessionID, userID string) *Session {
	s := sr.sessions[sessionID]
	if s == nil {
		return nil
	}
	s.UserID = userID
	return s
}

// Remove deletes a session. Safe to call twice; the second call is a no-op.
func (sr *SessionRegistry) Remove(sessionID string) *Session {
	s := sr.sessions[sessionID]
	if s != nil {
		delete(sr.sessions, sessionID)
	}
	return s
}

// Len returns the number of live sessions.
func (sr *SessionRegistry) Len() int {
	return len(sr.sessions)
}

// each visits every live session.
func (sr *SessionRegistry) each(fn func(*Session)) {
	for _, s := range sr.sessions {
		fn(s)
	}
}

// userSessions returns all sessions bound to a user id.
func (sr *SessionRegistry) userSessions(userID string) []*Session {
	var out []*Session
	for _, s := range sr.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out
}
