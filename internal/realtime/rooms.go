package realtime

// RoomIndex maps room ids to the set of subscribed session ids. Rooms have
// no storage of their own: a room with zero members is absent from the map.
//
// The index is a plain data structure with no locking. The Hub owns it and
// serializes access; keeping it lock-free here makes membership testable
// without a live transport.
type RoomIndex struct {
	rooms map[string]map[string]struct{}

	// reverse index so purging a session is one pass, not a scan
	sessions map[string]map[string]struct{}
}

// NewRoomIndex creates an empty membership index.
func NewRoomIndex() *RoomIndex {
	return &RoomIndex{
		rooms:    make(map[string]map[string]struct{}),
		sessions: make(map[string]map[string]struct{}),
	}
}

// Join adds a session to a room. Re-joining is a no-op.
func (ri *RoomIndex) Join(sessionID, roomID string) {
	if ri.rooms[roomID] == nil {
		ri.rooms[roomID] = make(map[string]struct{})
	}
	ri.rooms[roomID][sessionID] = struct{}{}

	if ri.sessions[sessionID] == nil {
		ri.sessions[sessionID] = make(map[string]struct{})
	}
	ri.sessions[sessionID][roomID] = struct{}{}
}

// Leave removes a session from a room. Empty rooms are pruned.
func (ri *RoomIndex) Leave(sessionID, roomID string) {
	if members, ok := ri.rooms[roomID]; ok {
		delete(members, sessionID)
		if len(members) == 0 {
			delete(ri.rooms, roomID)
		}
	}
	if rooms, ok := ri.sessions[sessionID]; ok {
		delete(rooms, roomID)
		if len(rooms) == 0 {
			delete(ri.sessions, sessionID)
		}
	}
}

// Members returns the session ids subscribed to a room. Unknown rooms
// yield an empty slice, never an error.
func (ri *RoomIndex) Members(roomID string) []string {
	members := ri.rooms[roomID]
	out := make([]string, 0, len(members))
	for id := range members {
		out = append(out, id)
	}
	return out
}

// Contains reports whether a session is subscribed to a room.
func (ri *RoomIndex) Contains(sessionID, roomID string) bool {
	_, ok := ri.rooms[roomID][sessionID]
	return ok
}

// Rooms returns the rooms a session currently belongs to.
func (ri *RoomIndex) Rooms(sessionID string) []string {
	rooms := ri.sessions[sessionID]
	out := make([]string, 0, len(rooms))
	for id := range rooms {
		out = append(out, id)
	}
	return out
}

// Purge removes a session from every room in one pass. Called by session
// teardown; afterwards the session id appears in no member set.
func (ri *RoomIndex) Purge(sessionID string) {
	for roomID := range ri.sessions[sessionID] {
		if members, ok := ri.rooms[roomID]; ok {
			delete(members, sessionID)
			if len(members) == 0 {
				delete(ri.rooms, roomID)
			}
		}
	}
	delete(ri.sessions, sessionID)
}

// MemberCount returns the number of sessions in a room.
func (ri *RoomIndex) MemberCount(roomID string) int {
	return len(ri.rooms[roomID])
}
