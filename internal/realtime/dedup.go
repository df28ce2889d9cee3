package realtime

// relayCap bounds the per-session set of relayed message ids. When the cap
// is exceeded the oldest half is discarded, keeping maintenance O(1)
// amortized at the cost of approximate recency.
const relayCap = 1000

// relayLog tracks message ids already relayed for one session so that a
// message echoed back by the client is not broadcast a second time. State
// is discarded with the session.
type relayLog struct {
	seen  map[string]struct{}
	order []string
}

func newRelayLog() *relayLog {
	return &relayLog{seen: make(map[string]struct{})}
}

// ShouldRelay reports whether the id has not been seen before, recording
// it as seen. Only the first call for a given id returns true.
func (rl *relayLog) ShouldRelay(messageID string) bool {
	if messageID == "" {
		// No id to key on; relay and let downstream consumers cope.
		return true
	}
	if _, ok := rl.seen[messageID]; ok {
		return false
	}
	rl.seen[messageID] = struct{}{}
	rl.order = append(rl.order, messageID)

	if len(rl.order) > relayCap {
		rl.evictOldest()
	}
	return true
}

// Record marks an id as seen without consulting the verdict. Used when a
// message is delivered to a session, so a later client echo of the same
// id is suppressed.
func (rl *relayLog) Record(messageID string) {
	rl.ShouldRelay(messageID)
}

// evictOldest drops the older half of the tracked ids. Entries in order
// may already have been superseded; that is fine, the guarantee is only
// that the set shrinks and the newest ids survive.
func (rl *relayLog) evictOldest() {
	half := len(rl.order) / 2
	for _, id := range rl.order[:half] {
		delete(rl.seen, id)
	}
	rl.order = append(rl.order[:0], rl.order[half:]...)
}

// Len returns the number of currently tracked ids.
func (rl *relayLog) Len() int {
	return len(rl.seen)
}
