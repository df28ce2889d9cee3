package realtime

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelayLogFirstSeenOnly(t *testing.T) {
	rl := newRelayLog()

	assert.True(t, rl.ShouldRelay("m1"))
	assert.False(t, rl.ShouldRelay("m1"))
	assert.False(t, rl.ShouldRelay("m1"))
	assert.True(t, rl.ShouldRelay("m2"))
}

func TestRelayLogEmptyIDAlwaysRelays(t *testing.T) {
	rl := newRelayLog()
	assert.True(t, rl.ShouldRelay(""))
	assert.True(t, rl.ShouldRelay(""))
	assert.Zero(t, rl.Len())
}

func TestRelayLogEviction(t *testing.T) {
	rl := newRelayLog()

	last := ""
	for i := 0; i <= relayCap; i++ {
		last = fmt.Sprintf("m%d", i)
		assert.True(t, rl.ShouldRelay(last))
	}

	// Cap exceeded once: the set shrank to roughly half, biased toward
	// the most recent entries.
	assert.LessOrEqual(t, rl.Len(), 600)
	assert.False(t, rl.ShouldRelay(last), "newest id must survive eviction")

	// The oldest ids were discarded and may be relayed again.
	assert.True(t, rl.ShouldRelay("m0"))
}

func TestRelayLogEvictionKeepsWorking(t *testing.T) {
	rl := newRelayLog()

	for i := 0; i < relayCap*5; i++ {
		rl.ShouldRelay(fmt.Sprintf("m%d", i))
	}
	assert.LessOrEqual(t, rl.Len(), relayCap)
	assert.False(t, rl.ShouldRelay(fmt.Sprintf("m%d", relayCap*5-1)))
}
