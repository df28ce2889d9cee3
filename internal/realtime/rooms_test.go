package realtime

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomIndexJoinLeave(t *testing.T) {
	ri := NewRoomIndex()

	ri.Join("s1", "chat:c1")
	assert.True(t, ri.Contains("s1", "chat:c1"))
	assert.Equal(t, []string{"s1"}, ri.Members("chat:c1"))

	ri.Leave("s1", "chat:c1")
	assert.False(t, ri.Contains("s1", "chat:c1"))
	assert.Empty(t, ri.Members("chat:c1"))
}

func TestRoomIndexJoinIdempotent(t *testing.T) {
	ri := NewRoomIndex()
	ri.Join("s1", "chat:c1")
	ri.Join("s1", "chat:c1")
	assert.Equal(t, 1, ri.MemberCount("chat:c1"))
}

func TestRoomIndexJoinsAreIndependent(t *testing.T) {
	ri := NewRoomIndex()
	ri.Join("s1", "chat:a")
	ri.Join("s1", "chat:b")
	ri.Join("s2", "chat:b")

	ri.Leave("s1", "chat:a")
	assert.False(t, ri.Contains("s1", "chat:a"))
	assert.True(t, ri.Contains("s1", "chat:b"))
	assert.True(t, ri.Contains("s2", "chat:b"))
}

func TestRoomIndexUnknownRoom(t *testing.T) {
	ri := NewRoomIndex()
	assert.NotNil(t, ri.Members("nope"))
	assert.Empty(t, ri.Members("nope"))
	assert.NotPanics(t, func() { ri.Leave("s1", "nope") })
}

func TestRoomIndexPurgeCompleteness(t *testing.T) {
	ri := NewRoomIndex()
	for i := 0; i < 10; i++ {
		ri.Join("s1", fmt.Sprintf("chat:%d", i))
		ri.Join("s2", fmt.Sprintf("chat:%d", i))
	}

	ri.Purge("s1")

	for i := 0; i < 10; i++ {
		room := fmt.Sprintf("chat:%d", i)
		assert.NotContains(t, ri.Members(room), "s1")
		assert.Contains(t, ri.Members(room), "s2")
	}
	assert.Empty(t, ri.Rooms("s1"))
}

func TestRoomIndexEmptyRoomsPruned(t *testing.T) {
	ri := NewRoomIndex()
	ri.Join("s1", "chat:c1")
	ri.Purge("s1")
	assert.Zero(t, ri.MemberCount("chat:c1"))
	assert.Empty(t, ri.rooms, "empty rooms should not linger as keys")
}
