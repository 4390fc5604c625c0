package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duetchat/duet/internal/core"
	"github.com/duetchat/duet/internal/domain"
)

func newMatchmakerFixture(t *testing.T) (*Matchmaker, *Registry) {
	t.Helper()
	registry := NewRegistry()
	return NewMatchmaker(NewQueue(), registry, 600*time.Millisecond), registry
}

func TestTickDeliversCallMatchedToBothSides(t *testing.T) {
	mm, registry := newMatchmakerFixture(t)

	aConn := newFakeConn("ca")
	bConn := newFakeConn("cb")
	registry.Register(&core.Session{Identity: "a", Conn: aConn})
	registry.Register(&core.Session{Identity: "b", Conn: bConn})

	mm.Join(domain.QueueEntry{Identity: "a", ConnID: "ca", Gender: domain.GenderFemale, Preference: domain.PreferAny})
	mm.Join(domain.QueueEntry{Identity: "b", ConnID: "cb", Gender: domain.GenderMale, Preference: domain.PreferFemale})

	match, ok := mm.Tick()
	require.True(t, ok)
	assert.NotEmpty(t, match.Room)
	assert.NotEqual(t, match.Initiator.Identity, match.Responder.Identity)

	aEv, okA := aConn.lastEvent().(core.CallMatched)
	bEv, okB := bConn.lastEvent().(core.CallMatched)
	require.True(t, okA)
	require.True(t, okB)
	assert.Equal(t, match.Room, aEv.Room)
	assert.Equal(t, match.Room, bEv.Room)
	// Exactly one side initiates.
	assert.NotEqual(t, aEv.IsInitiator, bEv.IsInitiator)

	_, ok = mm.Tick()
	assert.False(t, ok)
}

func TestTickRoomIDsAreUniqueAcrossTicks(t *testing.T) {
	mm, registry := newMatchmakerFixture(t)
	rooms := make(map[string]bool)

	for i := 0; i < 10; i++ {
		aConn := newFakeConn("ca")
		bConn := newFakeConn("cb")
		registry.Register(&core.Session{Identity: "a", Conn: aConn})
		registry.Register(&core.Session{Identity: "b", Conn: bConn})
		mm.Join(domain.QueueEntry{Identity: "a", Gender: domain.GenderFemale, Preference: domain.PreferAny})
		mm.Join(domain.QueueEntry{Identity: "b", Gender: domain.GenderMale, Preference: domain.PreferAny})

		match, ok := mm.Tick()
		require.True(t, ok)
		assert.False(t, rooms[match.Room])
		rooms[match.Room] = true
	}
}

func TestTickDropsDeliveryForDisconnectedSide(t *testing.T) {
	mm, registry := newMatchmakerFixture(t)

	bConn := newFakeConn("cb")
	registry.Register(&core.Session{Identity: "b", Conn: bConn})
	// a matched but never registered a live connection.

	mm.Join(domain.QueueEntry{Identity: "a", Gender: domain.GenderFemale, Preference: domain.PreferAny})
	mm.Join(domain.QueueEntry{Identity: "b", Gender: domain.GenderMale, Preference: domain.PreferAny})

	match, ok := mm.Tick()
	require.True(t, ok)

	ev, isMatched := bConn.lastEvent().(core.CallMatched)
	require.True(t, isMatched)
	assert.Equal(t, match.Room, ev.Room)

	// The dropped side is not re-enqueued automatically.
	male, female, other := mm.queue.Counts()
	assert.Equal(t, 0, male+female+other)
}

func TestCallEndedReenqueuesRememberedProfile(t *testing.T) {
	mm, _ := newMatchmakerFixture(t)

	mm.Join(domain.QueueEntry{Identity: "a", Gender: domain.GenderOther, Preference: domain.PreferAny})
	require.True(t, mm.Leave("a"))

	_, _, other, ok := mm.CallEnded("a")
	require.True(t, ok)
	assert.Equal(t, 1, other)
}

func TestCallEndedWithoutProfileIsNoop(t *testing.T) {
	mm, _ := newMatchmakerFixture(t)
	_, _, _, ok := mm.CallEnded("stranger")
	assert.False(t, ok)
}

func TestJoinTwiceHoldsSingleQueueSlot(t *testing.T) {
	mm, _ := newMatchmakerFixture(t)

	mm.Join(domain.QueueEntry{Identity: "a", Gender: domain.GenderFemale, Preference: domain.PreferAny})
	mm.Join(domain.QueueEntry{Identity: "a", Gender: domain.GenderFemale, Preference: domain.PreferMale})

	_, female, _ := mm.queue.Counts()
	require.Equal(t, 1, female)

	// Disconnect cleanup must leave nothing behind, even after the
	// double join.
	mm.Forget("a")
	male, female, other := mm.queue.Counts()
	assert.Equal(t, 0, male+female+other)
}

func TestJoinTwiceThenForgetLeavesNoMatchableGhost(t *testing.T) {
	mm, registry := newMatchmakerFixture(t)

	mm.Join(domain.QueueEntry{Identity: "a", Gender: domain.GenderFemale, Preference: domain.PreferAny})
	mm.Join(domain.QueueEntry{Identity: "a", Gender: domain.GenderFemale, Preference: domain.PreferAny})
	mm.Forget("a")

	bConn := newFakeConn("cb")
	registry.Register(&core.Session{Identity: "b", Conn: bConn})
	mm.Join(domain.QueueEntry{Identity: "b", Gender: domain.GenderMale, Preference: domain.PreferAny})

	// b must not be consumed by a leftover entry of the departed a.
	_, ok := mm.Tick()
	assert.False(t, ok)
	male, _, _ := mm.queue.Counts()
	assert.Equal(t, 1, male)
}

func TestCallEndedDoesNotDuplicateQueueSlot(t *testing.T) {
	mm, _ := newMatchmakerFixture(t)

	mm.Join(domain.QueueEntry{Identity: "a", Gender: domain.GenderOther, Preference: domain.PreferAny})
	// callEnded while still queued keeps a single slot.
	_, _, other, ok := mm.CallEnded("a")
	require.True(t, ok)
	assert.Equal(t, 1, other)
}

func TestForgetClearsQueueAndProfile(t *testing.T) {
	mm, _ := newMatchmakerFixture(t)

	mm.Join(domain.QueueEntry{Identity: "a", Gender: domain.GenderMale, Preference: domain.PreferAny})
	mm.Forget("a")

	male, _, _ := mm.queue.Counts()
	assert.Equal(t, 0, male)

	_, _, _, ok := mm.CallEnded("a")
	assert.False(t, ok)
}
