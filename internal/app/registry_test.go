package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duetchat/duet/internal/core"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	conn := newFakeConn("c1")
	r.Register(&core.Session{Identity: "alice", Conn: conn})

	sess, ok := r.Lookup("alice")
	require.True(t, ok)
	assert.Equal(t, "c1", sess.Conn.ID())

	identity, ok := r.IdentityOf("c1")
	require.True(t, ok)
	assert.Equal(t, "alice", identity)
}

func TestRegistryHoldsOneSessionPerIdentity(t *testing.T) {
	r := NewRegistry()
	first := newFakeConn("c1")
	second := newFakeConn("c2")

	r.Register(&core.Session{Identity: "alice", Conn: first})
	r.Register(&core.Session{Identity: "alice", Conn: second})

	require.Equal(t, 1, r.Len())
	sess, ok := r.Lookup("alice")
	require.True(t, ok)
	assert.Equal(t, "c2", sess.Conn.ID())

	// The replaced connection's handle must not resolve anymore.
	_, ok = r.IdentityOf("c1")
	assert.False(t, ok)
}

func TestRegistryUnregisterIsIdempotent(t *testing.T) {
	r := NewRegistry()
	r.Register(&core.Session{Identity: "alice", Conn: newFakeConn("c1")})

	r.Unregister("alice")
	r.Unregister("alice")

	_, ok := r.Lookup("alice")
	assert.False(t, ok)
	_, ok = r.IdentityOf("c1")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestRegistryUnregisterConnResolvesIdentity(t *testing.T) {
	r := NewRegistry()
	r.Register(&core.Session{Identity: "bob", Conn: newFakeConn("c9")})

	identity, ok := r.UnregisterConn("c9")
	require.True(t, ok)
	assert.Equal(t, "bob", identity)

	_, ok = r.UnregisterConn("c9")
	assert.False(t, ok)
}

func TestRegistryStaleHandleDoesNotEvictNewSession(t *testing.T) {
	r := NewRegistry()
	r.Register(&core.Session{Identity: "alice", Conn: newFakeConn("old")})
	r.Register(&core.Session{Identity: "alice", Conn: newFakeConn("new")})

	// Disconnect of the replaced connection must leave the live session alone.
	_, ok := r.UnregisterConn("old")
	assert.False(t, ok)

	sess, ok := r.Lookup("alice")
	require.True(t, ok)
	assert.Equal(t, "new", sess.Conn.ID())
}

func TestRegistryExpiredGuestSessionIsGone(t *testing.T) {
	r := NewRegistry()
	r.Register(&core.Session{
		Identity:  "guest-1",
		IsGuest:   true,
		ExpiresAt: time.Now().Add(-time.Minute),
		Conn:      newFakeConn("c1"),
	})

	_, ok := r.Lookup("guest-1")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestRegistryStaleEvictionSparesFreshSession(t *testing.T) {
	r := NewRegistry()
	expired := &core.Session{
		Identity:  "guest-1",
		IsGuest:   true,
		ExpiresAt: time.Now().Add(-time.Minute),
		Conn:      newFakeConn("old"),
	}
	r.Register(expired)

	// The identity re-authenticates before the expired session's
	// eviction lands; the fresh session must survive it.
	r.Register(&core.Session{
		Identity:  "guest-1",
		IsGuest:   true,
		ExpiresAt: time.Now().Add(time.Hour),
		Conn:      newFakeConn("new"),
	})
	r.evictExpired("guest-1", expired)

	sess, ok := r.Lookup("guest-1")
	require.True(t, ok)
	assert.Equal(t, "new", sess.Conn.ID())
}

func TestRegistryGuestSessionBeforeDeadlineIsLive(t *testing.T) {
	r := NewRegistry()
	r.Register(&core.Session{
		Identity:  "guest-1",
		IsGuest:   true,
		ExpiresAt: time.Now().Add(time.Hour),
		Conn:      newFakeConn("c1"),
	})

	_, ok := r.Lookup("guest-1")
	assert.True(t, ok)
}
