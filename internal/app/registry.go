package app

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/duetchat/duet/internal/core"
)

// Registry is the single source of truth for which live connection
// currently represents an identity. A second index keyed by connection
// id keeps disconnect resolution O(1).
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session // identity -> session
	handles  map[string]string        // conn id -> identity
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*core.Session),
		handles:  make(map[string]string),
	}
}

// Register upserts the session for an identity. A prior entry for the
// same identity is replaced; closing the replaced connection is the
// transport's business on its own disconnect path.
func (r *Registry) Register(sess *core.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.sessions[sess.Identity]; ok {
		delete(r.handles, old.Conn.ID())
	}
	r.sessions[sess.Identity] = sess
	r.handles[sess.Conn.ID()] = sess.Identity
	log.Info().Str("module", "app.registry").Str("identity", sess.Identity).Str("conn", sess.Conn.ID()).Bool("guest", sess.IsGuest).Msg("registered session")
}

// Lookup returns the live session for an identity. An expired guest
// session counts as gone and is evicted on the spot.
func (r *Registry) Lookup(identity string) (*core.Session, bool) {
	r.mu.RLock()
	sess, ok := r.sessions[identity]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if sess.Expired(time.Now()) {
		r.evictExpired(identity, sess)
		return nil, false
	}
	return sess, true
}

// evictExpired removes an expired session only if it is still the one
// registered for the identity. The expiry check happens outside the
// write lock, so the identity may have re-authenticated in between; a
// fresh session must never be deleted on behalf of a stale one.
func (r *Registry) evictExpired(identity string, expired *core.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.sessions[identity]
	if !ok || cur != expired {
		return
	}
	delete(r.sessions, identity)
	delete(r.handles, cur.Conn.ID())
	log.Info().Str("module", "app.registry").Str("identity", identity).Msg("evicted expired guest session")
}

// IdentityOf resolves a connection id back to its identity.
func (r *Registry) IdentityOf(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	identity, ok := r.handles[connID]
	return identity, ok
}

// Unregister removes the entry for an identity; no-op if absent.
func (r *Registry) Unregister(identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[identity]
	if !ok {
		return
	}
	delete(r.sessions, identity)
	delete(r.handles, sess.Conn.ID())
	log.Info().Str("module", "app.registry").Str("identity", identity).Msg("unregistered session")
}

// UnregisterConn removes whatever identity the connection represents.
// Used on the disconnect path, where only the handle is known. If the
// identity has since re-authenticated on a newer connection, the stale
// handle resolves to nothing and the live session is left alone.
func (r *Registry) UnregisterConn(connID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	identity, ok := r.handles[connID]
	if !ok {
		return "", false
	}
	delete(r.handles, connID)
	delete(r.sessions, identity)
	log.Info().Str("module", "app.registry").Str("identity", identity).Str("conn", connID).Msg("unregistered by conn")
	return identity, true
}

// Len reports how many sessions are registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
