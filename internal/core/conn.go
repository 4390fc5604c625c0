// Package core holds the contracts shared by the relay, the matchmaker
// and the transport adapter: the connection abstraction and the closed
// set of wire events.
package core

import "time"

// Conn abstracts one live client connection. Owned by the adapter; the
// adapter must Close() it. Send marshals and enqueues without blocking —
// a full outbound buffer drops the event rather than stalling the caller.
type Conn interface {
	ID() string
	Send(v any) error
	Close()
}

// Session binds an authenticated identity to its live connection.
// At most one Session per identity is registered at any instant.
type Session struct {
	Identity  string
	Username  string
	IsGuest   bool
	CanCall   bool
	ExpiresAt time.Time // zero for non-guests; guests expire by deadline
	Conn      Conn
}

// Expired reports whether a guest session's absolute deadline has passed.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
