package app

import (
	"context"
	"errors"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/duetchat/duet/internal/auth"
	"github.com/duetchat/duet/internal/core"
	"github.com/duetchat/duet/internal/domain"
	"github.com/duetchat/duet/internal/store"
)

// Relay enforces per-event authorization, applies persistence side
// effects for chat messages, and fans events out to the right live
// connections. It is the only place the guest gate is checked, so no
// signaling path can bypass it.
type Relay struct {
	registry     *Registry
	verifier     auth.Verifier
	store        store.Store
	matchmaker   *Matchmaker
	missedWindow time.Duration
}

func NewRelay(registry *Registry, verifier auth.Verifier, st store.Store, mm *Matchmaker, missedWindow time.Duration) *Relay {
	if missedWindow <= 0 {
		missedWindow = time.Hour
	}
	return &Relay{
		registry:     registry,
		verifier:     verifier,
		store:        st,
		matchmaker:   mm,
		missedWindow: missedWindow,
	}
}

// sessionOf resolves the session behind a connection. Events arriving
// on a connection with no session are uniformly ignored with a warn log;
// the protocol only defines client-visible errors for authenticate and
// message, and those paths report their own failures.
func (r *Relay) sessionOf(conn core.Conn) (*core.Session, bool) {
	identity, ok := r.registry.IdentityOf(conn.ID())
	if !ok {
		return nil, false
	}
	return r.registry.Lookup(identity)
}

// Authenticate verifies the bearer token, registers the session, then
// replays messages addressed to this identity within the trailing
// missed-message window, oldest first.
func (r *Relay) Authenticate(ctx context.Context, conn core.Conn, token string) {
	id, err := r.verifier.Verify(token)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.relay").Str("conn", conn.ID()).Msg("authentication failed")
		_ = conn.Send(core.NewAuthError("invalid or expired token"))
		return
	}

	sess := &core.Session{
		Identity:  id.UserID,
		Username:  id.Username,
		IsGuest:   id.IsGuest,
		CanCall:   id.CanCall,
		ExpiresAt: id.ExpiresAt,
		Conn:      conn,
	}
	r.registry.Register(sess)
	_ = conn.Send(core.NewAuthenticated(id.IsGuest, id.CanCall))

	since := time.Now().Add(-r.missedWindow)
	missed, err := r.store.FindMissedMessages(ctx, id.UserID, since)
	if err != nil {
		// Auth already succeeded; missed delivery is best-effort.
		log.Error().Err(err).Str("module", "app.relay").Str("identity", id.UserID).Msg("missed-message fetch failed")
		return
	}
	for _, msg := range missed {
		_ = conn.Send(core.NewMessageEvent(msg.ConversationID, msg.Sender, msg.Content, msg.CreatedAt))
	}
	if len(missed) > 0 {
		log.Info().Str("module", "app.relay").Str("identity", id.UserID).Int("count", len(missed)).Msg("delivered missed messages")
	}
}

// Typing forwards a typing notification to the recipient, if live.
func (r *Relay) Typing(conn core.Conn, recipientID string) {
	r.forwardTyping(conn, recipientID, true)
}

func (r *Relay) StopTyping(conn core.Conn, recipientID string) {
	r.forwardTyping(conn, recipientID, false)
}

func (r *Relay) forwardTyping(conn core.Conn, recipientID string, typing bool) {
	sess, ok := r.sessionOf(conn)
	if !ok {
		log.Warn().Str("module", "app.relay").Str("conn", conn.ID()).Msg("typing from unauthenticated connection, ignored")
		return
	}
	recipient, ok := r.registry.Lookup(recipientID)
	if !ok {
		return // routing miss, not an error
	}
	if typing {
		_ = recipient.Conn.Send(core.NewUserTyping(sess.Identity))
	} else {
		_ = recipient.Conn.Send(core.NewUserStopTyping(sess.Identity))
	}
}

// Message persists a chat message and fans it out. Attempt order is
// fixed: create message, update the conversation's last-message pointer,
// only then notify anyone. A failed write emits message_error to the
// sender and nothing to anyone else.
func (r *Relay) Message(ctx context.Context, conn core.Conn, conversationID, content, recipientUsername string) {
	sess, ok := r.sessionOf(conn)
	if !ok {
		log.Warn().Str("module", "app.relay").Str("conn", conn.ID()).Msg("message from unauthenticated connection, ignored")
		return
	}
	if sess.IsGuest {
		_ = conn.Send(core.NewMessageError(ErrGuestForbidden.Error()))
		return
	}

	conv, err := r.resolveConversation(ctx, sess.Identity, conversationID, recipientUsername)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.relay").Str("identity", sess.Identity).Msg("conversation resolution failed")
		_ = conn.Send(core.NewMessageError(messageErrorReason(err)))
		return
	}

	msg := &domain.Message{
		ConversationID: conv.ID,
		Sender:         sess.Identity,
		Recipient:      conv.Peer(sess.Identity),
		Content:        content,
		CreatedAt:      time.Now(),
	}
	if err := r.store.SaveMessage(ctx, msg); err != nil {
		log.Error().Err(err).Str("module", "app.relay").Str("conversation", conv.ID).Msg("message persist failed")
		_ = conn.Send(core.NewMessageError("message could not be saved"))
		return
	}
	if err := r.store.UpdateConversationLastMessage(ctx, conv.ID, msg.ID, msg.CreatedAt); err != nil {
		log.Error().Err(err).Str("module", "app.relay").Str("conversation", conv.ID).Msg("conversation update failed")
		_ = conn.Send(core.NewMessageError("message could not be saved"))
		return
	}

	for _, p := range conv.Participants {
		if p == sess.Identity {
			continue
		}
		if peer, live := r.registry.Lookup(p); live {
			_ = peer.Conn.Send(core.NewMessageEvent(conv.ID, sess.Identity, content, msg.CreatedAt))
		}
		// Not live: the stored recipient field covers redelivery on the
		// peer's next authentication.
	}
	_ = conn.Send(core.NewMessageSent(msg.ID, conv.ID, content, msg.CreatedAt))
}

// resolveConversation finds the target conversation, creating one when
// the id is absent and the recipient username resolves.
func (r *Relay) resolveConversation(ctx context.Context, sender, conversationID, recipientUsername string) (*domain.Conversation, error) {
	if conversationID != "" {
		conv, err := r.store.FindConversation(ctx, conversationID)
		if err != nil {
			return nil, err
		}
		if !conv.Has(sender) {
			return nil, ErrNotParticipant
		}
		return conv, nil
	}
	if recipientUsername == "" {
		return nil, ErrNoRecipient
	}
	recipient, err := r.store.FindUserByUsername(ctx, recipientUsername)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoRecipient
		}
		return nil, err
	}
	conv, err := r.store.FindConversationByParticipants(ctx, sender, recipient.ID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	conv = &domain.Conversation{
		Participants: [2]string{sender, recipient.ID},
		CreatedAt:    time.Now(),
	}
	if err := r.store.CreateConversation(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func messageErrorReason(err error) string {
	switch {
	case errors.Is(err, ErrGuestForbidden),
		errors.Is(err, ErrNoRecipient),
		errors.Is(err, ErrNotParticipant):
		return err.Error()
	case errors.Is(err, store.ErrNotFound):
		return "conversation not found"
	default:
		return "message could not be saved"
	}
}

// VideoCallOffer forwards an SDP offer verbatim with the sender's
// identity attached. Deliberately policy-free: call eligibility is the
// canCall flag enforced before a session is granted it.
func (r *Relay) VideoCallOffer(conn core.Conn, recipientID string, offer webrtc.SessionDescription) {
	sess, ok := r.sessionOf(conn)
	if !ok {
		log.Warn().Str("module", "app.relay").Str("conn", conn.ID()).Msg("video_call_offer from unauthenticated connection, ignored")
		return
	}
	if recipient, live := r.registry.Lookup(recipientID); live {
		_ = recipient.Conn.Send(core.NewVideoCallOffer(sess.Identity, offer))
	}
}

// VideoCallAnswer forwards an SDP answer to the caller. No sender
// session is required beyond the caller being registered.
func (r *Relay) VideoCallAnswer(conn core.Conn, callerID string, answer webrtc.SessionDescription) {
	if caller, live := r.registry.Lookup(callerID); live {
		_ = caller.Conn.Send(core.NewVideoCallAnswer(answer))
	}
}

// IceCandidate forwards an ICE candidate verbatim with the sender
// attached.
func (r *Relay) IceCandidate(conn core.Conn, recipientID string, candidate webrtc.ICECandidateInit) {
	sess, ok := r.sessionOf(conn)
	if !ok {
		log.Warn().Str("module", "app.relay").Str("conn", conn.ID()).Msg("ice_candidate from unauthenticated connection, ignored")
		return
	}
	if recipient, live := r.registry.Lookup(recipientID); live {
		_ = recipient.Conn.Send(core.NewIceCandidate(sess.Identity, candidate))
	}
}

// JoinCallQueue enqueues the session for anonymous matching. The user's
// own gender comes from the directory, the preference from the client.
func (r *Relay) JoinCallQueue(ctx context.Context, conn core.Conn, preference string) {
	sess, ok := r.sessionOf(conn)
	if !ok {
		log.Warn().Str("module", "app.relay").Str("conn", conn.ID()).Msg("joinCallQueue from unauthenticated connection, ignored")
		return
	}
	pref, err := domain.ParsePreference(preference)
	if err != nil {
		pref = domain.PreferAny
	}
	gender := domain.GenderOther
	if user, err := r.store.FindUserByID(ctx, sess.Identity); err == nil {
		gender = user.Gender
	}
	male, female, other := r.matchmaker.Join(domain.QueueEntry{
		Identity:   sess.Identity,
		IsGuest:    sess.IsGuest,
		ConnID:     conn.ID(),
		Gender:     gender,
		Preference: pref,
	})
	_ = conn.Send(core.NewQueueJoined(male, female, other))
}

// LeaveCallQueue removes the session from the queue.
func (r *Relay) LeaveCallQueue(conn core.Conn) {
	sess, ok := r.sessionOf(conn)
	if !ok {
		log.Warn().Str("module", "app.relay").Str("conn", conn.ID()).Msg("leaveCallQueue from unauthenticated connection, ignored")
		return
	}
	r.matchmaker.Leave(sess.Identity)
	_ = conn.Send(core.NewQueueLeft())
}

// CallEnded re-enqueues the session under its remembered profile.
func (r *Relay) CallEnded(conn core.Conn) {
	sess, ok := r.sessionOf(conn)
	if !ok {
		log.Warn().Str("module", "app.relay").Str("conn", conn.ID()).Msg("callEnded from unauthenticated connection, ignored")
		return
	}
	if male, female, other, ok := r.matchmaker.CallEnded(sess.Identity); ok {
		_ = conn.Send(core.NewQueueJoined(male, female, other))
	}
}

// Disconnect tears down whatever state the connection held: its session,
// its queue entry, and its matchmaking profile. Safe to call for
// connections that never authenticated.
func (r *Relay) Disconnect(connID string) {
	identity, ok := r.registry.UnregisterConn(connID)
	if !ok {
		return
	}
	r.matchmaker.Forget(identity)
	log.Info().Str("module", "app.relay").Str("identity", identity).Str("conn", connID).Msg("disconnected")
}
