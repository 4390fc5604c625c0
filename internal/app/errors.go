package app

import "errors"

// Authorization and routing failures the relay translates to
// client-visible *_error events. Collaborator failures (store, verifier)
// carry their own errors and are wrapped, never surfaced raw.
var (
	ErrGuestForbidden = errors.New("guest accounts cannot send messages")
	ErrNoRecipient    = errors.New("recipient could not be resolved")
	ErrNotParticipant = errors.New("sender is not a participant of the conversation")
)
