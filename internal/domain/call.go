package domain

// QueueEntry is a waiting identity's matchmaking attributes. It lives in
// exactly one partition at a time, keyed by its own Gender.
type QueueEntry struct {
	Identity   string
	IsGuest    bool
	ConnID     string
	Gender     Gender
	Preference Preference
}

// Match is an ephemeral pairing. Room must be unique across concurrently
// active rooms; the initiator side opens the WebRTC offer.
type Match struct {
	Room      string
	Initiator QueueEntry
	Responder QueueEntry
}
