package domain

import "time"

// Conversation is a two-party thread. The gateway only ever appends to it:
// a new message is saved, then the last-message pointer is bumped.
type Conversation struct {
	ID            string    `json:"id" bson:"_id"`
	Participants  [2]string `json:"participants" bson:"participants"`
	LastMessageID string    `json:"lastMessageId,omitempty" bson:"last_message_id,omitempty"`
	LastMessageAt time.Time `json:"lastMessageAt,omitempty" bson:"last_message_at,omitempty"`
	CreatedAt     time.Time `json:"createdAt" bson:"created_at"`
}

// Has reports whether id is one of the two participants.
func (c *Conversation) Has(id string) bool {
	return c.Participants[0] == id || c.Participants[1] == id
}

// Peer returns the other participant.
func (c *Conversation) Peer(id string) string {
	if c.Participants[0] == id {
		return c.Participants[1]
	}
	return c.Participants[0]
}

type Message struct {
	ID             string    `json:"id" bson:"_id"`
	ConversationID string    `json:"conversationId" bson:"conversation_id"`
	Sender         string    `json:"senderId" bson:"sender"`
	Recipient      string    `json:"recipientId" bson:"recipient"`
	Content        string    `json:"content" bson:"content"`
	CreatedAt      time.Time `json:"timestamp" bson:"created_at"`
}
