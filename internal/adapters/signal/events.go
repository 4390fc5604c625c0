package signal

import "github.com/pion/webrtc/v4"

// Inbound payloads. Each carries the envelope type plus its own fields;
// the dispatcher unmarshals the full frame into the matching struct.

type authenticatePayload struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

type joinQueuePayload struct {
	Type             string `json:"type"`
	GenderPreference string `json:"genderPreference"`
}

type typingPayload struct {
	Type        string `json:"type"`
	RecipientID string `json:"recipientId"`
}

type messagePayload struct {
	Type              string `json:"type"`
	ConversationID    string `json:"conversationId"`
	Content           string `json:"content"`
	RecipientUsername string `json:"recipientUsername,omitempty"`
}

type offerPayload struct {
	Type        string                    `json:"type"`
	RecipientID string                    `json:"recipientId"`
	Offer       webrtc.SessionDescription `json:"offer"`
}

type answerPayload struct {
	Type     string                    `json:"type"`
	CallerID string                    `json:"callerId"`
	Answer   webrtc.SessionDescription `json:"answer"`
}

type candidatePayload struct {
	Type        string                  `json:"type"`
	RecipientID string                  `json:"recipientId"`
	Candidate   webrtc.ICECandidateInit `json:"candidate"`
}
