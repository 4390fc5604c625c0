package core

import (
	"time"

	"github.com/pion/webrtc/v4"
)

// Inbound event tags. The dispatcher switches over this closed set;
// anything else is logged and dropped.
const (
	EvAuthenticate    = "authenticate"
	EvJoinCallQueue   = "joinCallQueue"
	EvLeaveCallQueue  = "leaveCallQueue"
	EvCallEnded       = "callEnded"
	EvTyping          = "typing"
	EvStopTyping      = "stop_typing"
	EvMessage         = "message"
	EvVideoCallOffer  = "video_call_offer"
	EvVideoCallAnswer = "video_call_answer"
	EvIceCandidate    = "ice_candidate"
)

// Outbound event tags.
const (
	EvAuthenticated  = "authenticated"
	EvAuthError      = "authentication_error"
	EvQueueJoined    = "queueJoined"
	EvQueueLeft      = "queueLeft"
	EvUserTyping     = "user_typing"
	EvUserStopTyping = "user_stop_typing"
	EvNewMessage     = "new_message"
	EvMessageSent    = "message_sent"
	EvMessageError   = "message_error"
	EvCallMatched    = "callMatched"
)

type Authenticated struct {
	Type    string `json:"type"`
	IsGuest bool   `json:"isGuest"`
	CanCall bool   `json:"canCall"`
}

func NewAuthenticated(isGuest, canCall bool) Authenticated {
	return Authenticated{Type: EvAuthenticated, IsGuest: isGuest, CanCall: canCall}
}

type AuthError struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func NewAuthError(reason string) AuthError {
	return AuthError{Type: EvAuthError, Error: reason}
}

type QueueJoined struct {
	Type   string `json:"type"`
	Male   int    `json:"male"`
	Female int    `json:"female"`
	Other  int    `json:"other"`
}

func NewQueueJoined(male, female, other int) QueueJoined {
	return QueueJoined{Type: EvQueueJoined, Male: male, Female: female, Other: other}
}

type QueueLeft struct {
	Type string `json:"type"`
}

func NewQueueLeft() QueueLeft { return QueueLeft{Type: EvQueueLeft} }

type TypingState struct {
	Type     string `json:"type"`
	SenderID string `json:"senderId"`
}

func NewUserTyping(senderID string) TypingState {
	return TypingState{Type: EvUserTyping, SenderID: senderID}
}

func NewUserStopTyping(senderID string) TypingState {
	return TypingState{Type: EvUserStopTyping, SenderID: senderID}
}

type NewMessage struct {
	Type           string    `json:"type"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
}

type MessageSent struct {
	Type           string    `json:"type"`
	MessageID      string    `json:"messageId"`
	ConversationID string    `json:"conversationId"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
}

func NewMessageEvent(conversationID, senderID, content string, ts time.Time) NewMessage {
	return NewMessage{
		Type:           EvNewMessage,
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		Timestamp:      ts,
	}
}

func NewMessageSent(messageID, conversationID, content string, ts time.Time) MessageSent {
	return MessageSent{
		Type:           EvMessageSent,
		MessageID:      messageID,
		ConversationID: conversationID,
		Content:        content,
		Timestamp:      ts,
	}
}

type MessageError struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func NewMessageError(reason string) MessageError {
	return MessageError{Type: EvMessageError, Error: reason}
}

type VideoCallOffer struct {
	Type     string                    `json:"type"`
	CallerID string                    `json:"callerId"`
	Offer    webrtc.SessionDescription `json:"offer"`
}

func NewVideoCallOffer(callerID string, offer webrtc.SessionDescription) VideoCallOffer {
	return VideoCallOffer{Type: EvVideoCallOffer, CallerID: callerID, Offer: offer}
}

type VideoCallAnswer struct {
	Type   string                    `json:"type"`
	Answer webrtc.SessionDescription `json:"answer"`
}

func NewVideoCallAnswer(answer webrtc.SessionDescription) VideoCallAnswer {
	return VideoCallAnswer{Type: EvVideoCallAnswer, Answer: answer}
}

type IceCandidate struct {
	Type      string                  `json:"type"`
	SenderID  string                  `json:"senderId"`
	Candidate webrtc.ICECandidateInit `json:"candidate"`
}

func NewIceCandidate(senderID string, candidate webrtc.ICECandidateInit) IceCandidate {
	return IceCandidate{Type: EvIceCandidate, SenderID: senderID, Candidate: candidate}
}

type CallMatched struct {
	Type        string `json:"type"`
	Room        string `json:"room"`
	IsInitiator bool   `json:"isInitiator"`
}

func NewCallMatched(room string, isInitiator bool) CallMatched {
	return CallMatched{Type: EvCallMatched, Room: room, IsInitiator: isInitiator}
}
