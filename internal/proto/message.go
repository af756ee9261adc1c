package proto

import (
	"encoding/json"
	"time"
)

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeHello           = "hello"
	InboundTypeMessage         = "message"
	InboundTypeJoinRoom        = "joinRoom"
	InboundTypeLeaveRoom       = "leaveRoom"
	InboundTypeTyping          = "typing"
	InboundTypeStopTyping      = "stopTyping"
	InboundTypeJoinPrivateRoom = "joinPrivateRoom"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	// EventReady acknowledges a successful hello.
	EventReady = "ready"
)

// HelloData is sent by the client to introduce itself. Either Token or the
// guest fields must be present.
type HelloData struct {
	Token     string `json:"token,omitempty" validate:"omitempty,max=4096"`
	Guest     bool   `json:"guest,omitempty"`
	SessionID string `json:"sessionId,omitempty" validate:"required_if=Guest true,omitempty,max=64"`
	GuestName string `json:"guestName,omitempty" validate:"required_if=Guest true,omitempty,max=32"`
	Protocol  int    `json:"protocol,omitempty" validate:"omitempty,min=1"`
}

// MessageData is a chat message from the client.
type MessageData struct {
	Content     string `json:"content"`
	RoomID      string `json:"roomId,omitempty" validate:"omitempty,max=128"`
	RecipientID string `json:"recipientId,omitempty" validate:"omitempty,max=128"`
}

// RoomData names a room to join or leave.
type RoomData struct {
	RoomID string `json:"roomId" validate:"required,max=128"`
}

// TypingData marks typing in a room; an empty room means general.
type TypingData struct {
	RoomID string `json:"roomId,omitempty" validate:"omitempty,max=128"`
}

// PrivateRoomData opens the pairwise room with another user.
type PrivateRoomData struct {
	OtherUserID string `json:"otherUserId" validate:"required,max=128"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// ChatMessage is a text message or system notice as seen by clients.
type ChatMessage struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	RoomID     string    `json:"roomId"`
	Timestamp  time.Time `json:"timestamp"`
	Type       string    `json:"type"`
}

// EventChatHistory carries the recent messages of a room, oldest first.
type EventChatHistory struct {
	RoomID   string        `json:"roomId"`
	Messages []ChatMessage `json:"messages"`
}

// OnlineUser is one entry of a presence list.
type OnlineUser struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// EventTyping is sent for userTyping and userStoppedTyping.
type EventTyping struct {
	Username string `json:"username"`
	UserID   string `json:"userId"`
	RoomID   string `json:"roomId"`
}

// EventReadyData confirms the resolved identity after hello.
type EventReadyData struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Guest    bool   `json:"guest"`
	Protocol int    `json:"protocol"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
