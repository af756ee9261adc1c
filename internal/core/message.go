package core

import (
	"time"

	"github.com/google/uuid"

	"github.com/vovakirdan/chatrelay/internal/store"
)

// MessageKind distinguishes user-authored text from hub notices.
type MessageKind string

const (
	MessageText   MessageKind = "text"
	MessageSystem MessageKind = "system"
)

const (
	systemSenderID   = "system"
	systemSenderName = "System"
)

// Message is the domain model for a chat message. It is never mutated after
// it has been handed to a broadcast.
type Message struct {
	ID         string
	Content    string
	SenderID   string
	SenderName string
	RoomID     string
	Kind       MessageKind
	CreatedAt  time.Time
}

func newTextMessage(sender Identity, room, content string) *Message {
	return &Message{
		ID:         uuid.NewString(),
		Content:    content,
		SenderID:   sender.ID,
		SenderName: sender.DisplayName,
		RoomID:     room,
		Kind:       MessageText,
		CreatedAt:  time.Now().UTC(),
	}
}

func newSystemMessage(room, content string) *Message {
	return &Message{
		ID:         uuid.NewString(),
		Content:    content,
		SenderID:   systemSenderID,
		SenderName: systemSenderName,
		RoomID:     room,
		Kind:       MessageSystem,
		CreatedAt:  time.Now().UTC(),
	}
}

func toStoreMessage(m *Message) *store.Message {
	return &store.Message{
		ID:         m.ID,
		RoomID:     m.RoomID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Body:       m.Content,
		Kind:       store.MessageKind(m.Kind),
		CreatedAt:  m.CreatedAt,
	}
}

func fromStoreMessage(m *store.Message) Message {
	kind := MessageKind(m.Kind)
	if kind == "" {
		kind = MessageText
	}
	return Message{
		ID:         m.ID,
		Content:    m.Body,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		RoomID:     m.RoomID,
		Kind:       kind,
		CreatedAt:  m.CreatedAt,
	}
}
