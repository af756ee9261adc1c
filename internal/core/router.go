package core

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"
)

// submit validates, routes, persists and broadcasts one chat message.
func (h *Hub) submit(ctx context.Context, c *Client, content, room, recipientID string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}
	sender := c.Identity

	if recipientID != "" && recipientID == sender.ID {
		h.send(c, errorEvent(ErrCodeValidation, "cannot message yourself"))
		return
	}
	if h.maxMessageRunes > 0 && utf8.RuneCountInString(content) > h.maxMessageRunes {
		h.send(c, errorEvent(ErrCodeValidation, "message is too long"))
		return
	}

	room, persist, cerr := resolveRoute(sender, room, recipientID)
	if cerr != nil {
		h.send(c, &Event{Kind: EventError, Error: cerr})
		return
	}

	msg := newTextMessage(sender, room, content)
	if persist && h.store != nil {
		id, err := h.store.AppendMessage(ctx, toStoreMessage(msg))
		if err != nil {
			h.log.Error().Err(err).Str("identity_id", sender.ID).Str("room", room).Msg("persist message")
			h.send(c, errorEvent(ErrCodePersistence, "failed to send message"))
			return
		}
		if id != "" {
			msg.ID = id
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.broadcastLocked(room, &Event{Kind: EventMessage, Room: room, Message: msg}, nil)
	h.clearTypingLocked(sender.ID, room)
	h.broadcastLocked(room, &Event{
		Kind:   EventUserStoppedTyping,
		Room:   room,
		User:   sender.DisplayName,
		UserID: sender.ID,
	}, c)
}

// resolveRoute picks the destination room. Guests always talk to their whole
// session and are never persisted; a recipient turns the message into a
// private one; otherwise the requested room or the general room is used.
func resolveRoute(sender Identity, room, recipientID string) (string, bool, *CoreError) {
	switch {
	case sender.IsGuest():
		return GuestRoom(sender.GuestSessionID), false, nil
	case recipientID != "":
		private, err := PrivateRoom(sender.ID, recipientID)
		if errors.Is(err, ErrSelfTarget) {
			return "", false, coreError(ErrCodeValidation, "cannot message yourself")
		}
		return private, true, nil
	case room == "":
		return GeneralRoom, true, nil
	case !CanAccess(sender, room):
		return "", false, coreError(ErrCodeForbidden, "cannot post to this room")
	default:
		return room, true, nil
	}
}

// announceLocked broadcasts a system notice to a room, skipping the actor.
// Notices are never persisted.
func (h *Hub) announceLocked(room, content string, actor *Client) {
	msg := newSystemMessage(room, content)
	h.broadcastLocked(room, &Event{Kind: EventMessage, Room: room, Message: msg}, actor)
}

func errorEvent(code, msg string) *Event {
	return &Event{Kind: EventError, Error: coreError(code, msg)}
}
