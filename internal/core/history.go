package core

import (
	"context"
	"slices"

	"github.com/samber/lo"

	"github.com/vovakirdan/chatrelay/internal/store"
)

// DefaultHistoryLimit is how many messages are replayed on join.
const DefaultHistoryLimit = 50

// LoadHistory returns the most recent messages of a room in chronological
// order. Store failures are logged and yield an empty history.
func (h *Hub) LoadHistory(ctx context.Context, room string) []Message {
	return h.loadHistory(ctx, room, h.historyLimit)
}

func (h *Hub) loadHistory(ctx context.Context, room string, limit int) []Message {
	if h.store == nil || limit <= 0 {
		return []Message{}
	}

	recent, err := h.store.RecentMessages(ctx, room, limit)
	if err != nil {
		h.log.Warn().Err(err).Str("room", room).Msg("load history")
		return []Message{}
	}
	if len(recent) > limit {
		recent = recent[:limit]
	}

	messages := lo.Map(recent, func(m *store.Message, _ int) Message {
		return fromStoreMessage(m)
	})
	slices.Reverse(messages)
	return messages
}

// deliverHistory unicasts a room's history to one client.
func (h *Hub) deliverHistory(ctx context.Context, c *Client, room string) {
	messages := h.loadHistory(ctx, room, h.historyLimit)
	h.send(c, &Event{Kind: EventChatHistory, Room: room, Messages: messages})
}
