package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatrelay/internal/core"
	"github.com/vovakirdan/chatrelay/internal/proto"
)

// RoomHandlers provides HTTP handlers for room history.
type RoomHandlers struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(hub *core.Hub, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		hub: hub,
		log: logger,
	}
}

// GetMessages returns the recent history of a room the caller may access.
// GET /api/rooms/:room/messages
func (h *RoomHandlers) GetMessages(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		h.log.Error().Msg("identity not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	room := c.Param("room")
	if !core.CanAccess(identity, room) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "access denied"})
		return
	}

	messages := h.hub.LoadHistory(c.Request.Context(), room)

	h.log.Debug().Str("identity_id", identity.ID).Str("room", room).Int("count", len(messages)).Msg("history served")
	c.JSON(http.StatusOK, proto.EventChatHistory{
		RoomID:   room,
		Messages: chatMessages(messages),
	})
}
