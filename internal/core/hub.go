package core

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/chatrelay/internal/store"
)

// Options configures a Hub. Store and Verifier may be nil: without a store
// nothing is persisted and history is empty, without a verifier only guests
// can connect.
type Options struct {
	Store           store.MessageStore
	Verifier        TokenVerifier
	Logger          *zerolog.Logger
	HistoryLimit    int
	MaxMessageRunes int
	ClientBuffer    int
}

// Hub owns the presence, typing and room registries and drives every
// connection through Connecting -> Active -> Disconnected. Registry mutations
// happen under mu; store I/O never does.
type Hub struct {
	store    store.MessageStore
	verifier TokenVerifier
	log      *zerolog.Logger

	historyLimit    int
	maxMessageRunes int
	clientBuffer    int

	mu       sync.Mutex
	presence *Presence
	typing   *Typing
	rooms    *Rooms
	clients  map[*Client]struct{}
}

// Stats is a snapshot of hub occupancy.
type Stats struct {
	Online      int `json:"online"`
	Connections int `json:"connections"`
	Rooms       int `json:"rooms"`
	TypingRooms int `json:"typing_rooms"`
}

// NewHub creates a hub with empty registries.
func NewHub(opts Options) *Hub {
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if opts.HistoryLimit == 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	return &Hub{
		store:           opts.Store,
		verifier:        opts.Verifier,
		log:             logger,
		historyLimit:    opts.HistoryLimit,
		maxMessageRunes: opts.MaxMessageRunes,
		clientBuffer:    opts.ClientBuffer,
		presence:        NewPresence(),
		typing:          NewTyping(),
		rooms:           NewRooms(),
		clients:         make(map[*Client]struct{}),
	}
}

// Run blocks until ctx is done and then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	clients := lo.Keys(h.clients)
	h.mu.Unlock()

	for _, c := range clients {
		h.Disconnect(c)
	}
}

// Authenticate resolves handshake credentials into an identity. Complete guest
// fields win; otherwise a token is required.
func (h *Hub) Authenticate(hs Handshake) (Identity, error) {
	session := strings.TrimSpace(hs.SessionID)
	name := strings.TrimSpace(hs.GuestName)
	if hs.Guest && session != "" && name != "" {
		return NewGuestIdentity(session, name), nil
	}

	if hs.Token == "" {
		return Identity{}, &AuthError{Reason: "no token"}
	}
	if h.verifier == nil {
		return Identity{}, &AuthError{Reason: "token authentication disabled"}
	}
	identity, err := h.verifier.VerifyToken(hs.Token)
	if err != nil {
		return Identity{}, &AuthError{Reason: "invalid token", Err: err}
	}
	return identity, nil
}

// Connect activates a connection: it registers presence, joins the default
// room, fans out presence views and starts the command loop. The client stays
// active until Disconnect is called or ctx is cancelled.
func (h *Hub) Connect(ctx context.Context, identity Identity) *Client {
	c := newClient(ctx, identity, h.clientBuffer)

	room := GeneralRoom
	if identity.IsGuest() {
		room = GuestRoom(identity.GuestSessionID)
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.presence.Register(identity, c)
	h.rooms.Join(c, room)
	h.publishPresenceLocked()
	for _, peer := range h.presence.Peers(identity) {
		h.send(peer, &Event{Kind: EventUserOnline, User: identity.DisplayName, UserID: identity.ID})
	}
	c.state.Store(int32(StateActive))
	h.mu.Unlock()

	h.log.Info().
		Str("client_id", c.ID).
		Str("identity_id", identity.ID).
		Str("kind", string(identity.Kind)).
		Msg("client connected")

	go h.serve(c, room)
	return c
}

// Disconnect stops the command loop and runs cleanup exactly once. It is safe
// to call more than once and from several goroutines.
func (h *Hub) Disconnect(c *Client) {
	c.cancel()
	<-c.done
	c.cleanupOnce.Do(func() { h.cleanup(c) })
}

// Rooms returns the rooms c is subscribed to.
func (h *Hub) Rooms(c *Client) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rooms.RoomsOf(c)
}

// OnlineFor returns the presence view of identity.
func (h *Hub) OnlineFor(identity Identity) []OnlineUser {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.presence.ViewFor(identity)
}

// Typers returns who is typing in room.
func (h *Hub) Typers(room string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.typing.Typers(room)
}

// Stats returns registry sizes.
func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{
		Online:      h.presence.Len(),
		Connections: len(h.clients),
		Rooms:       h.rooms.Len(),
		TypingRooms: h.typing.Len(),
	}
}

func (h *Hub) serve(c *Client, initialRoom string) {
	defer close(c.done)

	h.deliverHistory(c.ctx, c, initialRoom)

	for {
		select {
		case <-c.ctx.Done():
			return
		case cmd := <-c.Commands:
			if cmd == nil {
				continue
			}
			h.handle(c.ctx, c, cmd)
		}
	}
}

func (h *Hub) handle(ctx context.Context, c *Client, cmd *Command) {
	switch cmd.Kind {
	case CommandSendMessage:
		h.submit(ctx, c, cmd.Content, cmd.Room, cmd.RecipientID)
	case CommandJoinRoom:
		h.joinRoom(ctx, c, cmd.Room)
	case CommandLeaveRoom:
		h.leaveRoom(c, cmd.Room)
	case CommandStartTyping:
		h.setTyping(c, cmd.Room, true)
	case CommandStopTyping:
		h.setTyping(c, cmd.Room, false)
	case CommandJoinPrivateRoom:
		h.joinPrivateRoom(ctx, c, cmd.OtherUserID)
	default:
		h.send(c, errorEvent(ErrCodeBadRequest, "unknown command"))
	}
}

func (h *Hub) joinRoom(ctx context.Context, c *Client, room string) {
	if room == "" {
		h.send(c, errorEvent(ErrCodeBadRequest, "room is required"))
		return
	}
	if !CanAccess(c.Identity, room) {
		h.send(c, errorEvent(ErrCodeForbidden, "cannot join this room"))
		return
	}

	h.mu.Lock()
	if h.rooms.Join(c, room) && room != GeneralRoom {
		h.announceLocked(room, c.Identity.DisplayName+" joined the chat", c)
	}
	h.mu.Unlock()

	h.deliverHistory(ctx, c, room)
}

func (h *Hub) leaveRoom(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.rooms.Leave(c, room) {
		h.send(c, errorEvent(ErrCodeNotInRoom, "not in room"))
		return
	}
	if h.typing.Stop(room, c.Identity.DisplayName) {
		h.broadcastLocked(room, &Event{
			Kind:   EventUserStoppedTyping,
			Room:   room,
			User:   c.Identity.DisplayName,
			UserID: c.Identity.ID,
		}, c)
	}
	if room != GeneralRoom {
		h.announceLocked(room, c.Identity.DisplayName+" left the chat", c)
	}
}

func (h *Hub) joinPrivateRoom(ctx context.Context, c *Client, otherUserID string) {
	if otherUserID == "" {
		h.send(c, errorEvent(ErrCodeBadRequest, "otherUserId is required"))
		return
	}
	if c.Identity.Kind == KindGuest {
		h.send(c, errorEvent(ErrCodeForbidden, "guests cannot open private rooms"))
		return
	}
	room, err := PrivateRoom(c.Identity.ID, otherUserID)
	if err != nil {
		h.send(c, errorEvent(ErrCodeValidation, "cannot open a private room with yourself"))
		return
	}

	h.mu.Lock()
	h.rooms.Join(c, room)
	h.mu.Unlock()

	h.deliverHistory(ctx, c, room)
}

func (h *Hub) setTyping(c *Client, room string, typing bool) {
	switch {
	case c.Identity.IsGuest():
		room = GuestRoom(c.Identity.GuestSessionID)
	case room == "":
		room = GeneralRoom
	}
	if !CanAccess(c.Identity, room) {
		h.send(c, errorEvent(ErrCodeForbidden, "cannot signal typing in this room"))
		return
	}
	name := c.Identity.DisplayName

	h.mu.Lock()
	defer h.mu.Unlock()

	kind := EventUserTyping
	if typing {
		h.typing.Start(room, name)
	} else {
		h.typing.Stop(room, name)
		kind = EventUserStoppedTyping
	}
	h.broadcastLocked(room, &Event{Kind: kind, Room: room, User: name, UserID: c.Identity.ID}, c)
}

// cleanup removes every trace of c from the registries and tells the others.
func (h *Hub) cleanup(c *Client) {
	identity := c.Identity

	h.mu.Lock()
	c.state.Store(int32(StateDisconnected))

	// A replaced connection leaves its rooms but must not touch the typing
	// marks or presence of the connection that replaced it.
	owner := h.presence.Owner(identity.ID) == c
	subscribed := h.rooms.LeaveAll(c)
	if owner {
		typingRooms := h.clearTypingLocked(identity.ID, "")
		for _, room := range lo.Uniq(append(typingRooms, subscribed...)) {
			h.broadcastLocked(room, &Event{
				Kind:   EventUserStoppedTyping,
				Room:   room,
				User:   identity.DisplayName,
				UserID: identity.ID,
			}, c)
		}
		h.presence.Unregister(identity.ID)
	}
	delete(h.clients, c)
	h.publishPresenceLocked()
	h.mu.Unlock()

	c.closeEvents()

	h.log.Info().
		Str("client_id", c.ID).
		Str("identity_id", identity.ID).
		Msg("client disconnected")
}

// clearTypingLocked removes an identity's typing marks from one room, or from
// every room the identity may access when room is empty. The display name is
// resolved through the presence entry; an identity that is already gone is a
// no-op.
func (h *Hub) clearTypingLocked(identityID, room string) []string {
	entry, ok := h.presence.Entry(identityID)
	if !ok {
		return nil
	}
	if room == "" {
		identity := Identity{
			ID:             identityID,
			DisplayName:    entry.DisplayName,
			Kind:           entry.Kind,
			GuestSessionID: entry.GuestSessionID,
		}
		return h.typing.ClearAll(entry.DisplayName, func(r string) bool {
			return CanAccess(identity, r)
		})
	}
	if h.typing.ClearRoom(room, entry.DisplayName) {
		return []string{room}
	}
	return nil
}

// publishPresenceLocked delivers the current view to every registered connection.
func (h *Hub) publishPresenceLocked() {
	for c, view := range h.presence.Views() {
		h.send(c, &Event{Kind: EventOnlineUsers, Online: view})
	}
}

func (h *Hub) broadcastLocked(room string, ev *Event, except *Client) {
	for _, member := range h.rooms.Members(room) {
		if member == except {
			continue
		}
		h.send(member, ev)
	}
}

func (h *Hub) send(c *Client, ev *Event) {
	if !c.deliver(ev) && c.State() != StateDisconnected {
		h.log.Warn().
			Str("client_id", c.ID).
			Str("event", ev.Kind.String()).
			Msg("dropping event for slow client")
	}
}
