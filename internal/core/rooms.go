package core

import (
	"slices"
	"strings"

	"github.com/samber/lo"
)

// GeneralRoom is joined by every registered connection on connect.
const GeneralRoom = "general"

const (
	guestRoomPrefix   = "guest_session_"
	privateRoomPrefix = "private_"
)

// GuestRoom returns the room shared by all guests of a session.
func GuestRoom(sessionID string) string {
	return guestRoomPrefix + sessionID
}

// PrivateRoom returns the pairwise room of two identities. The result does not
// depend on argument order.
func PrivateRoom(a, b string) (string, error) {
	if a == b {
		return "", ErrSelfTarget
	}
	if b < a {
		a, b = b, a
	}
	return privateRoomPrefix + a + "_" + b, nil
}

// CanAccess reports whether identity may subscribe to or read room. Guests are
// confined to their own session room. Registered users cannot enter guest
// sessions and can only enter private rooms they are a participant of.
func CanAccess(identity Identity, room string) bool {
	if room == "" {
		return false
	}
	if identity.IsGuest() {
		return room == GuestRoom(identity.GuestSessionID)
	}
	if identity.Kind == KindGuest {
		return false
	}
	if strings.HasPrefix(room, guestRoomPrefix) {
		return false
	}
	if rest, ok := strings.CutPrefix(room, privateRoomPrefix); ok {
		return strings.HasPrefix(rest, identity.ID+"_") || strings.HasSuffix(rest, "_"+identity.ID)
	}
	return true
}

// Rooms is the hub-wide subscription table. Empty rooms are dropped.
type Rooms struct {
	members  map[string]map[*Client]struct{}
	byClient map[*Client]map[string]struct{}
}

// NewRooms creates an empty subscription table.
func NewRooms() *Rooms {
	return &Rooms{
		members:  make(map[string]map[*Client]struct{}),
		byClient: make(map[*Client]map[string]struct{}),
	}
}

// Join subscribes c to room. Returns true if newly added.
func (r *Rooms) Join(c *Client, room string) bool {
	set, ok := r.members[room]
	if !ok {
		set = make(map[*Client]struct{})
		r.members[room] = set
	}
	if _, exists := set[c]; exists {
		return false
	}
	set[c] = struct{}{}

	joined, ok := r.byClient[c]
	if !ok {
		joined = make(map[string]struct{})
		r.byClient[c] = joined
	}
	joined[room] = struct{}{}
	return true
}

// Leave unsubscribes c from room. Returns true if removed.
func (r *Rooms) Leave(c *Client, room string) bool {
	set, ok := r.members[room]
	if !ok {
		return false
	}
	if _, exists := set[c]; !exists {
		return false
	}
	delete(set, c)
	if len(set) == 0 {
		delete(r.members, room)
	}
	if joined, ok := r.byClient[c]; ok {
		delete(joined, room)
		if len(joined) == 0 {
			delete(r.byClient, c)
		}
	}
	return true
}

// LeaveAll unsubscribes c from everything and returns the rooms it was in.
func (r *Rooms) LeaveAll(c *Client) []string {
	left := r.RoomsOf(c)
	for _, room := range left {
		r.Leave(c, room)
	}
	return left
}

// RoomsOf returns the sorted rooms c is subscribed to.
func (r *Rooms) RoomsOf(c *Client) []string {
	rooms := lo.Keys(r.byClient[c])
	slices.Sort(rooms)
	return rooms
}

// Members returns the clients subscribed to room.
func (r *Rooms) Members(room string) []*Client {
	return lo.Keys(r.members[room])
}

// Len returns the number of non-empty rooms.
func (r *Rooms) Len() int {
	return len(r.members)
}
