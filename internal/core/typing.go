package core

import (
	"slices"

	"github.com/samber/lo"
)

// Typing tracks who is typing in which room. Sets are removed as soon as they
// become empty. There is no expiry; clients send stopTyping themselves.
type Typing struct {
	rooms map[string]map[string]struct{}
}

// NewTyping creates an empty registry.
func NewTyping() *Typing {
	return &Typing{rooms: make(map[string]map[string]struct{})}
}

// Start adds name to the room's set. Returns true if it was not there yet.
func (t *Typing) Start(room, name string) bool {
	set, ok := t.rooms[room]
	if !ok {
		set = make(map[string]struct{})
		t.rooms[room] = set
	}
	if _, exists := set[name]; exists {
		return false
	}
	set[name] = struct{}{}
	return true
}

// Stop removes name from the room's set. Returns true if it was there.
func (t *Typing) Stop(room, name string) bool {
	set, ok := t.rooms[room]
	if !ok {
		return false
	}
	if _, exists := set[name]; !exists {
		return false
	}
	delete(set, name)
	if len(set) == 0 {
		delete(t.rooms, room)
	}
	return true
}

// ClearRoom removes name from one room's set and reports whether it was there.
func (t *Typing) ClearRoom(room, name string) bool {
	return t.Stop(room, name)
}

// ClearAll removes name from every room accepted by inRoom (all rooms when
// inRoom is nil) and returns the rooms it was removed from. Names are not
// unique across partitions, so callers scope the clear to rooms the identity
// can reach.
func (t *Typing) ClearAll(name string, inRoom func(room string) bool) []string {
	var cleared []string
	for room := range t.rooms {
		if inRoom != nil && !inRoom(room) {
			continue
		}
		if t.ClearRoom(room, name) {
			cleared = append(cleared, room)
		}
	}
	slices.Sort(cleared)
	return cleared
}

// Typers returns the sorted names typing in a room.
func (t *Typing) Typers(room string) []string {
	names := lo.Keys(t.rooms[room])
	slices.Sort(names)
	return names
}

// Len returns the number of rooms with at least one typer.
func (t *Typing) Len() int {
	return len(t.rooms)
}
