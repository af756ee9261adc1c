package core

import (
	"cmp"
	"slices"
)

// PresenceEntry is what the hub knows about one online identity.
type PresenceEntry struct {
	Client         *Client
	DisplayName    string
	Kind           IdentityKind
	GuestSessionID string
}

// Presence maps identity ids to their live connection. It holds at most one
// entry per identity; the hub serializes access to it.
type Presence struct {
	entries map[string]PresenceEntry
}

// NewPresence creates an empty registry.
func NewPresence() *Presence {
	return &Presence{entries: make(map[string]PresenceEntry)}
}

// Register inserts or overwrites the entry for identity.ID.
func (p *Presence) Register(identity Identity, client *Client) {
	p.entries[identity.ID] = PresenceEntry{
		Client:         client,
		DisplayName:    identity.DisplayName,
		Kind:           identity.Kind,
		GuestSessionID: identity.GuestSessionID,
	}
}

// Unregister removes the entry if present.
func (p *Presence) Unregister(identityID string) {
	delete(p.entries, identityID)
}

// Entry returns the entry for an identity id.
func (p *Presence) Entry(identityID string) (PresenceEntry, bool) {
	e, ok := p.entries[identityID]
	return e, ok
}

// Owner returns the connection currently registered for the identity, or nil.
func (p *Presence) Owner(identityID string) *Client {
	return p.entries[identityID].Client
}

// Len returns the number of online identities.
func (p *Presence) Len() int {
	return len(p.entries)
}

// ViewFor returns the presence list visible to viewer. Guests see the guests of
// their own session, registered users see every registered user. The viewer's
// own entry is included.
func (p *Presence) ViewFor(viewer Identity) []OnlineUser {
	key := partitionKey(viewer.Kind, viewer.GuestSessionID)
	view := make([]OnlineUser, 0)
	for id, e := range p.entries {
		if partitionKey(e.Kind, e.GuestSessionID) == key {
			view = append(view, OnlineUser{UserID: id, Username: e.DisplayName})
		}
	}
	sortOnline(view)
	return view
}

// Peers returns the connections that can see identity in their views,
// excluding identity itself.
func (p *Presence) Peers(identity Identity) []*Client {
	key := partitionKey(identity.Kind, identity.GuestSessionID)
	var peers []*Client
	for id, e := range p.entries {
		if id != identity.ID && partitionKey(e.Kind, e.GuestSessionID) == key {
			peers = append(peers, e.Client)
		}
	}
	return peers
}

// Views computes every registered connection's view in one pass over the
// entries. Connections in the same partition share the same slice.
func (p *Presence) Views() map[*Client][]OnlineUser {
	buckets := make(map[string][]OnlineUser)
	for id, e := range p.entries {
		key := partitionKey(e.Kind, e.GuestSessionID)
		buckets[key] = append(buckets[key], OnlineUser{UserID: id, Username: e.DisplayName})
	}
	for _, view := range buckets {
		sortOnline(view)
	}

	views := make(map[*Client][]OnlineUser, len(p.entries))
	for _, e := range p.entries {
		views[e.Client] = buckets[partitionKey(e.Kind, e.GuestSessionID)]
	}
	return views
}

func partitionKey(kind IdentityKind, sessionID string) string {
	if kind == KindGuest {
		return "guest:" + sessionID
	}
	return "registered"
}

func sortOnline(users []OnlineUser) {
	slices.SortFunc(users, func(a, b OnlineUser) int {
		if c := cmp.Compare(a.Username, b.Username); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})
}
