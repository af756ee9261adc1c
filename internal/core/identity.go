package core

import "strings"

// IdentityKind separates account holders from session-scoped guests.
type IdentityKind string

const (
	KindRegistered IdentityKind = "registered"
	KindGuest      IdentityKind = "guest"
)

// Identity is the actor behind one connection. It is resolved once at handshake
// time and never changes afterwards.
type Identity struct {
	ID             string
	DisplayName    string
	Kind           IdentityKind
	GuestSessionID string // set only for guests
}

// NewRegisteredIdentity builds the identity of an account holder.
func NewRegisteredIdentity(id, displayName string) Identity {
	if displayName == "" {
		displayName = id
	}
	return Identity{ID: id, DisplayName: displayName, Kind: KindRegistered}
}

// NewGuestIdentity builds a guest identity scoped to a session code. The id is
// derived from the session and the name so a reconnecting guest replaces its
// previous presence entry instead of showing up twice.
func NewGuestIdentity(sessionID, guestName string) Identity {
	sessionID = strings.TrimSpace(sessionID)
	guestName = strings.TrimSpace(guestName)
	return Identity{
		ID:             "guest:" + sessionID + ":" + guestName,
		DisplayName:    guestName,
		Kind:           KindGuest,
		GuestSessionID: sessionID,
	}
}

// IsGuest reports whether the identity belongs to an active guest session.
func (i Identity) IsGuest() bool {
	return i.Kind == KindGuest && i.GuestSessionID != ""
}

// Handshake carries the credentials a connection presents before it becomes active.
type Handshake struct {
	Token     string
	Guest     bool
	SessionID string
	GuestName string
}

// TokenVerifier resolves a bearer token into a registered identity.
type TokenVerifier interface {
	VerifyToken(token string) (Identity, error)
}
