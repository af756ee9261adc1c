package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(identity Identity) *Client {
	return newClient(context.Background(), identity, 1)
}

func TestPrivateRoomIsSymmetric(t *testing.T) {
	ab, err := PrivateRoom("u1", "u2")
	require.NoError(t, err)
	ba, err := PrivateRoom("u2", "u1")
	require.NoError(t, err)
	assert.Equal(t, "private_u1_u2", ab)
	assert.Equal(t, ab, ba)

	ac, err := PrivateRoom("u1", "u3")
	require.NoError(t, err)
	assert.NotEqual(t, ab, ac)

	_, err = PrivateRoom("u1", "u1")
	assert.ErrorIs(t, err, ErrSelfTarget)
}

func TestCanAccess(t *testing.T) {
	alice := NewRegisteredIdentity("1", "alice")
	guest := NewGuestIdentity("ABCD", "ann")

	cases := []struct {
		name     string
		identity Identity
		room     string
		want     bool
	}{
		{"registered general", alice, GeneralRoom, true},
		{"registered custom", alice, "lobby", true},
		{"registered own private", alice, "private_1_2", true},
		{"registered own private second", alice, "private_0_1", true},
		{"registered foreign private", alice, "private_2_3", false},
		{"registered prefix collision", alice, "private_10_2", false},
		{"registered guest room", alice, "guest_session_ABCD", false},
		{"guest own room", guest, "guest_session_ABCD", true},
		{"guest other session", guest, "guest_session_WXYZ", false},
		{"guest general", guest, GeneralRoom, false},
		{"empty", alice, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanAccess(tc.identity, tc.room))
		})
	}
}

func TestRoomsJoinLeave(t *testing.T) {
	r := NewRooms()
	a := testClient(NewRegisteredIdentity("1", "alice"))
	b := testClient(NewRegisteredIdentity("2", "bob"))

	assert.True(t, r.Join(a, "lobby"))
	assert.False(t, r.Join(a, "lobby"))
	assert.True(t, r.Join(b, "lobby"))
	assert.True(t, r.Join(a, GeneralRoom))

	assert.ElementsMatch(t, []*Client{a, b}, r.Members("lobby"))
	assert.Equal(t, []string{GeneralRoom, "lobby"}, r.RoomsOf(a))

	assert.True(t, r.Leave(b, "lobby"))
	assert.False(t, r.Leave(b, "lobby"))
	assert.Empty(t, r.RoomsOf(b))

	left := r.LeaveAll(a)
	assert.Equal(t, []string{GeneralRoom, "lobby"}, left)
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.RoomsOf(a))
}

func TestTypingSetRemovedWhenEmpty(t *testing.T) {
	typing := NewTyping()

	assert.True(t, typing.Start("general", "alice"))
	assert.False(t, typing.Start("general", "alice"))
	typing.Start("general", "bob")
	typing.Start("lobby", "alice")
	assert.Equal(t, []string{"alice", "bob"}, typing.Typers("general"))

	assert.True(t, typing.Stop("general", "bob"))
	assert.False(t, typing.Stop("general", "bob"))
	assert.Equal(t, 2, typing.Len())

	assert.Equal(t, []string{"general", "lobby"}, typing.ClearAll("alice", nil))
	assert.Empty(t, typing.Typers("general"))
	assert.Empty(t, typing.Typers("lobby"))
	assert.Equal(t, 0, typing.Len())
	assert.False(t, typing.ClearRoom("general", "alice"))
}

func TestTypingClearAllScopedToAccessibleRooms(t *testing.T) {
	typing := NewTyping()
	registered := NewRegisteredIdentity("9", "ann")
	guestRoom := GuestRoom("ABCD")

	typing.Start(GeneralRoom, "ann")
	typing.Start(guestRoom, "ann")

	cleared := typing.ClearAll("ann", func(room string) bool {
		return CanAccess(registered, room)
	})
	assert.Equal(t, []string{GeneralRoom}, cleared)
	assert.Equal(t, []string{"ann"}, typing.Typers(guestRoom))
	assert.Empty(t, typing.Typers(GeneralRoom))
}

func TestPresenceViews(t *testing.T) {
	p := NewPresence()
	alice := NewRegisteredIdentity("1", "alice")
	bob := NewRegisteredIdentity("2", "bob")
	ann := NewGuestIdentity("ABCD", "ann")
	cat := NewGuestIdentity("WXYZ", "cat")

	ca, cb, cn, cc := testClient(alice), testClient(bob), testClient(ann), testClient(cat)
	p.Register(bob, cb)
	p.Register(alice, ca)
	p.Register(ann, cn)
	p.Register(cat, cc)

	assert.Equal(t, []OnlineUser{{UserID: "1", Username: "alice"}, {UserID: "2", Username: "bob"}}, p.ViewFor(alice))
	assert.Equal(t, []OnlineUser{{UserID: ann.ID, Username: "ann"}}, p.ViewFor(ann))
	assert.Equal(t, []*Client{cb}, p.Peers(alice))
	assert.Empty(t, p.Peers(ann))

	views := p.Views()
	require.Len(t, views, 4)
	assert.Equal(t, p.ViewFor(alice), views[ca])
	assert.Equal(t, p.ViewFor(bob), views[cb])
	assert.Equal(t, p.ViewFor(cat), views[cc])

	p.Unregister(bob.ID)
	p.Unregister(bob.ID)
	assert.Nil(t, p.Owner(bob.ID))
	for _, view := range p.Views() {
		for _, u := range view {
			assert.NotEqual(t, bob.ID, u.UserID)
		}
	}
	assert.Equal(t, 3, p.Len())
}

func TestPresenceRegisterOverwrites(t *testing.T) {
	p := NewPresence()
	alice := NewRegisteredIdentity("1", "alice")
	first, second := testClient(alice), testClient(alice)

	p.Register(alice, first)
	p.Register(alice, second)

	assert.Equal(t, 1, p.Len())
	assert.Same(t, second, p.Owner(alice.ID))
}
