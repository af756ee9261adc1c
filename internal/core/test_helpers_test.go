package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vovakirdan/chatrelay/internal/store"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()
	return mustEventMatch(t, ch, func(ev *Event) bool { return ev.Kind == kind })
}

// mustEventMatch skips events until one satisfies match.
func mustEventMatch(t *testing.T, ch <-chan *Event, match func(*Event) bool) *Event {
	t.Helper()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("event channel closed before expected event")
				return nil
			}
			if ev != nil && match(ev) {
				return ev
			}
		case <-timeout:
			t.Fatalf("expected event not received")
			return nil
		}
	}
}

func expectNoEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()

	timeout := time.After(150 * time.Millisecond)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected %v event: %+v", kind, ev)
			}
		case <-timeout:
			return
		}
	}
}

func roomEvent(kind EventKind, room string) func(*Event) bool {
	return func(ev *Event) bool { return ev.Kind == kind && ev.Room == room }
}

type staticVerifier map[string]Identity

func (v staticVerifier) VerifyToken(token string) (Identity, error) {
	identity, ok := v[token]
	if !ok {
		return Identity{}, errors.New("unknown token")
	}
	return identity, nil
}

func newTestHub(t *testing.T, st store.MessageStore) *Hub {
	t.Helper()
	return NewHub(Options{
		Store:           st,
		ClientBuffer:    64,
		MaxMessageRunes: 20,
	})
}

func connect(t *testing.T, h *Hub, identity Identity) *Client {
	t.Helper()
	c := h.Connect(context.Background(), identity)
	t.Cleanup(func() { h.Disconnect(c) })
	return c
}
