package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/vovakirdan/chatrelay/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewWithSetup(":memory:", ApplySchema)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, "alice", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if created.ID == 0 || created.Username != "alice" {
		t.Fatalf("unexpected user: %+v", created)
	}

	byName, err := s.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if byName.ID != created.ID || byName.PasswordHash != "hash" {
		t.Fatalf("unexpected user by name: %+v", byName)
	}

	if _, err := s.CreateUser(ctx, "alice", "other"); err == nil {
		t.Fatalf("expected unique constraint error")
	}

	if _, err := s.GetUserByID(ctx, 999); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecentMessagesNewestFirstAndLimited(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := range 5 {
		_, err := s.AppendMessage(ctx, &store.Message{
			ID:         fmt.Sprintf("m%d", i),
			RoomID:     "general",
			SenderID:   "1",
			SenderName: "alice",
			Body:       fmt.Sprintf("hello %d", i),
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	if _, err := s.AppendMessage(ctx, &store.Message{
		ID: "other", RoomID: "private_1_2", SenderID: "1", SenderName: "alice", Body: "psst", CreatedAt: base,
	}); err != nil {
		t.Fatalf("append other room: %v", err)
	}

	got, err := s.RecentMessages(ctx, "general", 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	want := []string{"m4", "m3", "m2"}
	if len(got) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("index %d: expected %s, got %s", i, id, got[i].ID)
		}
		if got[i].Kind != store.MessageKindText {
			t.Errorf("index %d: expected text kind, got %q", i, got[i].Kind)
		}
	}
	if !got[0].CreatedAt.Equal(base.Add(4 * time.Second)) {
		t.Errorf("unexpected created_at: %v", got[0].CreatedAt)
	}

	empty, err := s.RecentMessages(ctx, "nobody-here", 50)
	if err != nil {
		t.Fatalf("recent empty: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty history, got %d", len(empty))
	}
}

func TestAppendDuplicateIDFails(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	msg := &store.Message{ID: "dup", RoomID: "general", SenderID: "1", SenderName: "a", Body: "x"}
	if _, err := s.AppendMessage(ctx, msg); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if _, err := s.AppendMessage(ctx, msg); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}
