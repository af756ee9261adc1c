package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/vovakirdan/chatrelay/internal/store"
	"github.com/vovakirdan/chatrelay/internal/store/mocks"
	"github.com/vovakirdan/chatrelay/internal/store/sqlite"
)

func seedHistory(t *testing.T, n int) store.MessageStore {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", sqlite.ApplySchema)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := range n {
		_, err := st.AppendMessage(context.Background(), &store.Message{
			ID:         fmt.Sprintf("m%d", i),
			RoomID:     GeneralRoom,
			SenderID:   "1",
			SenderName: "alice",
			Body:       fmt.Sprintf("msg %d", i),
			Kind:       store.MessageKindText,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	return st
}

func TestLoadHistoryIsChronologicalAndLimited(t *testing.T) {
	st := seedHistory(t, 5)
	h := NewHub(Options{Store: st, HistoryLimit: 3})

	msgs := h.LoadHistory(context.Background(), GeneralRoom)
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	for i, want := range []string{"msg 2", "msg 3", "msg 4"} {
		if msgs[i].Content != want {
			t.Fatalf("message %d = %q, want %q", i, msgs[i].Content, want)
		}
	}

	if empty := h.LoadHistory(context.Background(), "lobby"); empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil history, got %#v", empty)
	}
}

func TestHistoryDeliveredOnConnect(t *testing.T) {
	st := seedHistory(t, 2)
	h := NewHub(Options{Store: st, ClientBuffer: 16})
	alice := connect(t, h, NewRegisteredIdentity("1", "alice"))

	ev := mustEvent(t, alice.Events, EventChatHistory)
	if ev.Room != GeneralRoom || len(ev.Messages) != 2 || ev.Messages[0].Content != "msg 0" {
		t.Fatalf("unexpected history: %+v", ev)
	}
}

func TestLoadHistoryStoreErrorYieldsEmpty(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockMessageStore(ctrl)
	st.EXPECT().RecentMessages(gomock.Any(), GeneralRoom, DefaultHistoryLimit).Return(nil, errors.New("boom"))

	h := NewHub(Options{Store: st})
	if msgs := h.LoadHistory(context.Background(), GeneralRoom); len(msgs) != 0 {
		t.Fatalf("expected empty history, got %v", msgs)
	}
}
