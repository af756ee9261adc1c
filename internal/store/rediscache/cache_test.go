package rediscache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vovakirdan/chatrelay/internal/store"
	"github.com/vovakirdan/chatrelay/internal/store/mocks"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()

	url := os.Getenv("CHATRELAY_TEST_REDIS_URL")
	if url == "" {
		t.Skip("CHATRELAY_TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	require.NoError(t, client.Ping(context.Background()).Err())
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func messages(room string, n int) []*store.Message {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	out := make([]*store.Message, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, &store.Message{
			ID:         fmt.Sprintf("m%d", i),
			RoomID:     room,
			SenderID:   "1",
			SenderName: "alice",
			Body:       fmt.Sprintf("msg %d", i),
			Kind:       store.MessageKindText,
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		})
	}
	return out
}

func TestCacheFillsOnMissAndServesHits(t *testing.T) {
	client := newTestClient(t)
	ctrl := gomock.NewController(t)
	next := mocks.NewMockMessageStore(ctrl)
	ctx := context.Background()

	room := "room-" + uuid.NewString()
	t.Cleanup(func() { client.Del(context.Background(), keyPrefix+room) })

	next.EXPECT().RecentMessages(gomock.Any(), room, 10).Return(messages(room, 3), nil).Times(1)

	cache := New(next, client, 10, time.Minute, nil)

	first, err := cache.RecentMessages(ctx, room, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "m2", first[0].ID)

	second, err := cache.RecentMessages(ctx, room, 3)
	require.NoError(t, err)
	require.Len(t, second, 3)
	assert.Equal(t, []string{"m2", "m1", "m0"}, []string{second[0].ID, second[1].ID, second[2].ID})
}

func TestCacheAppendExtendsWarmList(t *testing.T) {
	client := newTestClient(t)
	ctrl := gomock.NewController(t)
	next := mocks.NewMockMessageStore(ctrl)
	ctx := context.Background()

	room := "room-" + uuid.NewString()
	t.Cleanup(func() { client.Del(context.Background(), keyPrefix+room) })

	next.EXPECT().RecentMessages(gomock.Any(), room, 3).Return(messages(room, 3), nil).Times(1)
	next.EXPECT().AppendMessage(gomock.Any(), gomock.Any()).Return("m3", nil)

	cache := New(next, client, 3, time.Minute, nil)
	_, err := cache.RecentMessages(ctx, room, 3)
	require.NoError(t, err)

	id, err := cache.AppendMessage(ctx, &store.Message{ID: "m3", RoomID: room, SenderID: "1", SenderName: "alice", Body: "new"})
	require.NoError(t, err)
	assert.Equal(t, "m3", id)

	got, err := cache.RecentMessages(ctx, room, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "m3", got[0].ID)
	assert.Equal(t, "m1", got[2].ID)
}

func TestCacheAppendFailureSkipsCache(t *testing.T) {
	client := newTestClient(t)
	ctrl := gomock.NewController(t)
	next := mocks.NewMockMessageStore(ctrl)

	boom := errors.New("disk full")
	next.EXPECT().AppendMessage(gomock.Any(), gomock.Any()).Return("", boom)

	cache := New(next, client, 3, time.Minute, nil)
	_, err := cache.AppendMessage(context.Background(), &store.Message{ID: "x", RoomID: "r"})
	require.ErrorIs(t, err, boom)
}
