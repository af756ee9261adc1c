// Package rediscache keeps the most recent messages of each room in a capped
// Redis list in front of a slower message store.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatrelay/internal/store"
)

const keyPrefix = "chatrelay:history:"

// Cache is a write-through store.MessageStore decorator. A room's list only
// exists once it has been filled from the backing store, so a present list is
// always a complete prefix of the room's history.
type Cache struct {
	next   store.MessageStore
	client *redis.Client
	limit  int
	ttl    time.Duration
	log    *zerolog.Logger
}

// New wraps next with a cache holding up to limit messages per room.
func New(next store.MessageStore, client *redis.Client, limit int, ttl time.Duration, logger *zerolog.Logger) *Cache {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Cache{next: next, client: client, limit: limit, ttl: ttl, log: logger}
}

// NewFromURL connects to Redis and wraps next.
// url should be in the format: redis://host:port or redis://:password@host:port
func NewFromURL(ctx context.Context, url string, next store.MessageStore, limit int, ttl time.Duration, logger *zerolog.Logger) (*Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return New(next, client, limit, ttl, logger), nil
}

// Close closes the Redis client. The backing store is left open.
func (c *Cache) Close() error {
	return c.client.Close()
}

// AppendMessage writes to the backing store first. The cached list is only
// extended when it already exists.
func (c *Cache) AppendMessage(ctx context.Context, msg *store.Message) (string, error) {
	id, err := c.next.AppendMessage(ctx, msg)
	if err != nil {
		return "", err
	}

	stored := *msg
	stored.ID = id
	data, err := json.Marshal(&stored)
	if err != nil {
		c.log.Warn().Err(err).Str("room", msg.RoomID).Msg("encode cached message")
		return id, nil
	}

	key := keyPrefix + msg.RoomID
	pipe := c.client.TxPipeline()
	pipe.LPushX(ctx, key, data)
	pipe.LTrim(ctx, key, 0, int64(c.limit-1))
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Warn().Err(err).Str("room", msg.RoomID).Msg("update history cache")
		c.invalidate(ctx, key)
	}
	return id, nil
}

// RecentMessages serves from the cached list when it can and fills the list
// from the backing store on a miss.
func (c *Cache) RecentMessages(ctx context.Context, roomID string, limit int) ([]*store.Message, error) {
	if limit <= 0 {
		return []*store.Message{}, nil
	}
	if limit > c.limit {
		return c.next.RecentMessages(ctx, roomID, limit)
	}

	key := keyPrefix + roomID
	cached, err := c.read(ctx, key, limit)
	switch {
	case err == nil && len(cached) > 0:
		return cached, nil
	case err != nil && !errors.Is(err, redis.Nil):
		c.log.Warn().Err(err).Str("room", roomID).Msg("read history cache")
	}

	messages, err := c.next.RecentMessages(ctx, roomID, c.limit)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, key, messages)

	if len(messages) > limit {
		messages = messages[:limit]
	}
	return messages, nil
}

func (c *Cache) read(ctx context.Context, key string, limit int) ([]*store.Message, error) {
	values, err := c.client.LRange(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	messages := make([]*store.Message, 0, len(values))
	for _, v := range values {
		var msg store.Message
		if err := json.Unmarshal([]byte(v), &msg); err != nil {
			return nil, fmt.Errorf("decode cached message: %w", err)
		}
		messages = append(messages, &msg)
	}
	return messages, nil
}

// fill replaces the cached list with messages, which are newest first.
func (c *Cache) fill(ctx context.Context, key string, messages []*store.Message) {
	if len(messages) == 0 {
		return
	}

	values := make([]any, 0, len(messages))
	for _, msg := range messages {
		data, err := json.Marshal(msg)
		if err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("encode cached message")
			return
		}
		values = append(values, data)
	}

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.RPush(ctx, key, values...)
	pipe.LTrim(ctx, key, 0, int64(c.limit-1))
	if c.ttl > 0 {
		pipe.Expire(ctx, key, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("fill history cache")
	}
}

func (c *Cache) invalidate(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("invalidate history cache")
	}
}
