package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"memoryai/internal/model"
)

// SessionCache keeps recently read session context windows in redis. Every
// turn append invalidates the cached window, so readers never observe stale
// context; the cache only saves database round trips on read-heavy
// navigation.
type SessionCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewSessionCache(client *redisv9.Client, ttl time.Duration) *SessionCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &SessionCache{client: client, ttl: ttl}
}

func (c *SessionCache) GetContext(ctx context.Context, sessionID string) ([]model.Turn, bool, error) {
	raw, err := c.client.Get(ctx, c.contextKey(sessionID)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get session context failed: %w", err)
	}

	var turns []model.Turn
	if err := json.Unmarshal([]byte(raw), &turns); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached session context failed: %w", err)
	}
	return turns, true, nil
}

func (c *SessionCache) SetContext(ctx context.Context, sessionID string, turns []model.Turn) error {
	payload, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("marshal session context failed: %w", err)
	}
	if err := c.client.Set(ctx, c.contextKey(sessionID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session context failed: %w", err)
	}
	return nil
}

func (c *SessionCache) Invalidate(ctx context.Context, sessionID string) error {
	if err := c.client.Del(ctx, c.contextKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete session context failed: %w", err)
	}
	return nil
}

func (c *SessionCache) contextKey(sessionID string) string {
	return "kb:session:context:" + sessionID
}
