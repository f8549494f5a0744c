package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memoryai/internal/model"
)

func newTestCache(t *testing.T) (*SessionCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionCache(client, time.Minute), mr
}

func TestSessionCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_, hit, err := c.GetContext(ctx, "sess1")
	require.NoError(t, err)
	assert.False(t, hit)

	turns := []model.Turn{{Query: "q", Answer: "a", Sources: []string{"s"}}}
	require.NoError(t, c.SetContext(ctx, "sess1", turns))

	got, hit, err := c.GetContext(ctx, "sess1")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, turns, got)
}

func TestSessionCacheEmptyWindowIsAHit(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetContext(ctx, "sess1", nil))

	got, hit, err := c.GetContext(ctx, "sess1")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Empty(t, got)
}

func TestSessionCacheInvalidate(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetContext(ctx, "sess1", []model.Turn{{Query: "q"}}))
	require.NoError(t, c.Invalidate(ctx, "sess1"))

	_, hit, err := c.GetContext(ctx, "sess1")
	require.NoError(t, err)
	assert.False(t, hit)

	// Invalidating an absent key is not an error.
	assert.NoError(t, c.Invalidate(ctx, "sess1"))
}

func TestSessionCacheTTLExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetContext(ctx, "sess1", []model.Turn{{Query: "q"}}))
	mr.FastForward(2 * time.Minute)

	_, hit, err := c.GetContext(ctx, "sess1")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestSessionCacheKeysIsolatedPerSession(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetContext(ctx, "sess1", []model.Turn{{Query: "one"}}))
	require.NoError(t, c.SetContext(ctx, "sess2", []model.Turn{{Query: "two"}}))

	got, hit, err := c.GetContext(ctx, "sess2")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "two", got[0].Query)
}
