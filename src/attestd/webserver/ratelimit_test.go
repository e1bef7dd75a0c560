package webserver

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterSlidingWindow(t *testing.T) {
	rl := NewMemoryLimiter(time.Hour)
	defer rl.Close()
	now := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := rl.Allow(ctx, "k", 3, 15*time.Minute)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 2-i, d.Remaining)
		now = now.Add(time.Minute)
	}

	d, err := rl.Allow(ctx, "k", 3, 15*time.Minute)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, time.Unix(1_700_000_000, 0).Add(15*time.Minute), d.ResetAt)

	other, err := rl.Allow(ctx, "other", 3, 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	now = time.Unix(1_700_000_000, 0).Add(15 * time.Minute)
	d, err = rl.Allow(ctx, "k", 3, 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	rl.cleanup(15 * time.Minute)
	rl.mu.Lock()
	assert.Len(t, rl.requests["k"], 3)
	rl.mu.Unlock()

	now = now.Add(time.Hour)
	rl.cleanup(15 * time.Minute)
	rl.mu.Lock()
	assert.Empty(t, rl.requests)
	rl.mu.Unlock()
}

func TestMemoryLimiterDisabled(t *testing.T) {
	rl := NewMemoryLimiter(time.Hour)
	defer rl.Close()
	d, err := rl.Allow(context.Background(), "k", 0, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	rl := NewRedisLimiter(client)
	ctx := context.Background()
	key := rateLimitKey("203.0.113.7")

	for i := 0; i < 2; i++ {
		d, err := rl.Allow(ctx, key, 2, 15*time.Minute)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 1-i, d.Remaining)
	}
	d, err := rl.Allow(ctx, key, 2, 15*time.Minute)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.True(t, d.ResetAt.After(time.Now()))

	mr.FastForward(16 * time.Minute)
	d, err = rl.Allow(ctx, key, 2, 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRedisLimiterError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	mr.Close()

	_, err := NewRedisLimiter(client).Allow(context.Background(), "k", 2, time.Minute)
	assert.Error(t, err)
}

func TestRateLimitKeyHidesIP(t *testing.T) {
	key := rateLimitKey("203.0.113.7")
	assert.NotContains(t, key, "203.0.113.7")
	assert.Equal(t, key, rateLimitKey("203.0.113.7"))
	assert.NotEqual(t, key, rateLimitKey("203.0.113.8"))
}
