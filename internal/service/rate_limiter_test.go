package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func newTestLimiter(t *testing.T) (*RateLimiter, *time.Time) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	now := time.Unix(1_700_000_000, 0)
	limiter := NewRateLimiter(client)
	limiter.now = func() time.Time { return now }
	return limiter, &now
}

func TestRateLimiter_CheckLimit(t *testing.T) {
	ctx := context.Background()

	t.Run("allows requests within limit", func(t *testing.T) {
		limiter, now := newTestLimiter(t)

		for i := 0; i < 3; i++ {
			allowed, _ := limiter.CheckLimit(ctx, "verify", "1.2.3.4", 3, 10*time.Second)
			assert.True(t, allowed, "Request %d should be allowed", i+1)
		}

		allowed, resetAt := limiter.CheckLimit(ctx, "verify", "1.2.3.4", 3, 10*time.Second)
		assert.False(t, allowed, "Request should be rate limited")
		assert.True(t, resetAt.After(*now), "Reset time should be in future")
	})

	t.Run("sliding window behavior", func(t *testing.T) {
		limiter, now := newTestLimiter(t)

		allowed, _ := limiter.CheckLimit(ctx, "verify", "ip", 2, 2*time.Second)
		assert.True(t, allowed)
		allowed, _ = limiter.CheckLimit(ctx, "verify", "ip", 2, 2*time.Second)
		assert.True(t, allowed)

		allowed, _ = limiter.CheckLimit(ctx, "verify", "ip", 2, 2*time.Second)
		assert.False(t, allowed)

		*now = now.Add(3 * time.Second)

		allowed, _ = limiter.CheckLimit(ctx, "verify", "ip", 2, 2*time.Second)
		assert.True(t, allowed)
	})

	t.Run("scopes and ids are independent", func(t *testing.T) {
		limiter, _ := newTestLimiter(t)

		allowed, _ := limiter.CheckLimit(ctx, "verify", "ip1", 1, time.Minute)
		assert.True(t, allowed)
		allowed, _ = limiter.CheckLimit(ctx, "verify", "ip1", 1, time.Minute)
		assert.False(t, allowed)

		allowed, _ = limiter.CheckLimit(ctx, "verify", "ip2", 1, time.Minute)
		assert.True(t, allowed)
		allowed, _ = limiter.CheckLimit(ctx, "issue", "ip1", 1, time.Minute)
		assert.True(t, allowed)
	})
}

func TestRateLimiter_RedisDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	limiter := NewRateLimiter(client)

	allowed, resetAt := limiter.CheckLimit(context.Background(), "verify", "ip", 1, time.Minute)
	assert.False(t, allowed, "Should deny when Redis is unreachable")
	assert.True(t, resetAt.After(time.Now()))
}
