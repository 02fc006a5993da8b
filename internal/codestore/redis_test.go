package codestore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisclient "github.com/racevault/market-server/internal/redis"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		_, client := newMiniRedis(t)
		return NewRedisStore(client)
	})
}

func TestRedisStore_Expiry(t *testing.T) {
	ctx := context.Background()

	t.Run("drops the code when its ttl passes", func(t *testing.T) {
		mr, client := newMiniRedis(t)
		s := NewRedisStore(client)

		_, err := s.Create(ctx, "TTL001", samplePayload(), 300*time.Second)
		require.NoError(t, err)
		assert.Equal(t, 300*time.Second, mr.TTL(redisclient.SyncCodeKey("TTL001")))

		mr.FastForward(301 * time.Second)

		_, err = s.Get(ctx, "TTL001")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.Consume(ctx, "TTL001", "player-1")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("moves a consumed code to the done key with the remaining ttl", func(t *testing.T) {
		mr, client := newMiniRedis(t)
		s := NewRedisStore(client)

		_, err := s.Create(ctx, "DONE01", samplePayload(), 300*time.Second)
		require.NoError(t, err)

		mr.FastForward(100 * time.Second)

		_, err = s.Consume(ctx, "DONE01", "player-1")
		require.NoError(t, err)

		assert.False(t, mr.Exists(redisclient.SyncCodeKey("DONE01")))
		assert.True(t, mr.Exists(redisclient.SyncDoneKey("DONE01")))
		assert.Equal(t, 200*time.Second, mr.TTL(redisclient.SyncDoneKey("DONE01")))
	})

	t.Run("blocks re-creating a code consumed in the same window", func(t *testing.T) {
		_, client := newMiniRedis(t)
		s := NewRedisStore(client)

		_, err := s.Create(ctx, "BLOCK1", samplePayload(), time.Minute)
		require.NoError(t, err)
		_, err = s.Consume(ctx, "BLOCK1", "player-1")
		require.NoError(t, err)

		_, err = s.Create(ctx, "BLOCK1", samplePayload(), time.Minute)
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})
}
