package codestore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/racevault/market-server/internal/model"
)

func samplePayload() model.SyncPayload {
	return model.SyncPayload{
		Wallet:   "0xAbC0000000000000000000000000000000000001",
		Balance:  42,
		Vehicles: []string{"7", "9"},
	}
}

// runStoreContract exercises the behaviour every backend shares.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("creates and reads back a pending code", func(t *testing.T) {
		s := newStore(t)

		created, err := s.Create(ctx, "ABCDEF", samplePayload(), 5*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, "ABCDEF", created.Code)
		assert.Equal(t, model.SyncStatusPending, created.Status())

		got, err := s.Get(ctx, "ABCDEF")
		require.NoError(t, err)
		assert.Equal(t, samplePayload(), got.Payload())
		assert.Nil(t, got.UsedAt)
	})

	t.Run("rejects a duplicate live code", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Create(ctx, "DUPE01", samplePayload(), 5*time.Minute)
		require.NoError(t, err)

		_, err = s.Create(ctx, "DUPE01", samplePayload(), 5*time.Minute)
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})

	t.Run("returns not found for unknown code", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Get(ctx, "NOPE00")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = s.Consume(ctx, "NOPE00", "player-1")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("consumes once then reports already consumed", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Create(ctx, "ONCE01", samplePayload(), 5*time.Minute)
		require.NoError(t, err)

		pc, err := s.Consume(ctx, "ONCE01", "player-1")
		require.NoError(t, err)
		assert.Equal(t, samplePayload(), pc.Payload())
		require.NotNil(t, pc.UsedBy)
		assert.Equal(t, "player-1", *pc.UsedBy)

		_, err = s.Consume(ctx, "ONCE01", "player-2")
		assert.ErrorIs(t, err, ErrAlreadyConsumed)

		got, err := s.Get(ctx, "ONCE01")
		require.NoError(t, err)
		assert.Equal(t, model.SyncStatusCompleted, got.Status())
	})

	t.Run("keeps an empty vehicle list as empty", func(t *testing.T) {
		s := newStore(t)

		payload := model.SyncPayload{Wallet: "0x1", Balance: 0}
		_, err := s.Create(ctx, "EMPTY1", payload, 5*time.Minute)
		require.NoError(t, err)

		pc, err := s.Consume(ctx, "EMPTY1", "player-1")
		require.NoError(t, err)
		assert.NotNil(t, pc.Payload().Vehicles)
		assert.Empty(t, pc.Payload().Vehicles)
	})

	t.Run("lets exactly one concurrent consumer win", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Create(ctx, "RACE01", samplePayload(), 5*time.Minute)
		require.NoError(t, err)

		const workers = 16
		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			wins     int
			consumed int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Consume(ctx, "RACE01", "player")
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					wins++
				case assert.ErrorIs(t, err, ErrAlreadyConsumed):
					consumed++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, wins)
		assert.Equal(t, workers-1, consumed)
	})
}
