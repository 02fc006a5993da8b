// Package codestore holds short-lived, single-use pairing codes.
//
// Every backend enforces the same contract: a code is created once, may be read
// while live, and is consumed by exactly one caller. Expiry is checked lazily on
// read, so a code past its TTL behaves as if it never existed.
package codestore

import (
	"context"
	"errors"
	"time"

	"github.com/racevault/market-server/internal/model"
)

var (
	ErrNotFound        = errors.New("pairing code not found")
	ErrAlreadyExists   = errors.New("pairing code already exists")
	ErrAlreadyConsumed = errors.New("pairing code already consumed")
)

type Store interface {
	Create(ctx context.Context, code string, payload model.SyncPayload, ttl time.Duration) (*model.PairingCode, error)
	Get(ctx context.Context, code string) (*model.PairingCode, error)
	Consume(ctx context.Context, code, playerID string) (*model.PairingCode, error)
}

// LinkingStore burns a code and links the player to its wallet in one step.
// If linking fails the code stays redeemable.
type LinkingStore interface {
	Store
	ConsumeAndLink(ctx context.Context, code, playerID string) (*model.PairingCode, *model.User, error)
}

// Expirer is implemented by backends that keep expired codes until swept.
// Redis drops keys on its own and does not need it.
type Expirer interface {
	DeleteExpired(ctx context.Context) (int64, error)
}
