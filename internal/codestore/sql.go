package codestore

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/racevault/market-server/internal/database"
	"github.com/racevault/market-server/internal/model"
	"github.com/racevault/market-server/internal/repository"
)

// SQLStore keeps codes in Postgres. Consumed rows stay archived with used_at set.
type SQLStore struct {
	db    *database.DB
	codes repository.PairingCodeRepository
}

func NewSQLStore(db *database.DB) *SQLStore {
	return &SQLStore{
		db:    db,
		codes: repository.NewPairingCodeRepository(db.DB),
	}
}

func (s *SQLStore) Create(ctx context.Context, code string, payload model.SyncPayload, ttl time.Duration) (*model.PairingCode, error) {
	pc, err := s.codes.Create(ctx, model.CreatePairingCodeParams{
		Code:      code,
		Payload:   payload,
		ExpiresAt: time.Now().Add(ttl),
	})
	if err != nil {
		return nil, fmt.Errorf("create pairing code: %w", err)
	}
	if pc == nil {
		return nil, ErrAlreadyExists
	}
	return pc, nil
}

func (s *SQLStore) Get(ctx context.Context, code string) (*model.PairingCode, error) {
	pc, err := s.codes.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get pairing code: %w", err)
	}
	if pc == nil {
		return nil, ErrNotFound
	}
	return pc, nil
}

func (s *SQLStore) Consume(ctx context.Context, code, playerID string) (*model.PairingCode, error) {
	return consumeWith(ctx, s.codes, code, playerID)
}

// ConsumeAndLink burns the code and writes the wallet's player link in one transaction.
func (s *SQLStore) ConsumeAndLink(ctx context.Context, code, playerID string) (*model.PairingCode, *model.User, error) {
	var (
		pc   *model.PairingCode
		user *model.User
	)

	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		pc, err = consumeWith(ctx, repository.NewPairingCodeRepository(tx), code, playerID)
		if err != nil {
			return err
		}

		user, err = repository.NewUserRepository(tx).LinkPlayer(ctx, model.LinkPlayerParams{
			WalletAddress: pc.Wallet,
			PlayerID:      playerID,
			TokenBalance:  pc.Balance,
		})
		if err != nil {
			return fmt.Errorf("link player: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return pc, user, nil
}

// DeleteExpired removes expired codes that were never redeemed.
func (s *SQLStore) DeleteExpired(ctx context.Context) (int64, error) {
	return s.codes.DeleteExpired(ctx)
}

func consumeWith(ctx context.Context, codes repository.PairingCodeRepository, code, playerID string) (*model.PairingCode, error) {
	pc, err := codes.Consume(ctx, code, playerID)
	if err != nil {
		return nil, fmt.Errorf("consume pairing code: %w", err)
	}
	if pc != nil {
		return pc, nil
	}

	consumed, err := codes.IsConsumed(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("check pairing code: %w", err)
	}
	if consumed {
		return nil, ErrAlreadyConsumed
	}
	return nil, ErrNotFound
}
