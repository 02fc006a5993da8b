package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/racevault/market-server/internal/database"
	"github.com/racevault/market-server/internal/model"
)

type UserRepository interface {
	FindByWallet(ctx context.Context, wallet string) (*model.User, error)
	FindByPlayerID(ctx context.Context, playerID string) (*model.User, error)
	LinkPlayer(ctx context.Context, params model.LinkPlayerParams) (*model.User, error)
}

type userRepo struct {
	db database.DBTX
}

func NewUserRepository(db database.DBTX) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) FindByWallet(ctx context.Context, wallet string) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, `
		SELECT * FROM users WHERE LOWER(wallet_address) = LOWER($1)
	`, wallet)
	return HandleNotFound(&u, err)
}

func (r *userRepo) FindByPlayerID(ctx context.Context, playerID string) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, `
		SELECT * FROM users WHERE player_id = $1
	`, playerID)
	return HandleNotFound(&u, err)
}

// LinkPlayer creates the wallet's user record if needed and sets its player id.
// A player id already linked to another wallet fails with a unique violation.
func (r *userRepo) LinkPlayer(ctx context.Context, params model.LinkPlayerParams) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, `
		INSERT INTO users (id, wallet_address, player_id, token_balance)
		VALUES ($1, LOWER($2), $3, $4)
		ON CONFLICT (wallet_address) DO UPDATE SET
			player_id = EXCLUDED.player_id,
			token_balance = EXCLUDED.token_balance,
			updated_at = NOW()
		RETURNING *
	`, uuid.NewString(), params.WalletAddress, params.PlayerID, params.TokenBalance)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
