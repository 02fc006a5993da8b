package repository

import (
	"context"

	"github.com/racevault/market-server/internal/database"
	"github.com/racevault/market-server/internal/model"
)

type PairingCodeRepository interface {
	FindByCode(ctx context.Context, code string) (*model.PairingCode, error)
	IsConsumed(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, params model.CreatePairingCodeParams) (*model.PairingCode, error)
	Consume(ctx context.Context, code string, usedBy string) (*model.PairingCode, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type pairingCodeRepo struct {
	db database.DBTX
}

func NewPairingCodeRepository(db database.DBTX) PairingCodeRepository {
	return &pairingCodeRepo{db: db}
}

// FindByCode returns the unexpired code, consumed or not.
func (r *pairingCodeRepo) FindByCode(ctx context.Context, code string) (*model.PairingCode, error) {
	var pc model.PairingCode
	err := r.db.GetContext(ctx, &pc, `
		SELECT * FROM pairing_codes
		WHERE code = $1 AND expires_at > NOW()
	`, code)
	return HandleNotFound(&pc, err)
}

func (r *pairingCodeRepo) IsConsumed(ctx context.Context, code string) (bool, error) {
	var consumed bool
	err := r.db.GetContext(ctx, &consumed, `
		SELECT EXISTS (
			SELECT 1 FROM pairing_codes
			WHERE code = $1 AND used_at IS NOT NULL AND expires_at > NOW()
		)
	`, code)
	return consumed, err
}

// Create inserts the code, replacing a row only when it expired unused.
// Returns nil without error when a live or consumed code already holds the key.
func (r *pairingCodeRepo) Create(ctx context.Context, params model.CreatePairingCodeParams) (*model.PairingCode, error) {
	var pc model.PairingCode
	err := r.db.GetContext(ctx, &pc, `
		INSERT INTO pairing_codes (code, wallet_address, balance, vehicles, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (code) DO UPDATE SET
			wallet_address = EXCLUDED.wallet_address,
			balance = EXCLUDED.balance,
			vehicles = EXCLUDED.vehicles,
			expires_at = EXCLUDED.expires_at,
			created_at = NOW()
		WHERE pairing_codes.used_at IS NULL AND pairing_codes.expires_at <= NOW()
		RETURNING *
	`, params.Code, params.Payload.Wallet, params.Payload.Balance,
		model.StringArray(params.Payload.Vehicles), params.ExpiresAt)
	return HandleNotFound(&pc, err)
}

// Consume marks a live code used. Returns nil without error when no live unused code matched.
func (r *pairingCodeRepo) Consume(ctx context.Context, code string, usedBy string) (*model.PairingCode, error) {
	var pc model.PairingCode
	err := r.db.GetContext(ctx, &pc, `
		UPDATE pairing_codes SET
			used_at = NOW(),
			used_by = $2
		WHERE code = $1 AND used_at IS NULL AND expires_at > NOW()
		RETURNING *
	`, code, usedBy)
	return HandleNotFound(&pc, err)
}

func (r *pairingCodeRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM pairing_codes
		WHERE used_at IS NULL AND expires_at < NOW()
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
