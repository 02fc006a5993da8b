package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/racevault/market-server/internal/database"
	"github.com/racevault/market-server/internal/model"
)

type VehicleRepository interface {
	FindByCode(ctx context.Context, vehicleCode string) (*model.Vehicle, error)
	Create(ctx context.Context, params model.CreateVehicleParams) (*model.Vehicle, error)
	Confirm(ctx context.Context, vehicleCode, ownerWallet string) (*model.Vehicle, error)
	Reject(ctx context.Context, vehicleCode string) (*model.Vehicle, error)
	ListByOwner(ctx context.Context, ownerWallet string, status model.PurchaseStatus, limit, offset int) ([]model.Vehicle, error)
	ListByStatus(ctx context.Context, status model.PurchaseStatus, limit, offset int) ([]model.Vehicle, error)
}

type vehicleRepo struct {
	db database.DBTX
}

func NewVehicleRepository(db database.DBTX) VehicleRepository {
	return &vehicleRepo{db: db}
}

func (r *vehicleRepo) FindByCode(ctx context.Context, vehicleCode string) (*model.Vehicle, error) {
	var v model.Vehicle
	err := r.db.GetContext(ctx, &v, `SELECT * FROM vehicles WHERE vehicle_code = $1`, vehicleCode)
	return HandleNotFound(&v, err)
}

func (r *vehicleRepo) Create(ctx context.Context, params model.CreateVehicleParams) (*model.Vehicle, error) {
	var v model.Vehicle
	err := r.db.GetContext(ctx, &v, `
		INSERT INTO vehicles (
			id, vehicle_code, player_id, player_name, vehicle_id,
			model, config, nice_name, price, config_json
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING *
	`, uuid.NewString(), params.VehicleCode, params.PlayerID, params.PlayerName, params.VehicleID,
		params.Model, params.Config, params.NiceName, params.Price, params.ConfigJSON)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Confirm moves a pending vehicle to confirmed. Returns nil when the vehicle was not pending.
func (r *vehicleRepo) Confirm(ctx context.Context, vehicleCode, ownerWallet string) (*model.Vehicle, error) {
	var v model.Vehicle
	err := r.db.GetContext(ctx, &v, `
		UPDATE vehicles SET
			purchase_status = 'confirmed',
			owner_wallet = $2,
			updated_at = NOW()
		WHERE vehicle_code = $1 AND purchase_status = 'pending'
		RETURNING *
	`, vehicleCode, ownerWallet)
	return HandleNotFound(&v, err)
}

// Reject moves a pending vehicle to rejected. Returns nil when the vehicle was not pending.
func (r *vehicleRepo) Reject(ctx context.Context, vehicleCode string) (*model.Vehicle, error) {
	var v model.Vehicle
	err := r.db.GetContext(ctx, &v, `
		UPDATE vehicles SET
			purchase_status = 'rejected',
			updated_at = NOW()
		WHERE vehicle_code = $1 AND purchase_status = 'pending'
		RETURNING *
	`, vehicleCode)
	return HandleNotFound(&v, err)
}

func (r *vehicleRepo) ListByOwner(ctx context.Context, ownerWallet string, status model.PurchaseStatus, limit, offset int) ([]model.Vehicle, error) {
	vehicles := []model.Vehicle{}
	err := r.db.SelectContext(ctx, &vehicles, `
		SELECT * FROM vehicles
		WHERE owner_wallet = $1 AND purchase_status = $2
		ORDER BY updated_at DESC
		LIMIT $3 OFFSET $4
	`, ownerWallet, status, limit, offset)
	return vehicles, err
}

func (r *vehicleRepo) ListByStatus(ctx context.Context, status model.PurchaseStatus, limit, offset int) ([]model.Vehicle, error) {
	vehicles := []model.Vehicle{}
	err := r.db.SelectContext(ctx, &vehicles, `
		SELECT * FROM vehicles
		WHERE purchase_status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	return vehicles, err
}
