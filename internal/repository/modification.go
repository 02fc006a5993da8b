package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/racevault/market-server/internal/database"
	"github.com/racevault/market-server/internal/model"
)

type ModificationRepository interface {
	Create(ctx context.Context, params model.CreateModificationParams) (*model.VehicleModification, error)
	Decline(ctx context.Context, modID, vehicleCode string) (*model.VehicleModification, error)
	FindByModID(ctx context.Context, modID string) (*model.VehicleModification, error)
}

type modificationRepo struct {
	db database.DBTX
}

func NewModificationRepository(db database.DBTX) ModificationRepository {
	return &modificationRepo{db: db}
}

func (r *modificationRepo) Create(ctx context.Context, params model.CreateModificationParams) (*model.VehicleModification, error) {
	var m model.VehicleModification
	err := r.db.GetContext(ctx, &m, `
		INSERT INTO vehicle_modifications (id, mod_id, vehicle_code, player_name, total_cost, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *
	`, uuid.NewString(), params.ModID, params.VehicleCode, params.PlayerName, params.TotalCost, params.Payload)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Decline marks a pending modification declined. Returns nil when nothing pending matched.
func (r *modificationRepo) Decline(ctx context.Context, modID, vehicleCode string) (*model.VehicleModification, error) {
	var m model.VehicleModification
	err := r.db.GetContext(ctx, &m, `
		UPDATE vehicle_modifications SET status = 'declined'
		WHERE mod_id = $1 AND vehicle_code = $2 AND status = 'pending'
		RETURNING *
	`, modID, vehicleCode)
	return HandleNotFound(&m, err)
}

func (r *modificationRepo) FindByModID(ctx context.Context, modID string) (*model.VehicleModification, error) {
	var m model.VehicleModification
	err := r.db.GetContext(ctx, &m, `SELECT * FROM vehicle_modifications WHERE mod_id = $1`, modID)
	return HandleNotFound(&m, err)
}
