package model

import (
	"time"
)

type Vehicle struct {
	ID             string         `db:"id" json:"id"`
	VehicleCode    string         `db:"vehicle_code" json:"vehicleCode"`
	PlayerID       *string        `db:"player_id" json:"playerId,omitempty"`
	PlayerName     *string        `db:"player_name" json:"playerName,omitempty"`
	VehicleID      *string        `db:"vehicle_id" json:"vehicleId,omitempty"`
	Model          *string        `db:"model" json:"model,omitempty"`
	Config         *string        `db:"config" json:"config,omitempty"`
	NiceName       *string        `db:"nice_name" json:"niceName,omitempty"`
	Price          float64        `db:"price" json:"price"`
	ConfigJSON     RawJSON        `db:"config_json" json:"configJson,omitempty"`
	PurchaseStatus PurchaseStatus `db:"purchase_status" json:"purchaseStatus"`
	OwnerWallet    *string        `db:"owner_wallet" json:"ownerWallet,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updatedAt"`
}

type CreateVehicleParams struct {
	VehicleCode string
	PlayerID    *string
	PlayerName  *string
	VehicleID   *string
	Model       *string
	Config      *string
	NiceName    *string
	Price       float64
	ConfigJSON  RawJSON
}

type VehicleModification struct {
	ID          string             `db:"id" json:"id"`
	ModID       string             `db:"mod_id" json:"modId"`
	VehicleCode string             `db:"vehicle_code" json:"vehicleCode"`
	PlayerName  *string            `db:"player_name" json:"playerName,omitempty"`
	TotalCost   float64            `db:"total_cost" json:"totalCost"`
	Status      ModificationStatus `db:"status" json:"status"`
	Payload     RawJSON            `db:"payload" json:"payload,omitempty"`
	CreatedAt   time.Time          `db:"created_at" json:"createdAt"`
}

type CreateModificationParams struct {
	ModID       string
	VehicleCode string
	PlayerName  *string
	TotalCost   float64
	Payload     RawJSON
}
