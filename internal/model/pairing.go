package model

import (
	"time"
)

// SyncPayload is the wallet snapshot bound to a pairing code at registration.
type SyncPayload struct {
	Wallet   string   `json:"wallet"`
	Balance  float64  `json:"balance"`
	Vehicles []string `json:"vehicles"`
}

type PairingCode struct {
	Code      string      `db:"code" json:"code"`
	Wallet    string      `db:"wallet_address" json:"wallet"`
	Balance   float64     `db:"balance" json:"balance"`
	Vehicles  StringArray `db:"vehicles" json:"vehicles"`
	ExpiresAt time.Time   `db:"expires_at" json:"expiresAt"`
	UsedAt    *time.Time  `db:"used_at" json:"usedAt,omitempty"`
	UsedBy    *string     `db:"used_by" json:"usedBy,omitempty"`
	CreatedAt time.Time   `db:"created_at" json:"createdAt"`
}

func (pc *PairingCode) Payload() SyncPayload {
	vehicles := []string(pc.Vehicles)
	if vehicles == nil {
		vehicles = []string{}
	}
	return SyncPayload{
		Wallet:   pc.Wallet,
		Balance:  pc.Balance,
		Vehicles: vehicles,
	}
}

func (pc *PairingCode) Status() SyncStatus {
	if pc.UsedAt != nil {
		return SyncStatusCompleted
	}
	return SyncStatusPending
}

type CreatePairingCodeParams struct {
	Code      string
	Payload   SyncPayload
	ExpiresAt time.Time
}
