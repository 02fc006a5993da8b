package model

import (
	"time"
)

// User is the wallet record; PlayerID is the linked game account.
type User struct {
	ID            string    `db:"id" json:"id"`
	WalletAddress string    `db:"wallet_address" json:"walletAddress"`
	PlayerID      *string   `db:"player_id" json:"playerId,omitempty"`
	TokenBalance  float64   `db:"token_balance" json:"tokenBalance"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

type LinkPlayerParams struct {
	WalletAddress string
	PlayerID      string
	TokenBalance  float64
}
