package repository

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

// newMockDB creates a sqlmock-backed sqlx handle with automatic expectation checking.
func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return sqlx.NewDb(db, "postgres"), mock
}

var pairingColumns = []string{
	"code", "wallet_address", "balance", "vehicles", "expires_at", "used_at", "used_by", "created_at",
}

var userColumns = []string{
	"id", "wallet_address", "player_id", "token_balance", "created_at", "updated_at",
}

var vehicleColumns = []string{
	"id", "vehicle_code", "player_id", "player_name", "vehicle_id", "model", "config", "nice_name",
	"price", "config_json", "purchase_status", "owner_wallet", "created_at", "updated_at",
}

var modificationColumns = []string{
	"id", "mod_id", "vehicle_code", "player_name", "total_cost", "status", "payload", "created_at",
}
