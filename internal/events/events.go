package events

import (
	"context"

	"github.com/racevault/market-server/internal/model"
)

const (
	topicVehiclePrefix = "racevault.vehicle."

	TopicSyncCompleted = "racevault.sync.completed"
)

// VehicleTopic is the subject a vehicle event of the given kind is mirrored to.
func VehicleTopic(kind model.EventKind) string {
	return topicVehiclePrefix + string(kind)
}

type SyncCompleted struct {
	Code     string  `json:"code"`
	Wallet   string  `json:"wallet"`
	PlayerID string  `json:"playerId"`
	Balance  float64 `json:"balance"`
}

// Publisher is the interface for emitting events to other services.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
