package model

type EventKind string

const (
	EventCarSpawn        EventKind = "car_spawn"
	EventCarEdit         EventKind = "car_edit"
	EventCarPurchased    EventKind = "car_purchased"
	EventCarRejected     EventKind = "car_rejected"
	EventCarEditDeclined EventKind = "car_edit_declined"
)

// WebhookEventKinds is the allow-list accepted from the game server.
var WebhookEventKinds = []string{string(EventCarSpawn), string(EventCarEdit)}

// VehicleEvent is the frame pushed to marketplace viewers.
type VehicleEvent struct {
	Event        EventKind            `json:"event"`
	Vehicle      any                  `json:"vehicle,omitempty"`
	Modification *VehicleModification `json:"modification,omitempty"`
	PlayerID     string               `json:"playerId,omitempty"`
	PlayerName   string               `json:"playerName,omitempty"`
}

// EditedVehicle is the vehicle summary carried by car_edit events.
type EditedVehicle struct {
	VehicleCode string `json:"vehicleCode"`
	Model       string `json:"model,omitempty"`
	NiceName    string `json:"niceName,omitempty"`
}
