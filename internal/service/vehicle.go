package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/racevault/market-server/internal/audit"
	apperrors "github.com/racevault/market-server/internal/errors"
	"github.com/racevault/market-server/internal/events"
	"github.com/racevault/market-server/internal/model"
	"github.com/racevault/market-server/internal/repository"
	"github.com/racevault/market-server/internal/util"
)

// Broadcaster pushes vehicle events to connected marketplace viewers.
type Broadcaster interface {
	Publish(event model.VehicleEvent) int
}

// WebhookInput is a vehicle lifecycle event reported by the game server.
type WebhookInput struct {
	Event       string          `json:"event"`
	VehicleCode string          `json:"vehicleCode"`
	PlayerID    *string         `json:"playerId"`
	PlayerName  *string         `json:"playerName"`
	VehicleID   *string         `json:"vehicleId"`
	Model       *string         `json:"model"`
	Config      *string         `json:"config"`
	NiceName    *string         `json:"niceName"`
	Price       float64         `json:"price"`
	ConfigJSON  json.RawMessage `json:"configJson"`
	ModID       string          `json:"modId"`
	TotalCost   float64         `json:"totalCost"`

	// Raw is the full request body, kept as the modification payload.
	Raw json.RawMessage `json:"-"`
}

type IngestResult struct {
	Vehicle      *model.Vehicle
	Modification *model.VehicleModification
}

type VehicleService struct {
	vehicles    repository.VehicleRepository
	mods        repository.ModificationRepository
	users       repository.UserRepository
	broadcaster Broadcaster
	publisher   events.Publisher
}

func NewVehicleService(
	vehicles repository.VehicleRepository,
	mods repository.ModificationRepository,
	users repository.UserRepository,
	broadcaster Broadcaster,
	publisher events.Publisher,
) *VehicleService {
	return &VehicleService{
		vehicles:    vehicles,
		mods:        mods,
		users:       users,
		broadcaster: broadcaster,
		publisher:   publisher,
	}
}

// Ingest validates and stores a game event, then broadcasts it. Duplicates are
// rejected before anything is broadcast.
func (s *VehicleService) Ingest(ctx context.Context, in WebhookInput) (*IngestResult, error) {
	if in.Event == "" || !util.IsValidEnum(in.Event, model.WebhookEventKinds) {
		return nil, apperrors.InvalidEvent(in.Event)
	}
	if in.VehicleCode == "" {
		return nil, apperrors.MissingRequired("vehicleCode")
	}

	switch model.EventKind(in.Event) {
	case model.EventCarEdit:
		return s.ingestEdit(ctx, in)
	default:
		return s.ingestSpawn(ctx, in)
	}
}

func (s *VehicleService) ingestSpawn(ctx context.Context, in WebhookInput) (*IngestResult, error) {
	v, err := s.vehicles.Create(ctx, model.CreateVehicleParams{
		VehicleCode: in.VehicleCode,
		PlayerID:    in.PlayerID,
		PlayerName:  in.PlayerName,
		VehicleID:   in.VehicleID,
		Model:       in.Model,
		Config:      in.Config,
		NiceName:    in.NiceName,
		Price:       in.Price,
		ConfigJSON:  model.RawJSON(in.ConfigJSON),
	})
	if repository.IsUniqueViolation(err) {
		return nil, apperrors.Conflict("vehicleCode already exists")
	}
	if err != nil {
		return nil, apperrors.Database(fmt.Errorf("create vehicle: %w", err))
	}

	log.Info().
		Str("vehicleCode", v.VehicleCode).
		Str("playerName", deref(v.PlayerName)).
		Msg("vehicle spawned for sale")

	s.broadcast(ctx, model.VehicleEvent{
		Event:      model.EventCarSpawn,
		Vehicle:    v,
		PlayerID:   deref(v.PlayerID),
		PlayerName: deref(v.PlayerName),
	})

	return &IngestResult{Vehicle: v}, nil
}

func (s *VehicleService) ingestEdit(ctx context.Context, in WebhookInput) (*IngestResult, error) {
	if in.ModID == "" {
		return nil, apperrors.MissingRequired("modId")
	}

	m, err := s.mods.Create(ctx, model.CreateModificationParams{
		ModID:       in.ModID,
		VehicleCode: in.VehicleCode,
		PlayerName:  in.PlayerName,
		TotalCost:   in.TotalCost,
		Payload:     model.RawJSON(in.Raw),
	})
	if repository.IsUniqueViolation(err) {
		return nil, apperrors.Conflict("modId already exists")
	}
	if err != nil {
		return nil, apperrors.Database(fmt.Errorf("create modification: %w", err))
	}

	log.Info().
		Str("vehicleCode", m.VehicleCode).
		Str("modId", m.ModID).
		Float64("totalCost", m.TotalCost).
		Msg("vehicle modification requested")

	s.broadcast(ctx, model.VehicleEvent{
		Event: model.EventCarEdit,
		Vehicle: model.EditedVehicle{
			VehicleCode: in.VehicleCode,
			Model:       deref(in.Model),
			NiceName:    deref(in.NiceName),
		},
		Modification: m,
		PlayerName:   deref(in.PlayerName),
	})

	return &IngestResult{Modification: m}, nil
}

// Purchase confirms a pending vehicle for the wallet linked to playerID.
func (s *VehicleService) Purchase(ctx context.Context, vehicleCode, playerID string) (*model.Vehicle, error) {
	if vehicleCode == "" || playerID == "" {
		return nil, apperrors.ValidationError("Missing vehicleCode or playerId")
	}

	user, err := s.users.FindByPlayerID(ctx, playerID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil {
		return nil, apperrors.NotFound("User")
	}

	if _, err := s.pendingVehicle(ctx, vehicleCode); err != nil {
		return nil, err
	}

	v, err := s.vehicles.Confirm(ctx, vehicleCode, util.NormalizeWallet(user.WalletAddress))
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if v == nil {
		return nil, apperrors.InvalidState("Vehicle is no longer pending")
	}

	audit.Log(ctx, audit.Event{
		Type:     audit.EventPurchaseConfirmed,
		Wallet:   user.WalletAddress,
		PlayerID: playerID,
		Details:  map[string]interface{}{"vehicleCode": vehicleCode, "price": v.Price},
	})

	s.broadcast(ctx, model.VehicleEvent{
		Event:      model.EventCarPurchased,
		Vehicle:    v,
		PlayerID:   playerID,
		PlayerName: deref(v.PlayerName),
	})

	return v, nil
}

// Reject moves a pending vehicle to rejected.
func (s *VehicleService) Reject(ctx context.Context, vehicleCode string) (*model.Vehicle, error) {
	if vehicleCode == "" {
		return nil, apperrors.MissingRequired("vehicleCode")
	}

	if _, err := s.pendingVehicle(ctx, vehicleCode); err != nil {
		return nil, err
	}

	v, err := s.vehicles.Reject(ctx, vehicleCode)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if v == nil {
		return nil, apperrors.InvalidState("Vehicle is no longer pending")
	}

	audit.Log(ctx, audit.Event{
		Type:    audit.EventPurchaseRejected,
		Details: map[string]interface{}{"vehicleCode": vehicleCode},
	})

	s.broadcast(ctx, model.VehicleEvent{
		Event:      model.EventCarRejected,
		Vehicle:    v,
		PlayerName: deref(v.PlayerName),
	})

	return v, nil
}

func (s *VehicleService) pendingVehicle(ctx context.Context, vehicleCode string) (*model.Vehicle, error) {
	v, err := s.vehicles.FindByCode(ctx, vehicleCode)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if v == nil {
		return nil, apperrors.NotFound("Vehicle")
	}
	if v.PurchaseStatus != model.PurchaseStatusPending {
		return nil, apperrors.InvalidState(fmt.Sprintf("Vehicle status is already '%s'", v.PurchaseStatus))
	}
	return v, nil
}

// AuthorizeSpawn returns the vehicle config when playerID owns the confirmed vehicle.
func (s *VehicleService) AuthorizeSpawn(ctx context.Context, vehicleCode, playerID string) (model.RawJSON, error) {
	if vehicleCode == "" || playerID == "" {
		return nil, apperrors.ValidationError("Missing vehicle code or player ID")
	}

	v, err := s.vehicles.FindByCode(ctx, vehicleCode)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if v == nil {
		return nil, apperrors.NotFound("Vehicle")
	}
	if v.PurchaseStatus != model.PurchaseStatusConfirmed {
		return nil, apperrors.Forbidden("This vehicle is not confirmed.")
	}

	owned, err := s.ownedBy(ctx, v, playerID)
	if err != nil {
		return nil, err
	}
	if !owned {
		audit.Log(ctx, audit.Event{
			Type:     audit.EventSpawnDenied,
			PlayerID: playerID,
			Details:  map[string]interface{}{"vehicleCode": vehicleCode},
		})
		return nil, apperrors.Forbidden("You are not the owner of this vehicle")
	}

	return v.ConfigJSON, nil
}

func (s *VehicleService) ownedBy(ctx context.Context, v *model.Vehicle, playerID string) (bool, error) {
	if v.OwnerWallet == nil {
		return false, nil
	}
	owner, err := s.users.FindByWallet(ctx, *v.OwnerWallet)
	if err != nil {
		return false, apperrors.Database(err)
	}
	return owner != nil && owner.PlayerID != nil && *owner.PlayerID == playerID, nil
}

func (s *VehicleService) PurchaseStatus(ctx context.Context, vehicleCode string) (*model.Vehicle, error) {
	if vehicleCode == "" {
		return nil, apperrors.MissingRequired("vehicleCode")
	}

	v, err := s.vehicles.FindByCode(ctx, vehicleCode)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if v == nil {
		return nil, apperrors.NotFound("Vehicle")
	}
	return v, nil
}

// PlayerVehicles lists confirmed vehicles owned by the wallet linked to playerID.
func (s *VehicleService) PlayerVehicles(ctx context.Context, playerID string, limit, offset int) ([]model.Vehicle, error) {
	user, err := s.users.FindByPlayerID(ctx, playerID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil {
		return nil, apperrors.NotFound("User")
	}

	vehicles, err := s.vehicles.ListByOwner(ctx, util.NormalizeWallet(user.WalletAddress), model.PurchaseStatusConfirmed, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return vehicles, nil
}

// Listings returns vehicles in the given purchase status, pending by default.
func (s *VehicleService) Listings(ctx context.Context, status string, limit, offset int) ([]model.Vehicle, error) {
	if !util.IsValidEnum(status, model.PurchaseStatuses) {
		return nil, apperrors.InvalidInput("status", "must be pending, confirmed or rejected")
	}
	if status == "" {
		status = string(model.PurchaseStatusPending)
	}

	vehicles, err := s.vehicles.ListByStatus(ctx, model.PurchaseStatus(status), limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return vehicles, nil
}

// DeclineEdit declines a pending modification and tells the game.
func (s *VehicleService) DeclineEdit(ctx context.Context, modID, vehicleCode string) (*model.VehicleModification, error) {
	if modID == "" || vehicleCode == "" {
		return nil, apperrors.ValidationError("Missing modId or vehicleCode")
	}

	m, err := s.mods.Decline(ctx, modID, vehicleCode)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if m == nil {
		existing, err := s.mods.FindByModID(ctx, modID)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		if existing == nil || existing.VehicleCode != vehicleCode {
			return nil, apperrors.NotFound("Modification")
		}
		return nil, apperrors.InvalidState(fmt.Sprintf("Modification status is already '%s'", existing.Status))
	}

	s.broadcast(ctx, model.VehicleEvent{
		Event:        model.EventCarEditDeclined,
		Vehicle:      model.EditedVehicle{VehicleCode: vehicleCode},
		Modification: m,
		PlayerName:   deref(m.PlayerName),
	})

	return m, nil
}

func (s *VehicleService) UserByWallet(ctx context.Context, wallet string) (*model.User, error) {
	if wallet == "" {
		return nil, apperrors.MissingRequired("wallet")
	}

	user, err := s.users.FindByWallet(ctx, wallet)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil {
		return nil, apperrors.NotFound("User")
	}
	return user, nil
}

func (s *VehicleService) broadcast(ctx context.Context, event model.VehicleEvent) {
	delivered := s.broadcaster.Publish(event)

	if err := s.publisher.Publish(ctx, events.VehicleTopic(event.Event), event); err != nil {
		log.Warn().Err(err).Str("event", string(event.Event)).Msg("failed to mirror vehicle event")
	}

	log.Debug().
		Str("event", string(event.Event)).
		Int("delivered", delivered).
		Msg("vehicle event broadcast")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
