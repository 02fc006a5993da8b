package service

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/racevault/market-server/internal/chain"
	"github.com/racevault/market-server/internal/model"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) FindByWallet(ctx context.Context, wallet string) (*model.User, error) {
	args := m.Called(ctx, wallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) FindByPlayerID(ctx context.Context, playerID string) (*model.User, error) {
	args := m.Called(ctx, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) LinkPlayer(ctx context.Context, params model.LinkPlayerParams) (*model.User, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

type mockVehicleRepo struct {
	mock.Mock
}

func (m *mockVehicleRepo) FindByCode(ctx context.Context, vehicleCode string) (*model.Vehicle, error) {
	args := m.Called(ctx, vehicleCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Vehicle), args.Error(1)
}

func (m *mockVehicleRepo) Create(ctx context.Context, params model.CreateVehicleParams) (*model.Vehicle, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Vehicle), args.Error(1)
}

func (m *mockVehicleRepo) Confirm(ctx context.Context, vehicleCode, ownerWallet string) (*model.Vehicle, error) {
	args := m.Called(ctx, vehicleCode, ownerWallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Vehicle), args.Error(1)
}

func (m *mockVehicleRepo) Reject(ctx context.Context, vehicleCode string) (*model.Vehicle, error) {
	args := m.Called(ctx, vehicleCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Vehicle), args.Error(1)
}

func (m *mockVehicleRepo) ListByOwner(ctx context.Context, ownerWallet string, status model.PurchaseStatus, limit, offset int) ([]model.Vehicle, error) {
	args := m.Called(ctx, ownerWallet, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Vehicle), args.Error(1)
}

func (m *mockVehicleRepo) ListByStatus(ctx context.Context, status model.PurchaseStatus, limit, offset int) ([]model.Vehicle, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Vehicle), args.Error(1)
}

type mockModRepo struct {
	mock.Mock
}

func (m *mockModRepo) Create(ctx context.Context, params model.CreateModificationParams) (*model.VehicleModification, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VehicleModification), args.Error(1)
}

func (m *mockModRepo) Decline(ctx context.Context, modID, vehicleCode string) (*model.VehicleModification, error) {
	args := m.Called(ctx, modID, vehicleCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VehicleModification), args.Error(1)
}

func (m *mockModRepo) FindByModID(ctx context.Context, modID string) (*model.VehicleModification, error) {
	args := m.Called(ctx, modID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VehicleModification), args.Error(1)
}

type mockAssetReader struct {
	mock.Mock
}

func (m *mockAssetReader) Assets(ctx context.Context, wallet string) (*chain.Assets, error) {
	args := m.Called(ctx, wallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chain.Assets), args.Error(1)
}

type published struct {
	topic string
	event any
}

// recordingPublisher captures mirrored events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(ctx context.Context, topic string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{topic: topic, event: event})
	return nil
}

func (p *recordingPublisher) Close() error {
	return nil
}

func (p *recordingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.topic)
	}
	return out
}

func strPtr(s string) *string {
	return &s
}

func floatPtr(f float64) *float64 {
	return &f
}
