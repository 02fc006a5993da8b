package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/racevault/market-server/internal/audit"
	"github.com/racevault/market-server/internal/chain"
	"github.com/racevault/market-server/internal/codestore"
	apperrors "github.com/racevault/market-server/internal/errors"
	"github.com/racevault/market-server/internal/events"
	"github.com/racevault/market-server/internal/idgen"
	"github.com/racevault/market-server/internal/model"
	"github.com/racevault/market-server/internal/repository"
	"github.com/racevault/market-server/internal/sse"
	"github.com/racevault/market-server/internal/util"
)

const maxCodeAttempts = 5

// AssetReader reads a wallet's on-chain holdings.
type AssetReader interface {
	Assets(ctx context.Context, wallet string) (*chain.Assets, error)
}

type RegisterInput struct {
	Code     string
	Wallet   string
	Balance  *float64
	Vehicles []string
}

type RedeemResult struct {
	Wallet    string
	Balance   float64
	Vehicles  []string
	Delivered bool
}

type SyncService struct {
	codes     codestore.Store
	users     repository.UserRepository
	waiters   *sse.Waiters
	publisher events.Publisher
	assets    AssetReader
	ttl       time.Duration
	newCode   func() (string, error)
}

func NewSyncService(
	codes codestore.Store,
	users repository.UserRepository,
	waiters *sse.Waiters,
	publisher events.Publisher,
	assets AssetReader,
	ttl time.Duration,
) *SyncService {
	return &SyncService{
		codes:     codes,
		users:     users,
		waiters:   waiters,
		publisher: publisher,
		assets:    assets,
		ttl:       ttl,
		newCode:   idgen.PairingCode,
	}
}

// Register binds a client-chosen code to a wallet snapshot.
func (s *SyncService) Register(ctx context.Context, in RegisterInput) (*model.PairingCode, error) {
	code := util.NormalizeCode(in.Code)
	switch {
	case code == "":
		return nil, apperrors.MissingRequired("code")
	case in.Wallet == "":
		return nil, apperrors.MissingRequired("wallet")
	case in.Balance == nil:
		return nil, apperrors.MissingRequired("balance")
	case !strings.HasPrefix(in.Wallet, "0x"):
		return nil, apperrors.InvalidInput("wallet", "must start with 0x")
	}

	return s.create(ctx, code, model.SyncPayload{
		Wallet:   util.NormalizeWallet(in.Wallet),
		Balance:  *in.Balance,
		Vehicles: in.Vehicles,
	})
}

// IssueCode generates a code server-side and snapshots the wallet's holdings from chain.
func (s *SyncService) IssueCode(ctx context.Context, wallet string) (*model.PairingCode, error) {
	if wallet == "" {
		return nil, apperrors.MissingRequired("wallet")
	}
	if !util.IsValidWallet(wallet) {
		return nil, apperrors.InvalidInput("wallet", "must be a 0x-prefixed 40 hex character address")
	}
	wallet = util.NormalizeWallet(wallet)

	assets, err := s.assets.Assets(ctx, wallet)
	if err != nil {
		return nil, apperrors.External("chain", err)
	}
	payload := model.SyncPayload{
		Wallet:   wallet,
		Balance:  assets.BalanceFloat(),
		Vehicles: assets.Vehicles,
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "Failed to generate sync code", err)
		}

		pc, err := s.create(ctx, code, payload)
		if apperrors.GetCode(err) == apperrors.ErrCodeAlreadyExists {
			continue
		}
		return pc, err
	}

	return nil, apperrors.Internal("Could not allocate a unique sync code")
}

func (s *SyncService) create(ctx context.Context, code string, payload model.SyncPayload) (*model.PairingCode, error) {
	pc, err := s.codes.Create(ctx, code, payload, s.ttl)
	if errors.Is(err, codestore.ErrAlreadyExists) {
		return nil, apperrors.AlreadyExists("Sync code")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "Failed to store sync code", err)
	}

	audit.Log(ctx, audit.Event{
		Type:    audit.EventSyncRegistered,
		Wallet:  payload.Wallet,
		Code:    util.MaskCode(code),
		Details: map[string]interface{}{"expiresAt": pc.ExpiresAt.Format(time.RFC3339)},
	})

	return pc, nil
}

// Redeem burns the code, links playerID to its wallet and notifies the waiting tab.
// The result does not depend on whether the notification was delivered.
func (s *SyncService) Redeem(ctx context.Context, code, playerID string) (*RedeemResult, error) {
	code = util.NormalizeCode(code)
	if code == "" {
		return nil, apperrors.MissingRequired("code")
	}
	if playerID == "" {
		return nil, apperrors.MissingRequired("playerId")
	}

	pc, err := s.consumeAndLink(ctx, code, playerID)
	if err != nil {
		return nil, err
	}

	delivered := s.waiters.Complete(code, sse.SyncFrame{
		Status:   model.SyncStatusCompleted,
		PlayerID: playerID,
	})

	if err := s.publisher.Publish(ctx, events.TopicSyncCompleted, events.SyncCompleted{
		Code:     code,
		Wallet:   pc.Wallet,
		PlayerID: playerID,
		Balance:  pc.Balance,
	}); err != nil {
		log.Warn().Err(err).Str("code", util.MaskCode(code)).Msg("failed to mirror sync completion")
	}

	audit.Log(ctx, audit.Event{
		Type:     audit.EventSyncCompleted,
		Wallet:   pc.Wallet,
		PlayerID: playerID,
		Code:     util.MaskCode(code),
		Details:  map[string]interface{}{"delivered": delivered},
	})

	payload := pc.Payload()
	return &RedeemResult{
		Wallet:    payload.Wallet,
		Balance:   payload.Balance,
		Vehicles:  payload.Vehicles,
		Delivered: delivered,
	}, nil
}

func (s *SyncService) consumeAndLink(ctx context.Context, code, playerID string) (*model.PairingCode, error) {
	if linker, ok := s.codes.(codestore.LinkingStore); ok {
		pc, _, err := linker.ConsumeAndLink(ctx, code, playerID)
		if err != nil {
			return nil, s.redeemError(ctx, code, playerID, err)
		}
		return pc, nil
	}

	if err := s.checkPlayerFree(ctx, code, playerID); err != nil {
		return nil, err
	}

	pc, err := s.codes.Consume(ctx, code, playerID)
	if err != nil {
		return nil, s.redeemError(ctx, code, playerID, err)
	}

	_, err = s.users.LinkPlayer(ctx, model.LinkPlayerParams{
		WalletAddress: pc.Wallet,
		PlayerID:      playerID,
		TokenBalance:  pc.Balance,
	})
	if err != nil {
		// The code is already burned at this point.
		audit.Log(ctx, audit.Event{
			Type:     audit.EventSyncLinkFailed,
			Wallet:   pc.Wallet,
			PlayerID: playerID,
			Code:     util.MaskCode(code),
			Details:  map[string]interface{}{"cause": err},
		})
		return nil, linkError(err)
	}
	return pc, nil
}

// checkPlayerFree refuses a player linked to a different wallet before the code is burned.
// A concurrent link can still slip between this check and LinkPlayer.
func (s *SyncService) checkPlayerFree(ctx context.Context, code, playerID string) error {
	pc, err := s.codes.Get(ctx, code)
	if err != nil || pc.UsedAt != nil {
		return nil
	}

	existing, err := s.users.FindByPlayerID(ctx, playerID)
	if err != nil {
		return apperrors.Database(fmt.Errorf("find user by player: %w", err))
	}
	if existing != nil && !strings.EqualFold(existing.WalletAddress, pc.Wallet) {
		return apperrors.PlayerAlreadyLinked()
	}
	return nil
}

func (s *SyncService) redeemError(ctx context.Context, code, playerID string, err error) error {
	if errors.Is(err, codestore.ErrNotFound) || errors.Is(err, codestore.ErrAlreadyConsumed) {
		audit.Log(ctx, audit.Event{
			Type:     audit.EventSyncInvalidCode,
			PlayerID: playerID,
			Code:     util.MaskCode(code),
		})
		return apperrors.InvalidSyncCode()
	}
	return linkError(err)
}

func linkError(err error) error {
	if repository.IsUniqueViolation(err) {
		return apperrors.PlayerAlreadyLinked().WithCause(err)
	}
	return apperrors.Database(fmt.Errorf("redeem sync code: %w", err))
}

// Status reports whether a live code is still pending or already redeemed.
func (s *SyncService) Status(ctx context.Context, code string) (model.SyncStatus, error) {
	pc, err := s.codes.Get(ctx, util.NormalizeCode(code))
	if errors.Is(err, codestore.ErrNotFound) {
		return "", apperrors.NotFound("Sync code")
	}
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeInternal, "Failed to read sync code", err)
	}
	return pc.Status(), nil
}

func (s *SyncService) WalletAssets(ctx context.Context, wallet string) (*chain.Assets, error) {
	if !util.IsValidWallet(wallet) {
		return nil, apperrors.InvalidInput("wallet", "must be a 0x-prefixed 40 hex character address")
	}
	assets, err := s.assets.Assets(ctx, wallet)
	if err != nil {
		return nil, apperrors.External("chain", err)
	}
	return assets, nil
}
