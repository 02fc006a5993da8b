package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/racevault/market-server/internal/errors"
	"github.com/racevault/market-server/internal/model"
	"github.com/racevault/market-server/internal/service"
	"github.com/racevault/market-server/internal/sse"
	"github.com/racevault/market-server/internal/util"
)

// SyncHandler serves the wallet-to-player pairing endpoints.
type SyncHandler struct {
	syncService       *service.SyncService
	waiters           *sse.Waiters
	heartbeatInterval time.Duration
}

func NewSyncHandler(syncService *service.SyncService, waiters *sse.Waiters) *SyncHandler {
	return &SyncHandler{
		syncService:       syncService,
		waiters:           waiters,
		heartbeatInterval: sse.HeartbeatInterval,
	}
}

// POST /api/init-sync
func (h *SyncHandler) InitSync(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code     string   `json:"code"`
		Wallet   string   `json:"wallet"`
		Balance  *float64 `json:"balance"`
		Vehicles []string `json:"vehicles"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if _, err := h.syncService.Register(r.Context(), service.RegisterInput{
		Code:     req.Code,
		Wallet:   req.Wallet,
		Balance:  req.Balance,
		Vehicles: req.Vehicles,
	}); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// POST /api/sync-codes
// Issues a server-generated code with the balance read from chain.
func (h *SyncHandler) IssueCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Wallet string `json:"wallet"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	pc, err := h.syncService.IssueCode(r.Context(), req.Wallet)
	if err != nil {
		writeError(w, err)
		return
	}

	payload := pc.Payload()
	writeJSON(w, http.StatusCreated, map[string]any{
		"success":   true,
		"code":      pc.Code,
		"expiresAt": pc.ExpiresAt.Format(time.RFC3339),
		"balance":   payload.Balance,
		"vehicles":  payload.Vehicles,
	})
}

// GET /api/sync-events/{code}
// Holds the stream open until the code is redeemed, then sends one completed frame.
func (h *SyncHandler) Events(w http.ResponseWriter, r *http.Request) {
	code := util.NormalizeCode(chi.URLParam(r, "code"))
	if code == "" {
		writeError(w, apperrors.MissingRequired("code"))
		return
	}

	flusher, ok := sse.Start(w)
	if !ok {
		writeError(w, apperrors.Internal("Streaming not supported"))
		return
	}

	waiter := h.waiters.Wait(code)
	defer h.waiters.Release(waiter)

	masked := util.MaskCode(code)
	log.Info().Str("code", masked).Msg("sync waiter connected")

	if err := sse.WriteJSON(w, flusher, sse.SyncFrame{Status: model.SyncStatusPending}); err != nil {
		return
	}

	ctx := r.Context()

	heartbeat := time.NewTicker(h.heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("code", masked).Msg("sync waiter disconnected")
			return

		case <-waiter.Done():
			log.Info().Str("code", masked).Msg("sync waiter superseded")
			return

		case frame := <-waiter.Result():
			if err := sse.WriteJSON(w, flusher, frame); err != nil {
				log.Debug().Err(err).Str("code", masked).Msg("failed to deliver sync completion")
			}
			return

		case <-heartbeat.C:
			if err := sse.WriteComment(w, flusher, "ping"); err != nil {
				return
			}
		}
	}
}

// GET /api/sync-status/{code}
func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.syncService.Status(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": status})
}

// POST /api/verify-sync
// Called by the game server with the code the player typed in chat.
func (h *SyncHandler) VerifySync(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code     string   `json:"code"`
		PlayerID playerID `json:"playerId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.syncService.Redeem(r.Context(), req.Code, string(req.PlayerID))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"wallet":   result.Wallet,
		"balance":  result.Balance,
		"vehicles": result.Vehicles,
	})
}

// GET /api/wallets/{wallet}/assets
func (h *SyncHandler) WalletAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.syncService.WalletAssets(r.Context(), chi.URLParam(r, "wallet"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"wallet":   assets.Wallet,
		"balance":  assets.Balance.String(),
		"vehicles": assets.Vehicles,
	})
}
