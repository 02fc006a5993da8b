package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/racevault/market-server/internal/service"
)

type VehicleHandler struct {
	vehicleService *service.VehicleService
}

func NewVehicleHandler(vehicleService *service.VehicleService) *VehicleHandler {
	return &VehicleHandler{vehicleService: vehicleService}
}

type vehicleRequest struct {
	VehicleCode string   `json:"vehicleCode"`
	PlayerID    playerID `json:"playerId"`
}

// POST /api/purchase-vehicle
func (h *VehicleHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req vehicleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	v, err := h.vehicleService.Purchase(r.Context(), req.VehicleCode, string(req.PlayerID))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "vehicle": v})
}

// POST /api/reject-purchase
func (h *VehicleHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req vehicleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	v, err := h.vehicleService.Reject(r.Context(), req.VehicleCode)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "vehicle": v})
}

// POST /api/car-edit-decline
func (h *VehicleHandler) DeclineEdit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ModID       string `json:"modId"`
		VehicleCode string `json:"vehicleCode"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	m, err := h.vehicleService.DeclineEdit(r.Context(), req.ModID, req.VehicleCode)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "modification": m})
}

// POST /api/spawn-vehicle
// The game asks whether a player may spawn a vehicle and receives its config.
func (h *VehicleHandler) Spawn(w http.ResponseWriter, r *http.Request) {
	var req vehicleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	config, err := h.vehicleService.AuthorizeSpawn(r.Context(), req.VehicleCode, string(req.PlayerID))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "configJson": config})
}

// GET /api/purchase-status?vehicleCode=
func (h *VehicleHandler) PurchaseStatus(w http.ResponseWriter, r *http.Request) {
	v, err := h.vehicleService.PurchaseStatus(r.Context(), r.URL.Query().Get("vehicleCode"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     v.PurchaseStatus,
		"configJson": v.ConfigJSON,
	})
}

// GET /api/player-vehicles/{playerId}
func (h *VehicleHandler) PlayerVehicles(w http.ResponseWriter, r *http.Request) {
	page := ParsePagination(r)

	vehicles, err := h.vehicleService.PlayerVehicles(r.Context(), chi.URLParam(r, "playerId"), page.Limit, page.Offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"vehicles": vehicles,
		"limit":    page.Limit,
		"offset":   page.Offset,
	})
}

// GET /api/vehicles?status=
func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	page := ParsePagination(r)

	vehicles, err := h.vehicleService.Listings(r.Context(), r.URL.Query().Get("status"), page.Limit, page.Offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"vehicles": vehicles,
		"limit":    page.Limit,
		"offset":   page.Offset,
	})
}

// GET /api/users/wallet/{wallet}
func (h *VehicleHandler) UserByWallet(w http.ResponseWriter, r *http.Request) {
	user, err := h.vehicleService.UserByWallet(r.Context(), chi.URLParam(r, "wallet"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
