package handler

import (
	"encoding/json"
	"io"
	"net/http"

	apperrors "github.com/racevault/market-server/internal/errors"
	"github.com/racevault/market-server/internal/service"
)

// WebhookHandler receives vehicle lifecycle events from the game server.
type WebhookHandler struct {
	vehicleService *service.VehicleService
}

func NewWebhookHandler(vehicleService *service.VehicleService) *WebhookHandler {
	return &WebhookHandler{vehicleService: vehicleService}
}

// POST /api/beammp-webhook
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, bodyError(err, "Failed to read request body"))
		return
	}

	var in service.WebhookInput
	if err := json.Unmarshal(body, &in); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body").WithCause(err))
		return
	}
	in.Raw = body

	result, err := h.vehicleService.Ingest(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := map[string]any{"success": true}
	if result.Vehicle != nil {
		resp["vehicle"] = result.Vehicle
	}
	if result.Modification != nil {
		resp["modification"] = result.Modification
	}
	writeJSON(w, http.StatusCreated, resp)
}
