package handler

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/racevault/market-server/internal/errors"
	"github.com/racevault/market-server/internal/sse"
)

// EventsHandler streams marketplace vehicle events to browser viewers.
type EventsHandler struct {
	hub               *sse.Hub
	heartbeatInterval time.Duration
}

func NewEventsHandler(hub *sse.Hub) *EventsHandler {
	return &EventsHandler{
		hub:               hub,
		heartbeatInterval: sse.HeartbeatInterval,
	}
}

// GET /events?playerName=
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	filter := sse.Filter{PlayerName: r.URL.Query().Get("playerName")}

	flusher, ok := sse.Start(w)
	if !ok {
		writeError(w, apperrors.Internal("Streaming not supported"))
		return
	}

	client := h.hub.Subscribe(filter)
	defer h.hub.Unsubscribe(client)

	log.Info().
		Str("clientId", client.ID).
		Str("playerName", filter.PlayerName).
		Int("clients", h.hub.ClientCount()).
		Msg("sse viewer connected")

	ctx := r.Context()

	heartbeat := time.NewTicker(h.heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().
				Str("clientId", client.ID).
				Msg("sse viewer disconnected")
			return

		case <-client.Done():
			log.Info().
				Str("clientId", client.ID).
				Msg("sse viewer closed by hub")
			return

		case data := <-client.Events():
			if err := sse.WriteFrame(w, flusher, data); err != nil {
				log.Debug().Err(err).Str("clientId", client.ID).Msg("failed to write event, closing viewer")
				return
			}

		case <-heartbeat.C:
			if err := sse.WriteComment(w, flusher, "ping"); err != nil {
				log.Debug().
					Str("clientId", client.ID).
					Msg("heartbeat failed, closing viewer")
				return
			}
		}
	}
}
