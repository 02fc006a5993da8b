package sse

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/racevault/market-server/internal/model"
)

// Filter narrows the events a viewer receives. The zero value accepts everything.
type Filter struct {
	PlayerName string
}

// Accepts hides a viewer's own spawns and other players' edits.
func (f Filter) Accepts(event *model.VehicleEvent) bool {
	if f.PlayerName == "" {
		return true
	}

	switch event.Event {
	case model.EventCarSpawn:
		return event.PlayerName != f.PlayerName
	case model.EventCarEdit:
		return event.PlayerName == f.PlayerName
	default:
		return true
	}
}

// Client is one marketplace viewer connection.
type Client struct {
	ID     string
	filter Filter
	events chan []byte
	done   chan struct{}
}

func (c *Client) Events() <-chan []byte {
	return c.events
}

// Done is closed on unsubscribe or hub shutdown.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Hub fans vehicle events out to every connected viewer.
type Hub struct {
	clients []*Client
	mu      sync.Mutex

	publishMu sync.Mutex
}

func NewHub() *Hub {
	return &Hub{}
}

func (h *Hub) Subscribe(filter Filter) *Client {
	client := &Client{
		ID:     uuid.NewString(),
		filter: filter,
		events: make(chan []byte, clientBufferSize),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	h.clients = append(h.clients, client)
	clientCount := len(h.clients)
	h.mu.Unlock()

	log.Info().
		Str("clientId", client.ID).
		Str("playerName", filter.PlayerName).
		Int("clientCount", clientCount).
		Msg("sse client subscribed")

	return client
}

func (h *Hub) Unsubscribe(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, c := range h.clients {
		if c != client {
			continue
		}

		clients := make([]*Client, 0, len(h.clients)-1)
		clients = append(clients, h.clients[:i]...)
		clients = append(clients, h.clients[i+1:]...)
		h.clients = clients
		close(client.done)

		log.Info().
			Str("clientId", client.ID).
			Int("clientCount", len(h.clients)).
			Msg("sse client unsubscribed")
		return
	}
}

// Publish delivers event to every viewer registered at call time, in
// registration order, and returns how many received it. Slow or closed
// viewers are skipped.
func (h *Hub) Publish(event model.VehicleEvent) int {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("event", string(event.Event)).Msg("failed to marshal vehicle event")
		return 0
	}

	h.publishMu.Lock()
	defer h.publishMu.Unlock()

	h.mu.Lock()
	clients := h.clients
	h.mu.Unlock()

	delivered := 0
	for _, client := range clients {
		if !client.filter.Accepts(&event) {
			continue
		}

		select {
		case <-client.done:
			continue
		default:
		}

		select {
		case client.events <- data:
			delivered++
		default:
			log.Warn().
				Str("clientId", client.ID).
				Str("event", string(event.Event)).
				Msg("client event buffer full, dropping event")
		}
	}

	log.Debug().
		Str("event", string(event.Event)).
		Int("delivered", delivered).
		Int("clientCount", len(clients)).
		Msg("vehicle event published")

	return delivered
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		close(client.done)
	}
	h.clients = nil
}
