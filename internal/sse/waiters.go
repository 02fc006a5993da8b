package sse

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/racevault/market-server/internal/model"
)

// SyncFrame is the payload of a pairing wait stream.
type SyncFrame struct {
	Status   model.SyncStatus `json:"status"`
	PlayerID string           `json:"playerId,omitempty"`
}

// Waiter is one browser tab waiting for its pairing code to be redeemed.
type Waiter struct {
	Code   string
	result chan SyncFrame
	done   chan struct{}
}

// Result yields at most one completion frame.
func (w *Waiter) Result() <-chan SyncFrame {
	return w.result
}

// Done is closed when a newer waiter takes over the code or the registry shuts down.
func (w *Waiter) Done() <-chan struct{} {
	return w.done
}

// Waiters maps each open pairing code to the single connection waiting on it.
type Waiters struct {
	waiters map[string]*Waiter
	mu      sync.Mutex
}

func NewWaiters() *Waiters {
	return &Waiters{
		waiters: make(map[string]*Waiter),
	}
}

// Wait registers a waiter for code. A previous waiter for the same code is ended.
func (ws *Waiters) Wait(code string) *Waiter {
	w := &Waiter{
		Code:   code,
		result: make(chan SyncFrame, 1),
		done:   make(chan struct{}),
	}

	ws.mu.Lock()
	prev := ws.waiters[code]
	ws.waiters[code] = w
	ws.mu.Unlock()

	if prev != nil {
		close(prev.done)
		log.Info().Str("code", code).Msg("sync waiter replaced")
	}

	log.Debug().Str("code", code).Msg("sync waiter registered")
	return w
}

// Complete hands frame to the waiter for code and deregisters it.
// It reports whether a waiter was present; with none it does nothing.
func (ws *Waiters) Complete(code string, frame SyncFrame) bool {
	ws.mu.Lock()
	w, ok := ws.waiters[code]
	if ok {
		delete(ws.waiters, code)
	}
	ws.mu.Unlock()

	if !ok {
		log.Debug().Str("code", code).Msg("no sync waiter to complete")
		return false
	}

	// result is only ever sent to once, after removal under the lock.
	w.result <- frame
	return true
}

// Release drops w if it is still the registered waiter for its code.
func (ws *Waiters) Release(w *Waiter) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.waiters[w.Code] == w {
		delete(ws.waiters, w.Code)
		log.Debug().Str("code", w.Code).Msg("sync waiter released")
	}
}

func (ws *Waiters) Has(code string) bool {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	_, ok := ws.waiters[code]
	return ok
}

func (ws *Waiters) Count() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return len(ws.waiters)
}

// Close ends every waiting stream.
func (ws *Waiters) Close() {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	for code, w := range ws.waiters {
		close(w.done)
		delete(ws.waiters, code)
	}
}
