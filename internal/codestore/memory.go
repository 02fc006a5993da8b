package codestore

import (
	"context"
	"sync"
	"time"

	"github.com/racevault/market-server/internal/model"
)

type memoryEntry struct {
	code model.PairingCode
}

// MemoryStore keeps codes in process memory. Consumed codes are kept until
// their TTL passes so status polling can still report completion.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context, code string, payload model.SyncPayload, ttl time.Duration) (*model.PairingCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries[code]; ok && now.Before(e.code.ExpiresAt) {
		return nil, ErrAlreadyExists
	}

	pc := model.PairingCode{
		Code:      code,
		Wallet:    payload.Wallet,
		Balance:   payload.Balance,
		Vehicles:  model.StringArray(payload.Vehicles),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	s.entries[code] = &memoryEntry{code: pc}

	out := pc
	return &out, nil
}

func (s *MemoryStore) Get(ctx context.Context, code string) (*model.PairingCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(code)
	if !ok {
		return nil, ErrNotFound
	}
	out := e.code
	return &out, nil
}

func (s *MemoryStore) Consume(ctx context.Context, code, playerID string) (*model.PairingCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(code)
	if !ok {
		return nil, ErrNotFound
	}
	if e.code.UsedAt != nil {
		return nil, ErrAlreadyConsumed
	}

	now := s.now()
	e.code.UsedAt = &now
	e.code.UsedBy = &playerID

	out := e.code
	return &out, nil
}

// DeleteExpired drops expired entries. Returns the number removed.
func (s *MemoryStore) DeleteExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var removed int64
	for code, e := range s.entries {
		if !now.Before(e.code.ExpiresAt) {
			delete(s.entries, code)
			removed++
		}
	}
	return removed, nil
}

// live must be called with s.mu held.
func (s *MemoryStore) live(code string) (*memoryEntry, bool) {
	e, ok := s.entries[code]
	if !ok {
		return nil, false
	}
	if !s.now().Before(e.code.ExpiresAt) {
		delete(s.entries, code)
		return nil, false
	}
	return e, true
}
