package codestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/racevault/market-server/internal/model"
	redisclient "github.com/racevault/market-server/internal/redis"
)

// createScript refuses a code that is live or was consumed within its window.
var createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 or redis.call('EXISTS', KEYS[2]) == 1 then
    return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
return 1
`)

// consumeScript moves the pending entry to the done key, keeping the remaining TTL.
// ARGV[1] is the JSON fragment of used fields spliced before the closing brace.
// Returns {status, payload}: 1 consumed, 0 not found, -1 already consumed.
var consumeScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then
    if redis.call('EXISTS', KEYS[2]) == 1 then
        return {-1, ''}
    end
    return {0, ''}
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl <= 0 then
    ttl = 1
end
local done = string.sub(raw, 1, -2) .. ARGV[1] .. '}'
redis.call('DEL', KEYS[1])
redis.call('SET', KEYS[2], done, 'PX', ttl)
return {1, done}
`)

// RedisStore keeps codes as Redis keys with a native TTL. A consumed code
// leaves a done marker for the rest of its window.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

type redisEntry struct {
	Code      string   `json:"code"`
	Wallet    string   `json:"wallet"`
	Balance   float64  `json:"balance"`
	Vehicles  []string `json:"vehicles"`
	CreatedAt string   `json:"createdAt"`
	ExpiresAt string   `json:"expiresAt"`
	UsedAt    string   `json:"usedAt,omitempty"`
	UsedBy    string   `json:"usedBy,omitempty"`
}

func (e redisEntry) toModel() (*model.PairingCode, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse createdAt: %w", err)
	}
	expiresAt, err := time.Parse(time.RFC3339Nano, e.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("parse expiresAt: %w", err)
	}

	pc := &model.PairingCode{
		Code:      e.Code,
		Wallet:    e.Wallet,
		Balance:   e.Balance,
		Vehicles:  model.StringArray(e.Vehicles),
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
	}
	if e.UsedAt != "" {
		usedAt, err := time.Parse(time.RFC3339Nano, e.UsedAt)
		if err != nil {
			return nil, fmt.Errorf("parse usedAt: %w", err)
		}
		usedBy := e.UsedBy
		pc.UsedAt = &usedAt
		pc.UsedBy = &usedBy
	}
	return pc, nil
}

func (s *RedisStore) Create(ctx context.Context, code string, payload model.SyncPayload, ttl time.Duration) (*model.PairingCode, error) {
	now := time.Now().UTC()
	vehicles := payload.Vehicles
	if vehicles == nil {
		vehicles = []string{}
	}
	entry := redisEntry{
		Code:      code,
		Wallet:    payload.Wallet,
		Balance:   payload.Balance,
		Vehicles:  vehicles,
		CreatedAt: now.Format(time.RFC3339Nano),
		ExpiresAt: now.Add(ttl).Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("marshal pairing code: %w", err)
	}

	keys := []string{redisclient.SyncCodeKey(code), redisclient.SyncDoneKey(code)}
	created, err := createScript.Run(ctx, s.client, keys, data, ttl.Milliseconds()).Int()
	if err != nil {
		return nil, fmt.Errorf("create pairing code: %w", err)
	}
	if created == 0 {
		return nil, ErrAlreadyExists
	}
	return entry.toModel()
}

func (s *RedisStore) Get(ctx context.Context, code string) (*model.PairingCode, error) {
	for _, key := range []string{redisclient.SyncCodeKey(code), redisclient.SyncDoneKey(code)} {
		raw, err := s.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get pairing code: %w", err)
		}
		return decodeEntry(raw)
	}
	return nil, ErrNotFound
}

func (s *RedisStore) Consume(ctx context.Context, code, playerID string) (*model.PairingCode, error) {
	keys := []string{redisclient.SyncCodeKey(code), redisclient.SyncDoneKey(code)}
	usedAt, err := json.Marshal(time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("marshal usedAt: %w", err)
	}
	usedBy, err := json.Marshal(playerID)
	if err != nil {
		return nil, fmt.Errorf("marshal usedBy: %w", err)
	}
	fields := fmt.Sprintf(`,"usedAt":%s,"usedBy":%s`, usedAt, usedBy)

	result, err := consumeScript.Run(ctx, s.client, keys, fields).Slice()
	if err != nil {
		return nil, fmt.Errorf("consume pairing code: %w", err)
	}
	if len(result) != 2 {
		return nil, fmt.Errorf("consume pairing code: unexpected script result")
	}

	status, _ := result[0].(int64)
	switch status {
	case 1:
		raw, _ := result[1].(string)
		return decodeEntry(raw)
	case -1:
		return nil, ErrAlreadyConsumed
	default:
		return nil, ErrNotFound
	}
}

func decodeEntry(raw string) (*model.PairingCode, error) {
	var entry redisEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, fmt.Errorf("unmarshal pairing code: %w", err)
	}
	return entry.toModel()
}
