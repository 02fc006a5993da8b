package codestore

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/racevault/market-server/internal/config"
	"github.com/racevault/market-server/internal/database"
)

// New returns the backend named by kind (one of the config.CodeStore* values).
func New(kind string, db *database.DB, rdb *redis.Client) (Store, error) {
	switch kind {
	case config.CodeStorePostgres:
		if db == nil {
			return nil, fmt.Errorf("code store %q needs a database", kind)
		}
		return NewSQLStore(db), nil
	case config.CodeStoreRedis:
		if rdb == nil {
			return nil, fmt.Errorf("code store %q needs a redis client", kind)
		}
		return NewRedisStore(rdb), nil
	case config.CodeStoreMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown code store %q", kind)
	}
}
