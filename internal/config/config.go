package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

const (
	CodeStoreRedis    = "redis"
	CodeStorePostgres = "postgres"
	CodeStoreMemory   = "memory"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

type Config struct {
	Port               int      `env:"PORT" envDefault:"8080"`
	DatabaseURL        string   `env:"DATABASE_URL,required"`
	RedisURL           string   `env:"REDIS_URL,required"`
	NATSURL            string   `env:"NATS_URL"`
	CodeStore          string   `env:"CODE_STORE" envDefault:"postgres"`
	SyncCodeTTLSeconds int      `env:"SYNC_CODE_TTL_SECONDS" envDefault:"300"`
	GameWebhookSecret  string   `env:"GAME_WEBHOOK_SECRET"`
	RPCURL             string   `env:"RPC_URL" envDefault:"https://cloudflare-eth.com"`
	TokenAddress       string   `env:"TOKEN_ADDRESS" envDefault:"0x9F40f8952023b7aa6d06E0d402a1005d89BB056A"`
	NFTContract        string   `env:"NFT_CONTRACT" envDefault:"0xDc2768F656d518F0CdfB27f06D7613C9772B847f"`
	CORSOrigins        []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	StaticDir          string   `env:"STATIC_DIR" envDefault:"static/app"`
	AutoMigrate        bool     `env:"AUTO_MIGRATE" envDefault:"true"`
	LogLevel           string   `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) SyncCodeTTL() time.Duration {
	return time.Duration(c.SyncCodeTTLSeconds) * time.Second
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate(isProduction bool) error {
	switch c.CodeStore {
	case CodeStoreRedis, CodeStorePostgres, CodeStoreMemory:
	default:
		return fmt.Errorf("CODE_STORE must be one of redis, postgres, memory (got %q)", c.CodeStore)
	}

	if c.SyncCodeTTLSeconds <= 0 {
		return fmt.Errorf("SYNC_CODE_TTL_SECONDS must be positive")
	}

	if !addressPattern.MatchString(c.TokenAddress) {
		return fmt.Errorf("TOKEN_ADDRESS is not a valid contract address")
	}
	if !addressPattern.MatchString(c.NFTContract) {
		return fmt.Errorf("NFT_CONTRACT is not a valid contract address")
	}

	if isProduction {
		if c.CodeStore == CodeStoreMemory {
			return fmt.Errorf("CODE_STORE=memory is not allowed in production")
		}
		if c.GameWebhookSecret == "" {
			log.Warn().Msg("GAME_WEBHOOK_SECRET is empty in production: webhook signature verification disabled")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
		for _, origin := range c.CORSOrigins {
			if origin == "*" {
				log.Warn().Msg("CORS_ORIGINS allows any origin in production")
				break
			}
		}
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
