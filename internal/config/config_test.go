package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigMethods(t *testing.T) {
	t.Run("Addr returns formatted port", func(t *testing.T) {
		cfg := &Config{Port: 3000}
		assert.Equal(t, ":3000", cfg.Addr())
	})

	t.Run("SyncCodeTTL converts seconds to duration", func(t *testing.T) {
		cfg := &Config{SyncCodeTTLSeconds: 300}
		assert.Equal(t, 5*time.Minute, cfg.SyncCodeTTL())
	})
}

func validConfig() *Config {
	return &Config{
		CodeStore:          CodeStorePostgres,
		SyncCodeTTLSeconds: 300,
		RedisURL:           "rediss://cache:6379",
		TokenAddress:       "0x9F40f8952023b7aa6d06E0d402a1005d89BB056A",
		NFTContract:        "0xDc2768F656d518F0CdfB27f06D7613C9772B847f",
	}
}

func TestValidate(t *testing.T) {
	t.Run("accepts a valid config", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate(false))
		assert.NoError(t, validConfig().Validate(true))
	})

	t.Run("rejects unknown code store", func(t *testing.T) {
		cfg := validConfig()
		cfg.CodeStore = "mongo"
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("rejects non-positive ttl", func(t *testing.T) {
		cfg := validConfig()
		cfg.SyncCodeTTLSeconds = 0
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("rejects malformed contract address", func(t *testing.T) {
		cfg := validConfig()
		cfg.TokenAddress = "0x1234"
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("rejects memory store in production only", func(t *testing.T) {
		cfg := validConfig()
		cfg.CodeStore = CodeStoreMemory
		assert.NoError(t, cfg.Validate(false))
		assert.Error(t, cfg.Validate(true))
	})
}

func TestLoad(t *testing.T) {
	originalEnv := map[string]string{
		"PORT":                  os.Getenv("PORT"),
		"DATABASE_URL":          os.Getenv("DATABASE_URL"),
		"REDIS_URL":             os.Getenv("REDIS_URL"),
		"CODE_STORE":            os.Getenv("CODE_STORE"),
		"SYNC_CODE_TTL_SECONDS": os.Getenv("SYNC_CODE_TTL_SECONDS"),
		"CORS_ORIGINS":          os.Getenv("CORS_ORIGINS"),
		"LOG_LEVEL":             os.Getenv("LOG_LEVEL"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	t.Run("loads config with defaults", func(t *testing.T) {
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Unsetenv("PORT")
		os.Unsetenv("CODE_STORE")
		os.Unsetenv("SYNC_CODE_TTL_SECONDS")
		os.Unsetenv("CORS_ORIGINS")
		os.Unsetenv("LOG_LEVEL")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, "postgres://localhost/test", cfg.DatabaseURL)
		assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
		assert.Equal(t, CodeStorePostgres, cfg.CodeStore)
		assert.Equal(t, 300, cfg.SyncCodeTTLSeconds)
		assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
		assert.True(t, cfg.AutoMigrate)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("loads custom values", func(t *testing.T) {
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Setenv("PORT", "3000")
		os.Setenv("CODE_STORE", "redis")
		os.Setenv("SYNC_CODE_TTL_SECONDS", "120")
		os.Setenv("CORS_ORIGINS", "https://racevault.app,http://localhost:5173")
		os.Setenv("LOG_LEVEL", "debug")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 3000, cfg.Port)
		assert.Equal(t, CodeStoreRedis, cfg.CodeStore)
		assert.Equal(t, 120, cfg.SyncCodeTTLSeconds)
		assert.Equal(t, []string{"https://racevault.app", "http://localhost:5173"}, cfg.CORSOrigins)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("fails without required DATABASE_URL", func(t *testing.T) {
		os.Unsetenv("DATABASE_URL")
		os.Setenv("REDIS_URL", "redis://localhost:6379")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("fails without required REDIS_URL", func(t *testing.T) {
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Unsetenv("REDIS_URL")

		_, err := Load()
		assert.Error(t, err)
	})
}
