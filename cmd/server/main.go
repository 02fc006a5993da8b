package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/racevault/market-server/internal/chain"
	"github.com/racevault/market-server/internal/codestore"
	"github.com/racevault/market-server/internal/config"
	"github.com/racevault/market-server/internal/database"
	"github.com/racevault/market-server/internal/events"
	"github.com/racevault/market-server/internal/handler"
	"github.com/racevault/market-server/internal/jobs"
	"github.com/racevault/market-server/internal/middleware"
	"github.com/racevault/market-server/internal/redis"
	"github.com/racevault/market-server/internal/repository"
	"github.com/racevault/market-server/internal/service"
	"github.com/racevault/market-server/internal/sse"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	if cfg.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
		log.Info().Msg("database migrated")
	}

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	codes, err := codestore.New(cfg.CodeStore, db, redisClient.Client)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open code store")
	}
	log.Info().Str("backend", cfg.CodeStore).Dur("ttl", cfg.SyncCodeTTL()).Msg("code store ready")

	var publisher events.Publisher = &events.NoopPublisher{}
	if cfg.NATSURL != "" {
		natsPublisher, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to nats")
		}
		publisher = natsPublisher
		log.Info().Msg("nats connected")
	}
	defer publisher.Close()

	userRepo := repository.NewUserRepository(db.DB)
	vehicleRepo := repository.NewVehicleRepository(db.DB)
	modRepo := repository.NewModificationRepository(db.DB)

	hub := sse.NewHub()
	defer hub.Close()
	waiters := sse.NewWaiters()
	defer waiters.Close()

	chainClient := chain.NewClient(cfg.RPCURL, cfg.TokenAddress, cfg.NFTContract)

	syncService := service.NewSyncService(codes, userRepo, waiters, publisher, chainClient, cfg.SyncCodeTTL())
	vehicleService := service.NewVehicleService(vehicleRepo, modRepo, userRepo, hub, publisher)
	rateLimiter := service.NewRateLimiter(redisClient.Client)

	syncRateLimit := middleware.NewIPRateLimitMiddleware(
		rateLimiter, config.SyncRateLimit, config.SyncRateLimitWindow, "sync",
	)
	gameSignature := middleware.NewGameSignatureMiddleware(cfg.GameWebhookSecret)
	securityHeaders := middleware.NewSecurityHeadersMiddleware(isProduction)

	health := handler.NewHealthHandler(map[string]handler.Pinger{
		"postgres": db,
		"redis": handler.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}),
	})

	r := handler.NewRouter(handler.RouterConfig{
		Sync:            handler.NewSyncHandler(syncService, waiters),
		Events:          handler.NewEventsHandler(hub),
		Webhook:         handler.NewWebhookHandler(vehicleService),
		Vehicles:        handler.NewVehicleHandler(vehicleService),
		Health:          health,
		Static:          handler.NewSPAHandler(cfg.StaticDir),
		SyncRateLimit:   syncRateLimit.Handler,
		WebhookAuth:     gameSignature.Handler,
		SecurityHeaders: securityHeaders.Handler,
		CORSOrigins:     cfg.CORSOrigins,
	})

	if expirer, ok := codes.(codestore.Expirer); ok {
		cleanupJob := jobs.NewCleanupJob(config.CleanupJobInterval, jobs.Task{
			Name:  "pairing codes",
			Sweep: expirer.DeleteExpired,
		})
		cleanupJob.Start()
		defer cleanupJob.Stop()
	}

	server := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     r,
		ReadTimeout: config.ServerReadTimeout,
		// SSE streams outlive any write deadline.
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	// Open streams would hold Shutdown until the timeout; end them first.
	hub.Close()
	waiters.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
