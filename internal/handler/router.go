package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/racevault/market-server/internal/config"
	"github.com/racevault/market-server/internal/middleware"
)

type Middleware func(http.Handler) http.Handler

// RouterConfig collects the handlers and route-specific middleware of the server.
// Nil middleware is skipped.
type RouterConfig struct {
	Sync     *SyncHandler
	Events   *EventsHandler
	Webhook  *WebhookHandler
	Vehicles *VehicleHandler
	Health   http.Handler
	Static   http.Handler

	SyncRateLimit   Middleware
	WebhookAuth     Middleware
	SecurityHeaders Middleware
	CORSOrigins     []string
}

func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", middleware.GameSignatureHeader},
		MaxAge:         300,
	}))
	r.Use(middleware.NewBodyLimitMiddleware(0).Handler)

	if cfg.Health != nil {
		r.Get("/health", cfg.Health.ServeHTTP)
	}

	// Streams stay open for minutes, so they skip the request timeout.
	r.Get("/events", cfg.Events.ServeHTTP)
	r.Get("/api/sync-events/{code}", cfg.Sync.Events)

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))

		limited := r.With(passthrough(cfg.SyncRateLimit))
		limited.Post("/api/verify-sync", cfg.Sync.VerifySync)
		limited.Post("/api/sync-codes", cfg.Sync.IssueCode)

		r.Post("/api/init-sync", cfg.Sync.InitSync)
		r.Get("/api/sync-status/{code}", cfg.Sync.Status)
		r.Get("/api/wallets/{wallet}/assets", cfg.Sync.WalletAssets)

		r.With(passthrough(cfg.WebhookAuth)).Post("/api/beammp-webhook", cfg.Webhook.ServeHTTP)

		r.Post("/api/purchase-vehicle", cfg.Vehicles.Purchase)
		r.Post("/api/reject-purchase", cfg.Vehicles.Reject)
		r.Post("/api/car-edit-decline", cfg.Vehicles.DeclineEdit)
		r.Post("/api/spawn-vehicle", cfg.Vehicles.Spawn)
		r.Get("/api/purchase-status", cfg.Vehicles.PurchaseStatus)
		r.Get("/api/player-vehicles/{playerId}", cfg.Vehicles.PlayerVehicles)
		r.Get("/api/vehicles", cfg.Vehicles.List)
		r.Get("/api/users/wallet/{wallet}", cfg.Vehicles.UserByWallet)
	})

	if cfg.Static != nil {
		r.NotFound(passthrough(cfg.SecurityHeaders)(cfg.Static).ServeHTTP)
	}

	return r
}

func passthrough(m Middleware) Middleware {
	if m == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return m
}
