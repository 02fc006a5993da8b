package audit

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventSyncRegistered         EventType = "sync_registered"
	EventSyncCompleted          EventType = "sync_completed"
	EventSyncInvalidCode        EventType = "sync_invalid_code"
	EventSyncLinkFailed         EventType = "sync_link_failed"
	EventRateLimitExceeded      EventType = "rate_limit_exceeded"
	EventWebhookSignatureFailed EventType = "webhook_signature_failed"
	EventPurchaseConfirmed      EventType = "purchase_confirmed"
	EventPurchaseRejected       EventType = "purchase_rejected"
	EventSpawnDenied            EventType = "spawn_denied"
)

type Event struct {
	Type      EventType
	Wallet    string
	PlayerID  string
	Code      string
	IP        string
	UserAgent string
	Details   map[string]interface{}
}

func Log(ctx context.Context, event Event) {
	logger := log.With().
		Str("audit", "market").
		Str("event_type", string(event.Type)).
		Time("timestamp", time.Now()).
		Logger()

	if event.Wallet != "" {
		logger = logger.With().Str("wallet", event.Wallet).Logger()
	}
	if event.PlayerID != "" {
		logger = logger.With().Str("player_id", event.PlayerID).Logger()
	}
	if event.Code != "" {
		logger = logger.With().Str("code", event.Code).Logger()
	}
	if event.IP != "" {
		logger = logger.With().Str("ip", event.IP).Logger()
	}
	if event.UserAgent != "" {
		logger = logger.With().Str("user_agent", event.UserAgent).Logger()
	}

	logEvent := logger.Info()
	if event.Type == EventSyncLinkFailed {
		logEvent = logger.Error()
	}
	for k, v := range event.Details {
		logEvent = addField(logEvent, k, v)
	}
	logEvent.Msg("market audit event")
}

func addField(e *zerolog.Event, key string, value interface{}) *zerolog.Event {
	switch v := value.(type) {
	case string:
		return e.Str(key, v)
	case int:
		return e.Int(key, v)
	case int64:
		return e.Int64(key, v)
	case float64:
		return e.Float64(key, v)
	case bool:
		return e.Bool(key, v)
	case error:
		return e.AnErr(key, v)
	default:
		return e.Interface(key, v)
	}
}

func LogFromRequest(r *http.Request, event Event) {
	event.IP = ClientIP(r)
	event.UserAgent = r.UserAgent()
	Log(r.Context(), event)
}

// ClientIP prefers proxy headers over the socket address.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
