package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/racevault/market-server/internal/audit"
	apperrors "github.com/racevault/market-server/internal/errors"
	"github.com/racevault/market-server/internal/util"
)

const GameSignatureHeader = "X-Game-Signature"

// GameSignatureMiddleware checks the hex HMAC-SHA256 of the raw body sent by the game server.
type GameSignatureMiddleware struct {
	secret string
}

func NewGameSignatureMiddleware(secret string) *GameSignatureMiddleware {
	return &GameSignatureMiddleware{secret: secret}
}

func (m *GameSignatureMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.secret == "" {
			next.ServeHTTP(w, r)
			return
		}

		signature := r.Header.Get(GameSignatureHeader)
		if signature == "" {
			m.reject(w, r, "missing")
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, apperrors.BodyTooLarge())
				return
			}
			log.Error().Err(err).Msg("game signature middleware: failed to read body")
			writeError(w, http.StatusBadRequest, apperrors.ValidationError("Failed to read request body"))
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		if !util.ConstantTimeEqual(util.HmacSHA256(m.secret, body), signature) {
			m.reject(w, r, "invalid")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *GameSignatureMiddleware) reject(w http.ResponseWriter, r *http.Request, reason string) {
	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventWebhookSignatureFailed,
		Details: map[string]interface{}{"reason": reason},
	})
	writeError(w, http.StatusUnauthorized, apperrors.Unauthorized("Invalid signature"))
}
