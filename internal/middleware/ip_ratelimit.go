package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/racevault/market-server/internal/audit"
	apperrors "github.com/racevault/market-server/internal/errors"
	"github.com/racevault/market-server/internal/service"
)

// IPRateLimitMiddleware caps requests per client IP within a sliding window.
// The scope keeps separate budgets for separate endpoints.
type IPRateLimitMiddleware struct {
	limiter *service.RateLimiter
	limit   int
	window  time.Duration
	scope   string
}

func NewIPRateLimitMiddleware(limiter *service.RateLimiter, limit int, window time.Duration, scope string) *IPRateLimitMiddleware {
	return &IPRateLimitMiddleware{
		limiter: limiter,
		limit:   limit,
		window:  window,
		scope:   scope,
	}
}

func (m *IPRateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientHost(r)

		allowed, resetAt := m.limiter.CheckLimit(r.Context(), m.scope, ip, m.limit, m.window)
		if !allowed {
			secondsLeft := int(time.Until(resetAt).Seconds()) + 1
			w.Header().Set("Retry-After", strconv.Itoa(secondsLeft))

			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventRateLimitExceeded,
				Details: map[string]interface{}{"scope": m.scope},
			})

			writeError(w, http.StatusTooManyRequests, apperrors.RateLimitExceeded())
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientHost strips the port; chi's RealIP has already applied proxy headers.
func clientHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
