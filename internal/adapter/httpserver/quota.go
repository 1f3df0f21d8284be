package httpserver

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/httprate"

	"github.com/fairyhunter13/fitgenie-relay/internal/adapter/observability"
	"github.com/fairyhunter13/fitgenie-relay/internal/service/ratelimiter"
)

// quotaKey prefers the verified caller and falls back to the client IP.
func quotaKey(r *http.Request) string {
	if uid := observability.CallerFromContext(r.Context()); uid != "" {
		return "uid:" + uid
	}
	ip, err := httprate.KeyByIP(r)
	if err != nil || ip == "" {
		return "ip:unknown"
	}
	return "ip:" + ip
}

// Quota charges one token per request against the shared limiter. Limiter
// errors fail open. A nil limiter disables the check.
func Quota(l ratelimiter.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := quotaKey(r)
			allowed, retryAfter, err := l.Allow(r.Context(), key, 1)
			if err != nil {
				LoggerFrom(r).Warn("quota check failed; allowing request", slog.Any("error", err))
			}
			if !allowed {
				observability.QuotaRejectionsTotal.Inc()
				secs := int(math.Ceil(retryAfter.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				writeMessage(w, http.StatusTooManyRequests, msgQuotaExhausted, "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
