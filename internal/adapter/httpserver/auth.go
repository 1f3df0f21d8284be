package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fairyhunter13/fitgenie-relay/internal/adapter/auth/firebase"
	"github.com/fairyhunter13/fitgenie-relay/internal/adapter/observability"
)

// TokenVerifier validates a bearer ID token.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*firebase.Claims, error)
}

// bearerToken returns the token of an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) < len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// AuthRequired rejects requests without a valid ID token and stores the
// verified subject as the caller id. A nil verifier disables the check.
func AuthRequired(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if v == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeMessage(w, http.StatusUnauthorized, msgMissingToken, "")
				return
			}
			claims, err := v.Verify(r.Context(), token)
			if err != nil {
				LoggerFrom(r).Warn("invalid id token", slog.Any("error", err))
				writeMessage(w, http.StatusUnauthorized, msgInvalidToken, "")
				return
			}
			ctx := observability.ContextWithCaller(r.Context(), claims.Subject)
			ctx = observability.ContextWithLogger(ctx, LoggerFrom(r).With(slog.String("caller", claims.Subject)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
