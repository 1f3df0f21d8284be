package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fairyhunter13/fitgenie-relay/internal/adapter/observability"
	"github.com/fairyhunter13/fitgenie-relay/internal/domain"
)

// Generic client-facing messages.
const (
	msgInternal        = "Internal server error"
	msgInvalidJSON     = "invalid json"
	msgBodyTooLarge    = "Request body too large"
	msgValidation      = "validation failed"
	msgNotFound        = "Not found"
	msgMethodNotAllow  = "Method not allowed"
	msgMissingToken    = "Missing auth token"
	msgInvalidToken    = "Invalid auth token"
	msgQuotaExhausted  = "Too many requests"
	msgRequestTimedOut = "Request timed out"
)

// errorBody is the flat error shape every endpoint returns.
type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg, detail string) {
	writeJSON(w, status, errorBody{Error: msg, Detail: detail})
}

// writeError maps the domain error taxonomy to a status and body. Only
// upstream errors carry a detail; internal errors never leak one.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ue *domain.UpstreamError
		pe *domain.PublicError
	)
	switch {
	case errors.Is(r.Context().Err(), context.DeadlineExceeded):
		observability.LoggerFromContext(r.Context()).Warn("request deadline exceeded", slog.Any("error", err))
		writeMessage(w, http.StatusServiceUnavailable, msgRequestTimedOut, "")
	case errors.As(err, &ue):
		observability.LoggerFromContext(r.Context()).Warn("upstream failure",
			slog.String("message", ue.Message),
			slog.Int("upstream_status", ue.Status),
			slog.Any("error", err))
		writeMessage(w, http.StatusBadGateway, ue.Message, ue.Detail)
	case errors.As(err, &pe):
		status := statusFor(pe.Kind)
		if status >= 500 {
			observability.LoggerFromContext(r.Context()).Error("request failed", slog.Any("error", err))
		}
		writeMessage(w, status, pe.Message, "")
	case errors.Is(err, domain.ErrInvalidArgument):
		writeMessage(w, http.StatusBadRequest, msgValidation, "")
	case errors.Is(err, domain.ErrUnauthorized):
		writeMessage(w, http.StatusUnauthorized, msgInvalidToken, "")
	default:
		observability.LoggerFromContext(r.Context()).Error("request failed", slog.Any("error", err))
		writeMessage(w, http.StatusInternalServerError, msgInternal, "")
	}
}

func statusFor(kind error) int {
	switch {
	case errors.Is(kind, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(kind, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(kind, domain.ErrUpstreamUnavailable), errors.Is(kind, domain.ErrUpstreamRejected):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// NotFound is the JSON 404 handler for unknown routes.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusNotFound, msgNotFound, "")
}

// MethodNotAllowed is the JSON 405 handler.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusMethodNotAllowed, msgMethodNotAllow, "")
}

// TooManyRequests is the JSON body for per-IP rate limiting.
func TooManyRequests(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusTooManyRequests, msgQuotaExhausted, "")
}
