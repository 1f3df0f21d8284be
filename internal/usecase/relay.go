package usecase

import (
	"fmt"
	"log/slog"

	"github.com/fairyhunter13/fitgenie-relay/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/fitgenie-relay/internal/adapter/observability"
	"github.com/fairyhunter13/fitgenie-relay/internal/domain"
)

// Client-facing messages.
const (
	MsgMissingAPIKey   = "Missing API key on server"
	MsgMessageRequired = "message is required"
	MsgEmptyReply      = "I could not generate a response right now."
	MsgRateLimited     = "FitGenie is getting a lot of requests right now. Please try again in a moment."
)

// Coordinator runs a provider request across the configured candidate models.
type Coordinator interface {
	Run(ctx domain.Context, req domain.ProviderRequest) domain.Outcome
	Provider() domain.Provider
}

// relay is the part shared by the chat and generation services.
type relay struct {
	coord  Coordinator
	tokens *tokencount.Counter
}

// invoke runs req and returns the outcome for Success and RateLimited.
// Every failure is converted to an error carrying the client-facing message.
func (r relay) invoke(ctx domain.Context, endpoint string, req domain.ProviderRequest) (domain.Outcome, error) {
	p := r.coord.Provider()
	if !p.Configured() {
		observability.LoggerFromContext(ctx).Error("provider credential missing",
			slog.String("provider", p.Name()))
		return domain.Outcome{}, domain.Public(domain.ErrConfiguration, MsgMissingAPIKey)
	}
	if r.tokens != nil {
		observability.AIPromptTokens.WithLabelValues(p.Name(), endpoint).Observe(float64(r.tokens.CountRequest(req)))
	}

	out := r.coord.Run(ctx, req)
	switch out.Kind {
	case domain.OutcomeSuccess:
		return out, nil
	case domain.OutcomeRateLimited:
		observability.LoggerFromContext(ctx).Warn("ai provider rate limited",
			slog.String("provider", p.Name()),
			slog.String("model", out.Model),
			slog.String("endpoint", endpoint))
		return out, nil
	default:
		return out, outcomeError(p.DisplayName(), out)
	}
}

// outcomeError maps a failed outcome onto the upstream error taxonomy.
func outcomeError(display string, out domain.Outcome) error {
	switch out.Reason {
	case domain.FailureNoModel:
		return &domain.UpstreamError{
			Kind:    domain.ErrUpstreamUnavailable,
			Message: fmt.Sprintf("No supported %s model found", display),
			Detail:  out.Detail,
			Status:  out.Status,
		}
	case domain.FailureTransport:
		return &domain.UpstreamError{
			Kind:    domain.ErrUpstreamUnavailable,
			Message: fmt.Sprintf("%s request failed", display),
			Detail:  out.Detail,
		}
	default:
		return &domain.UpstreamError{
			Kind:    domain.ErrUpstreamRejected,
			Message: fmt.Sprintf("%s request failed", display),
			Detail:  out.Detail,
			Status:  out.Status,
		}
	}
}
