package ai

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fairyhunter13/fitgenie-relay/internal/adapter/observability"
	"github.com/fairyhunter13/fitgenie-relay/internal/domain"
	"github.com/fairyhunter13/fitgenie-relay/pkg/textx"
)

// Coordinator runs one request across an ordered list of candidate models.
// Calls are strictly sequential: each decision depends on the previous outcome.
type Coordinator struct {
	provider domain.Provider
	models   []string
}

// NewCoordinator builds a coordinator. A single-model provider passes a
// one-element list.
func NewCoordinator(p domain.Provider, models []string) *Coordinator {
	cp := make([]string, len(models))
	copy(cp, models)
	return &Coordinator{provider: p, models: cp}
}

// Provider exposes the wrapped provider for readiness and messages.
func (c *Coordinator) Provider() domain.Provider { return c.provider }

// Models returns a copy of the candidate list.
func (c *Coordinator) Models() []string {
	out := make([]string, len(c.models))
	copy(out, c.models)
	return out
}

// Run tries candidates in order. It stops at the first success, rate limit or
// non-404 failure; a 404 moves on to the next model. When every candidate is
// unavailable the result is a FailureNoModel carrying the last detail.
func (c *Coordinator) Run(ctx context.Context, req domain.ProviderRequest) domain.Outcome {
	chainID := uuid.NewString()
	lg := observability.LoggerFromContext(ctx).With(
		slog.String("provider", c.provider.Name()),
		slog.String("chain_id", chainID),
	)
	ctx, span := observability.Tracer("ai.coordinator").Start(ctx, "ai.Coordinator.Run",
		trace.WithAttributes(
			attribute.String("ai.provider", c.provider.Name()),
			attribute.String("ai.chain_id", chainID),
			attribute.Int("ai.candidates", len(c.models)),
		))
	defer span.End()

	lastDetail := ""
	for i, model := range c.models {
		if err := ctx.Err(); err != nil {
			out := TransportFailure(model, err)
			span.SetStatus(codes.Error, err.Error())
			return out
		}
		start := time.Now()
		out := c.provider.Generate(ctx, model, req)
		observability.ObserveAttempt(c.provider.Name(), model, attemptLabel(out), time.Since(start))
		lg.Debug("model attempt finished",
			slog.Int("attempt", i+1),
			slog.String("model", model),
			slog.String("outcome", attemptLabel(out)),
			slog.Int("status", out.Status),
			slog.Duration("elapsed", time.Since(start)))

		if !out.Retryable() {
			span.SetAttributes(attribute.String("ai.model", model), attribute.String("ai.outcome", attemptLabel(out)))
			if out.Kind == domain.OutcomeFailure {
				span.SetStatus(codes.Error, out.Reason.String())
			}
			return out
		}
		lastDetail = out.Detail
		observability.AIModelFallbacksTotal.WithLabelValues(c.provider.Name()).Inc()
		lg.Warn("model unavailable; trying next candidate",
			slog.String("model", model),
			slog.String("detail", textx.Snippet(out.Detail, 512)))
	}

	span.SetStatus(codes.Error, domain.FailureNoModel.String())
	lg.Error("no supported model found", slog.Int("candidates", len(c.models)))
	return domain.Failure("", domain.FailureNoModel, 404, lastDetail)
}

func attemptLabel(o domain.Outcome) string {
	if o.Kind == domain.OutcomeFailure {
		return o.Reason.String()
	}
	return o.Kind.String()
}
