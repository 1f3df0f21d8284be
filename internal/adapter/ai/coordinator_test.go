package ai

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/fitgenie-relay/internal/domain"
)

// scriptedProvider returns a fixed outcome per model and records call order.
type scriptedProvider struct {
	mu      sync.Mutex
	script  map[string]domain.Outcome
	calls   []string
	lastReq domain.ProviderRequest
}

func (p *scriptedProvider) Name() string        { return "scripted" }
func (p *scriptedProvider) DisplayName() string { return "Scripted" }
func (p *scriptedProvider) Configured() bool    { return true }

func (p *scriptedProvider) Generate(_ context.Context, model string, req domain.ProviderRequest) domain.Outcome {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, model)
	p.lastReq = req
	return p.script[model]
}

func notFound(model, detail string) domain.Outcome {
	return domain.Failure(model, domain.FailureModelUnavailable, 404, detail)
}

func TestCoordinator_Run(t *testing.T) {
	t.Parallel()

	models := []string{"A", "B", "C"}
	tests := []struct {
		name      string
		script    map[string]domain.Outcome
		wantCalls []string
		want      domain.Outcome
	}{
		{
			name:      "first_success_stops",
			script:    map[string]domain.Outcome{"A": domain.Success("A", "hi")},
			wantCalls: []string{"A"},
			want:      domain.Success("A", "hi"),
		},
		{
			name: "404_then_success",
			script: map[string]domain.Outcome{
				"A": notFound("A", "no A"),
				"B": domain.Success("B", "from B"),
			},
			wantCalls: []string{"A", "B"},
			want:      domain.Success("B", "from B"),
		},
		{
			name: "hard_failure_aborts",
			script: map[string]domain.Outcome{
				"A": domain.Failure("A", domain.FailureRejected, 401, "bad key"),
				"B": domain.Success("B", "never"),
			},
			wantCalls: []string{"A"},
			want:      domain.Failure("A", domain.FailureRejected, 401, "bad key"),
		},
		{
			name: "transport_failure_aborts",
			script: map[string]domain.Outcome{
				"A": domain.Failure("A", domain.FailureTransport, 0, "timeout"),
			},
			wantCalls: []string{"A"},
			want:      domain.Failure("A", domain.FailureTransport, 0, "timeout"),
		},
		{
			name: "rate_limit_aborts",
			script: map[string]domain.Outcome{
				"A": notFound("A", "no A"),
				"B": domain.RateLimited("B"),
			},
			wantCalls: []string{"A", "B"},
			want:      domain.RateLimited("B"),
		},
		{
			name: "all_unavailable_carries_last_detail",
			script: map[string]domain.Outcome{
				"A": notFound("A", "no A"),
				"B": notFound("B", "no B"),
				"C": notFound("C", "no C"),
			},
			wantCalls: []string{"A", "B", "C"},
			want:      domain.Failure("", domain.FailureNoModel, 404, "no C"),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := &scriptedProvider{script: tt.script}
			got := NewCoordinator(p, models).Run(context.Background(), domain.ProviderRequest{Message: "hello"})
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantCalls, p.calls)
		})
	}
}

func TestCoordinator_SingleModel(t *testing.T) {
	t.Parallel()

	p := &scriptedProvider{script: map[string]domain.Outcome{"only": notFound("only", "gone")}}
	got := NewCoordinator(p, []string{"only"}).Run(context.Background(), domain.ProviderRequest{})
	assert.Equal(t, domain.FailureNoModel, got.Reason)
	assert.Equal(t, "gone", got.Detail)
	assert.Equal(t, []string{"only"}, p.calls)
}

func TestCoordinator_EmptyCandidates(t *testing.T) {
	t.Parallel()

	p := &scriptedProvider{}
	got := NewCoordinator(p, nil).Run(context.Background(), domain.ProviderRequest{})
	assert.Equal(t, domain.OutcomeFailure, got.Kind)
	assert.Equal(t, domain.FailureNoModel, got.Reason)
	assert.Empty(t, p.calls)
}

func TestCoordinator_PassesRequestUnchanged(t *testing.T) {
	t.Parallel()

	req := domain.ProviderRequest{
		SystemPrompt: "sys",
		History:      []domain.ConversationTurn{{Role: domain.RoleUser, Content: "prev"}},
		Message:      "now",
		Params:       domain.GenerationParams{Temperature: 0.5, MaxOutputTokens: 10},
	}
	p := &scriptedProvider{script: map[string]domain.Outcome{"A": notFound("A", "x"), "B": domain.Success("B", "ok")}}
	_ = NewCoordinator(p, []string{"A", "B"}).Run(context.Background(), req)
	assert.Equal(t, req, p.lastReq)
}

func TestCoordinator_CancelledContextStops(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &scriptedProvider{script: map[string]domain.Outcome{"A": domain.Success("A", "x")}}
	got := NewCoordinator(p, []string{"A"}).Run(ctx, domain.ProviderRequest{})
	require.Equal(t, domain.OutcomeFailure, got.Kind)
	assert.Equal(t, domain.FailureTransport, got.Reason)
	assert.Empty(t, p.calls)
}

func TestCoordinator_ModelsIsCopy(t *testing.T) {
	t.Parallel()

	in := []string{"A", "B"}
	c := NewCoordinator(&scriptedProvider{}, in)
	in[0] = "Z"
	got := c.Models()
	got[1] = "Y"
	assert.Equal(t, []string{"A", "B"}, c.Models())
}
