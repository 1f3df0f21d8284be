package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/fitgenie-relay/internal/config"
	"github.com/fairyhunter13/fitgenie-relay/internal/domain"
)

func newTestClient(baseURL string) *Client {
	return New(config.Config{
		OpenRouterAPIKey:  "or-key",
		OpenRouterBaseURL: baseURL,
		OpenRouterReferer: "https://fitgenie.app",
		OpenRouterTitle:   "FitGenie",
		UpstreamTimeout:   2 * time.Second,
	})
}

func TestGenerate_Success(t *testing.T) {
	t.Parallel()

	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer or-key", r.Header.Get("Authorization"))
		assert.Equal(t, "https://fitgenie.app", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "FitGenie", r.Header.Get("X-Title"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"model":"x","choices":[{"message":{"content":"  Stretch daily. "}},{"message":{"content":"second"}}]}`))
	}))
	defer srv.Close()

	req := domain.ProviderRequest{
		SystemPrompt: "sys",
		History:      []domain.ConversationTurn{{Role: domain.RoleAssistant, Content: "earlier"}},
		Message:      "help",
		Params:       domain.GenerationParams{Temperature: 0.7, MaxOutputTokens: 1200},
	}
	out := newTestClient(srv.URL).Generate(context.Background(), "x", req)
	assert.Equal(t, domain.Success("x", "Stretch daily."), out)

	assert.Equal(t, "x", got.Model)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, message{Role: "system", Content: "sys"}, got.Messages[0])
	assert.Equal(t, message{Role: "assistant", Content: "earlier"}, got.Messages[1])
	assert.Equal(t, message{Role: "user", Content: "help"}, got.Messages[2])
	assert.Equal(t, 1200, got.MaxTokens)
}

func TestGenerate_StatusClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     int
		wantKind   domain.OutcomeKind
		wantReason domain.FailureReason
	}{
		{name: "429", status: http.StatusTooManyRequests, wantKind: domain.OutcomeRateLimited},
		{name: "404", status: http.StatusNotFound, wantKind: domain.OutcomeFailure, wantReason: domain.FailureModelUnavailable},
		{name: "401", status: http.StatusUnauthorized, wantKind: domain.OutcomeFailure, wantReason: domain.FailureRejected},
		{name: "503", status: http.StatusServiceUnavailable, wantKind: domain.OutcomeFailure, wantReason: domain.FailureRejected},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"message":"nope"}}`))
			}))
			defer srv.Close()

			out := newTestClient(srv.URL).Generate(context.Background(), "x", domain.ProviderRequest{Message: "m"})
			assert.Equal(t, tt.wantKind, out.Kind)
			assert.Equal(t, tt.wantReason, out.Reason)
			assert.Equal(t, tt.status, out.Status)
		})
	}
}

func TestGenerate_EmptyChoices(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	out := newTestClient(srv.URL).Generate(context.Background(), "x", domain.ProviderRequest{Message: "m"})
	assert.Equal(t, domain.Success("x", ""), out)
}

func TestGenerate_ContextCancelled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	out := newTestClient(srv.URL).Generate(ctx, "x", domain.ProviderRequest{Message: "m"})
	assert.Equal(t, domain.FailureTransport, out.Reason)
	assert.Equal(t, 0, out.Status)
}

func TestBuildRequest_OmitsEmptySystem(t *testing.T) {
	t.Parallel()

	got := buildRequest("x", domain.ProviderRequest{Message: "m"})
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
}
