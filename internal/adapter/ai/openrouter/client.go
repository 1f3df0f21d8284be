// Package openrouter implements the OpenRouter chat-completions provider.
package openrouter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fairyhunter13/fitgenie-relay/internal/adapter/ai"
	"github.com/fairyhunter13/fitgenie-relay/internal/adapter/observability"
	"github.com/fairyhunter13/fitgenie-relay/internal/config"
	"github.com/fairyhunter13/fitgenie-relay/internal/domain"
	"github.com/fairyhunter13/fitgenie-relay/pkg/textx"
)

const providerName = "openrouter"

// Client implements domain.Provider using OpenRouter (OpenAI-compatible) chat completions.
type Client struct {
	apiKey  string
	baseURL string
	referer string
	title   string
	hc      *http.Client
}

var _ domain.Provider = (*Client)(nil)

// New constructs a client whose per-attempt timeout is cfg.UpstreamTimeout.
func New(cfg config.Config) *Client {
	return &Client{
		apiKey:  cfg.OpenRouterAPIKey,
		baseURL: strings.TrimRight(cfg.OpenRouterBaseURL, "/"),
		referer: cfg.OpenRouterReferer,
		title:   cfg.OpenRouterTitle,
		hc: &http.Client{
			Timeout:   cfg.UpstreamTimeout,
			Transport: observability.OutboundTransport(providerName),
		},
	}
}

func (c *Client) Name() string        { return providerName }
func (c *Client) DisplayName() string { return "OpenRouter" }
func (c *Client) Configured() bool    { return c.apiKey != "" }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	TopP        float64   `json:"top_p,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func buildRequest(model string, req domain.ProviderRequest) chatRequest {
	msgs := make([]message, 0, len(req.History)+2)
	if req.SystemPrompt != "" {
		msgs = append(msgs, message{Role: "system", Content: req.SystemPrompt})
	}
	for _, t := range req.History {
		msgs = append(msgs, message{Role: string(t.Role), Content: t.Content})
	}
	msgs = append(msgs, message{Role: "user", Content: req.Message})
	return chatRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: req.Params.Temperature,
		TopP:        req.Params.TopP,
		MaxTokens:   req.Params.MaxOutputTokens,
	}
}

// Generate performs one attempt against model.
func (c *Client) Generate(ctx domain.Context, model string, req domain.ProviderRequest) domain.Outcome {
	lg := observability.LoggerFromContext(ctx).With(
		slog.String("provider", providerName),
		slog.String("model", model))
	endpoint := c.baseURL + "/chat/completions"

	b, err := json.Marshal(buildRequest(model, req))
	if err != nil {
		return domain.Failure(model, domain.FailureRejected, 0, fmt.Sprintf("encode request: %v", err))
	}
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return ai.TransportFailure(model, err)
	}
	r.Header.Set("Authorization", "Bearer "+c.apiKey)
	r.Header.Set("Content-Type", "application/json")
	if c.referer != "" {
		r.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		r.Header.Set("X-Title", c.title)
	}

	resp, err := c.hc.Do(r)
	if err != nil {
		lg.Warn("ai provider transport error", slog.Any("error", err))
		return ai.TransportFailure(model, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := ai.ReadBody(resp.Body)
	if err != nil {
		lg.Warn("ai provider body read error", slog.Any("error", err))
		return ai.TransportFailure(model, err)
	}
	if out, handled := ai.ClassifyStatus(model, resp.StatusCode, body); handled {
		lg.Warn("ai provider non-2xx",
			slog.Int("status", resp.StatusCode),
			slog.String("endpoint", endpoint),
			slog.String("x_request_id", resp.Header.Get("X-Request-Id")),
			slog.String("body", textx.Snippet(string(body), 512)))
		return out
	}

	var decoded chatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		lg.Warn("ai provider decode error", slog.Any("error", err))
		return domain.Success(model, "")
	}
	if len(decoded.Choices) == 0 {
		lg.Warn("ai provider returned empty choices")
		return domain.Success(model, "")
	}
	if decoded.Model != "" && decoded.Model != model {
		lg.Info("model substitution detected", slog.String("actual_model", decoded.Model))
	}
	return domain.Success(model, strings.TrimSpace(decoded.Choices[0].Message.Content))
}
