// Package gemini implements the Google Generative Language provider.
package gemini

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/fairyhunter13/fitgenie-relay/internal/adapter/ai"
	"github.com/fairyhunter13/fitgenie-relay/internal/adapter/observability"
	"github.com/fairyhunter13/fitgenie-relay/internal/config"
	"github.com/fairyhunter13/fitgenie-relay/internal/domain"
	"github.com/fairyhunter13/fitgenie-relay/pkg/textx"
)

const providerName = "gemini"

// Client calls models/{model}:generateContent. It holds no per-request state.
type Client struct {
	apiKey  string
	baseURL string
	hc      *http.Client
}

var _ domain.Provider = (*Client)(nil)

// New constructs a client whose per-attempt timeout is cfg.UpstreamTimeout.
func New(cfg config.Config) *Client {
	return &Client{
		apiKey:  cfg.GoogleAIAPIKey,
		baseURL: strings.TrimRight(cfg.GeminiBaseURL, "/"),
		hc: &http.Client{
			Timeout:   cfg.UpstreamTimeout,
			Transport: observability.OutboundTransport(providerName),
		},
	}
}

func (c *Client) Name() string        { return providerName }
func (c *Client) DisplayName() string { return "Gemini" }
func (c *Client) Configured() bool    { return c.apiKey != "" }

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type generateRequest struct {
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// buildRequest maps the conversation onto Gemini roles: assistant turns
// become "model", the current message is the final user turn.
func buildRequest(req domain.ProviderRequest) generateRequest {
	out := generateRequest{
		Contents: make([]content, 0, len(req.History)+1),
		GenerationConfig: generationConfig{
			Temperature:     req.Params.Temperature,
			TopP:            req.Params.TopP,
			MaxOutputTokens: req.Params.MaxOutputTokens,
		},
	}
	if req.SystemPrompt != "" {
		out.SystemInstruction = &content{Role: "user", Parts: []part{{Text: req.SystemPrompt}}}
	}
	for _, t := range req.History {
		role := "user"
		if t.Role == domain.RoleAssistant {
			role = "model"
		}
		out.Contents = append(out.Contents, content{Role: role, Parts: []part{{Text: t.Content}}})
	}
	out.Contents = append(out.Contents, content{Role: "user", Parts: []part{{Text: req.Message}}})
	return out
}

func (c *Client) endpoint(model string) string {
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.baseURL, url.PathEscape(model), url.QueryEscape(c.apiKey))
}

// Generate performs one attempt against model.
func (c *Client) Generate(ctx domain.Context, model string, req domain.ProviderRequest) domain.Outcome {
	lg := observability.LoggerFromContext(ctx).With(
		slog.String("provider", providerName),
		slog.String("model", model))

	b, err := json.Marshal(buildRequest(req))
	if err != nil {
		return domain.Failure(model, domain.FailureRejected, 0, fmt.Sprintf("encode request: %v", err))
	}
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(model), bytes.NewReader(b))
	if err != nil {
		return ai.TransportFailure(model, err)
	}
	r.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(r)
	if err != nil {
		lg.Warn("ai provider transport error", slog.Any("error", redact(err, c.apiKey)))
		return ai.TransportFailure(model, redact(err, c.apiKey))
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
			slog.String("body", textx.Snippet(string(body), 512)))
		return out
	}

	var decoded generateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		lg.Warn("ai provider decode error", slog.Any("error", err))
		return domain.Success(model, "")
	}
	if len(decoded.Candidates) == 0 {
		return domain.Success(model, "")
	}
	var sb strings.Builder
	for _, p := range decoded.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return domain.Success(model, strings.TrimSpace(sb.String()))
}

// redact strips the API key from errors that echo the request URL.
func redact(err error, key string) error {
	if key == "" {
		return err
	}
	msg := err.Error()
	if !strings.Contains(msg, key) && !strings.Contains(msg, url.QueryEscape(key)) {
		return err
	}
	msg = strings.ReplaceAll(msg, url.QueryEscape(key), "REDACTED")
	return errors.New(strings.ReplaceAll(msg, key, "REDACTED"))
}
