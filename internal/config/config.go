// Package config defines configuration parsing and helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Provider names accepted by LLM_PROVIDER.
const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"dev"`
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL"`

	// LLMProvider selects the single upstream used by this process.
	LLMProvider string `env:"LLM_PROVIDER" envDefault:"gemini"`

	GoogleAIAPIKey string `env:"GOOGLE_AI_API_KEY"`
	// APIKey is the legacy name for the Google key and is only read when GOOGLE_AI_API_KEY is empty.
	APIKey        string   `env:"API_KEY"`
	GeminiBaseURL string   `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com"`
	GeminiModels  []string `env:"GEMINI_MODELS" envSeparator:"," envDefault:"gemini-2.0-flash,gemini-1.5-flash-002,gemini-1.5-pro-002"`

	OpenRouterAPIKey  string `env:"OPENROUTER_API_KEY"`
	OpenRouterBaseURL string `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	OpenRouterModel   string `env:"OPENROUTER_MODEL" envDefault:"meta-llama/llama-3.1-8b-instruct:free"`
	OpenRouterReferer string `env:"OPENROUTER_REFERER"`
	OpenRouterTitle   string `env:"OPENROUTER_TITLE" envDefault:"FitGenie"`

	// UpstreamTimeout bounds a single outbound attempt, not the whole fallback chain.
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"60s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"90s"`
	MaxBodyBytes    int64         `env:"MAX_BODY_BYTES" envDefault:"1048576"`

	CORSAllowOrigins string `env:"CORS_ALLOW_ORIGINS" envDefault:"*"`
	RateLimitPerMin  int    `env:"RATE_LIMIT_PER_MIN" envDefault:"30"`

	// FirebaseProjectID enables ID-token verification on POST routes when set.
	FirebaseProjectID string `env:"FIREBASE_PROJECT_ID"`
	FirebaseCertsURL  string `env:"FIREBASE_CERTS_URL" envDefault:"https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"`

	RedisURL    string `env:"REDIS_URL"`
	QuotaPerMin int    `env:"QUOTA_PER_MIN" envDefault:"20"`

	PromptsFile string `env:"PROMPTS_FILE"`

	OTLPEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTELServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"fitgenie-relay"`

	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	HTTPReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"120s"`
	HTTPIdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
}

// Load parses environment variables into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	if cfg.GoogleAIAPIKey == "" {
		cfg.GoogleAIAPIKey = cfg.APIKey
	}
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	switch cfg.LLMProvider {
	case ProviderGemini, ProviderOpenRouter:
	default:
		return Config{}, fmt.Errorf("op=config.Load: unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}
	if len(cfg.CandidateModels()) == 0 {
		return Config{}, fmt.Errorf("op=config.Load: no candidate models configured for %s", cfg.LLMProvider)
	}
	return cfg, nil
}

// IsDev reports whether the app is running in development mode.
func (c Config) IsDev() bool { return strings.ToLower(c.AppEnv) == "dev" }

// IsProd reports whether the app is running in production mode.
func (c Config) IsProd() bool { return strings.ToLower(c.AppEnv) == "prod" }

// IsTest reports whether the app is running in test mode.
func (c Config) IsTest() bool { return strings.ToLower(c.AppEnv) == "test" }

// AuthEnabled reports whether inbound identity tokens must be verified.
func (c Config) AuthEnabled() bool { return strings.TrimSpace(c.FirebaseProjectID) != "" }

// QuotaEnabled reports whether the shared Redis quota is configured.
func (c Config) QuotaEnabled() bool { return c.RedisURL != "" && c.QuotaPerMin > 0 }

// ActiveAPIKey returns the credential of the selected provider.
func (c Config) ActiveAPIKey() string {
	if c.LLMProvider == ProviderOpenRouter {
		return c.OpenRouterAPIKey
	}
	return c.GoogleAIAPIKey
}

// CandidateModels returns the ordered model list tried for every request.
// OpenRouter runs with a single configured model and no fallback.
func (c Config) CandidateModels() []string {
	if c.LLMProvider == ProviderOpenRouter {
		if m := strings.TrimSpace(c.OpenRouterModel); m != "" {
			return []string{m}
		}
		return nil
	}
	out := make([]string, 0, len(c.GeminiModels))
	for _, m := range c.GeminiModels {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}
