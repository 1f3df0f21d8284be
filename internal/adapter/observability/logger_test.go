package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/fitgenie-relay/internal/config"
)

func TestSetupLogger_DevAndProd(t *testing.T) {
	lg := SetupLogger(config.Config{AppEnv: "dev", OTELServiceName: "svc"})
	require.NotNil(t, lg)
	lg2 := SetupLogger(config.Config{AppEnv: "prod", OTELServiceName: "svc"})
	require.NotNil(t, lg2)
}

func TestNewLogger_WritesServiceFields(t *testing.T) {
	var buf bytes.Buffer
	lg := newLogger(config.Config{AppEnv: "prod", OTELServiceName: "fitgenie-relay", LLMProvider: "gemini"}, &buf)
	lg.Info("hello")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "fitgenie-relay", rec["service"])
	assert.Equal(t, "prod", rec["env"])
	assert.Equal(t, "gemini", rec["provider"])
}

func TestLevelFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		cfg  config.Config
		want slog.Level
	}{
		{"dev_default", config.Config{AppEnv: "dev"}, slog.LevelDebug},
		{"prod_default", config.Config{AppEnv: "prod"}, slog.LevelInfo},
		{"explicit_warn", config.Config{AppEnv: "dev", LogLevel: "WARN"}, slog.LevelWarn},
		{"explicit_error", config.Config{AppEnv: "prod", LogLevel: "error"}, slog.LevelError},
		{"unknown_falls_back", config.Config{AppEnv: "prod", LogLevel: "loud"}, slog.LevelInfo},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, levelFor(tt.cfg))
		})
	}
}
