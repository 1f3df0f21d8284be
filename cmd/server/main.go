// Command server starts the FitGenie relay HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	ai "github.com/fairyhunter13/fitgenie-relay/internal/adapter/ai"
	"github.com/fairyhunter13/fitgenie-relay/internal/adapter/ai/gemini"
	"github.com/fairyhunter13/fitgenie-relay/internal/adapter/ai/openrouter"
	"github.com/fairyhunter13/fitgenie-relay/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/fitgenie-relay/internal/adapter/auth/firebase"
	httpserver "github.com/fairyhunter13/fitgenie-relay/internal/adapter/httpserver"
	"github.com/fairyhunter13/fitgenie-relay/internal/adapter/observability"
	"github.com/fairyhunter13/fitgenie-relay/internal/app"
	"github.com/fairyhunter13/fitgenie-relay/internal/config"
	"github.com/fairyhunter13/fitgenie-relay/internal/domain"
	"github.com/fairyhunter13/fitgenie-relay/internal/service/ratelimiter"
	"github.com/fairyhunter13/fitgenie-relay/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	prompts, err := config.LoadPrompts(cfg.PromptsFile)
	if err != nil {
		slog.Error("prompts load failed", slog.Any("error", err))
		os.Exit(1)
	}
	chatPrompt, ok := prompts.Get(config.PromptChat)
	if !ok {
		slog.Error("prompts catalogue has no chat entry")
		os.Exit(1)
	}

	// A missing key is not fatal: requests answer 500 until it is set.
	provider := newProvider(cfg)
	if cfg.ActiveAPIKey() == "" {
		slog.Warn("provider API key missing", slog.String("provider", provider.Name()))
	}
	coord := ai.NewCoordinator(provider, cfg.CandidateModels())
	slog.Info("provider initialized",
		slog.String("provider", provider.Name()),
		slog.Any("models", coord.Models()))

	tokens := tokencount.NewCounter(nil)
	go tokens.Warm()
	chatSvc := usecase.NewChatService(coord, chatPrompt, tokens)
	genSvc := usecase.NewGenerateService(coord, prompts, tokens)

	var guards app.Guards
	var rdb *redis.Client
	if cfg.QuotaEnabled() {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", slog.Any("error", err))
			os.Exit(1)
		}
		rdb = redis.NewClient(opts)
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close redis client", slog.Any("error", err))
			}
		}()
		guards.Quota = ratelimiter.NewRedisLuaLimiter(rdb, ratelimiter.NewBucketConfigFromPerMinute(cfg.QuotaPerMin))
		slog.Info("redis quota enabled", slog.Int("per_min", cfg.QuotaPerMin))
	}
	if cfg.AuthEnabled() {
		guards.Verifier = firebase.NewVerifier(cfg)
		slog.Info("firebase auth enabled", slog.String("project_id", cfg.FirebaseProjectID))
	}

	checks := app.BuildReadinessChecks(provider, app.NewRedisClient(rdb))
	srv := httpserver.NewServer(cfg, chatSvc, genSvc, checks)
	handler := app.BuildRouter(cfg, srv, guards)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}

func newProvider(cfg config.Config) domain.Provider {
	if cfg.LLMProvider == config.ProviderOpenRouter {
		return openrouter.New(cfg)
	}
	return gemini.New(cfg)
}
