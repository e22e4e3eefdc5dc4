package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/phrazzld/scry-studygen/internal/config"
	"github.com/phrazzld/scry-studygen/internal/events"
	"github.com/phrazzld/scry-studygen/internal/extract"
	"github.com/phrazzld/scry-studygen/internal/generation"
	"github.com/phrazzld/scry-studygen/internal/pipeline"
	"github.com/phrazzld/scry-studygen/internal/platform/gemini"
	"github.com/phrazzld/scry-studygen/internal/platform/redis"
	"github.com/phrazzld/scry-studygen/internal/platform/tracing"
	"github.com/phrazzld/scry-studygen/internal/prompt"
	"github.com/phrazzld/scry-studygen/internal/session"
	"github.com/phrazzld/scry-studygen/internal/token"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	tracerProvider  trace.TracerProvider
	shutdownTracing tracing.ShutdownFunc
	redis           *goredis.Client

	pipeline *pipeline.Pipeline
	emitter  *events.InMemoryEventEmitter
	sessions *session.Manager
	tokens   token.Service
}

// generativeClient builds the production client. Tests replace it.
var generativeClient = func(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (generation.Client, error) {
	return gemini.NewClient(ctx, logger, cfg)
}

// newApplication creates a new application instance with all dependencies initialized.
// A failed initialization releases whatever was already acquired.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{config: cfg, logger: logger}
	ready := false
	defer func() {
		if !ready {
			app.cleanup()
		}
	}()

	var err error
	app.tracerProvider, app.shutdownTracing, err = tracing.Setup(cfg.Tracing, os.Stdout, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}

	builder, err := prompt.NewBuilder(cfg.LLM.PromptTemplatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize prompt builder: %w", err)
	}

	client, err := generativeClient(ctx, logger.With("component", "gemini_client"), cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize generative client: %w", err)
	}
	// each attempt takes a slot; backoff sleeps do not hold one
	client, err = generation.NewLimitedClient(client, cfg.LLM.MaxConcurrentRequests, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize request limiter: %w", err)
	}
	client, err = generation.NewRetryingClient(client, generation.RetryPolicy{
		MaxAttempts:   cfg.Retry.MaxAttempts,
		BaseDelay:     cfg.Retry.BaseDelay(),
		MaxDelay:      cfg.Retry.MaxDelay(),
		JitterPercent: cfg.Retry.JitterPercent,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize retry policy: %w", err)
	}
	logger.Info("generative client initialized",
		"model", cfg.LLM.ModelName,
		"max_attempts", cfg.Retry.MaxAttempts,
		"max_concurrent_requests", cfg.LLM.MaxConcurrentRequests)

	opts := []pipeline.Option{pipeline.WithTracerProvider(app.tracerProvider)}
	if cfg.Cache.Enabled {
		cache, err := app.setupCache(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithCache(cache))
	}

	app.pipeline, err = pipeline.New(builder, client, extract.NewExtractor(extract.DefaultLocator(cfg.LLM.AcceptUnfenced)), logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	app.emitter = events.NewInMemoryEventEmitter(logger)
	app.sessions, err = session.NewManager(app.pipeline, app.emitter, cfg.Session.IdleTimeout(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session manager: %w", err)
	}

	app.tokens, err = token.NewService(cfg.Session)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	logger.Info("session services initialized",
		"token_lifetime_minutes", cfg.Session.TokenLifetimeMinutes,
		"idle_timeout_minutes", cfg.Session.IdleTimeoutMinutes)

	ready = true
	return app, nil
}

func (app *application) setupCache(ctx context.Context) (*redis.CompletionCache, error) {
	rdb, err := redis.Connect(ctx, app.config.Cache.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to completion cache: %w", err)
	}
	app.redis = rdb

	cache, err := redis.NewCompletionCache(rdb, app.config.LLM.ModelName, app.config.Cache.TTL(), app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize completion cache: %w", err)
	}
	app.logger.Info("completion cache enabled", "ttl", app.config.Cache.TTL())
	return cache, nil
}

// cleanup releases resources held by the application. It is safe to call
// on a partially initialized application.
func (app *application) cleanup() {
	if app.sessions != nil {
		app.sessions.Shutdown()
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("failed to close redis client", "error", err)
		}
	}
	if app.shutdownTracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.shutdownTracing(ctx); err != nil {
			app.logger.Error("failed to flush traces", "error", err)
		}
	}
}
