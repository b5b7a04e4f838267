package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/p-blackswan/todo-suggest/internal/api"
	"github.com/p-blackswan/todo-suggest/internal/categorize"
	"github.com/p-blackswan/todo-suggest/internal/config"
	"github.com/p-blackswan/todo-suggest/internal/health"
	"github.com/p-blackswan/todo-suggest/internal/llm"
	"github.com/p-blackswan/todo-suggest/internal/metrics"
	"github.com/p-blackswan/todo-suggest/internal/retry"
	"github.com/p-blackswan/todo-suggest/internal/suggest"
	"github.com/p-blackswan/todo-suggest/internal/todo"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	if os.Getenv("ENVIRONMENT") == config.EnvDevelopment || os.Getenv("ENVIRONMENT") == "" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Logger = logger

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Int("http_port", cfg.HTTPPort).
		Bool("model_enabled", cfg.AnthropicEnabled()).
		Bool("sessions_enabled", cfg.SessionEnabled()).
		Msg("starting todo server")

	m := metrics.New()
	checker := health.NewChecker(logger)

	// Todo store
	storeOpts := []todo.StoreOption{
		todo.WithMaxTasks(cfg.TaskLimit()),
		todo.WithStoreLogger(logger),
		todo.WithStoreMetrics(m),
	}
	if cfg.ProjectsFile != "" {
		seed, err := config.LoadSeed(cfg.ProjectsFile)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to load projects file")
		}
		storeOpts = append(storeOpts, todo.WithProjects(todo.ProjectsFromSeed(seed)))
	}
	store := todo.NewStore(storeOpts...)

	// Categorization model (optional)
	var provider llm.LLMProvider
	if cfg.AnthropicEnabled() {
		provider = llm.NewAnthropicProvider(cfg.AnthropicAPIKey,
			llm.WithBaseURL(cfg.AnthropicBaseURL),
			llm.WithModel(cfg.AnthropicModel),
			llm.WithMaxTokens(cfg.AnthropicMaxTokens),
			llm.WithTemperature(cfg.AnthropicTemperature),
			llm.WithLogger(logger),
		)
		checker.Register("anthropic", func(ctx context.Context) health.Status {
			return health.StatusOK
		})
		logger.Info().Str("model", provider.ModelID()).Msg("categorization model configured")
	} else {
		logger.Warn().Msg("ANTHROPIC_API_KEY not set; /api/tasks/categorize will answer with the fallback")
		checker.Register("anthropic", func(ctx context.Context) health.Status {
			return health.StatusDegraded
		})
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = cfg.CategorizeRetries
	categorizer := categorize.New(provider,
		categorize.WithCache(cfg.CategorizeCacheSize, cfg.CategorizeCacheTTL),
		categorize.WithRetry(retryCfg),
		categorize.WithLogger(logger),
		categorize.WithMetrics(m),
	)

	// Suggestion orchestrator; a bad environment stops startup here.
	suggester, err := suggest.New(suggest.Config{
		Environment: suggest.Environment(cfg.Environment),
		Endpoint:    cfg.CategorizeEndpoint(),
		HTTPClient:  &http.Client{Timeout: cfg.SuggestTimeout},
		Logger:      logger,
		Metrics:     m,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure suggestion provider")
	}

	handlers := api.NewHandlers(store, categorizer, suggester, m, logger)
	server := api.NewServer(api.ServerConfig{
		ListenAddr: cfg.ListenAddr(),
		RateLimit: api.RateLimitConfig{
			RPS:   cfg.RateLimitRPS,
			Burst: cfg.RateLimitBurst,
		},
		CORSOrigins:     cfg.CORSOrigins,
		SessionSecret:   cfg.SessionSecret,
		ShowErrorDetail: cfg.IsDevelopment(),
	}, handlers, checker, m, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("API server error")
		}
	}()

	sig := <-sigCh
	logger.Info().Str("signal", sig.String()).Msg("shutting down gracefully")

	if err := server.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("API server shutdown error")
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info().Msg("all goroutines stopped")
	case <-time.After(15 * time.Second):
		logger.Warn().Msg("forced shutdown after timeout")
	}

	stats := categorizer.CacheStats()
	logger.Info().
		Uint64("cache_hits", stats.Hits).
		Uint64("cache_misses", stats.Misses).
		Msg("todo server stopped")
}
