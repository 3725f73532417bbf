// Package app builds the service graph shared by the server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/go-redis/redis/v8"
	"golang.org/x/time/rate"

	"github.com/chynybekuuludastan/sitecloner/internal/api"
	"github.com/chynybekuuludastan/sitecloner/internal/api/handlers"
	ws "github.com/chynybekuuludastan/sitecloner/internal/api/websocket"
	"github.com/chynybekuuludastan/sitecloner/internal/config"
	"github.com/chynybekuuludastan/sitecloner/internal/database"
	"github.com/chynybekuuludastan/sitecloner/internal/logging"
	"github.com/chynybekuuludastan/sitecloner/internal/repository"
	"github.com/chynybekuuludastan/sitecloner/internal/repository/cache"
	"github.com/chynybekuuludastan/sitecloner/internal/service/diagnostics"
	"github.com/chynybekuuludastan/sitecloner/internal/service/embed"
	"github.com/chynybekuuludastan/sitecloner/internal/service/fetcher"
	"github.com/chynybekuuludastan/sitecloner/internal/service/llm"
	"github.com/chynybekuuludastan/sitecloner/internal/service/llm/prompts"
	"github.com/chynybekuuludastan/sitecloner/internal/service/llm/providers"
	"github.com/chynybekuuludastan/sitecloner/internal/service/llm/tokens"
	"github.com/chynybekuuludastan/sitecloner/internal/service/pipeline"
	"github.com/chynybekuuludastan/sitecloner/internal/service/schema"
	"github.com/chynybekuuludastan/sitecloner/internal/service/screenshot"
)

// Options selects which parts of the graph to build
type Options struct {
	// Generation builds the LLM provider and pipeline; it needs provider credentials
	Generation bool
	// Storage connects Postgres and Redis when their URIs are configured
	Storage bool
}

// App holds the constructed services
type App struct {
	Config *config.Config
	Logger logging.Logger

	DB    *database.DatabaseClient
	Redis *database.RedisClient

	LLM         *llm.Service
	Tracker     *tokens.Tracker
	Pipeline    *pipeline.Service
	Screenshots *screenshot.Service
	Embed       *embed.Checker
	Hub         *ws.Hub
}

// New builds the graph. On error everything opened so far is closed.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger, opts Options) (a *App, err error) {
	a = &App{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			_ = a.Close()
			a = nil
		}
	}()

	if opts.Storage {
		if err = a.connectStorage(ctx); err != nil {
			return nil, err
		}
	}

	redisClient := a.redisClient()

	a.Embed = embed.NewChecker(&http.Client{Timeout: cfg.EmbedTimeout}, fetcher.DefaultUserAgent, logger.With("component", "embed"))

	renderer := screenshot.NewRenderer(screenshot.Config{
		ChromePath:   cfg.ChromePath,
		NavTimeout:   cfg.ScreenshotNavTimeout,
		ReadyTimeout: cfg.ScreenshotReadyTimeout,
	}, logger.With("component", "screenshot"))
	var store screenshot.Store
	if redisClient != nil {
		store = cache.NewRepository(redisClient, cfg.ScreenshotCacheTTL)
	}
	a.Screenshots = screenshot.NewService(renderer, store, logger.With("component", "screenshot"))

	a.Hub = ws.NewHub(logger.With("component", "websocket"))
	go a.Hub.Run()

	if opts.Generation {
		if err = a.buildPipeline(ctx); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *App) connectStorage(ctx context.Context) error {
	cfg := a.Config
	if cfg.PostgresURI != "" {
		db, err := database.InitPostgreSQL(ctx, cfg.PostgresURI, !cfg.IsProduction() && cfg.LogLevel == "debug", a.Logger)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		a.DB = db
	}
	if cfg.RedisURI != "" {
		client, err := database.InitRedis(ctx, cfg.RedisURI)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		a.Redis = client
		a.Logger.Info("Connected to Redis")
	}
	return nil
}

func (a *App) buildPipeline(ctx context.Context) error {
	cfg := a.Config
	logger := a.Logger

	validator, err := schema.NewValidator(cfg.TemplateID)
	if err != nil {
		return err
	}

	a.Tracker = tokens.NewTracker(a.redisClient(), cfg.LLMDailyBudget)
	a.LLM = llm.NewService(llm.ServiceOptions{
		DefaultProvider: cfg.LLMProvider,
		RateLimit:       rate.Limit(cfg.LLMRateLimit),
		RateBurst:       cfg.LLMRateBurst,
		Timeout:         cfg.LLMTimeout,
		Usage:           a.Tracker,
		Budget:          a.Tracker,
		Logger:          logger.With("component", "llm"),
	})

	provider, err := providers.New(ctx, cfg, logger.With("component", "llm"))
	if err != nil {
		return err
	}
	a.LLM.RegisterProvider(provider)

	sink, label := a.sinks()
	generator := llm.NewGenerator(a.LLM, validator.Document(), llm.GeneratorOptions{
		Provider:      provider.GetName(),
		UseStructured: cfg.LLMUseStructured,
		Sink:          sink,
		SinkLabel:     label,
		Logger:        logger.With("component", "generator"),
	})

	fetch := fetcher.New(fetcher.Options{
		Timeout:   cfg.FetchTimeout,
		Retries:   cfg.FetchRetries,
		BaseDelay: cfg.FetchBaseDelay,
		UserAgent: fetcher.DefaultUserAgent,
	}, logger.With("component", "fetcher"))

	a.Pipeline, err = pipeline.New(fetch, prompts.DefaultRegistry(), generator, validator, pipeline.Options{
		TemplateID: cfg.TemplateID,
		Reporter:   a.Hub,
		Logger:     logger.With("component", "pipeline"),
	})
	return err
}

// sinks assembles the diagnostic sinks for whatever storage is configured and the
// label reported as savedTo
func (a *App) sinks() (diagnostics.Sink, string) {
	var (
		sinks []diagnostics.Sink
		label string
	)
	if path := a.Config.DebugFilePath; path != "" {
		sinks = append(sinks, diagnostics.NewFileSink(path))
		label = filepath.Base(path)
	}
	if client := a.redisClient(); client != nil {
		sinks = append(sinks, diagnostics.NewRedisSink(client, diagnostics.DefaultHistorySize))
		if label == "" {
			label = diagnostics.RedisLastKey
		}
	}
	if a.DB != nil {
		factory := repository.NewRepositoryFactory(a.DB.DB)
		sinks = append(sinks, diagnostics.NewDBSink(factory.FailureRepository))
		if label == "" {
			label = "model_failures"
		}
	}
	if len(sinks) == 0 {
		return diagnostics.NopSink{}, ""
	}
	return diagnostics.NewMultiSink(sinks...), label
}

func (a *App) redisClient() *redis.Client {
	if a.Redis == nil {
		return nil
	}
	return a.Redis.Client
}

// Handlers returns the HTTP handlers for the built services
func (a *App) Handlers() api.Handlers {
	h := api.Handlers{
		Preview:  handlers.NewPreviewHandler(a.Screenshots, a.Embed, 0, a.Logger.With("component", "http")),
		Progress: handlers.NewProgressHandler(a.Hub),
	}
	if a.Pipeline != nil {
		h.Generate = handlers.NewGenerateHandler(a.Pipeline, 0, a.Logger.With("component", "http"))
	}
	return h
}

// Close releases every resource New opened
func (a *App) Close() error {
	var errs []error
	if a.Hub != nil {
		a.Hub.Stop()
	}
	if a.LLM != nil {
		errs = append(errs, a.LLM.Close())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
