package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/custodia-labs/policylens/internal/adapters/driven/ai"
	"github.com/custodia-labs/policylens/internal/adapters/driven/auth"
	"github.com/custodia-labs/policylens/internal/adapters/driven/cache"
	"github.com/custodia-labs/policylens/internal/adapters/driven/fetch"
	mongoadapter "github.com/custodia-labs/policylens/internal/adapters/driven/mongo"
	"github.com/custodia-labs/policylens/internal/adapters/driven/postgres"
	redisadapter "github.com/custodia-labs/policylens/internal/adapters/driven/redis"
	"github.com/custodia-labs/policylens/internal/adapters/driving/http"
	"github.com/custodia-labs/policylens/internal/classifier"
	"github.com/custodia-labs/policylens/internal/config"
	"github.com/custodia-labs/policylens/internal/core/domain"
	"github.com/custodia-labs/policylens/internal/core/ports/driven"
	"github.com/custodia-labs/policylens/internal/core/ports/driving"
	"github.com/custodia-labs/policylens/internal/core/services"
	"github.com/custodia-labs/policylens/internal/extraction"
	"github.com/custodia-labs/policylens/internal/runtime"
)

// app is the wired service graph shared by every subcommand
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *runtime.Services

	policyService driving.PolicyService
	authService   driving.AuthService

	// checks are pinged by /ready
	checks map[string]http.Pinger
}

// buildApp connects the infrastructure named by cfg and wires the pipeline.
// On error every handle opened so far is released.
func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (a *app, err error) {
	runtimeConfig := domain.NewRuntimeConfig(cfg.Environment)
	registry := runtime.NewServices(runtimeConfig)
	defer func() {
		if err != nil {
			_ = registry.Close()
		}
	}()

	a = &app{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		checks:   make(map[string]http.Pinger),
	}

	// ===== PostgreSQL =====
	logger.Info("connecting to postgres")
	db, err := postgres.Connect(ctx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		Logger:          logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	registry.AddCloser("postgres", db.Close)
	a.checks["postgres"] = db

	// ===== Cache (Redis if available, otherwise in-process) =====
	policyCache := setupCache(ctx, cfg, logger, registry)

	// ===== Fetcher =====
	heavy, err := setupRenderer(cfg, logger)
	if err != nil {
		return nil, err
	}
	if heavy != nil {
		runtimeConfig.SetRenderer(cfg.Fetch.Renderer)
	}

	fetcher := services.NewFetcher(services.FetcherConfig{
		HTTP: fetch.NewHTTPStrategy(fetch.HTTPConfig{
			UserAgent:    cfg.Fetch.UserAgent,
			Timeout:      cfg.Fetch.HTTPTimeout,
			MaxRedirects: cfg.Fetch.MaxRedirects,
			Logger:       logger,
		}),
		Heavy:   heavy,
		Domains: fetch.NewComplexDomains(cfg.Fetch.ComplexDomains...),
		Cache:   policyCache,
		TTL:     cfg.Cache.HTMLTTL,
		Logger:  logger,
	})

	// ===== Analysis providers =====
	providers, err := ai.NewFactory().CreateProviders(cfg.Analysis.Providers)
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis providers: %w", err)
	}
	registry.SetProviders(providers)

	analyzer := services.NewAnalyzer(services.AnalyzerConfig{
		Providers:   registry.Providers(),
		Preferred:   cfg.Analysis.Preferred,
		Cache:       policyCache,
		TTL:         cfg.Cache.AnalysisTTL,
		MaxChars:    cfg.Analysis.MaxChars,
		Environment: cfg.Environment,
		Logger:      logger,
	})

	repository := services.NewPolicyRepository(services.RepositoryConfig{
		Store:           postgres.NewPolicyStore(db),
		MaxRawTextChars: cfg.Analysis.MaxRawTextChars,
		Logger:          logger,
	})

	// ===== Request log =====
	requestLog, err := setupRequestLog(ctx, cfg, logger, db, a, registry)
	if err != nil {
		return nil, err
	}

	a.policyService = services.NewPolicyService(services.PolicyServiceConfig{
		Fetcher:          fetcher,
		Extractor:        extraction.New(extraction.Config{Logger: logger}),
		Classifier:       classifier.New(),
		Analyzer:         analyzer,
		Repository:       repository,
		RequestLog:       requestLog,
		FreshnessWindow:  cfg.Cache.FreshnessWindow,
		BatchConcurrency: cfg.Analysis.BatchConcurrency,
		Logger:           logger,
	})

	// ===== Optional bearer verification =====
	if cfg.Auth.JWTSecret != "" {
		a.authService = services.NewAuthService(auth.NewAdapter(cfg.Auth.JWTSecret))
	}

	logger.Info("runtime config",
		"environment", cfg.Environment,
		"cache_backend", runtimeConfig.CacheBackend(),
		"providers", runtimeConfig.Providers(),
		"renderer", runtimeConfig.Renderer(),
		"request_log", cfg.RequestLog.Backend,
		"auth", a.authService != nil)

	return a, nil
}

// setupCache returns the resilient cache, fronting Redis when a URL is configured
func setupCache(ctx context.Context, cfg *config.Config, logger *slog.Logger, registry *runtime.Services) driven.Cache {
	runtimeConfig := registry.Config()

	var primary driven.Cache
	if cfg.Redis.URL != "" {
		client, err := redisadapter.NewClient(cfg.Redis.URL)
		if err != nil {
			logger.Warn("invalid redis url, using in-process cache", "error", err)
		} else {
			redisCache := redisadapter.NewCache(client)
			registry.AddCloser("redis", redisCache.Close)
			primary = redisCache
		}
	}

	resilient := cache.NewResilient(ctx, primary, cache.NewMemory(cfg.Cache.SweepInterval), cache.ResilientConfig{
		Logger:    logger,
		OnDegrade: runtimeConfig.SetCacheBackend,
	})
	registry.AddCloser("cache", resilient.Close)
	runtimeConfig.SetCacheBackend(resilient.Name())

	return resilient
}

// setupRenderer returns the heavy fetch strategy, nil when disabled
func setupRenderer(cfg *config.Config, logger *slog.Logger) (driven.FetchStrategy, error) {
	switch cfg.Fetch.Renderer {
	case config.RendererChromedp:
		return fetch.NewBrowserStrategy(fetch.BrowserConfig{
			UserAgent: cfg.Fetch.UserAgent,
			Timeout:   cfg.Fetch.BrowserTimeout,
			Logger:    logger,
		}), nil
	case config.RendererCloudflare:
		strategy, err := fetch.NewCloudflareStrategy(fetch.CloudflareConfig{
			AccountID: cfg.Fetch.Cloudflare.AccountID,
			APIToken:  cfg.Fetch.Cloudflare.APIToken,
			UserAgent: cfg.Fetch.UserAgent,
			Logger:    logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create cloudflare renderer: %w", err)
		}
		return strategy, nil
	default:
		logger.Info("heavy renderer disabled, complex domains use the http strategy only")
		return nil, nil
	}
}

// setupRequestLog returns the configured request log store, nil when disabled
func setupRequestLog(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *postgres.DB,
	a *app,
	registry *runtime.Services,
) (driven.RequestLogStore, error) {
	switch cfg.RequestLog.Backend {
	case config.RequestLogPostgres:
		return postgres.NewRequestLogStore(db), nil
	case config.RequestLogMongo:
		logger.Info("connecting to mongo")
		client, err := mongoadapter.Connect(ctx, mongoadapter.Config{
			URI:      cfg.RequestLog.MongoURI,
			Database: cfg.RequestLog.MongoDatabase,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		registry.AddCloser("mongo", func() error {
			return client.Close(context.Background())
		})
		a.checks["mongo"] = client
		return client.Store(), nil
	default:
		return nil, nil
	}
}

// Close releases every provider and infrastructure handle
func (a *app) Close() error {
	return a.registry.Close()
}
