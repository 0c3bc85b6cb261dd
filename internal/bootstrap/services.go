package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/llmlab/config"
	"github.com/target/llmlab/internal/adapters/llm"
	"github.com/target/llmlab/internal/adapters/reaper"
	"github.com/target/llmlab/internal/core"
	"github.com/target/llmlab/internal/data"
	"github.com/target/llmlab/internal/domain/job"
	"github.com/target/llmlab/internal/observability/statsd"
	"github.com/target/llmlab/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Experiments   *service.ExperimentService
	LLM           *service.LLMService
	Catalog       *llm.Catalog
	Gateways      *llm.Registry
	Reaper        *reaper.Runner // nil when the reaper is disabled
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink   *statsd.Client
	MetricsConfig config.ObservabilityMetricsConfig
}

// Close releases observability resources.
func (o ObservabilityContainer) Close() error {
	if o.MetricsSink == nil {
		return nil
	}
	return o.MetricsSink.Close()
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient // Optional: enables the experiment view cache
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	ExperimentRepo  *data.ExperimentRepo
	LLMResponseRepo *data.LLMResponseRepo
	CacheRepo       *data.RedisCacheRepo
}

// buildObservability configures the metrics adapter.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  cfg.Metrics.Prefix,
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:   metricsSink,
		MetricsConfig: cfg.Metrics,
	}
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB, redisClient redis.UniversalClient) *serviceRepositories {
	repos := &serviceRepositories{
		ExperimentRepo:  data.NewExperimentRepo(db),
		LLMResponseRepo: data.NewLLMResponseRepo(db),
	}
	if redisClient != nil {
		repos.CacheRepo = data.NewRedisCacheRepo(redisClient)
	}
	return repos
}

func newCatalog(cfg config.ProvidersConfig, logger *slog.Logger) *llm.Catalog {
	opts := llm.CatalogOptions{
		Extra:  cfg.ModelProviders,
		Logger: logger,
	}
	if cfg.OllamaDiscovery {
		opts.Ollama = llm.NewOllamaModels(cfg.Ollama.BaseURL, nil)
	}
	return llm.NewCatalog(opts)
}

func newViewCache(repos *serviceRepositories, cfg config.CacheConfig) *core.ExperimentViewCache {
	if repos.CacheRepo == nil || !cfg.Enabled {
		return nil
	}
	return core.NewExperimentViewCache(core.ExperimentViewCacheOptions{
		Cache:     repos.CacheRepo,
		TTL:       cfg.ExperimentTTL,
		KeyPrefix: cfg.KeyPrefix,
	})
}

// metricsSink avoids handing services a typed nil *statsd.Client.
//
//nolint:ireturn // services accept the Sink capability
func metricsSink(o ObservabilityContainer) statsd.Sink {
	if o.MetricsSink == nil {
		return nil
	}
	return o.MetricsSink
}

// DomainServicesOptions groups inputs for buildDomainServices.
type DomainServicesOptions struct {
	Repos         *serviceRepositories
	Observability ObservabilityContainer
	Config        *config.AppConfig
	Logger        *slog.Logger
}

// buildDomainServices wires business services using repositories and observability adapters.
func buildDomainServices(opts *DomainServicesOptions) (ServiceContainer, error) {
	if opts == nil || opts.Repos == nil {
		return ServiceContainer{}, errors.New("domain service options are required")
	}
	svcLogger := opts.Logger
	if svcLogger == nil {
		svcLogger = slog.Default()
	}
	appCfg := opts.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
		appCfg.Sanitize()
	}
	sink := metricsSink(opts.Observability)

	catalog := newCatalog(appCfg.Providers, svcLogger)
	gateways := llm.NewRegistryFromConfig(appCfg.Providers, svcLogger)

	llmService, err := service.NewLLMService(service.LLMServiceOptions{
		Catalog:   catalog,
		Gateways:  gateways,
		Responses: opts.Repos.LLMResponseRepo,
		Config:    appCfg.LLM,
		Metrics:   sink,
		Logger:    svcLogger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create llm service: %w", err)
	}

	// The reaper reads live run ids from the same registry the experiment
	// service starts runs in.
	registry := job.NewRegistry()
	experiments, err := service.NewExperimentService(service.ExperimentServiceOptions{
		Experiments: opts.Repos.ExperimentRepo,
		Responses:   opts.Repos.LLMResponseRepo,
		Processor:   llmService,
		Registry:    registry,
		ViewCache:   newViewCache(opts.Repos, appCfg.Cache),
		Metrics:     sink,
		Logger:      svcLogger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create experiment service: %w", err)
	}

	var reaperRunner *reaper.Runner
	if appCfg.Reaper.Enabled {
		reaperRunner, err = reaper.NewRunner(reaper.RunnerOptions{
			Config:   appCfg.Reaper,
			LiveRuns: registry,
			Logger:   svcLogger,
			Repo:     opts.Repos.ExperimentRepo,
			Metrics:  sink,
		})
		if err != nil {
			return ServiceContainer{}, fmt.Errorf("create reaper: %w", err)
		}
	}

	return ServiceContainer{
		Experiments:   experiments,
		LLM:           llmService,
		Catalog:       catalog,
		Gateways:      gateways,
		Reaper:        reaperRunner,
		Observability: opts.Observability,
	}, nil
}

// NewServices builds every application service from shared infrastructure.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil {
		return ServiceContainer{}, errors.New("service deps are required")
	}
	if deps.DB == nil {
		return ServiceContainer{}, errors.New("database is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var obsCfg config.ObservabilityConfig
	if deps.Config != nil {
		obsCfg = deps.Config.Observability
	}
	observability := buildObservability(logger, obsCfg)
	repos := buildRepositories(deps.DB, deps.RedisClient)
	return buildDomainServices(&DomainServicesOptions{
		Repos:         repos,
		Observability: observability,
		Config:        deps.Config,
		Logger:        logger,
	})
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	DB       *sql.DB
	Logger   *slog.Logger
}

// RunServicesWithShutdown starts the HTTP server and blocks until a shutdown
// signal is received or the server fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}
	if cfg.Services.Experiments == nil {
		return errors.New("service orchestration config missing experiment service")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	errCh := make(chan error, 1)
	server := StartHTTPServer(&HTTPServerConfig{
		Config:   cfg.Config,
		Services: cfg.Services,
		DB:       cfg.DB,
		Logger:   logger,
		ErrCh:    errCh,
	})

	if cfg.Services.Reaper != nil {
		cfg.Services.Reaper.Start(context.Background())
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	return waitForShutdown(shutdownConfig{
		quit:        quit,
		errCh:       errCh,
		httpServer:  server,
		reaper:      cfg.Services.Reaper,
		experiments: cfg.Services.Experiments,
		timeout:     cfg.Config.HTTP.ShutdownTimeout,
		logger:      logger,
	})
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	quit        <-chan os.Signal
	errCh       <-chan error
	httpServer  *http.Server
	reaper      *reaper.Runner
	experiments *service.ExperimentService
	timeout     time.Duration
	logger      *slog.Logger
}

// waitForShutdown waits for shutdown signal or server error.
func waitForShutdown(cfg shutdownConfig) error {
	select {
	case sig := <-cfg.quit:
		cfg.logger.Info("shutting down services...", "signal", sig.String())
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop stops accepting requests and the reaper, then cancels running
// experiments and waits for them to record their final status.
func gracefulStop(cfg shutdownConfig) error {
	timeout := cfg.timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := ShutdownHTTPServer(ShutdownConfig{
		Context: ctx,
		Server:  cfg.httpServer,
		Logger:  cfg.logger,
	}); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
	}

	if cfg.reaper != nil {
		if err := cfg.reaper.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop reaper: %w", err))
		}
	}

	if cfg.experiments != nil {
		if err := cfg.experiments.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop experiments: %w", err))
		} else {
			cfg.logger.Info("experiment runs stopped")
		}
	}

	return errors.Join(errs...)
}
