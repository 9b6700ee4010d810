// Package app provides the main application struct for centralized
// dependency management and lifecycle control of the modelhub server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"modelhub/config"
	"modelhub/internal/cache"
	"modelhub/internal/observability"
	"modelhub/internal/override"
	"modelhub/internal/providers"
	"modelhub/internal/registry"
	"modelhub/internal/selection"
	"modelhub/internal/server"
)

// App represents the application with all its dependencies.
// It provides centralized lifecycle management for all components.
type App struct {
	config   *config.Config
	registry *registry.Registry
	selector *selection.Selector
	server   *server.Server
	cache    cache.Cache

	stopRefresh func()

	shutdownMu sync.Mutex
	shutdown   bool
}

// New creates a new App with all dependencies initialized.
// The caller must call Shutdown to release resources.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if len(cfg.Providers) == 0 {
		return nil, fmt.Errorf("at least one provider must be configured")
	}

	app := &App{config: cfg}

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.New(prometheus.DefaultRegisterer)
		slog.Info("prometheus metrics enabled", "endpoint", cfg.Metrics.Endpoint)
	} else {
		slog.Info("prometheus metrics disabled")
	}

	namedProviders, namedSources, err := buildProducers(cfg)
	if err != nil {
		return nil, err
	}

	var rules *override.RuleSet
	if cfg.Overrides != "" {
		rules, err = override.LoadFile(cfg.Overrides)
		if err != nil {
			return nil, fmt.Errorf("load overrides: %w", err)
		}
		slog.Info("loaded override rules", "file", cfg.Overrides, "rules", rules.Len())
	}

	snapCache, err := buildCache(cfg.Cache)
	if err != nil {
		return nil, err
	}
	app.cache = snapCache

	reg, err := registry.New(registry.Config{
		Providers:       namedProviders,
		Sources:         namedSources,
		Overrides:       rules,
		Cache:           snapCache,
		Metrics:         metrics,
		ProducerTimeout: cfg.Refresh.ProducerTimeout,
		InitTimeout:     cfg.Refresh.InitTimeout,
	})
	if err != nil {
		closeErr := closeCache(snapCache)
		if closeErr != nil {
			return nil, fmt.Errorf("initialize registry: %w (also: cache close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("initialize registry: %w", err)
	}
	app.registry = reg

	sel, err := selection.New(selection.Config{
		Registry: reg,
		Profiles: cfg.Profiles,
		Metrics:  metrics,
	})
	if err != nil {
		closeErr := closeCache(snapCache)
		if closeErr != nil {
			return nil, fmt.Errorf("initialize selector: %w (also: cache close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("initialize selector: %w", err)
	}
	app.selector = sel

	if cfg.Server.MasterKey == "" {
		slog.Warn("no master key configured, API is unauthenticated",
			"recommendation", "set MODELHUB_SERVER_MASTER_KEY to secure this service")
	} else {
		slog.Info("authentication enabled", "mode", "master_key")
	}

	app.server = server.New(reg, sel, &server.Config{
		MasterKey:       cfg.Server.MasterKey,
		MetricsEnabled:  cfg.Metrics.Enabled,
		MetricsEndpoint: cfg.Metrics.Endpoint,
		BodySizeLimit:   cfg.Server.BodySizeLimit,
	})

	return app, nil
}

// buildProducers instantiates the configured providers and sources via the
// factory registry, preserving declaration order.
func buildProducers(cfg *config.Config) ([]registry.NamedProvider, []registry.NamedSource, error) {
	namedProviders := make([]registry.NamedProvider, 0, len(cfg.Providers))
	for _, pc := range cfg.Providers {
		p, err := providers.NewProvider(producerConfig(pc))
		if err != nil {
			return nil, nil, fmt.Errorf("build provider %q: %w", pc.Name, err)
		}
		namedProviders = append(namedProviders, registry.NamedProvider{Name: pc.Name, Provider: p})
	}

	namedSources := make([]registry.NamedSource, 0, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		s, err := providers.NewSource(producerConfig(sc))
		if err != nil {
			return nil, nil, fmt.Errorf("build source %q: %w", sc.Name, err)
		}
		namedSources = append(namedSources, registry.NamedSource{Name: sc.Name, Source: s})
	}
	return namedProviders, namedSources, nil
}

func producerConfig(pc config.ProducerConfig) providers.Config {
	return providers.Config{
		Name:      pc.Name,
		Type:      pc.Type,
		BaseURL:   pc.BaseURL,
		APIKey:    pc.ResolveAPIKey(),
		FilePath:  pc.FilePath,
		PrefixIDs: pc.PrefixIDs,
		RateLimit: pc.RateLimit,
		Burst:     pc.Burst,
	}
}

func buildCache(cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case "local":
		return cache.NewLocalCache(cfg.FilePath), nil
	case "redis":
		c, err := cache.NewRedisCache(cache.RedisConfig{
			URL: cfg.RedisURL,
			Key: cfg.RedisKey,
			TTL: cfg.RedisTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize redis cache: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown cache type %q", cfg.Type)
	}
}

func closeCache(c cache.Cache) error {
	if c == nil {
		return nil
	}
	return c.Close()
}

// Registry returns the model registry.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Selector returns the selection engine.
func (a *App) Selector() *selection.Selector {
	return a.selector
}

// Start begins serving HTTP on the configured port and starts the periodic
// refresh loop. It blocks until the server stops.
func (a *App) Start() error {
	if a.config.Refresh.Interval > 0 {
		a.stopRefresh = a.registry.StartBackgroundRefresh(a.config.Refresh.Interval)
		slog.Info("background refresh started", "interval", a.config.Refresh.Interval)
	}
	addr := ":" + a.config.Server.Port
	slog.Info("starting HTTP server", "addr", addr)
	return a.server.Start(addr)
}

// Shutdown gracefully stops all components. It is safe to call multiple
// times; only the first call does the work.
func (a *App) Shutdown(ctx context.Context) error {
	a.shutdownMu.Lock()
	defer a.shutdownMu.Unlock()
	if a.shutdown {
		return nil
	}
	a.shutdown = true

	if a.stopRefresh != nil {
		a.stopRefresh()
	}

	var errs []error
	if a.server != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
	}
	if err := closeCache(a.cache); err != nil {
		errs = append(errs, fmt.Errorf("cache close: %w", err))
	}
	return errors.Join(errs...)
}
