// Package bootstrap assembles the dataset store, engines, cache, search
// index and services from configuration. The API server, the worker and
// the CLI share it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/postcode-matcher/app/config"
	"github.com/postcode-matcher/app/services"
	"github.com/postcode-matcher/internal/dataset"
	"github.com/postcode-matcher/internal/matcher"
	"github.com/postcode-matcher/internal/observability"
	"github.com/postcode-matcher/internal/proximity"
	"github.com/postcode-matcher/internal/search"
)

// App holds the wired components. Index is nil when Meilisearch is
// disabled or unreachable.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Metrics   *observability.Metrics
	Store     *dataset.Store
	Matcher   *matcher.Engine
	Proximity *proximity.Engine
	Cache     services.ICacheService
	Index     *search.LocalityIndex
	Location  *services.LocationService
	Admin     *services.AdminService
}

// New wires everything but does not load the dataset; call Load for that.
// metrics may be nil.
func New(cfg *config.Config, logger *zap.Logger, metrics *observability.Metrics) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	source, err := dataset.NewSource(cfg.SourceConfig(), logger)
	if err != nil {
		return nil, err
	}
	store := dataset.NewStore(source, cfg.BuildOptions(), logger)

	cache, err := services.NewCache(cfg.Cache.Enabled, cfg.Cache.Size, cfg.Cache.RedisURL, cfg.Cache.Prefix, cfg.Cache.TTL, logger)
	if err != nil {
		return nil, fmt.Errorf("build cache: %w", err)
	}

	app := &App{
		Config:    cfg,
		Logger:    logger,
		Metrics:   metrics,
		Store:     store,
		Matcher:   matcher.NewEngine(store, nil, cfg.MatcherConfig(), logger),
		Proximity: proximity.NewEngine(store, cfg.ProximityConfig(), logger),
		Cache:     cache,
	}

	var suggester services.Suggester
	var publisher services.IndexPublisher
	if cfg.Meilisearch.Enabled {
		idx, err := search.NewLocalityIndex(cfg.SearchConfig(), logger)
		if err != nil {
			logger.Warn("Meilisearch unavailable, continuing without search index", zap.Error(err))
		} else {
			app.Index = idx
			suggester, publisher = idx, idx
		}
	}

	app.Location = services.NewLocationService(store, app.Matcher, app.Proximity, cache, suggester, metrics, LocationConfig(cfg), logger)
	app.Admin = services.NewAdminService(store, cache, publisher, metrics, logger)
	return app, nil
}

// LocationConfig maps the matching and geo sections onto service defaults.
func LocationConfig(cfg *config.Config) services.LocationServiceConfig {
	return services.LocationServiceConfig{
		DefaultLimit:         cfg.Matching.DefaultLimit,
		MaxSuggestions:       cfg.Matching.MaxSuggestions,
		AutocompleteMinChars: cfg.Matching.AutocompleteMinChars,
		DefaultRadiusKm:      cfg.Geo.DefaultRadiusKm,
		NeighbourRadiusKm:    cfg.Geo.NeighbourRadiusKm,
		MaxNeighbours:        cfg.Geo.MaxNeighbours,
		DefaultNeighbours:    10,
	}
}

// Load configures the search index, when present, and performs the first
// reload through the admin service so metrics and index publication follow
// the same path as later reloads.
func (a *App) Load(ctx context.Context) (*services.ReloadResult, error) {
	if a.Index != nil {
		if err := a.Index.Configure(ctx); err != nil {
			a.Logger.Warn("Search index settings not applied", zap.Error(err))
		}
	}
	ctx, cancel := withTimeout(ctx, a.Config.Dataset.Timeout)
	defer cancel()
	return a.Admin.Reload(ctx)
}

// Close releases the cache connections.
func (a *App) Close() error {
	var errs []error
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}
	return errors.Join(errs...)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
