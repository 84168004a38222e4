package commands

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/courtline/engine/internal/config"
	"github.com/courtline/engine/pkg/cache"
	"github.com/courtline/engine/pkg/core/analyzer"
	"github.com/courtline/engine/pkg/core/engine"
	"github.com/courtline/engine/pkg/core/evaluators"
	"github.com/courtline/engine/pkg/core/model"
	"github.com/courtline/engine/pkg/core/registry"
	"github.com/courtline/engine/pkg/core/resolution"
	"github.com/courtline/engine/pkg/core/services"
	"github.com/courtline/engine/pkg/events"
	"github.com/courtline/engine/pkg/postgres"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg        *config.Config
	Cache      cache.Cache
	Publisher  *events.AsyncPublisher
	Evaluators *evaluators.Registry
	Store      *postgres.DB
	Logger     *zap.Logger
	Ctx        context.Context
}

// NewAppContext wires the shared dependencies: the evaluation cache (Redis
// when configured, in-memory otherwise), the event publisher, the evaluator
// registry and the optional Postgres store.
func NewAppContext(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*AppContext, error) {
	app := &AppContext{
		Cfg:        cfg,
		Evaluators: evaluators.NewRegistry(),
		Logger:     logger,
		Ctx:        ctx,
	}

	if cfg.Redis.Addr != "" {
		logger.Info("Connecting to Redis cache", zap.String("addr", cfg.Redis.Addr))
		redisCache, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		app.Cache = redisCache
	} else {
		logger.Debug("No Redis configured, using in-memory cache")
		app.Cache = cache.NewMemoryCache()
	}

	app.Publisher = events.NewAsyncPublisher(events.NewLogPublisher(logger), 64, logger)

	if cfg.Postgres.ConnString != "" {
		logger.Info("Connecting to Postgres store")
		store, err := postgres.NewDB(ctx, cfg.Postgres.ConnString)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
		}
		if err := store.RunMigrations(ctx); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		app.Store = store
	}

	return app, nil
}

// Service assembles a fully wired service for one schedule. Championship
// windows from the config are expanded over the schedule's date span, so
// the analyzer sees concrete windows rather than recurrence rules.
func (app *AppContext) Service(sched *model.Schedule) (*services.Service, error) {
	thresholds := app.Cfg.Thresholds
	if len(app.Cfg.ChampionshipWindows) > 0 && len(sched.Games) > 0 {
		start := sched.Games[0].Date.AddDate(0, 0, -1)
		end := sched.Games[len(sched.Games)-1].Date.AddDate(0, 0, 1)
		windows, err := app.Cfg.ExpandChampionshipWindows(start, end)
		if err != nil {
			return nil, fmt.Errorf("failed to expand championship windows: %w", err)
		}
		thresholds.ChampionshipWindows = windows
	}

	reg := registry.New(app.Evaluators, app.Publisher, app.Logger)
	eng := engine.New(app.Evaluators, app.Cache, app.Publisher, app.Logger, engine.Options{
		Workers:           app.Cfg.Engine.Workers,
		ConstraintTimeout: time.Duration(app.Cfg.Engine.ConstraintTimeoutSeconds) * time.Second,
		CacheTTL:          time.Duration(app.Cfg.Engine.CacheTTLSeconds) * time.Second,
	})
	an := analyzer.New(thresholds, app.Publisher, app.Logger)
	planner := resolution.NewPlanner(eng, an, app.Logger)
	executor := resolution.NewExecutor(planner, an, app.Publisher, app.Logger, resolution.Options{
		MaxIterations:     app.Cfg.Resolver.MaxIterations,
		SeverityThreshold: model.Severity(app.Cfg.Resolver.SeverityThreshold),
	})

	var store services.Store
	if app.Store != nil {
		store = app.Store
	}
	return services.New(reg, eng, an, planner, executor, store, app.Publisher, app.Logger), nil
}

// Close flushes the publisher and releases external connections
func (app *AppContext) Close() {
	if app.Publisher != nil {
		app.Publisher.Close()
	}
	if closer, ok := app.Cache.(interface{ Close() error }); ok {
		closer.Close()
	}
	if app.Store != nil {
		app.Store.Close()
	}
}
