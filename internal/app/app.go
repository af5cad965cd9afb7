package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"gorm.io/gorm"

	redisclient "github.com/yungbote/promptlift-backend/internal/clients/redis"
	"github.com/yungbote/promptlift-backend/internal/data/db"
	"github.com/yungbote/promptlift-backend/internal/data/repos"
	httpserver "github.com/yungbote/promptlift-backend/internal/http"
	"github.com/yungbote/promptlift-backend/internal/modules/guidesource"
	"github.com/yungbote/promptlift-backend/internal/observability"
	"github.com/yungbote/promptlift-backend/internal/platform/envutil"
	"github.com/yungbote/promptlift-backend/internal/platform/logger"
)

// Version is stamped at build time.
var Version = "dev"

type Options struct {
	// WithoutModel skips the model client, for commands that never enhance.
	WithoutModel bool
}

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    repos.Repos
	Clients  Clients
	Services Services
	Metrics  *observability.Metrics
	Server   *httpserver.Server

	dbService    *db.Service
	otelShutdown func(context.Context) error
	watcher      *guidesource.Watcher
	cancel       context.CancelFunc
}

func New(ctx context.Context, opts Options) (*App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading configuration...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	otelCfg := observability.OtelConfigFromEnv(cfg.ServiceName, cfg.Env, Version)
	otelShutdown := observability.InitOTel(ctx, log, otelCfg)
	metrics := observability.Init(log)

	dbs, err := db.New(cfg.DBDriver, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init %s: %w", cfg.DBDriver, err)
	}
	if err := db.AutoMigrateAll(dbs.DB()); err != nil {
		_ = dbs.Close()
		log.Sync()
		return nil, fmt.Errorf("%s automigrate: %w", cfg.DBDriver, err)
	}
	theDB := dbs.DB()

	clients, err := wireClients(ctx, log, cfg, !opts.WithoutModel)
	if err != nil {
		_ = dbs.Close()
		log.Sync()
		return nil, err
	}

	reposet := repos.New(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, reposet, clients)
	if err != nil {
		clients.Close()
		_ = dbs.Close()
		log.Sync()
		return nil, err
	}

	mw, err := wireMiddleware(log, cfg)
	if err != nil {
		clients.Close()
		_ = dbs.Close()
		log.Sync()
		return nil, err
	}
	handlerset := wireHandlers(log, theDB, clients, serviceset)
	server := wireServer(log, cfg, otelShutdown != nil, metrics, mw, handlerset)

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Repos:        reposet,
		Clients:      clients,
		Services:     serviceset,
		Metrics:      metrics,
		Server:       server,
		dbService:    dbs,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches background work: metric collectors, the cross-replica
// invalidation listener, the initial guide seed, and the guide watcher.
func (a *App) Start(ctx context.Context) error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.Metrics.StartDBCollector(ctx, a.Log, a.DB)
	if a.Clients.Redis != nil {
		a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.Redis)
	}
	if bus := a.Clients.InvalidationBus; bus != nil {
		guides := a.Services.Guides
		if err := bus.StartForwarder(ctx, func(m redisclient.GuideInvalidation) {
			guides.HandleInvalidation(ctx, m)
		}); err != nil {
			return fmt.Errorf("start invalidation listener: %w", err)
		}
	}

	if a.Cfg.GuideSource != "" {
		if err := a.SeedGuides(ctx, a.Cfg.GuideSource); err != nil {
			return err
		}
		if a.Cfg.GuideWatch && !strings.HasPrefix(a.Cfg.GuideSource, "gs://") {
			w, err := guidesource.NewWatcher(a.Cfg.GuideSource, a.Cfg.GuideWatchDebounce, a.Services.Guides.Apply, a.Log)
			if err != nil {
				return fmt.Errorf("guide watcher: %w", err)
			}
			if err := w.Start(ctx); err != nil {
				return fmt.Errorf("guide watcher: %w", err)
			}
			a.watcher = w
		}
	}
	return nil
}

// SeedGuides loads every guide file from location (a directory or gs:// prefix)
// and upserts it.
func (a *App) SeedGuides(ctx context.Context, location string) error {
	src, err := guidesource.New(ctx, location)
	if err != nil {
		return fmt.Errorf("guide source %s: %w", location, err)
	}
	if c, ok := src.(io.Closer); ok {
		defer c.Close()
	}
	entries, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("load guides from %s: %w", src, err)
	}
	if len(entries) == 0 {
		a.Log.Warn("Guide source is empty", "source", src.String())
		return nil
	}
	if err := a.Services.Guides.Apply(ctx, entries); err != nil {
		return err
	}
	a.Log.Info("Guides seeded", "source", src.String(), "count", len(entries))
	return nil
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("HTTP server listening", "addr", a.Cfg.Addr())
	return a.Server.Run(a.Cfg.Addr())
}

// Shutdown stops the HTTP server first, then background work, then clients.
func (a *App) Shutdown(ctx context.Context) error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if a.watcher != nil {
		if err := a.watcher.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("guide watcher: %w", err))
		}
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("otel shutdown: %w", err))
		}
	}
	a.Clients.Close()
	if a.dbService != nil {
		if err := a.dbService.Close(); err != nil {
			errs = append(errs, fmt.Errorf("db close: %w", err))
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
	return errors.Join(errs...)
}
