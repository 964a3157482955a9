package app

import (
	"context"
	"fmt"
	"os"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/lingua-progress-backend/internal/clients/redis"
	"github.com/yungbote/lingua-progress-backend/internal/data/db"
	httpx "github.com/yungbote/lingua-progress-backend/internal/http"
	"github.com/yungbote/lingua-progress-backend/internal/observability"
	"github.com/yungbote/lingua-progress-backend/internal/platform/logger"
	"github.com/yungbote/lingua-progress-backend/internal/policy"
)

const serviceName = "lingua-progress"

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Redis    goredis.UniversalClient
	Cfg      Config
	Metrics  *observability.Metrics
	Repos    Repos
	Services Services
	Server   *httpx.Server

	dbService    *db.Service
	otelShutdown func(context.Context) error
	sweep        *retentionSweep
	cancel       context.CancelFunc
}

// Deps lets callers supply already opened stores. Build does not close them.
type Deps struct {
	Log     *logger.Logger
	DB      *gorm.DB
	Redis   goredis.UniversalClient
	Metrics *observability.Metrics
	Tracing bool
}

func New(ctx context.Context) (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	svc, err := db.NewService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init db: %w", err)
	}
	if err := svc.AutoMigrateAll(); err != nil {
		_ = svc.Close()
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}

	rdb, err := redis.NewClient(ctx, log, cfg.Redis)
	if err != nil {
		_ = svc.Close()
		log.Sync()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	shutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Version:     os.Getenv("APP_VERSION"),
	})

	a, err := Build(cfg, Deps{
		Log:     log,
		DB:      svc.DB(),
		Redis:   rdb,
		Metrics: observability.Init(log),
		Tracing: observability.TracingEnabled(),
	})
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		_ = svc.Close()
		log.Sync()
		return nil, err
	}
	a.dbService = svc
	a.otelShutdown = shutdown
	return a, nil
}

// Build wires repos, services and the HTTP server on top of deps.
func Build(cfg Config, deps Deps) (*App, error) {
	if deps.Log == nil || deps.DB == nil {
		return nil, fmt.Errorf("app: logger and db are required")
	}
	log := deps.Log
	pol := policy.Current(log)

	reposet := wireRepos(deps.DB, log)
	serviceset := wireServices(deps.DB, log, cfg, pol, reposet, deps.Redis, deps.Metrics)
	handlerset := wireHandlers(log, deps.DB, deps.Redis, serviceset)
	middleware := wireMiddleware(log, serviceset)

	return &App{
		Log:      log,
		DB:       deps.DB,
		Redis:    deps.Redis,
		Cfg:      cfg,
		Metrics:  deps.Metrics,
		Repos:    reposet,
		Services: serviceset,
		Server:   wireServer(log, cfg, deps.Metrics, deps.Tracing, handlerset, middleware),
	}, nil
}

// Start launches background work: metrics collectors and the retention sweep.
func (a *App) Start(ctx context.Context) error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.Metrics.StartDBCollector(ctx, a.Log, a.DB)
	if a.Redis != nil {
		a.Metrics.StartRedisCollector(ctx, a.Log, a.Redis)
	}
	a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)

	if a.Cfg.RetentionSweepEnabled {
		sweep, err := startRetentionSweep(ctx, a.Log, a.Services.Retention, a.Cfg.RetentionDays, a.Cfg.RetentionSweepAt)
		if err != nil {
			return err
		}
		a.sweep = sweep
	}
	return nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run(ctx, a.Cfg.ListenAddr())
}

// Close flushes pending recomputes, then releases what New opened.
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.sweep.Stop()
	if a.Services.Scheduler != nil {
		a.Services.Scheduler.Close()
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	if a.dbService != nil {
		if a.Redis != nil {
			_ = a.Redis.Close()
		}
		_ = a.dbService.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
