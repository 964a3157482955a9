package app

import (
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	httpx "github.com/yungbote/lingua-progress-backend/internal/http"
	httpH "github.com/yungbote/lingua-progress-backend/internal/http/handlers"
	httpMW "github.com/yungbote/lingua-progress-backend/internal/http/middleware"
	"github.com/yungbote/lingua-progress-backend/internal/observability"
	"github.com/yungbote/lingua-progress-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health   *httpH.HealthHandler
	Progress *httpH.ProgressHandler
	Session  *httpH.SessionHandler
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireHandlers(log *logger.Logger, db *gorm.DB, rdb goredis.UniversalClient, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(db, rdb),
		Progress: httpH.NewProgressHandler(httpH.ProgressHandlerDeps{
			Log:         log,
			Auth:        services.Auth,
			Completions: services.Completions,
			Progress:    services.Progress,
		}),
		Session: httpH.NewSessionHandler(services.Auth, services.Sessions),
	}
}

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, tracing bool, handlers Handlers, middleware Middleware) *httpx.Server {
	return httpx.NewServer(log, httpx.RouterConfig{
		Log:             log,
		Metrics:         metrics,
		ServiceName:     serviceName,
		Tracing:         tracing,
		AllowedOrigins:  cfg.AllowedOrigins,
		AuthMiddleware:  middleware.Auth,
		ProgressHandler: handlers.Progress,
		SessionHandler:  handlers.Session,
		HealthHandler:   handlers.Health,
	})
}
