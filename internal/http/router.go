package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/lingua-progress-backend/internal/http/handlers"
	httpMW "github.com/yungbote/lingua-progress-backend/internal/http/middleware"
	"github.com/yungbote/lingua-progress-backend/internal/observability"
	"github.com/yungbote/lingua-progress-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	Tracing        bool
	AllowedOrigins []string

	AuthMiddleware  *httpMW.AuthMiddleware
	ProgressHandler *httpH.ProgressHandler
	SessionHandler  *httpH.SessionHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Tracing {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api/progress")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.RequireAuth())
	}
	{
		if cfg.ProgressHandler != nil {
			api.POST("/completions", cfg.ProgressHandler.SubmitCompletion)
			api.GET("/streak", cfg.ProgressHandler.GetStreak)
			api.GET("/confidence", cfg.ProgressHandler.GetConfidence)
			api.GET("/pronunciation", cfg.ProgressHandler.GetPronunciation)
			api.GET("/summary", cfg.ProgressHandler.GetSummary)
			api.POST("/recompute", cfg.ProgressHandler.Recompute)
		}

		if cfg.SessionHandler != nil {
			api.GET("/sessions/:unitId", cfg.SessionHandler.Get)
			api.PUT("/sessions/:unitId", cfg.SessionHandler.Save)
		}
	}

	return r
}
