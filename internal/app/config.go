package app

import (
	"strings"
	"time"

	"github.com/yungbote/lingua-progress-backend/internal/clients/redis"
	"github.com/yungbote/lingua-progress-backend/internal/platform/envutil"
	"github.com/yungbote/lingua-progress-backend/internal/platform/logger"
)

type Config struct {
	Port            string
	Environment     string
	JWTSecretKey    string
	PrivilegedRoles []string
	AllowedOrigins  []string

	Redis           redis.Config
	RecomputeDelay  time.Duration
	SessionCacheTTL time.Duration

	MetricsAddr string

	RetentionSweepEnabled bool
	RetentionDays         int
	RetentionSweepAt      string
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		Port:            envutil.String("PORT", "8080", log),
		Environment:     envutil.String("APP_ENV", "development", log),
		JWTSecretKey:    envutil.String("JWT_SECRET_KEY", "defaultsecret", log),
		PrivilegedRoles: envutil.List("PRIVILEGED_ROLES", []string{"teacher", "admin"}, log),
		AllowedOrigins:  envutil.List("CORS_ALLOWED_ORIGINS", nil, log),

		Redis: redis.Config{
			Addr:     envutil.String("REDIS_ADDR", "", log),
			Password: envutil.String("REDIS_PASSWORD", "", log),
			DB:       envutil.Int("REDIS_DB", 0, log),
		},
		RecomputeDelay:  envutil.Millis("RECOMPUTE_DEBOUNCE_MS", 1500*time.Millisecond, log),
		SessionCacheTTL: envutil.Seconds("SESSION_CACHE_TTL_SECONDS", 24*time.Hour, log),

		MetricsAddr: envutil.String("METRICS_ADDR", "", log),

		RetentionSweepEnabled: envutil.Bool("RETENTION_SWEEP_ENABLED", false, log),
		RetentionDays:         envutil.Int("RETENTION_DAYS", 180, log),
		RetentionSweepAt:      envutil.String("RETENTION_SWEEP_AT", "03:30", log),
	}
}

func (c Config) ListenAddr() string {
	port := strings.TrimPrefix(strings.TrimSpace(c.Port), ":")
	if port == "" {
		port = "8080"
	}
	return ":" + port
}
