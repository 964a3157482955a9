package app

import (
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/lingua-progress-backend/internal/data/aggregates"
	"github.com/yungbote/lingua-progress-backend/internal/domain/progress"
	"github.com/yungbote/lingua-progress-backend/internal/observability"
	"github.com/yungbote/lingua-progress-backend/internal/platform/logger"
	"github.com/yungbote/lingua-progress-backend/internal/services"
)

type Services struct {
	Auth        services.AuthService
	Completions services.CompletionService
	Progress    services.ProgressService
	Sessions    services.SessionService
	Retention   services.RetentionService
	Scheduler   services.RecomputeScheduler
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, policy progress.Policy, reposet Repos, rdb goredis.UniversalClient, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	base := aggregates.BaseDeps{DB: db, Log: log, Hooks: aggregates.NewObservabilityHooks(metrics)}
	streaks := aggregates.NewStreakAggregate(aggregates.StreakAggregateDeps{
		BaseDeps:   base,
		Streaks:    reposet.Streaks,
		Milestones: policy.Milestones,
	})
	confidence := aggregates.NewConfidenceAggregate(aggregates.ConfidenceAggregateDeps{
		BaseDeps: base,
		States:   reposet.Confidence,
		Policy:   policy,
	})
	pronunciation := aggregates.NewPronunciationAggregate(aggregates.PronunciationAggregateDeps{
		BaseDeps:   base,
		States:     reposet.Pronunciation,
		HistoryCap: policy.PronunciationHistoryCap,
	})

	catalog := services.NewRepoUnitCatalog(reposet.Units)
	progressService := services.NewProgressService(services.ProgressServiceDeps{
		Log:                 log,
		Completions:         reposet.Completions,
		StreakStates:        reposet.Streaks,
		ConfidenceStates:    reposet.Confidence,
		PronunciationStates: reposet.Pronunciation,
		Confidence:          confidence,
		Pronunciation:       pronunciation,
		Catalog:             catalog,
		Assignments:         services.NewRepoAssignmentCounter(reposet.Assignments),
		Policy:              policy,
		Metrics:             metrics,
	})
	scheduler := services.NewRecomputeScheduler(log, progressService, rdb, metrics, services.RecomputeSchedulerConfig{
		Debounce: cfg.RecomputeDelay,
	})

	return Services{
		Auth: services.NewAuthService(log, cfg.JWTSecretKey, cfg.PrivilegedRoles),
		Completions: services.NewCompletionService(services.CompletionServiceDeps{
			Log:          log,
			Completions:  reposet.Completions,
			StreakStates: reposet.Streaks,
			Streaks:      streaks,
			Catalog:      catalog,
			Scheduler:    scheduler,
			Policy:       policy,
			Metrics:      metrics,
		}),
		Progress: progressService,
		Sessions: services.NewSessionService(services.SessionServiceDeps{
			Log:      log,
			Sessions: reposet.Sessions,
			Catalog:  catalog,
			Redis:    rdb,
			CacheTTL: cfg.SessionCacheTTL,
			Metrics:  metrics,
		}),
		Retention: services.NewRetentionService(db, log, reposet.Completions, reposet.Sessions),
		Scheduler: scheduler,
	}
}
