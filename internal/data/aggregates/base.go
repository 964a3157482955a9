package aggregates

import (
	"context"
	"strings"
	"time"

	domainagg "github.com/yungbote/lingua-progress-backend/internal/domain/aggregates"
	"github.com/yungbote/lingua-progress-backend/internal/platform/dbctx"
	"github.com/yungbote/lingua-progress-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type BaseDeps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Runner   TxRunner
	Hooks    Hooks
	CASGuard CASGuard
	// MaxAttempts bounds executeWriteRetrying; zero means defaultMaxAttempts.
	MaxAttempts int
}

const (
	defaultMaxAttempts = 5
	retryBackoff       = 5 * time.Millisecond
)

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.CASGuard.db == nil {
		d.CASGuard = NewCASGuard(d.DB)
	}
	if d.MaxAttempts <= 0 {
		d.MaxAttempts = defaultMaxAttempts
	}
	return d
}

func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.withDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "aggregate.write"
	}
	err := deps.Runner.InTx(ctx, fn)
	mapped := MapError(op, err)

	status := "success"
	if mapped != nil {
		status = aggregateErrorStatus(mapped)
		if domainagg.IsCode(mapped, domainagg.CodeConflict) {
			deps.Hooks.IncConflict(op)
		}
		if domainagg.IsCode(mapped, domainagg.CodeRetryable) {
			deps.Hooks.IncRetry(op)
		}
	}
	deps.Hooks.ObserveOperation(op, status, time.Since(start))
	return mapped
}

// executeWriteRetrying runs fn in a fresh transaction until it stops failing
// with a conflict or MaxAttempts is reached. Each rerun is counted as a retry.
func executeWriteRetrying(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	deps = deps.withDefaults()
	var err error
	for attempt := 1; attempt <= deps.MaxAttempts; attempt++ {
		err = executeWrite(ctx, deps, op, fn)
		if err == nil || !domainagg.IsCode(err, domainagg.CodeConflict) {
			return err
		}
		if attempt == deps.MaxAttempts {
			break
		}
		deps.Hooks.IncRetry(op)
		select {
		case <-ctx.Done():
			return MapError(op, ctx.Err())
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}
	return err
}

func aggregateErrorStatus(err error) string {
	if err == nil {
		return "success"
	}
	code := strings.TrimSpace(string(domainagg.CodeOf(err)))
	if code == "" {
		code = strings.TrimSpace(string(domainagg.CodeOf(MapError("aggregate.status", err))))
	}
	if code == "" {
		return "failure"
	}
	return code
}
