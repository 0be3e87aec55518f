package aggregates

import (
	"context"
	"strings"
	"time"

	domainagg "github.com/yungbote/obe-achievement/internal/domain/aggregates"
	"github.com/yungbote/obe-achievement/internal/platform/dbctx"
	"gorm.io/gorm"
)

type BaseDeps struct {
	DB     *gorm.DB
	Runner TxRunner
	Hooks  Hooks
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	return d
}

// ExecuteWrite runs fn in one transaction, maps the failure to an aggregate
// code and reports the outcome to hooks. It never retries.
func ExecuteWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.withDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "achievement.write"
	}
	err := deps.Runner.InTx(ctx, fn)
	mapped := MapError(op, err)

	status := "success"
	if mapped != nil {
		status = ErrorStatus(mapped)
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

// ErrorStatus renders err as a metric/status label.
func ErrorStatus(err error) string {
	if err == nil {
		return "success"
	}
	code := strings.TrimSpace(string(domainagg.CodeOf(err)))
	if code == "" {
		code = strings.TrimSpace(string(domainagg.CodeOf(MapError("achievement.status", err))))
	}
	if code == "" {
		return "failure"
	}
	return code
}
