package aggregates

import (
	"context"

	domainagg "github.com/yungbote/obe-achievement/internal/domain/aggregates"
	"github.com/yungbote/obe-achievement/internal/platform/dbctx"
	"gorm.io/gorm"
)

// TxRunner is the enrollment-scoped transaction boundary. Everything fn writes
// commits or rolls back together.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return domainagg.NewError(domainagg.CodeInternal, "achievement.tx", "transaction runner has nil db", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}
