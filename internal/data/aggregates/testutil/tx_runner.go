package testutil

import (
	"context"
	"sync"

	"github.com/yungbote/obe-achievement/internal/data/aggregates"
	"github.com/yungbote/obe-achievement/internal/platform/dbctx"
)

// Journal is implemented by in-memory stores that stage writes until the
// surrounding transaction decides their fate.
type Journal interface {
	Begin()
	Commit()
	Rollback()
}

// InjectedTxRunner stands in for the gorm runner in engine tests. With a
// Journal attached, transaction bodies run one at a time and staged writes are
// committed or discarded like a real transaction.
type InjectedTxRunner struct {
	mu     sync.Mutex
	serial sync.Mutex

	Journal Journal

	FailBegin  error
	FailCommit error
	// FailCommitAfter lets the first N commits succeed before FailCommit applies.
	FailCommitAfter int

	BeginCalls    int
	CommitCalls   int
	RollbackCalls int
}

var _ aggregates.TxRunner = (*InjectedTxRunner)(nil)

func (r *InjectedTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.BeginCalls++
	failBegin := r.FailBegin
	r.mu.Unlock()

	if failBegin != nil {
		return failBegin
	}
	if r.Journal != nil {
		r.serial.Lock()
		defer r.serial.Unlock()
		r.Journal.Begin()
	}

	var err error
	if fn != nil {
		err = fn(dbctx.Context{Ctx: ctx})
	}
	if err == nil {
		err = r.commitError()
	}
	if err != nil {
		r.rollback()
		return err
	}

	r.mu.Lock()
	r.CommitCalls++
	r.mu.Unlock()
	if r.Journal != nil {
		r.Journal.Commit()
	}
	return nil
}

func (r *InjectedTxRunner) commitError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailCommit == nil || r.CommitCalls < r.FailCommitAfter {
		return nil
	}
	return r.FailCommit
}

func (r *InjectedTxRunner) rollback() {
	r.mu.Lock()
	r.RollbackCalls++
	r.mu.Unlock()
	if r.Journal != nil {
		r.Journal.Rollback()
	}
}

func (r *InjectedTxRunner) Counts() (begin, commit, rollback int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.BeginCalls, r.CommitCalls, r.RollbackCalls
}
