package workers

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const discardRatio = 0.5

// ValueLogCollector is implemented by *badger.DB.
type ValueLogCollector interface {
	RunValueLogGC(discardRatio float64) error
}

// ValueLogGCWorker reclaims value log space. Each tick rewrites files
// until badger reports there is nothing left worth rewriting.
type ValueLogGCWorker struct {
	log      *slog.Logger
	db       ValueLogCollector
	interval time.Duration
}

func NewValueLogGCWorker(log *slog.Logger, db ValueLogCollector, interval time.Duration) *ValueLogGCWorker {
	return &ValueLogGCWorker{log: log, db: db, interval: interval}
}

func (w *ValueLogGCWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.collect(ctx); err != nil {
				return err
			}
		}
	}
}

func (w *ValueLogGCWorker) collect(ctx context.Context) error {
	rewritten := 0
	for ctx.Err() == nil {
		err := w.db.RunValueLogGC(discardRatio)
		switch {
		case err == nil:
			rewritten++
		case stderrors.Is(err, badger.ErrNoRewrite), stderrors.Is(err, badger.ErrRejected):
			if rewritten > 0 {
				w.log.Debug("Value log collected", "files", rewritten)
			}
			return nil
		default:
			w.log.Warn("Value log GC failed", "error", err)
			return err
		}
	}
	return nil
}
