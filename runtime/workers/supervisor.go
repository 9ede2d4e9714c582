package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"inbox-live/contract"
	"inbox-live/errors"
	"inbox-live/observability"
)

const defaultRestartInterval = 200 * time.Millisecond

// Supervisor runs the background workers of the server (presence reporter,
// value log GC, store probe) and restarts any of them that panics or fails.
// A worker returning nil is done for good.
type Supervisor struct {
	log             *slog.Logger
	metrics         *observability.Metrics
	restartInterval time.Duration
	workers         []contract.Worker
	wg              sync.WaitGroup

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewSupervisor falls back to 200ms between restarts when restartInterval is not positive.
// metrics may be nil.
func NewSupervisor(log *slog.Logger, metrics *observability.Metrics, restartInterval time.Duration) *Supervisor {
	if restartInterval <= 0 {
		restartInterval = defaultRestartInterval
	}
	return &Supervisor{log: log, metrics: metrics, restartInterval: restartInterval}
}

func (s *Supervisor) Add(worker ...contract.Worker) contract.ISupervisor {
	s.workers = append(s.workers, worker...)
	return s
}

// Run blocks until every worker has returned.
// Cancelling ctx or calling Stop ends all of them.
func (s *Supervisor) Run(ctx context.Context) {
	supervisedCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	for _, worker := range s.workers {
		s.Start(supervisedCtx, worker)
	}
	s.wg.Wait()
}

// Start supervises one worker in its own goroutine.
func (s *Supervisor) Start(ctx context.Context, worker contract.Worker) {
	s.wg.Add(1)
	name := contract.GetWorkerName(worker)
	log := s.log.With("worker", name)

	go func() {
		defer s.wg.Done()

		for restarts := 0; ; restarts++ {
			err := runGuarded(ctx, worker)
			switch {
			case ctx.Err() != nil:
				log.Info("Worker stopped", "restarts", restarts)
				return
			case err == nil:
				log.Info("Worker finished", "restarts", restarts)
				return
			}

			log.Warn("Worker failed, restarting", "error", err, "restarts", restarts+1, "after", s.restartInterval)
			s.metrics.WorkerRestarted(name)
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.restartInterval):
			}
		}
	}()
}

// Stop cancels the workers started by Run. It does not wait for them.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

func runGuarded(ctx context.Context, worker contract.Worker) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r)
		}
	}()
	return worker.Run(ctx)
}
