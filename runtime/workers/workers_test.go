package workers

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"inbox-live/observability"
	"inbox-live/runtime"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type collector struct {
	calls   atomic.Int32
	results []error
}

func (c *collector) RunValueLogGC(float64) error {
	n := int(c.calls.Add(1)) - 1
	if n < len(c.results) {
		return c.results[n]
	}
	return badger.ErrNoRewrite
}

func TestValueLogGC_Rewrites_Until_Nothing_Is_Left(t *testing.T) {
	req := require.New(t)
	db := &collector{results: []error{nil, nil}}
	worker := NewValueLogGCWorker(logs.GetLoggerFromLevel(slog.LevelDebug), db, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	// Then two rewrites, then ErrNoRewrite closes the cycle without failing the worker
	req.Eventually(func() bool { return db.calls.Load() >= 4 }, time.Second, 5*time.Millisecond)
	cancel()
	req.NoError(<-done)
}

func TestValueLogGC_Unexpected_Error_Fails_The_Worker(t *testing.T) {
	req := require.New(t)
	boom := stderrors.New("boom")
	db := &collector{results: []error{boom}}
	worker := NewValueLogGCWorker(logs.GetLoggerFromLevel(slog.LevelDebug), db, 5*time.Millisecond)

	err := worker.Run(context.Background())

	req.ErrorIs(err, boom)
}

func TestValueLogGC_On_A_Real_Database(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLogger(nil))
	req.NoError(err)
	defer db.Close()
	worker := NewValueLogGCWorker(logs.GetLoggerFromLevel(slog.LevelDebug), db, time.Millisecond)

	req.NoError(worker.collect(context.Background()))
}


func TestReporter_Publishes_Presence(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := runtime.NewRegistry(log, 4)
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	reporter := NewReporterWorker(log, observability.NewMonitoringManager(log, registry), metrics, time.Hour)

	// Given bob has two tabs and alice one
	registry.Register("bob", runtime.NewSession(log, registry, "bob", 1))
	registry.Register("bob", runtime.NewSession(log, registry, "bob", 1))
	registry.Register("alice", runtime.NewSession(log, registry, "alice", 1))

	// When the reporter stops, it reports a last time
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req.NoError(reporter.Run(ctx))

	// Then
	req.Equal(float64(2), testutil.ToFloat64(metrics.OnlineUsers))
	req.Equal(float64(3), testutil.ToFloat64(metrics.LiveConnections))
}
