package workers

import (
	"context"
	"log/slog"
	"time"

	"inbox-live/observability"
)

// ReporterWorker publishes presence figures to the gauges and the debug log.
type ReporterWorker struct {
	log        *slog.Logger
	monitoring *observability.MonitoringManager
	metrics    *observability.Metrics
	interval   time.Duration
}

func NewReporterWorker(log *slog.Logger, monitoring *observability.MonitoringManager, metrics *observability.Metrics, interval time.Duration) *ReporterWorker {
	return &ReporterWorker{log: log, monitoring: monitoring, metrics: metrics, interval: interval}
}

// Run reports once more on cancellation so the last figures are not lost.
func (w *ReporterWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.report()
			return nil
		case <-ticker.C:
			w.report()
		}
	}
}

func (w *ReporterWorker) report() {
	stats := w.monitoring.GetLatest()
	w.metrics.SetPresence(stats.OnlineUsers, stats.LiveConnections)
	w.log.Debug("📊 Presence",
		"online_users", stats.OnlineUsers,
		"live_connections", stats.LiveConnections,
		"goroutines", stats.Goroutines,
		"alloc_mb", stats.AllocMemMb,
		"uptime", stats.Uptime,
	)
}
