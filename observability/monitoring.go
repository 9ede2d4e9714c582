package observability

import (
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"
)

// PresenceStats is implemented by the presence registry.
type PresenceStats interface {
	Stats() (users int, connections int)
}

// Snapshot aggregates the figures served on the health endpoint
type Snapshot struct {
	Status          string  `json:"status"`
	Uptime          string  `json:"uptime"`
	OnlineUsers     int     `json:"onlineUsers"`
	LiveConnections int     `json:"liveConnections"`
	Goroutines      int     `json:"goroutines"`
	AllocMemMb      uint64  `json:"allocMemMb"`
	RSSBytes        uint64  `json:"rssBytes,omitempty"`
	CPUPercent      float64 `json:"cpuPercent,omitempty"`
}

// MonitoringManager samples process and presence figures on demand
type MonitoringManager struct {
	log      *slog.Logger
	presence PresenceStats
	proc     *process.Process
	started  time.Time
}

func NewMonitoringManager(log *slog.Logger, presence PresenceStats) *MonitoringManager {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn("Process stats unavailable", "error", err)
		p = nil
	}
	return &MonitoringManager{log: log, presence: presence, proc: p, started: time.Now()}
}

func (mm *MonitoringManager) GetLatest() Snapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	users, connections := mm.presence.Stats()
	snap := Snapshot{
		Status:          "ok",
		Uptime:          time.Since(mm.started).Round(time.Second).String(),
		OnlineUsers:     users,
		LiveConnections: connections,
		Goroutines:      runtime.NumGoroutine(),
		AllocMemMb:      mem.Alloc / 1024 / 1024,
	}

	if mm.proc == nil {
		return snap
	}
	if memInfo, err := mm.proc.MemoryInfo(); err == nil {
		snap.RSSBytes = memInfo.RSS
	} else {
		mm.log.Debug("Failed to read process memory", "error", err)
	}
	if cpu, err := mm.proc.CPUPercent(); err == nil {
		snap.CPUPercent = cpu
	}
	return snap
}
