package workers

import (
	"chat-relay/domain"
	"chat-relay/observability"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

type SessionCounter interface {
	Len() int
}

type OfferCounter interface {
	Count() int
}

// StatsReporterWorker refreshes the monitoring snapshot and logs it periodically.
type StatsReporterWorker struct {
	log        *slog.Logger
	monitoring *observability.MonitoringManager
	sessions   SessionCounter
	offers     OfferCounter
	interval   time.Duration
	pid        domain.PID
}

func NewStatsReporterWorker(
	log *slog.Logger,
	monitoring *observability.MonitoringManager,
	sessions SessionCounter,
	offers OfferCounter,
	interval time.Duration,
) *StatsReporterWorker {
	return &StatsReporterWorker{
		log:        log,
		monitoring: monitoring,
		sessions:   sessions,
		offers:     offers,
		interval:   interval,
		pid:        domain.PID(os.Getpid()),
	}
}

func (w *StatsReporterWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.report()
			w.log.Debug("Context done, stopping stats reporter")
			return nil
		case <-ticker.C:
			w.report()
		}
	}
}

func (w *StatsReporterWorker) report() observability.MonitoringStats {
	stats := w.monitoring.Refresh(observability.Gauges{
		Sessions:      w.sessions.Len(),
		PendingOffers: w.offers.Count(),
		Process:       w.processStats(),
	})
	w.log.Info("Relay stats",
		"sessions", stats.Sessions,
		"pending_offers", stats.PendingOffers,
		"active_relays", stats.ActiveRelays,
		"completed", stats.TransfersCompleted,
		"failed", stats.TransfersFailed,
		"timed_out", stats.TransfersTimedOut,
		"bytes", stats.BytesRelayed,
		"mb_per_sec", stats.RelaySpeed,
		"cpu", stats.Process.CPU,
		"rss", stats.Process.RSS,
		"status", stats.Process.Status,
	)
	return stats
}

// processStats degrades to a bare PID when the platform refuses to describe the process.
func (w *StatsReporterWorker) processStats() domain.ProcessStats {
	stats := domain.ProcessStats{PID: w.pid, Status: domain.UNKNOWN}
	p, err := process.NewProcess(int32(w.pid))
	if err != nil {
		w.log.Debug("Error while retrieving process", "pid", w.pid, "err", err)
		return stats
	}
	if status, err := p.Status(); err == nil {
		stats.Status = domain.ToStatus(status)
	}
	if cpu, err := p.CPUPercent(); err == nil {
		stats.CPU = cpu
	}
	if mem, err := p.MemoryInfo(); err == nil && mem != nil {
		stats.RSS = mem.RSS
	}
	return stats
}
