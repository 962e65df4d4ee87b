package observability

import (
	"chat-relay/domain"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

const recentTransfersKept = 20

// RecentTransferInfo is one closed rendezvous shown in the stats snapshot.
type RecentTransferInfo struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Filename  string `json:"filename"`
	Bytes     int64  `json:"bytes"`
	Outcome   string `json:"outcome"`
	Timestamp string `json:"timestamp"`
}

// MonitoringStats aggregates relay counters and gauges.
type MonitoringStats struct {
	Sessions      int `json:"sessions"`
	PendingOffers int `json:"pending_offers"`

	ActiveRelays       int64   `json:"active_relays"`
	TransfersStarted   uint64  `json:"transfers_started"`
	TransfersCompleted uint64  `json:"transfers_completed"`
	TransfersFailed    uint64  `json:"transfers_failed"`
	TransfersTimedOut  uint64  `json:"transfers_timed_out"`
	BytesRelayed       uint64  `json:"bytes_relayed"`
	RelaySpeed         float64 `json:"relay_speed"` // MB/s since the previous refresh

	AllocMemMb      uint64               `json:"alloc_mem_mb"`
	NumGC           uint32               `json:"num_gc"`
	Process         domain.ProcessStats  `json:"process"`
	RecentTransfers []RecentTransferInfo `json:"recent_transfers"`
}

// Gauges are read from their owners at refresh time.
type Gauges struct {
	Sessions      int
	PendingOffers int
	Process       domain.ProcessStats
}

// MonitoringManager keeps relay telemetry; counters are lock-free, the snapshot is guarded.
type MonitoringManager struct {
	log         *slog.Logger
	mu          sync.RWMutex
	latestStats MonitoringStats

	activeRelays int64
	started      uint64
	completed    uint64
	failed       uint64
	timedOut     uint64
	totalBytes   uint64
	windowBytes  uint64
	LastCheck    time.Time
}

func NewMonitoringManager(log *slog.Logger) *MonitoringManager {
	return &MonitoringManager{
		log:       log,
		LastCheck: time.Now(),
		latestStats: MonitoringStats{
			RecentTransfers: make([]RecentTransferInfo, 0),
		},
	}
}

func (mm *MonitoringManager) RelayOpened() {
	atomic.AddUint64(&mm.started, 1)
	atomic.AddInt64(&mm.activeRelays, 1)
}

// RelayClosed settles one relay's outcome and its recent-transfer entry.
func (mm *MonitoringManager) RelayClosed(record domain.TransferRecord) {
	atomic.AddInt64(&mm.activeRelays, -1)
	switch record.Outcome {
	case domain.OutcomeCompleted:
		atomic.AddUint64(&mm.completed, 1)
	case domain.OutcomeTimedOut:
		atomic.AddUint64(&mm.timedOut, 1)
	default:
		atomic.AddUint64(&mm.failed, 1)
	}

	mm.mu.Lock()
	defer mm.mu.Unlock()

	info := RecentTransferInfo{
		ID:        record.ID.String(),
		Sender:    record.Sender,
		Recipient: record.Recipient,
		Filename:  record.Filename,
		Bytes:     record.BytesRelayed,
		Outcome:   string(record.Outcome),
		Timestamp: record.ClosedAt.Format("15:04:05"),
	}
	mm.latestStats.RecentTransfers = append([]RecentTransferInfo{info}, mm.latestStats.RecentTransfers...)
	if len(mm.latestStats.RecentTransfers) > recentTransfersKept {
		mm.latestStats.RecentTransfers = mm.latestStats.RecentTransfers[:recentTransfersKept]
	}
}

func (mm *MonitoringManager) AddRelayedBytes(n int64) {
	if n <= 0 {
		return
	}
	atomic.AddUint64(&mm.totalBytes, uint64(n))
	atomic.AddUint64(&mm.windowBytes, uint64(n))
}

func (mm *MonitoringManager) ActiveRelays() int64 {
	return atomic.LoadInt64(&mm.activeRelays)
}

// Refresh recomputes the snapshot from counters and the given gauges.
func (mm *MonitoringManager) Refresh(gauges Gauges) MonitoringStats {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	now := time.Now()
	if duration := now.Sub(mm.LastCheck).Seconds(); duration > 0 {
		window := atomic.SwapUint64(&mm.windowBytes, 0)
		mm.latestStats.RelaySpeed = (float64(window) / 1024 / 1024) / duration
	}
	mm.LastCheck = now

	mm.latestStats.Sessions = gauges.Sessions
	mm.latestStats.PendingOffers = gauges.PendingOffers
	mm.latestStats.Process = gauges.Process
	mm.latestStats.ActiveRelays = atomic.LoadInt64(&mm.activeRelays)
	mm.latestStats.TransfersStarted = atomic.LoadUint64(&mm.started)
	mm.latestStats.TransfersCompleted = atomic.LoadUint64(&mm.completed)
	mm.latestStats.TransfersFailed = atomic.LoadUint64(&mm.failed)
	mm.latestStats.TransfersTimedOut = atomic.LoadUint64(&mm.timedOut)
	mm.latestStats.BytesRelayed = atomic.LoadUint64(&mm.totalBytes)

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	mm.latestStats.AllocMemMb = m.Alloc / 1024 / 1024
	mm.latestStats.NumGC = m.NumGC

	return mm.copyLocked()
}

func (mm *MonitoringManager) GetLatest() MonitoringStats {
	mm.mu.RLock()
	defer mm.mu.RUnlock()

	return mm.copyLocked()
}

func (mm *MonitoringManager) copyLocked() MonitoringStats {
	stats := mm.latestStats
	stats.RecentTransfers = append([]RecentTransferInfo(nil), mm.latestStats.RecentTransfers...)
	return stats
}
