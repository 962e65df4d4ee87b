package workers

import (
	"chat-relay/observability"
	"context"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type countingPruner struct {
	calls atomic.Int32
}

func (p *countingPruner) Prune() int {
	p.calls.Add(1)
	return 1
}

type fixedCount int

func (c fixedCount) Len() int   { return int(c) }
func (c fixedCount) Count() int { return int(c) }

func TestOfferReaperWorker_PrunesOnEveryTick(t *testing.T) {
	req := require.New(t)
	pruner := &countingPruner{}
	worker := NewOfferReaperWorker(logs.GetLoggerFromLevel(slog.LevelDebug), pruner, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// When the reaper runs for a few ticks
	err := worker.Run(ctx)

	// Then it pruned repeatedly and stopped cleanly
	req.NoError(err)
	req.GreaterOrEqual(pruner.calls.Load(), int32(2))
}

func TestStatsReporterWorker_ReportsGaugesAndProcess(t *testing.T) {
	req := require.New(t)
	monitoring := observability.NewMonitoringManager(slog.Default())
	worker := NewStatsReporterWorker(slog.Default(), monitoring, fixedCount(3), fixedCount(2), time.Hour)

	// When a report is produced
	stats := worker.report()

	// Then it carries the gauges and describes this process
	req.Equal(3, stats.Sessions)
	req.Equal(2, stats.PendingOffers)
	req.EqualValues(os.Getpid(), stats.Process.PID)
	req.Equal(stats, monitoring.GetLatest())
}
