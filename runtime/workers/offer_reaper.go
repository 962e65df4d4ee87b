package workers

import (
	"context"
	"log/slog"
	"time"
)

type OfferPruner interface {
	Prune() int
}

// OfferReaperWorker drops file offers nobody accepted within their time to live.
type OfferReaperWorker struct {
	log           *slog.Logger
	offers        OfferPruner
	sweepInterval time.Duration
}

func NewOfferReaperWorker(log *slog.Logger, offers OfferPruner, sweepInterval time.Duration) *OfferReaperWorker {
	return &OfferReaperWorker{log: log, offers: offers, sweepInterval: sweepInterval}
}

func (w *OfferReaperWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping offer reaper")
			return nil
		case <-ticker.C:
			if pruned := w.offers.Prune(); pruned > 0 {
				w.log.Info("Expired file offers dropped", "count", pruned)
			}
		}
	}
}
