package services

import (
	"context"
	"time"

	"github.com/legalinmo/legal-api/internal/logger"
	"github.com/legalinmo/legal-api/internal/store"
)

// DraftSweeper deletes paid consultations whose payment never arrived.
type DraftSweeper struct {
	consultations store.ConsultationStore
	ttl           time.Duration
	interval      time.Duration
	now           func() time.Time
}

func NewDraftSweeper(consultations store.ConsultationStore, ttl time.Duration) *DraftSweeper {
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	if interval > time.Hour {
		interval = time.Hour
	}
	return &DraftSweeper{consultations: consultations, ttl: ttl, interval: interval, now: time.Now}
}

// Start runs the sweep on a ticker until ctx is cancelled.
func (w *DraftSweeper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				logger.Info("draft sweeper stopped")
				return
			case <-ticker.C:
				_, _ = w.Sweep(ctx)
			}
		}
	}()
}

func (w *DraftSweeper) Sweep(ctx context.Context) (int64, error) {
	n, err := w.consultations.DeleteDraftsBefore(ctx, w.now().Add(-w.ttl))
	if err != nil {
		logger.WorkerLog("draft-sweeper", "delete", err)
		return 0, err
	}
	if n > 0 {
		logger.WorkerLog("draft-sweeper", "delete", nil, "deleted", n)
	}
	return n, nil
}
