package worker

import (
	"context"
	"log/slog"
	"time"

	"payment-reconciler/internal/infrastructure/orderstore"
	"payment-reconciler/internal/repo"
)

const sweepBatchSize = 50

// RemediationWorker retries audit-note appends that failed after a
// status transition already landed. The transition itself is never
// retried here; only the owed note.
type RemediationWorker struct {
	events   repo.EventLogRepo
	store    orderstore.OrderStore
	interval time.Duration
	logger   *slog.Logger
}

func NewRemediationWorker(
	events repo.EventLogRepo,
	store orderstore.OrderStore,
	interval time.Duration,
	logger *slog.Logger,
) *RemediationWorker {
	return &RemediationWorker{
		events:   events,
		store:    store,
		interval: interval,
		logger:   logger,
	}
}

func (w *RemediationWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("remediation worker started", "interval", w.interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Sweep(ctx); err != nil {
				w.logger.Error("remediation sweep failed", "error", err)
			}
		}
	}
}

// Sweep retries every owed note once. Per-event failures are skipped
// and picked up again on the next sweep.
func (w *RemediationWorker) Sweep(ctx context.Context) error {
	pending, err := w.events.FindNotePending(ctx, sweepBatchSize)
	if err != nil {
		return err
	}

	if len(pending) == 0 {
		return nil
	}

	w.logger.Info("retrying owed audit notes", "count", len(pending))

	for _, ev := range pending {
		if err := w.store.AppendNote(ctx, ev.OrderID, ev.PendingNote); err != nil {
			w.logger.Warn("note retry failed", "order_id", ev.OrderID, "error", err)
			continue
		}
		if err := w.events.MarkNoteDone(ctx, ev.ID); err != nil {
			// the note may be appended twice on the next sweep; an
			// extra audit line is preferable to a missing one
			w.logger.Warn("could not mark note done", "event_id", ev.ID, "error", err)
			continue
		}
		w.logger.Info("owed audit note delivered", "order_id", ev.OrderID)
	}
	return nil
}
