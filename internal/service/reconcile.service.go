package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"payment-reconciler/internal/domain"
	"payment-reconciler/internal/infrastructure/gateway"
	"payment-reconciler/internal/infrastructure/orderstore"
	"payment-reconciler/internal/repo"
)

// Reconciler turns an asynchronous, possibly-duplicated gateway
// notification into at most one idempotent state transition on exactly
// one order.
type Reconciler interface {
	HandleNotification(ctx context.Context, contentType string, body []byte) (*domain.ReconcileResult, error)
}

const (
	metaTransactionID    = "_grow_transaction_id"
	metaTransactionToken = "_grow_transaction_token"
	metaCardSuffix       = "_grow_card_suffix"
	metaCompletedAt      = "_payment_completed_at"
	metaPaymentChannel   = "_payment_channel"

	paymentChannel = "grow"
)

type reconciler struct {
	store  orderstore.OrderStore
	events repo.EventLogRepo
	logger *slog.Logger
}

func NewReconciler(store orderstore.OrderStore, events repo.EventLogRepo, logger *slog.Logger) Reconciler {
	return &reconciler{store: store, events: events, logger: logger}
}

// HandleNotification applies the webhook algorithm:
//
//  1. Normalize the payload; a payload without a status or an order
//     reference is rejected terminally.
//  2. Re-read the order; an unknown order is rejected terminally. This
//     doubles as the authenticity check: a forged notification cannot
//     reference a real eligible order.
//  3. A settled order (processing/completed) short-circuits: success,
//     no mutation, no note. The gateway retries notifications, so this
//     must stay a strict no-op.
//  4. Success codes move the order to processing with payment meta and
//     one audit note; other codes move it to failed with a note.
//
// The idempotency guard runs against freshly-read state on every call;
// there is no cross-invocation cache. The order store has no
// conditional update, so two notifications racing between read and
// write can both pass the guard; the second write re-applies the same
// settled status, and the event log keeps both rows for audit.
func (r *reconciler) HandleNotification(ctx context.Context, contentType string, body []byte) (*domain.ReconcileResult, error) {
	start := time.Now()

	n, err := gateway.ParseNotification(contentType, body)
	if err != nil {
		r.logger.Warn("rejected unparseable notification", "error", err)
		r.record(ctx, 0, body, domain.OutcomeRejected, err.Error(), "")
		return nil, err
	}

	log := r.logger.With("order_id", n.OrderID)

	order, err := r.store.FetchOrder(ctx, n.OrderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			log.Warn("notification references unknown order")
			r.record(ctx, n.OrderID, body, domain.OutcomeRejected, err.Error(), "")
		} else {
			log.Error("order fetch failed", "error", err)
			r.record(ctx, n.OrderID, body, domain.OutcomeError, err.Error(), "")
		}
		return nil, err
	}

	if order.Status.Settled() {
		if !n.Succeeded() {
			// late failure signal for an already-confirmed payment;
			// never transition backward
			log.Warn("failure notification for settled order ignored",
				"status", order.Status, "gateway_code", n.Status)
		}
		log.Info("duplicate notification for settled order",
			"status", order.Status, "elapsed", time.Since(start))
		r.record(ctx, n.OrderID, body, domain.OutcomeDuplicate, "", "")
		return &domain.ReconcileResult{
			OrderID: n.OrderID,
			Status:  order.Status,
			Applied: false,
			Elapsed: time.Since(start),
		}, nil
	}

	if n.Succeeded() {
		return r.confirm(ctx, log, n, body, start)
	}
	return r.decline(ctx, log, n, body, start)
}

func (r *reconciler) confirm(ctx context.Context, log *slog.Logger, n *domain.PaymentNotification, body []byte, start time.Time) (*domain.ReconcileResult, error) {
	meta := []domain.MetaEntry{
		{Key: metaTransactionID, Value: n.TransactionID},
		{Key: metaCompletedAt, Value: time.Now().UTC().Format(time.RFC3339)},
		{Key: metaPaymentChannel, Value: paymentChannel},
	}
	if n.TransactionToken != "" {
		meta = append(meta, domain.MetaEntry{Key: metaTransactionToken, Value: n.TransactionToken})
	}
	if n.CardSuffix != "" {
		meta = append(meta, domain.MetaEntry{Key: metaCardSuffix, Value: n.CardSuffix})
	}

	if err := r.store.UpdateOrder(ctx, n.OrderID, domain.OrderProcessing, meta); err != nil {
		log.Error("status update failed", "error", err)
		r.record(ctx, n.OrderID, body, domain.OutcomeError, err.Error(), "")
		return nil, err
	}

	note := fmt.Sprintf("Payment confirmed via %s. Transaction %s", paymentChannel, n.TransactionID)
	if n.CardSuffix != "" {
		note += fmt.Sprintf(" (card ending %s)", n.CardSuffix)
	}
	note += "."

	pendingNote := ""
	if err := r.store.AppendNote(ctx, n.OrderID, note); err != nil {
		// status correctness outranks audit completeness: the order is
		// confirmed, the note is owed and retried by the worker
		log.Warn("partial write: note append failed after status update",
			"error", err, "transaction_id", n.TransactionID)
		pendingNote = note
	}

	log.Info("payment confirmed",
		"transaction_id", n.TransactionID, "elapsed", time.Since(start))
	r.record(ctx, n.OrderID, body, domain.OutcomeConfirmed, "", pendingNote)

	return &domain.ReconcileResult{
		OrderID: n.OrderID,
		Status:  domain.OrderProcessing,
		Applied: true,
		Elapsed: time.Since(start),
	}, nil
}

func (r *reconciler) decline(ctx context.Context, log *slog.Logger, n *domain.PaymentNotification, body []byte, start time.Time) (*domain.ReconcileResult, error) {
	if err := r.store.UpdateOrder(ctx, n.OrderID, domain.OrderFailed, nil); err != nil {
		log.Error("status update failed", "error", err)
		r.record(ctx, n.OrderID, body, domain.OutcomeError, err.Error(), "")
		return nil, err
	}

	note := fmt.Sprintf("Payment failed, gateway status code %d.", n.Status)
	pendingNote := ""
	if err := r.store.AppendNote(ctx, n.OrderID, note); err != nil {
		log.Warn("partial write: note append failed after status update", "error", err)
		pendingNote = note
	}

	log.Info("payment declined", "gateway_code", n.Status, "elapsed", time.Since(start))
	r.record(ctx, n.OrderID, body, domain.OutcomeDeclined, "", pendingNote)

	return &domain.ReconcileResult{
		OrderID: n.OrderID,
		Status:  domain.OrderFailed,
		Applied: true,
		Elapsed: time.Since(start),
	}, nil
}

// record is best-effort: a broken audit log must never fail a payment
// confirmation.
func (r *reconciler) record(ctx context.Context, orderID int64, body []byte, outcome domain.WebhookOutcome, errMsg, pendingNote string) {
	if r.events == nil {
		return
	}
	ev := &domain.WebhookEvent{
		ID:          uuid.New(),
		OrderID:     orderID,
		Payload:     string(body),
		Outcome:     outcome,
		Error:       errMsg,
		PendingNote: pendingNote,
		NotePending: pendingNote != "",
		ReceivedAt:  time.Now(),
		ProcessedAt: time.Now(),
	}
	if err := r.events.Record(ctx, ev); err != nil {
		r.logger.Error("event log write failed", "order_id", orderID, "error", err)
	}
}
