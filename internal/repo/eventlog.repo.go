package repo

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"payment-reconciler/internal/domain"
)

type EventLogRepo interface {
	// Record appends one webhook event with its final outcome.
	Record(ctx context.Context, ev *domain.WebhookEvent) error
	// FindNotePending lists events whose audit-note append is still
	// owed to the order store, oldest first.
	FindNotePending(ctx context.Context, limit int) ([]domain.WebhookEvent, error)
	MarkNoteDone(ctx context.Context, id uuid.UUID) error
}

type eventLogRepo struct {
	db *sql.DB
}

func NewEventLogRepo(db *sql.DB) EventLogRepo {
	return &eventLogRepo{db: db}
}

func (r *eventLogRepo) Record(ctx context.Context, ev *domain.WebhookEvent) error {
	query := `INSERT INTO webhook_events
		(id, order_id, payload, outcome, error, pending_note, note_pending, received_at, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(
		ctx, query,
		ev.ID, ev.OrderID, ev.Payload, ev.Outcome, ev.Error,
		ev.PendingNote, ev.NotePending, ev.ReceivedAt, ev.ProcessedAt,
	)
	return err
}

func (r *eventLogRepo) FindNotePending(ctx context.Context, limit int) ([]domain.WebhookEvent, error) {
	query := `SELECT id, order_id, payload, outcome, error, pending_note, note_pending, received_at, processed_at
		FROM webhook_events
		WHERE note_pending
		ORDER BY received_at
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.WebhookEvent
	for rows.Next() {
		var ev domain.WebhookEvent
		if err := rows.Scan(
			&ev.ID,
			&ev.OrderID,
			&ev.Payload,
			&ev.Outcome,
			&ev.Error,
			&ev.PendingNote,
			&ev.NotePending,
			&ev.ReceivedAt,
			&ev.ProcessedAt,
		); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (r *eventLogRepo) MarkNoteDone(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE webhook_events SET note_pending = FALSE, pending_note = '' WHERE id = $1", id)
	return err
}
