package domain

import (
	"time"

	"github.com/google/uuid"
)

type WebhookOutcome string

const (
	OutcomeConfirmed WebhookOutcome = "confirmed" // order moved to processing
	OutcomeDeclined  WebhookOutcome = "declined"  // order moved to failed
	OutcomeDuplicate WebhookOutcome = "duplicate" // settled order, no-op
	OutcomeRejected  WebhookOutcome = "rejected"  // bad payload or unknown order
	OutcomeError     WebhookOutcome = "error"     // order store unreachable
)

// WebhookEvent is one row of the local audit log: every inbound
// notification and what the reconciler decided about it. NotePending is
// set when the status transition landed but the order-store note append
// failed; the remediation worker retries those.
type WebhookEvent struct {
	ID          uuid.UUID
	OrderID     int64
	Payload     string
	Outcome     WebhookOutcome
	Error       string
	PendingNote string
	NotePending bool
	ReceivedAt  time.Time
	ProcessedAt time.Time
}
