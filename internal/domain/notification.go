package domain

import (
	"errors"
	"time"
)

// NotificationSuccess is the gateway status code signalling a captured
// payment. Every other code is a decline or processing failure.
const NotificationSuccess = 1

// PaymentNotification is the canonical form of a gateway webhook
// payload. The gateway posts the same logical fields in several
// encodings (nested JSON, flat form fields, bracket-nested form
// fields); all of them normalize into this one struct before any
// business logic runs.
type PaymentNotification struct {
	Status           int
	OrderID          int64
	TransactionID    string // gateway receipt number ("asmachta")
	TransactionToken string
	CardSuffix       string
}

func (n *PaymentNotification) Succeeded() bool {
	return n.Status == NotificationSuccess
}

// ReconcileResult reports what a notification did to its order.
// Applied is false when the idempotency guard short-circuited a
// duplicate and the order was left untouched.
type ReconcileResult struct {
	OrderID int64
	Status  OrderStatus
	Applied bool
	Elapsed time.Duration
}

var (
	// ErrInvalidPayload: the body carries no parseable status signal.
	// Terminal; the gateway may retry on its own but the outcome will
	// not change.
	ErrInvalidPayload = errors.New("notification payload is not parseable")

	// ErrMissingOrderReference: parseable payload but no usable order
	// reference. Terminal, no order is touched.
	ErrMissingOrderReference = errors.New("notification carries no order reference")

	// ErrOrderNotFound: the referenced order is unknown to the order
	// store. Treated as a rejected or forged notification.
	ErrOrderNotFound = errors.New("order not found")

	// ErrUpstreamUnavailable: transient order-store failure. Safe for
	// the gateway to retry because settled orders are never re-mutated.
	ErrUpstreamUnavailable = errors.New("order store unavailable")
)
