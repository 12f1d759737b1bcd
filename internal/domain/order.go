package domain

import (
	"time"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderOnHold     OrderStatus = "on-hold"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
	OrderRefunded   OrderStatus = "refunded"
	OrderFailed     OrderStatus = "failed"
)

// Settled reports whether the payment for this status has already been
// credited. Once settled, further gateway notifications must not mutate
// the order again.
func (s OrderStatus) Settled() bool {
	return s == OrderProcessing || s == OrderCompleted
}

type MetaEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Order is owned by the external order store. The reconciler only ever
// transitions its status and appends to MetaData; it never creates or
// deletes orders.
type Order struct {
	ID        int64       `json:"id"`
	Status    OrderStatus `json:"status"`
	Total     string      `json:"total"`
	Currency  string      `json:"currency"`
	MetaData  []MetaEntry `json:"meta_data"`
	CreatedAt time.Time   `json:"date_created_gmt"`
	UpdatedAt time.Time   `json:"date_modified_gmt"`
}

// Meta returns the value of the first meta entry with the given key, or
// the empty string when absent.
func (o *Order) Meta(key string) string {
	for _, m := range o.MetaData {
		if m.Key == key {
			return m.Value
		}
	}
	return ""
}
