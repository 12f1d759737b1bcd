package orderstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"payment-reconciler/internal/domain"
)

// OrderStore is the reconciler's view of the external order system. It
// is the single source of truth for order state: callers re-read before
// every decision and never cache status across invocations.
type OrderStore interface {
	FetchOrder(ctx context.Context, id int64) (*domain.Order, error)
	// UpdateOrder transitions status and merges meta entries. Meta is
	// append-only upstream; existing entries are never removed.
	UpdateOrder(ctx context.Context, id int64, status domain.OrderStatus, meta []domain.MetaEntry) error
	AppendNote(ctx context.Context, id int64, note string) error
}

type Config struct {
	BaseURL        string // e.g. https://shop.example.com
	ConsumerKey    string
	ConsumerSecret string
	Timeout        time.Duration
}

type client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) OrderStore {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// wire shape of a WooCommerce order; meta values can be any JSON type
// so they are coerced to strings on the way in.
type wooOrder struct {
	ID       int64  `json:"id"`
	Status   string `json:"status"`
	Total    string `json:"total"`
	Currency string `json:"currency"`
	MetaData []struct {
		Key   string `json:"key"`
		Value any    `json:"value"`
	} `json:"meta_data"`
	CreatedAt time.Time `json:"date_created_gmt"`
	UpdatedAt time.Time `json:"date_modified_gmt"`
}

func (c *client) FetchOrder(ctx context.Context, id int64) (*domain.Order, error) {
	body, err := c.do(ctx, http.MethodGet, c.orderPath(id), nil)
	if err != nil {
		return nil, err
	}

	var wo wooOrder
	if err := json.Unmarshal(body, &wo); err != nil {
		return nil, fmt.Errorf("decode order %d: %w", id, err)
	}

	order := &domain.Order{
		ID:        wo.ID,
		Status:    domain.OrderStatus(wo.Status),
		Total:     wo.Total,
		Currency:  wo.Currency,
		CreatedAt: wo.CreatedAt,
		UpdatedAt: wo.UpdatedAt,
	}
	for _, m := range wo.MetaData {
		order.MetaData = append(order.MetaData, domain.MetaEntry{
			Key:   m.Key,
			Value: metaString(m.Value),
		})
	}
	return order, nil
}

func (c *client) UpdateOrder(ctx context.Context, id int64, status domain.OrderStatus, meta []domain.MetaEntry) error {
	payload := map[string]any{"status": string(status)}
	if len(meta) > 0 {
		payload["meta_data"] = meta
	}
	_, err := c.do(ctx, http.MethodPut, c.orderPath(id), payload)
	return err
}

func (c *client) AppendNote(ctx context.Context, id int64, note string) error {
	payload := map[string]any{"note": note}
	_, err := c.do(ctx, http.MethodPost, c.orderPath(id)+"/notes", payload)
	return err
}

func (c *client) orderPath(id int64) string {
	return fmt.Sprintf("%s/wp-json/wc/v3/orders/%d", c.cfg.BaseURL, id)
}

func (c *client) do(ctx context.Context, method, url string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrOrderNotFound
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("order store returned %d: %s", resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

func metaString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		encoded, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(encoded)
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
