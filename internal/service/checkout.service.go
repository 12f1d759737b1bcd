package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"payment-reconciler/internal/domain"
	"payment-reconciler/internal/infrastructure/gateway"
	"payment-reconciler/internal/infrastructure/orderstore"
)

// ErrOrderNotPayable rejects checkout against an order whose state no
// longer allows payment.
var ErrOrderNotPayable = errors.New("order is not awaiting payment")

// CheckoutService starts a gateway payment session for an existing
// pending order. The order id goes out as cField1 and the reconciler
// expects exactly that value back in the webhook.
type CheckoutService interface {
	CreateSession(ctx context.Context, req *domain.CheckoutRequest) (*domain.CheckoutSession, error)
}

type CallbackURLs struct {
	Success string
	Cancel  string
	Notify  string
}

type checkoutService struct {
	store     orderstore.OrderStore
	gateway   gateway.PaymentGateway
	callbacks CallbackURLs
	logger    *slog.Logger
}

func NewCheckoutService(store orderstore.OrderStore, gw gateway.PaymentGateway, callbacks CallbackURLs, logger *slog.Logger) CheckoutService {
	return &checkoutService{store: store, gateway: gw, callbacks: callbacks, logger: logger}
}

func (s *checkoutService) CreateSession(ctx context.Context, req *domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	order, err := s.store.FetchOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	if order.Status != domain.OrderPending {
		return nil, fmt.Errorf("%w: order %d has status %s", ErrOrderNotPayable, order.ID, order.Status)
	}

	session, err := s.gateway.CreatePaymentProcess(ctx, &gateway.ProcessRequest{
		OrderID:     order.ID,
		Amount:      order.Total,
		Description: fmt.Sprintf("Order #%d", order.ID),
		Method:      req.Method,
		FullName:    req.FullName,
		Phone:       req.Phone,
		Email:       req.Email,
		SuccessURL:  s.callbacks.Success,
		CancelURL:   s.callbacks.Cancel,
		NotifyURL:   s.callbacks.Notify,
	})
	if err != nil {
		s.logger.Error("payment session creation failed", "order_id", order.ID, "error", err)
		return nil, err
	}

	s.logger.Info("payment session created",
		"order_id", order.ID, "process_id", session.ProcessID)
	return session, nil
}
