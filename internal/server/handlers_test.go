package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payment-reconciler/internal/domain"
	"payment-reconciler/internal/service"
)

type stubReconciler struct {
	result *domain.ReconcileResult
	err    error
}

func (s *stubReconciler) HandleNotification(ctx context.Context, contentType string, body []byte) (*domain.ReconcileResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubCheckout struct {
	session *domain.CheckoutSession
	err     error
}

func (s *stubCheckout) CreateSession(ctx context.Context, req *domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.session, nil
}

type stubHealth struct{ stats map[string]string }

func (s *stubHealth) Health() map[string]string { return s.stats }
func (s *stubHealth) Close() error              { return nil }

func newTestRouter(rec *stubReconciler, co *stubCheckout) *gin.Engine {
	gin.SetMode(gin.TestMode)
	srv := New(rec, co, &stubHealth{stats: map[string]string{"status": "up"}}, slog.Default())
	return srv.Router()
}

func TestWebhookSuccessResponse(t *testing.T) {
	rec := &stubReconciler{result: &domain.ReconcileResult{
		OrderID: 7788,
		Status:  domain.OrderProcessing,
		Applied: true,
		Elapsed: 42 * time.Millisecond,
	}}
	router := newTestRouter(rec, &stubCheckout{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook/payment",
		strings.NewReader(`{"status":1,"data":{"customFields":{"cField1":"7788"}}}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp["status"])
	assert.Equal(t, float64(7788), resp["orderId"])
	assert.Equal(t, float64(42), resp["elapsedMs"])
}

func TestWebhookFailedPaymentResponse(t *testing.T) {
	rec := &stubReconciler{result: &domain.ReconcileResult{
		OrderID: 55, Status: domain.OrderFailed, Applied: true,
	}}
	router := newTestRouter(rec, &stubCheckout{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook/payment", strings.NewReader(`{}`))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"failed"`)
}

func TestWebhookErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"invalid payload", domain.ErrInvalidPayload, http.StatusBadRequest},
		{"missing reference", domain.ErrMissingOrderReference, http.StatusBadRequest},
		{"unknown order", domain.ErrOrderNotFound, http.StatusNotFound},
		{"upstream down", domain.ErrUpstreamUnavailable, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&stubReconciler{err: tt.err}, &stubCheckout{})
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/webhook/payment", strings.NewReader("x"))
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestWebhookLiveness(t *testing.T) {
	router := newTestRouter(&stubReconciler{}, &stubCheckout{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/webhook/payment", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alive")
}

func TestCreateSessionEndpoint(t *testing.T) {
	co := &stubCheckout{session: &domain.CheckoutSession{
		OrderID:     7788,
		RedirectURL: "https://pay.example/p/9",
		ProcessID:   9,
	}}
	router := newTestRouter(&stubReconciler{}, co)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/checkout/session",
		strings.NewReader(`{"orderId":7788,"method":"credit-card","fullName":"Noa Levi"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://pay.example/p/9")
}

func TestCreateSessionValidation(t *testing.T) {
	router := newTestRouter(&stubReconciler{}, &stubCheckout{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/checkout/session", strings.NewReader(`{"method":"bit"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateSessionErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"order missing", domain.ErrOrderNotFound, http.StatusNotFound},
		{"not payable", service.ErrOrderNotPayable, http.StatusConflict},
		{"gateway down", domain.ErrUpstreamUnavailable, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&stubReconciler{}, &stubCheckout{err: tt.err})
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/checkout/session",
				strings.NewReader(`{"orderId":1,"method":"bit"}`))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(&stubReconciler{}, &stubCheckout{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"up"`)
}
