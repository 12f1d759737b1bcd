package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"payment-reconciler/internal/domain"
	"payment-reconciler/internal/service"
)

const maxWebhookBody = 1 << 20

// webhookResponse is the envelope the gateway sees. The gateway retries
// on non-2xx, so the status mapping below decides retry behavior:
// parse and unknown-order rejections are terminal (400/404), upstream
// trouble asks for a retry (502).
type webhookResponse struct {
	Status    string `json:"status"`
	OrderID   int64  `json:"orderId,omitempty"`
	ElapsedMs int64  `json:"elapsedMs"`
	Message   string `json:"message,omitempty"`
}

func (s *Server) handleWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, webhookResponse{Status: "error", Message: "unreadable body"})
		return
	}

	result, err := s.reconciler.HandleNotification(c.Request.Context(), c.ContentType(), body)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidPayload),
			errors.Is(err, domain.ErrMissingOrderReference):
			c.JSON(http.StatusBadRequest, webhookResponse{Status: "error", Message: err.Error()})
		case errors.Is(err, domain.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, webhookResponse{Status: "failed", Message: err.Error()})
		default:
			c.JSON(http.StatusBadGateway, webhookResponse{Status: "error", Message: "order store unavailable"})
		}
		return
	}

	status := "success"
	if result.Status == domain.OrderFailed {
		status = "failed"
	}
	c.JSON(http.StatusOK, webhookResponse{
		Status:    status,
		OrderID:   result.OrderID,
		ElapsedMs: result.Elapsed.Milliseconds(),
	})
}

func (s *Server) handleWebhookLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "alive",
		"service": "payment-reconciler",
	})
}

func (s *Server) handleCreateSession(c *gin.Context) {
	var req domain.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.OrderID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "orderId is required"})
		return
	}
	if req.Method == "" {
		req.Method = "credit-card"
	}

	session, err := s.checkout.CreateSession(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		case errors.Is(err, service.ErrOrderNotPayable):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			// gateway errors carry the customer-facing Hebrew message
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, session)
}

func (s *Server) handleHealth(c *gin.Context) {
	stats := s.health.Health()
	code := http.StatusOK
	if stats["status"] != "up" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, stats)
}
