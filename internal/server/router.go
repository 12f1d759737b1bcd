package server

import (
	"log/slog"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"payment-reconciler/internal/database"
	"payment-reconciler/internal/service"
)

type Server struct {
	reconciler service.Reconciler
	checkout   service.CheckoutService
	health     database.Service
	logger     *slog.Logger
}

func New(reconciler service.Reconciler, checkout service.CheckoutService, health database.Service, logger *slog.Logger) *Server {
	return &Server{
		reconciler: reconciler,
		checkout:   checkout,
		health:     health,
		logger:     logger,
	}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())

	r.POST("/webhook/payment", s.handleWebhook)
	r.GET("/webhook/payment", s.handleWebhookLiveness)
	r.POST("/checkout/session", s.handleCreateSession)
	r.GET("/health", s.handleHealth)

	return r
}
