package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"payment-reconciler/internal/config"
	"payment-reconciler/internal/database"
	"payment-reconciler/internal/infrastructure/gateway"
	"payment-reconciler/internal/infrastructure/orderstore"
	"payment-reconciler/internal/repo"
	"payment-reconciler/internal/server"
	"payment-reconciler/internal/service"
	"payment-reconciler/internal/worker"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()

	db := database.NewPostgres()
	if err := database.CreateSchema(ctx, db); err != nil {
		log.Fatalf("schema setup failed: %v", err)
	}

	events := repo.NewEventLogRepo(db)

	store := orderstore.NewClient(orderstore.Config{
		BaseURL:        cfg.StoreBaseURL,
		ConsumerKey:    cfg.StoreConsumerKey,
		ConsumerSecret: cfg.StoreConsumerSecret,
		Timeout:        cfg.StoreTimeout,
	})

	gw := gateway.NewClient(gateway.Config{
		BaseURL:     cfg.GatewayBaseURL,
		UserID:      cfg.GatewayUserID,
		APIKey:      cfg.GatewayAPIKey,
		PageCodeURL: cfg.GatewayPageCodeURL,
		Timeout:     cfg.GatewayTimeout,
	})

	reconciler := service.NewReconciler(store, events, logger)
	checkout := service.NewCheckoutService(store, gw, service.CallbackURLs{
		Success: cfg.SuccessURL,
		Cancel:  cfg.CancelURL,
		Notify:  cfg.NotifyURL,
	}, logger)

	remediation := worker.NewRemediationWorker(events, store, cfg.WorkerInterval, logger)
	go remediation.Run(ctx)

	srv := server.New(reconciler, checkout, database.NewService(db), logger)

	logger.Info("payment reconciler listening", "addr", cfg.ListenAddr)
	if err := srv.Router().Run(cfg.ListenAddr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
