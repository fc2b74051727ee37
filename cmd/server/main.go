package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coursepay-api/internal/api"
	"coursepay-api/internal/config"
	"coursepay-api/internal/database"
	"coursepay-api/internal/middleware"
	"coursepay-api/internal/services"
	"coursepay-api/pkg/logging"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatal("Failed to initialize config:", err)
	}
	cfg := config.AppConfig

	// Initialize logging
	if err := logging.InitLogging(cfg.LogLevel); err != nil {
		log.Fatal("Failed to initialize logging:", err)
	}
	defer logging.Sync()
	logger := logging.L().With(zap.String("service", cfg.ServiceName))

	// Initialize database
	if err := database.InitDatabase(cfg); err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.CloseDatabase()

	store := database.NewStore(database.GetDB())
	cache := services.NewRedisAccessCache(database.RedisClient, cfg.AccessCacheTTL)

	if cfg.StripeSecretKey == "" {
		logger.Warn("STRIPE_SECRET_KEY is not set; subscriptions without period dates will fail")
	}
	var alerter services.Alerter
	if a := services.NewBrevoAlerter(cfg, logger); a != nil {
		alerter = a
	} else {
		logger.Info("Ops alerts disabled")
	}

	reconciler := services.NewReconciler(services.ReconcilerOptions{
		Verifier:      services.NewSignatureVerifier(cfg.StripeWebhookSecret, cfg.StripeWebhookTolerance),
		Purchases:     services.NewPurchaseRecorder(store, cache, alerter, logger),
		Subscriptions: services.NewSubscriptionUpserter(store, services.NewStripeSubscriptionFetcher(cfg.StripeSecretKey, nil), cache, logger),
		Ledger:        store,
		Logger:        logger,
	})

	// Set Gin mode
	gin.SetMode(cfg.Mode)

	// Create Gin engine
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(logger))

	// Setup routes
	api.SetupRoutes(r, api.Dependencies{
		Reconciler:  reconciler,
		Access:      services.NewAccessService(store, cache, logger),
		Admin:       store,
		AdminAPIKey: cfg.AdminAPIKey,
		ServiceName: cfg.ServiceName,
		Health:      database.Ping,
	})

	// Start server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Infof("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Errorf("Server forced to shutdown: %v", err)
	}
}
