package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/snapreel/backend/internal/repositories"
	"github.com/anonto42/snapreel/backend/internal/router"
	"github.com/anonto42/snapreel/backend/internal/services"
	"github.com/anonto42/snapreel/backend/pkg/config"
	"github.com/anonto42/snapreel/backend/pkg/firebase"
	"github.com/anonto42/snapreel/backend/pkg/logging"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger, err := logging.NewLogger(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET environment variable not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database connections
	db, err := config.InitDB(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize databases", zap.Error(err))
	}
	defer db.CloseDB()

	if err := repositories.AutoMigrate(db.Relational); err != nil {
		logger.Fatal("failed to migrate relational schema", zap.Error(err))
	}

	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		logger.Fatal("failed to initialize Firebase", zap.Error(err))
	}

	e := echo.New()
	e.HideBanner = true
	router.SetupMiddleware(e, logger)

	svcs, err := router.SetupRoutes(e, router.Dependencies{
		Services: services.Config{
			Database:      db.Relational,
			TxOptions:     db.TxOptions,
			MaxTxAttempts: cfg.MaxTxAttempts,
			ReceiptWindow: cfg.ToggleReceiptWindow,
		},
		Media:     repositories.NewMongoMediaRepository(db.Mongo.Database(cfg.MongoDatabase)),
		Verifier:  firebaseApp.AuthClient,
		JWTSecret: []byte(cfg.JWTSecret),
		TokenTTL:  cfg.JWTTTL,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("failed to set up routes", zap.Error(err))
	}

	go svcs.Toggles.RunReceiptJanitor(ctx, cfg.ToggleReceiptWindow)

	metricsServer := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", zap.Error(err))
			stop()
		}
	}()
	logger.Info("server started", zap.String("port", cfg.Port), zap.String("metrics_port", cfg.MetricsPort))

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics shutdown", zap.Error(err))
	}
}
