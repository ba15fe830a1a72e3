// Command reconcile recomputes every denormalized counter from the edge
// tables and repairs any that drifted.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/anonto42/snapreel/backend/internal/services"
	"github.com/anonto42/snapreel/backend/pkg/config"
	"github.com/anonto42/snapreel/backend/pkg/logging"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := logging.NewLogger(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := config.InitRelational(cfg, logger)
	if err != nil {
		logger.Fatal("failed to open relational store", zap.Error(err))
	}
	defer db.CloseDB()

	audit, err := services.NewAuditService(services.Config{
		Database:      db.Relational,
		Logger:        logger,
		TxOptions:     db.TxOptions,
		MaxTxAttempts: cfg.MaxTxAttempts,
	})
	if err != nil {
		logger.Fatal("failed to build audit service", zap.Error(err))
	}

	drifts, err := audit.ReconcileAll(ctx)
	if err != nil {
		logger.Error("reconcile aborted", zap.Error(err), zap.Int("repaired_before_abort", len(drifts)))
		os.Exit(1)
	}
	logger.Info("reconcile finished", zap.Int("repaired", len(drifts)))
}
