package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/git-seb/rental-sync-engine/internal/commerce"
	"github.com/git-seb/rental-sync-engine/internal/config"
	"github.com/git-seb/rental-sync-engine/internal/database"
	"github.com/git-seb/rental-sync-engine/internal/logger"
	"github.com/git-seb/rental-sync-engine/internal/pms/factory"
	"github.com/git-seb/rental-sync-engine/internal/store"
	syncer "github.com/git-seb/rental-sync-engine/internal/sync"
	"github.com/git-seb/rental-sync-engine/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}

	// Build providers and sync plumbing
	registry := factory.Build(cfg, logger)
	mappings := store.NewMappingStore(db.DB)
	syncLog := store.NewSyncLog(db.DB)
	commerceStore := commerce.NewGormStore(db.DB)
	orchestrator := syncer.NewOrchestrator(registry, mappings, commerceStore, syncLog, cfg, logger)

	// Initialize worker
	w := worker.New(cfg, logger, orchestrator, syncLog)

	// Start worker
	logger.Info("Starting worker...")
	go w.Start()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	w.Stop()
}
