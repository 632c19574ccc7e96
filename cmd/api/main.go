package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/git-seb/rental-sync-engine/internal/api"
	"github.com/git-seb/rental-sync-engine/internal/commerce"
	"github.com/git-seb/rental-sync-engine/internal/config"
	"github.com/git-seb/rental-sync-engine/internal/database"
	"github.com/git-seb/rental-sync-engine/internal/logger"
	"github.com/git-seb/rental-sync-engine/internal/pms/factory"
	"github.com/git-seb/rental-sync-engine/internal/store"
	syncer "github.com/git-seb/rental-sync-engine/internal/sync"
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

	// Initialize API server
	server := api.New(cfg, logger, registry, orchestrator, mappings, syncLog)

	go func() {
		if err := server.Start(); err != nil {
			logger.Error("Server stopped: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		logger.Error("Failed to shut down cleanly: %v", err)
	}
}
