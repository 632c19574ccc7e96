// Package worker consumes sync requests from Kafka and runs them through the
// orchestrator, publishing a completion event for each run. It is the
// scheduled-sync surface: a cron or upstream service produces requests, the
// worker executes them off the API path.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/git-seb/rental-sync-engine/internal/config"
	"github.com/git-seb/rental-sync-engine/internal/logger"
	"github.com/git-seb/rental-sync-engine/internal/store"
	syncer "github.com/git-seb/rental-sync-engine/internal/sync"
)

// SyncRequest is the message shape on the sync-requests topic. An empty
// provider means all enabled providers; an empty scope means "all".
type SyncRequest struct {
	Provider  string    `json:"provider"`
	Scope     string    `json:"scope"`
	Timestamp time.Time `json:"timestamp"`
}

// SyncEvent is published to the sync-events topic after each run.
type SyncEvent struct {
	Provider     string    `json:"provider"`
	Scope        string    `json:"scope"`
	SuccessCount int       `json:"success_count"`
	FailedCount  int       `json:"failed_count"`
	Errors       []string  `json:"errors,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

type Worker struct {
	config       *config.Config
	logger       *logger.Logger
	reader       *kafka.Reader
	writer       *kafka.Writer
	orchestrator *syncer.Orchestrator
	syncLog      *store.SyncLog
}

func New(cfg *config.Config, log *logger.Logger, orchestrator *syncer.Orchestrator, syncLog *store.SyncLog) *Worker {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        []string{cfg.KafkaBrokers},
		GroupID:        "rental-sync-worker",
		Topic:          cfg.SyncRequestTopic,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
	})

	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.KafkaBrokers),
		Topic:    cfg.SyncEventTopic,
		Balancer: &kafka.LeastBytes{},
	}

	return &Worker{
		config:       cfg,
		logger:       log.WithPrefix("WORKER"),
		reader:       reader,
		writer:       writer,
		orchestrator: orchestrator,
		syncLog:      syncLog,
	}
}

func (w *Worker) Start() {
	w.logger.Info("Worker started, listening for sync requests...")

	for {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		message, err := w.reader.ReadMessage(ctx)
		cancel()

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			w.logger.Error("Failed to read message: %v", err)
			continue
		}

		w.logger.Debug("Received sync request: %s", string(message.Value))

		var req SyncRequest
		if err := json.Unmarshal(message.Value, &req); err != nil {
			w.logger.Error("Failed to parse sync request: %v", err)
			continue
		}

		w.handle(req)
	}
}

func (w *Worker) handle(req SyncRequest) {
	scope, err := syncer.ParseScope(req.Scope)
	if err != nil {
		w.logger.Error("Dropping sync request: %v", err)
		return
	}

	ctx := context.Background()
	result, err := w.orchestrator.TriggerSync(ctx, req.Provider, scope)
	if err != nil {
		w.logger.Error("Sync run failed: %v", err)
		return
	}
	w.logger.Info("Sync run finished: %d synced, %d failed", result.SuccessCount, result.FailedCount)

	w.publish(ctx, SyncEvent{
		Provider:     req.Provider,
		Scope:        string(scope),
		SuccessCount: result.SuccessCount,
		FailedCount:  result.FailedCount,
		Errors:       result.Errors,
		Timestamp:    time.Now().UTC(),
	})

	if pruned, err := w.syncLog.Prune(ctx, w.config.SyncLogRetention); err != nil {
		w.logger.Warn("Failed to prune sync log: %v", err)
	} else if pruned > 0 {
		w.logger.Debug("Pruned %d sync log entries", pruned)
	}
}

func (w *Worker) publish(ctx context.Context, event SyncEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		w.logger.Error("Failed to marshal sync event: %v", err)
		return
	}
	writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := w.writer.WriteMessages(writeCtx, kafka.Message{Value: data}); err != nil {
		w.logger.Error("Failed to publish sync event: %v", err)
	}
}

func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	w.reader.Close()
	w.writer.Close()
}
