package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/git-seb/rental-sync-engine/internal/models"
)

// SyncLog records every sync operation for operator review. Recording is
// best effort from the caller's point of view; a failed audit write must
// never fail the sync that produced it.
type SyncLog struct {
	db *gorm.DB
}

func NewSyncLog(db *gorm.DB) *SyncLog {
	return &SyncLog{db: db}
}

// Record appends one entry. context carries structured detail (counts, ids,
// error text) and is stored as JSON.
func (l *SyncLog) Record(ctx context.Context, provider string, syncType models.SyncType, outcome models.SyncOutcome, message string, detail map[string]any) error {
	entry := models.SyncLogEntry{
		Provider: provider,
		SyncType: syncType,
		Outcome:  outcome,
		Message:  message,
	}
	if len(detail) > 0 {
		data, err := json.Marshal(detail)
		if err != nil {
			return fmt.Errorf("failed to marshal log context: %w", err)
		}
		entry.Context = string(data)
	}
	if err := l.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to record sync log entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries, optionally filtered by provider and
// sync type. limit <= 0 defaults to 100.
func (l *SyncLog) Recent(ctx context.Context, provider string, syncType models.SyncType, limit int) ([]models.SyncLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	q := l.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if provider != "" {
		q = q.Where("provider = ?", provider)
	}
	if syncType != "" {
		q = q.Where("sync_type = ?", syncType)
	}
	var entries []models.SyncLogEntry
	if err := q.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list sync log entries: %w", err)
	}
	return entries, nil
}

// Prune deletes entries older than the retention window and returns how many
// rows went away.
func (l *SyncLog) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	result := l.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.SyncLogEntry{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune sync log: %w", result.Error)
	}
	return result.RowsAffected, nil
}
