package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SyncType string

const (
	SyncTypeListing      SyncType = "listing"
	SyncTypeAvailability SyncType = "availability"
	SyncTypeBooking      SyncType = "booking"
	SyncTypeWebhook      SyncType = "webhook"
)

type SyncOutcome string

const (
	SyncOutcomeSuccess SyncOutcome = "success"
	SyncOutcomeError   SyncOutcome = "error"
	SyncOutcomeWarning SyncOutcome = "warning"
)

// SyncLogEntry is one row of the append-only sync audit log. Entries are
// pruned by age, never by content.
type SyncLogEntry struct {
	ID        string      `json:"id" gorm:"type:uuid;primary_key"`
	Provider  string      `json:"provider" gorm:"index"`
	SyncType  SyncType    `json:"sync_type" gorm:"not null"`
	Outcome   SyncOutcome `json:"outcome" gorm:"not null"`
	Message   string      `json:"message"`
	Context   string      `json:"context" gorm:"type:text"`
	CreatedAt time.Time   `json:"created_at" gorm:"index"`
}

func (e *SyncLogEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}
