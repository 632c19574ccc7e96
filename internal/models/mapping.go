package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListingMapping links a provider listing to the local commerce product it
// was synced into. Rows are unique on (provider, provider_listing_id) and are
// never deleted; disabling sync keeps the history intact.
type ListingMapping struct {
	ID                string    `json:"id" gorm:"type:uuid;primary_key"`
	Provider          string    `json:"provider" gorm:"not null;uniqueIndex:idx_listing_mappings_provider_record,priority:1"`
	ProviderListingID string    `json:"provider_listing_id" gorm:"not null;uniqueIndex:idx_listing_mappings_provider_record,priority:2"`
	LocalProductID    string    `json:"local_product_id" gorm:"not null;index"`
	SyncEnabled       bool      `json:"sync_enabled" gorm:"default:true"`
	LastSynced        time.Time `json:"last_synced"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (m *ListingMapping) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// BookingMapping links a provider booking to the local order created for it.
// The row is the sole defense against duplicate order creation when the same
// booking arrives through both a polling pass and a webhook.
type BookingMapping struct {
	ID                string        `json:"id" gorm:"type:uuid;primary_key"`
	Provider          string        `json:"provider" gorm:"not null;uniqueIndex:idx_booking_mappings_provider_record,priority:1"`
	ProviderBookingID string        `json:"provider_booking_id" gorm:"not null;uniqueIndex:idx_booking_mappings_provider_record,priority:2"`
	LocalOrderID      string        `json:"local_order_id" gorm:"not null;index"`
	Status            BookingStatus `json:"status" gorm:"default:confirmed"`
	BookingData       string        `json:"booking_data" gorm:"type:text"`
	SyncEnabled       bool          `json:"sync_enabled" gorm:"default:true"`
	LastSynced        time.Time     `json:"last_synced"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

func (m *BookingMapping) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}
