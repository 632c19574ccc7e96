package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is the commerce-store catalog record a synced listing becomes.
// Listing attributes the storefront does not query directly are kept as a
// JSON snapshot in ListingData.
type Product struct {
	ID           string          `json:"id" gorm:"type:uuid;primary_key"`
	Name         string          `json:"name" gorm:"not null"`
	Description  string          `json:"description"`
	City         string          `json:"city"`
	Country      string          `json:"country"`
	Bedrooms     int             `json:"bedrooms"`
	Bathrooms    float64         `json:"bathrooms"`
	MaxGuests    int             `json:"max_guests"`
	BasePrice    decimal.Decimal `json:"base_price" gorm:"type:decimal(10,2)"`
	Currency     string          `json:"currency" gorm:"default:USD"`
	InStock      bool            `json:"in_stock" gorm:"default:true"`
	ListingData  string          `json:"listing_data" gorm:"type:text"`
	Availability string          `json:"availability" gorm:"type:text"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// Order is the commerce-store order record a synced or guest-created booking
// becomes. It is the source of truth for the guest-facing transaction.
type Order struct {
	ID             string          `json:"id" gorm:"type:uuid;primary_key"`
	ProductID      string          `json:"product_id" gorm:"index"`
	Status         BookingStatus   `json:"status" gorm:"default:pending"`
	CheckIn        time.Time       `json:"check_in"`
	CheckOut       time.Time       `json:"check_out"`
	GuestName      string          `json:"guest_name"`
	GuestEmail     string          `json:"guest_email"`
	TotalAmount    decimal.Decimal `json:"total_amount" gorm:"type:decimal(10,2)"`
	Currency       string          `json:"currency" gorm:"default:USD"`
	NumberOfGuests int             `json:"number_of_guests" gorm:"default:1"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	return nil
}
