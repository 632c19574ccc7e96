package models

import (
	"github.com/shopspring/decimal"
)

// Listing is the normalized property record shared by every PMS adapter.
// It is an immutable snapshot, rebuilt in full on every pull.
type Listing struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Address     Address  `json:"address"`
	Bedrooms    int      `json:"bedrooms"`
	Bathrooms   float64  `json:"bathrooms"`
	MaxGuests   int      `json:"max_guests"`
	Amenities   []string `json:"amenities"`
	Images      []string `json:"images"`
	Pricing     Pricing  `json:"pricing"`
}

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

type Pricing struct {
	BasePrice decimal.Decimal `json:"base_price"`
	Currency  string          `json:"currency"`
}
