package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// ParseBookingStatus maps the status strings the PMS platforms emit onto the
// normalized enum. Unknown values default to confirmed, matching how the
// platforms report reservations that made it onto the calendar.
func ParseBookingStatus(raw string) BookingStatus {
	switch raw {
	case "pending", "new", "inquiry", "awaiting_payment":
		return BookingStatusPending
	case "cancelled", "canceled", "declined", "expired":
		return BookingStatusCancelled
	case "completed", "checked_out", "departed":
		return BookingStatusCompleted
	default:
		return BookingStatusConfirmed
	}
}

// Booking is the normalized reservation record. Invalid is set by adapter
// normalization instead of returning an error, so a bad record can be
// skipped and logged without aborting the batch it arrived in.
type Booking struct {
	ID             string          `json:"id"`
	ListingID      string          `json:"listing_id"`
	Status         BookingStatus   `json:"status"`
	CheckIn        time.Time       `json:"check_in"`
	CheckOut       time.Time       `json:"check_out"`
	GuestName      string          `json:"guest_name"`
	GuestEmail     string          `json:"guest_email"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Currency       string          `json:"currency"`
	NumberOfGuests int             `json:"number_of_guests"`
	Invalid        bool            `json:"invalid,omitempty"`
	InvalidReason  string          `json:"invalid_reason,omitempty"`
}

// Validate flags the date-order and missing-date conditions. Adapters call
// this at the end of NormalizeBooking; it never panics or errors.
func (b *Booking) Validate() {
	switch {
	case b.CheckIn.IsZero() && b.CheckOut.IsZero():
		b.Invalid = true
		b.InvalidReason = "missing check-in and check-out dates"
	case b.CheckIn.IsZero() || b.CheckOut.IsZero():
		b.Invalid = true
		b.InvalidReason = "missing check-in or check-out date"
	case !b.CheckIn.Before(b.CheckOut):
		b.Invalid = true
		b.InvalidReason = "check-in is not before check-out"
	}
}
