package pms

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/git-seb/rental-sync-engine/internal/models"
)

// BookingWindow bounds a booking pull by arrival date.
type BookingWindow struct {
	From time.Time
	To   time.Time
}

// Adapter is the capability set every PMS integration implements. Fetch
// operations return raw provider records; Normalize functions are pure,
// never fail, and substitute documented defaults for missing fields.
// Adapters hold no mutable sync state.
type Adapter interface {
	Name() string

	FetchListings(ctx context.Context) ([]map[string]any, error)
	FetchListing(ctx context.Context, listingID string) (map[string]any, error)
	FetchAvailability(ctx context.Context, listingID string, from, to time.Time) (map[string]any, error)

	FetchBookings(ctx context.Context, window BookingWindow) ([]map[string]any, error)
	FetchBooking(ctx context.Context, bookingID string) (map[string]any, error)
	CreateBooking(ctx context.Context, booking models.Booking) (models.Booking, error)
	UpdateBooking(ctx context.Context, bookingID string, booking models.Booking) (models.Booking, error)
	CancelBooking(ctx context.Context, bookingID string) error

	NormalizeListing(raw map[string]any) models.Listing
	NormalizeBooking(raw map[string]any) models.Booking

	// SignatureHeader names the HTTP header the provider delivers its
	// webhook signature in.
	SignatureHeader() string
	VerifyWebhookSignature(body []byte, signature string) bool
}

// Registry is the name -> adapter table built at startup from enabled
// provider configuration. It is read-only after construction.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

func (r *Registry) Register(a Adapter) {
	r.adapters[a.Name()] = a
}

// Get returns the adapter for a provider name, or an error when the provider
// is not configured or enabled.
func (r *Registry) Get(name string) (Adapter, error) {
	a, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
	return a, nil
}

// Names returns the registered provider names, sorted for deterministic
// pass ordering in logs and results.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Len() int { return len(r.adapters) }
