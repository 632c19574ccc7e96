package ownerrez

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/git-seb/rental-sync-engine/internal/config"
	"github.com/git-seb/rental-sync-engine/internal/pms"
)

func newTestAdapter(baseURL string) *Adapter {
	return New(config.ProviderConfig{
		BaseURL:       baseURL,
		Username:      "owner@example.com",
		APIToken:      "api-token",
		WebhookSecret: "wh-secret",
	}, pms.ClientOptions{Timeout: 5 * time.Second})
}

func TestNormalizeListing(t *testing.T) {
	adapter := newTestAdapter("http://unused")

	t.Run("nested address and rates", func(t *testing.T) {
		listing := adapter.NormalizeListing(map[string]any{
			"id":   float64(7),
			"name": "Lake Cabin",
			"address": map[string]any{
				"addressLine1": "5 Pine Rd",
				"city":         "Tahoe",
				"state":        "CA",
				"postalCode":   "96145",
				"country":      "US",
			},
			"maxOccupancy": float64(6),
			"rates": map[string]any{
				"nightly":  float64(310),
				"currency": "USD",
			},
		})

		assert.Equal(t, "7", listing.ID)
		assert.Equal(t, "5 Pine Rd", listing.Address.Street)
		assert.Equal(t, "96145", listing.Address.Zip)
		assert.Equal(t, 6, listing.MaxGuests)
		assert.Equal(t, "310.00", listing.Pricing.BasePrice.StringFixed(2))
	})

	t.Run("empty record gets defaults", func(t *testing.T) {
		listing := adapter.NormalizeListing(map[string]any{})
		assert.Equal(t, "USD", listing.Pricing.Currency)
		assert.Equal(t, 0, listing.MaxGuests)
	})
}

func TestNormalizeBooking(t *testing.T) {
	adapter := newTestAdapter("http://unused")

	booking := adapter.NormalizeBooking(map[string]any{
		"id":          float64(900),
		"propertyId":  float64(7),
		"status":      "active",
		"arrival":     "2026-11-20",
		"departure":   "2026-11-25",
		"guestName":   "Kim Lee",
		"totalAmount": float64(1550),
	})

	assert.Equal(t, "900", booking.ID)
	assert.Equal(t, "7", booking.ListingID)
	assert.Equal(t, 1, booking.NumberOfGuests)
	assert.False(t, booking.Invalid)
}

func TestFetchListingsSendsAccountHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer api-token", r.Header.Get("Authorization"))
		assert.Equal(t, "owner@example.com", r.Header.Get("X-OwnerRez-Username"))
		json.NewEncoder(w).Encode(map[string]any{"items": []any{
			map[string]any{"id": float64(7)},
		}})
	}))
	defer server.Close()

	adapter := newTestAdapter(server.URL)
	listings, err := adapter.FetchListings(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 1)
}
