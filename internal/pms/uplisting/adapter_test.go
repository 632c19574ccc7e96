package uplisting

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
	"github.com/git-seb/rental-sync-engine/internal/models"
	"github.com/git-seb/rental-sync-engine/internal/pms"
)

func newTestAdapter(baseURL string) *Adapter {
	return New(config.ProviderConfig{
		BaseURL:       baseURL,
		APIToken:      "api-token",
		WebhookSecret: "wh-secret",
	}, pms.ClientOptions{Timeout: 5 * time.Second})
}

func TestNormalizeListing(t *testing.T) {
	adapter := newTestAdapter("http://unused")

	t.Run("full record", func(t *testing.T) {
		listing := adapter.NormalizeListing(map[string]any{
			"id":             "lst-1",
			"name":           "City Loft",
			"address_line_1": "12 High St",
			"city":           "Bristol",
			"postcode":       "BS1 4ST",
			"country_code":   "GB",
			"bedrooms":       float64(1),
			"max_guests":     float64(2),
			"pricing": map[string]any{
				"base_price": float64(95),
				"currency":   "GBP",
			},
		})

		assert.Equal(t, "lst-1", listing.ID)
		assert.Equal(t, "12 High St", listing.Address.Street)
		assert.Equal(t, "GB", listing.Address.Country)
		assert.Equal(t, 2, listing.MaxGuests)
		assert.Equal(t, "95.00", listing.Pricing.BasePrice.StringFixed(2))
		assert.Equal(t, "GBP", listing.Pricing.Currency)
	})

	t.Run("empty record gets defaults", func(t *testing.T) {
		listing := adapter.NormalizeListing(map[string]any{})
		assert.Equal(t, "USD", listing.Pricing.Currency)
		assert.True(t, listing.Pricing.BasePrice.IsZero())
	})
}

func TestNormalizeBooking(t *testing.T) {
	adapter := newTestAdapter("http://unused")

	t.Run("missing checkout flagged invalid", func(t *testing.T) {
		booking := adapter.NormalizeBooking(map[string]any{
			"id":            "bk-1",
			"check_in_date": "2026-10-01",
		})
		assert.True(t, booking.Invalid)
		assert.Contains(t, booking.InvalidReason, "missing")
	})

	t.Run("empty record gets defaults", func(t *testing.T) {
		booking := adapter.NormalizeBooking(map[string]any{})
		assert.Equal(t, 1, booking.NumberOfGuests)
		assert.True(t, booking.TotalAmount.IsZero())
		assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
		assert.True(t, booking.Invalid)
	})

	t.Run("cancelled status mapped", func(t *testing.T) {
		booking := adapter.NormalizeBooking(map[string]any{
			"id":             "bk-2",
			"status":         "canceled",
			"check_in_date":  "2026-10-01",
			"check_out_date": "2026-10-05",
		})
		assert.Equal(t, models.BookingStatusCancelled, booking.Status)
		assert.False(t, booking.Invalid)
	})
}

func TestFetchListingsUnwrapsDataEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer api-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{"data": []any{
			map[string]any{"id": "lst-1"},
		}})
	}))
	defer server.Close()

	adapter := newTestAdapter(server.URL)
	listings, err := adapter.FetchListings(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "lst-1", listings[0]["id"])
}
