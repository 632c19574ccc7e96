package nextpax

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
		APIKey:        "nextpax-key",
		WebhookSecret: "wh-secret",
	}, pms.ClientOptions{Timeout: 5 * time.Second})
}

func TestNormalizeListing(t *testing.T) {
	adapter := newTestAdapter("http://unused")

	t.Run("full record", func(t *testing.T) {
		listing := adapter.NormalizeListing(map[string]any{
			"id":            "np-12",
			"title":         "Alpine Chalet",
			"street":        "8 Bergweg",
			"city":          "Innsbruck",
			"region":        "Tirol",
			"postal_code":   "6020",
			"country":       "AT",
			"bedrooms":      float64(4),
			"max_occupancy": float64(8),
			"rates": map[string]any{
				"nightly_rate": float64(240),
				"currency":     "EUR",
			},
		})

		assert.Equal(t, "np-12", listing.ID)
		assert.Equal(t, "Alpine Chalet", listing.Name)
		assert.Equal(t, "Tirol", listing.Address.State)
		assert.Equal(t, 8, listing.MaxGuests)
		assert.Equal(t, "240.00", listing.Pricing.BasePrice.StringFixed(2))
		assert.Equal(t, "EUR", listing.Pricing.Currency)
	})

	t.Run("empty record gets defaults", func(t *testing.T) {
		listing := adapter.NormalizeListing(map[string]any{})
		assert.Equal(t, "USD", listing.Pricing.Currency)
		assert.True(t, listing.Pricing.BasePrice.IsZero())
	})
}

func TestNormalizeBooking(t *testing.T) {
	adapter := newTestAdapter("http://unused")

	t.Run("flat record", func(t *testing.T) {
		booking := adapter.NormalizeBooking(map[string]any{
			"id":            "bk-3",
			"property_id":   "np-12",
			"status":        "cancelled",
			"checkin_date":  "2026-12-20",
			"checkout_date": "2026-12-27",
			"guest_name":    "Jonas Berg",
			"guest_email":   "jonas@example.com",
			"total":         float64(1680),
			"currency":      "EUR",
			"guests":        float64(5),
		})

		assert.Equal(t, "bk-3", booking.ID)
		assert.Equal(t, "np-12", booking.ListingID)
		assert.Equal(t, models.BookingStatusCancelled, booking.Status)
		assert.Equal(t, "Jonas Berg", booking.GuestName)
		assert.Equal(t, 5, booking.NumberOfGuests)
		assert.False(t, booking.Invalid)
	})

	t.Run("empty record gets defaults", func(t *testing.T) {
		booking := adapter.NormalizeBooking(map[string]any{})
		assert.Equal(t, 1, booking.NumberOfGuests)
		assert.True(t, booking.TotalAmount.IsZero())
		assert.True(t, booking.Invalid)
	})
}

func TestFetchListingsUnwrapsPropertiesEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "nextpax-key", r.Header.Get("X-API-KEY"))
		json.NewEncoder(w).Encode(map[string]any{"properties": []any{
			map[string]any{"id": "np-12"},
		}})
	}))
	defer server.Close()

	adapter := newTestAdapter(server.URL)
	listings, err := adapter.FetchListings(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "np-12", listings[0]["id"])
}

func TestFetchBookingReturnsUnwrappedRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bookings/bk-3", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"id": "bk-3", "status": "confirmed"})
	}))
	defer server.Close()

	adapter := newTestAdapter(server.URL)
	raw, err := adapter.FetchBooking(context.Background(), "bk-3")
	require.NoError(t, err)
	assert.Equal(t, "bk-3", raw["id"])
}
