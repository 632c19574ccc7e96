package hostaway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
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
		APIKey:        "client-id",
		APISecret:     "client-secret",
		WebhookSecret: "wh-secret",
	}, pms.ClientOptions{Timeout: 5 * time.Second})
}

func TestNormalizeListing(t *testing.T) {
	adapter := newTestAdapter("http://unused")

	t.Run("full record", func(t *testing.T) {
		listing := adapter.NormalizeListing(map[string]any{
			"id":           float64(101),
			"name":         "Beach House",
			"description":  "Steps from the sand",
			"address":      "1 Shore Dr",
			"city":         "Santa Cruz",
			"state":        "CA",
			"zipcode":      "95060",
			"countryCode":  "US",
			"bedrooms":     float64(3),
			"bathrooms":    2.5,
			"accommodates": float64(8),
			"amenities":    []any{"wifi", "parking"},
			"price":        249.50,
			"currency":     "EUR",
		})

		assert.Equal(t, "101", listing.ID)
		assert.Equal(t, "Beach House", listing.Name)
		assert.Equal(t, "Santa Cruz", listing.Address.City)
		assert.Equal(t, 3, listing.Bedrooms)
		assert.Equal(t, 2.5, listing.Bathrooms)
		assert.Equal(t, 8, listing.MaxGuests)
		assert.Equal(t, []string{"wifi", "parking"}, listing.Amenities)
		assert.Equal(t, "249.50", listing.Pricing.BasePrice.StringFixed(2))
		assert.Equal(t, "EUR", listing.Pricing.Currency)
	})

	t.Run("empty record gets defaults", func(t *testing.T) {
		listing := adapter.NormalizeListing(map[string]any{})
		assert.Equal(t, "", listing.ID)
		assert.Equal(t, 0, listing.Bedrooms)
		assert.Equal(t, "USD", listing.Pricing.Currency)
		assert.True(t, listing.Pricing.BasePrice.IsZero())
	})
}

func TestNormalizeBooking(t *testing.T) {
	adapter := newTestAdapter("http://unused")

	t.Run("full record", func(t *testing.T) {
		booking := adapter.NormalizeBooking(map[string]any{
			"id":             float64(555),
			"listingId":      float64(101),
			"status":         "new",
			"arrivalDate":    "2026-09-10",
			"departureDate":  "2026-09-14",
			"guestName":      "Pat Jones",
			"guestEmail":     "pat@example.com",
			"totalPrice":     998.00,
			"numberOfGuests": float64(4),
		})

		assert.Equal(t, "555", booking.ID)
		assert.Equal(t, "101", booking.ListingID)
		assert.Equal(t, models.BookingStatusPending, booking.Status)
		assert.Equal(t, 4, booking.NumberOfGuests)
		assert.False(t, booking.Invalid)
	})

	t.Run("empty record gets defaults and invalid flag", func(t *testing.T) {
		booking := adapter.NormalizeBooking(map[string]any{})
		assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
		assert.Equal(t, 1, booking.NumberOfGuests)
		assert.True(t, booking.TotalAmount.IsZero())
		assert.True(t, booking.Invalid)
		assert.Contains(t, booking.InvalidReason, "missing check-in and check-out")
	})

	t.Run("reversed dates flagged invalid", func(t *testing.T) {
		booking := adapter.NormalizeBooking(map[string]any{
			"id":            "b1",
			"arrivalDate":   "2026-09-14",
			"departureDate": "2026-09-10",
		})
		assert.True(t, booking.Invalid)
	})
}

func TestFetchListingsUnwrapsResultEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/accessTokens" {
			json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
			return
		}
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{"result": []any{
			map[string]any{"id": float64(1), "name": "A"},
			map[string]any{"id": float64(2), "name": "B"},
		}})
	}))
	defer server.Close()

	adapter := newTestAdapter(server.URL)
	listings, err := adapter.FetchListings(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, "A", listings[0]["name"])
}

func TestTokenSourceCachesAndInvalidates(t *testing.T) {
	var tokenCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/accessTokens", r.URL.Path)
		atomic.AddInt32(&tokenCalls, 1)
		json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
	}))
	defer server.Close()

	ts := newTokenSource(server.URL, "id", "secret", 5*time.Second)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		headers, err := ts.Headers(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Bearer tok", headers["Authorization"])
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls))

	ts.Invalidate()
	_, err := ts.Headers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&tokenCalls))
}

func TestVerifyWebhookSignature(t *testing.T) {
	adapter := newTestAdapter("http://unused")
	body := []byte(`{"event":"reservation.created"}`)

	assert.True(t, adapter.VerifyWebhookSignature(body, pms.Sign(body, "wh-secret")))
	assert.False(t, adapter.VerifyWebhookSignature(body, pms.Sign(body, "wrong")))
	assert.Equal(t, "X-Hostaway-Signature", adapter.SignatureHeader())
}
