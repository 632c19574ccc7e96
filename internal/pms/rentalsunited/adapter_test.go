package rentalsunited

import (
	"context"
	"io"
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
		Username:      "account",
		Password:      "pa<ss&word",
		WebhookSecret: "wh-secret",
	}, pms.ClientOptions{Timeout: 5 * time.Second})
}

func TestRequestDocument(t *testing.T) {
	adapter := newTestAdapter("http://unused")

	doc := adapter.request("Pull_ListSpecProp_RQ", map[string]string{
		"PropertyID": "42",
	})

	assert.Contains(t, doc, "<Pull_ListSpecProp_RQ>")
	assert.Contains(t, doc, "<UserName>account</UserName>")
	assert.Contains(t, doc, "<PropertyID>42</PropertyID>")
	// credentials with XML metacharacters must be escaped
	assert.Contains(t, doc, "<Password>pa&lt;ss&amp;word</Password>")
	assert.NotContains(t, doc, "pa<ss&word")
}

func TestFetchListingsParsesXML(t *testing.T) {
	var received string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received = string(body)
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(`<Pull_ListOwnerProp_RS>
			<Properties>
				<Property>
					<PropertyID>42</PropertyID>
					<PropertyName>Villa Sol</PropertyName>
				</Property>
				<Property>
					<PropertyID>43</PropertyID>
					<PropertyName>Villa Mar</PropertyName>
				</Property>
			</Properties>
		</Pull_ListOwnerProp_RS>`))
	}))
	defer server.Close()

	adapter := newTestAdapter(server.URL)
	listings, err := adapter.FetchListings(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Contains(t, received, "<Pull_ListOwnerProp_RQ>")

	listing := adapter.NormalizeListing(listings[0])
	assert.Equal(t, "42", listing.ID)
	assert.Equal(t, "Villa Sol", listing.Name)
}

func TestFetchListingsSingleProperty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(`<Pull_ListOwnerProp_RS><Properties><Property><PropertyID>42</PropertyID></Property></Properties></Pull_ListOwnerProp_RS>`))
	}))
	defer server.Close()

	adapter := newTestAdapter(server.URL)
	listings, err := adapter.FetchListings(context.Background())
	require.NoError(t, err)
	// single child must still come back as a one-element list
	require.Len(t, listings, 1)
}

func TestNormalizeBooking(t *testing.T) {
	adapter := newTestAdapter("http://unused")

	t.Run("full record", func(t *testing.T) {
		booking := adapter.NormalizeBooking(map[string]any{
			"ReservationID":  "r-9",
			"PropertyID":     "42",
			"Status":         "cancelled",
			"DateFrom":       "2026-12-01",
			"DateTo":         "2026-12-08",
			"GuestName":      "Ana Ruiz",
			"TotalPrice":     "840.00",
			"Currency":       "EUR",
			"NumberOfGuests": "5",
		})

		assert.Equal(t, "r-9", booking.ID)
		assert.Equal(t, "42", booking.ListingID)
		assert.Equal(t, models.BookingStatusCancelled, booking.Status)
		assert.Equal(t, "840.00", booking.TotalAmount.StringFixed(2))
		assert.Equal(t, "EUR", booking.Currency)
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

func TestNormalizeListingXMLShapes(t *testing.T) {
	adapter := newTestAdapter("http://unused")

	listing := adapter.NormalizeListing(map[string]any{
		"PropertyID":   "42",
		"PropertyName": "Villa Sol",
		"Street":       "Calle 9",
		"City":         "Valencia",
		"CountryCode":  "ES",
		"Bedrooms":     "4",
		"MaxGuests":    "8",
		"Amenities": map[string]any{
			"Amenity": []any{"wifi", "pool"},
		},
		"Images": map[string]any{
			"Image": map[string]any{"#text": "https://img.test/1.jpg"},
		},
	})

	assert.Equal(t, "42", listing.ID)
	assert.Equal(t, 4, listing.Bedrooms)
	assert.Equal(t, []string{"wifi", "pool"}, listing.Amenities)
	assert.Equal(t, []string{"https://img.test/1.jpg"}, listing.Images)
	assert.Equal(t, "ES", listing.Address.Country)
}
