package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/git-seb/rental-sync-engine/internal/commerce"
	"github.com/git-seb/rental-sync-engine/internal/config"
	"github.com/git-seb/rental-sync-engine/internal/database"
	"github.com/git-seb/rental-sync-engine/internal/logger"
	"github.com/git-seb/rental-sync-engine/internal/models"
	"github.com/git-seb/rental-sync-engine/internal/pms"
	"github.com/git-seb/rental-sync-engine/internal/store"
	syncer "github.com/git-seb/rental-sync-engine/internal/sync"
)

const webhookSecret = "wh-secret"

// scriptedAdapter serves canned records for the webhook dispatch paths.
type scriptedAdapter struct {
	listings map[string]map[string]any
	bookings map[string]map[string]any
}

func (s *scriptedAdapter) Name() string { return "scripted" }

func (s *scriptedAdapter) FetchListings(ctx context.Context) ([]map[string]any, error) {
	return nil, nil
}

func (s *scriptedAdapter) FetchListing(ctx context.Context, listingID string) (map[string]any, error) {
	if raw, ok := s.listings[listingID]; ok {
		return raw, nil
	}
	return nil, &pms.RemoteError{Provider: "scripted", Status: 404, Body: "not found"}
}

func (s *scriptedAdapter) FetchAvailability(ctx context.Context, listingID string, from, to time.Time) (map[string]any, error) {
	return map[string]any{}, nil
}

func (s *scriptedAdapter) FetchBookings(ctx context.Context, window pms.BookingWindow) ([]map[string]any, error) {
	return nil, nil
}

func (s *scriptedAdapter) FetchBooking(ctx context.Context, bookingID string) (map[string]any, error) {
	if raw, ok := s.bookings[bookingID]; ok {
		return raw, nil
	}
	return nil, &pms.RemoteError{Provider: "scripted", Status: 404, Body: "not found"}
}

func (s *scriptedAdapter) CreateBooking(ctx context.Context, booking models.Booking) (models.Booking, error) {
	booking.ID = "remote-1"
	return booking, nil
}

func (s *scriptedAdapter) UpdateBooking(ctx context.Context, bookingID string, booking models.Booking) (models.Booking, error) {
	booking.ID = bookingID
	return booking, nil
}

func (s *scriptedAdapter) CancelBooking(ctx context.Context, bookingID string) error { return nil }

func (s *scriptedAdapter) NormalizeListing(raw map[string]any) models.Listing {
	if raw == nil {
		raw = map[string]any{}
	}
	return models.Listing{
		ID:   pms.StringField(raw, "id"),
		Name: pms.StringField(raw, "name"),
		Pricing: models.Pricing{
			BasePrice: pms.DecimalField(raw, "price"),
			Currency:  "USD",
		},
	}
}

func (s *scriptedAdapter) NormalizeBooking(raw map[string]any) models.Booking {
	if raw == nil {
		raw = map[string]any{}
	}
	booking := models.Booking{
		ID:             pms.StringField(raw, "id"),
		ListingID:      pms.StringField(raw, "listing_id"),
		Status:         models.ParseBookingStatus(pms.StringField(raw, "status")),
		CheckIn:        pms.DateField(raw, "check_in"),
		CheckOut:       pms.DateField(raw, "check_out"),
		GuestName:      pms.StringField(raw, "guest_name"),
		Currency:       "USD",
		NumberOfGuests: 1,
	}
	booking.Validate()
	return booking
}

func (s *scriptedAdapter) SignatureHeader() string { return "X-Signature" }

func (s *scriptedAdapter) VerifyWebhookSignature(body []byte, signature string) bool {
	return pms.VerifySignature(body, signature, webhookSecret)
}

type webhookEnv struct {
	router *gin.Engine
	db     *database.Database
}

func newWebhookEnv(t *testing.T, adapter pms.Adapter) *webhookEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.New("sqlite://" + filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	registry := pms.NewRegistry()
	registry.Register(adapter)

	log := logger.New("error")
	mappings := store.NewMappingStore(db.DB)
	syncLog := store.NewSyncLog(db.DB)
	cfg := &config.Config{
		RequestTimeout:      5 * time.Second,
		AvailabilityHorizon: 365 * 24 * time.Hour,
		BookingLookback:     30 * 24 * time.Hour,
		BookingLookahead:    365 * 24 * time.Hour,
	}
	orchestrator := syncer.NewOrchestrator(registry, mappings, commerce.NewGormStore(db.DB), syncLog, cfg, log)

	router := gin.New()
	handler := NewWebhookHandler(registry, orchestrator, syncLog, log)
	router.POST("/webhook/:provider", handler.Receive)

	return &webhookEnv{router: router, db: db}
}

func (e *webhookEnv) post(provider string, body []byte, sign bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook/"+provider, bytes.NewReader(body))
	if sign {
		req.Header.Set("X-Signature", pms.Sign(body, webhookSecret))
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *webhookEnv) orderCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.DB.Model(&models.Order{}).Count(&n).Error)
	return n
}

func TestWebhookRejections(t *testing.T) {
	env := newWebhookEnv(t, &scriptedAdapter{})

	t.Run("unknown provider returns 404", func(t *testing.T) {
		rec := env.post("nobody", []byte(`{}`), true)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing signature returns 401", func(t *testing.T) {
		rec := env.post("scripted", []byte(`{"event":"booking.created"}`), false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("tampered body returns 401", func(t *testing.T) {
		body := []byte(`{"event":"booking.created","booking_id":"b-1"}`)
		req := httptest.NewRequest(http.MethodPost, "/webhook/scripted", bytes.NewReader(body))
		req.Header.Set("X-Signature", pms.Sign([]byte(`something else`), webhookSecret))
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed payload returns 400", func(t *testing.T) {
		rec := env.post("scripted", []byte(`{not json`), true)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unclassifiable payload returns 422", func(t *testing.T) {
		rec := env.post("scripted", []byte(`{"something":"else"}`), true)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestWebhookBookingLifecycle(t *testing.T) {
	adapter := &scriptedAdapter{
		bookings: map[string]map[string]any{
			"b-1": {
				"id":         "b-1",
				"status":     "confirmed",
				"check_in":   "2026-10-01",
				"check_out":  "2026-10-05",
				"guest_name": "Sam Field",
			},
		},
	}
	env := newWebhookEnv(t, adapter)

	created := []byte(`{"event":"booking.created","booking_id":"b-1"}`)

	rec := env.post("scripted", created, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
	assert.EqualValues(t, 1, env.orderCount(t))

	t.Run("duplicate delivery does not duplicate the order", func(t *testing.T) {
		rec := env.post("scripted", created, true)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.EqualValues(t, 1, env.orderCount(t))
	})

	t.Run("cancellation updates the order and keeps it", func(t *testing.T) {
		rec := env.post("scripted", []byte(`{"event":"booking.cancelled","booking_id":"b-1"}`), true)
		require.Equal(t, http.StatusOK, rec.Code)

		var orders []models.Order
		require.NoError(t, env.db.DB.Find(&orders).Error)
		require.Len(t, orders, 1)
		assert.Equal(t, models.BookingStatusCancelled, orders[0].Status)
	})
}

func TestWebhookListingUpdate(t *testing.T) {
	adapter := &scriptedAdapter{
		listings: map[string]map[string]any{
			"L1": {"id": "L1", "name": "Loft", "price": "99"},
		},
	}
	env := newWebhookEnv(t, adapter)

	rec := env.post("scripted", []byte(`{"event":"listing.updated","listing_id":"L1"}`), true)
	require.Equal(t, http.StatusOK, rec.Code)

	var products []models.Product
	require.NoError(t, env.db.DB.Find(&products).Error)
	require.Len(t, products, 1)
	assert.Equal(t, "Loft", products[0].Name)
}

func TestWebhookStructuralInference(t *testing.T) {
	adapter := &scriptedAdapter{
		bookings: map[string]map[string]any{
			"b-2": {
				"id":        "b-2",
				"check_in":  "2026-11-01",
				"check_out": "2026-11-03",
			},
		},
	}
	env := newWebhookEnv(t, adapter)

	// no event key at all: the reservation_id key implies a booking event
	rec := env.post("scripted", []byte(`{"reservation_id":"b-2"}`), true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, env.orderCount(t))
}

func TestClassifyEvent(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		want    string
	}{
		{"dotted event", map[string]any{"event": "booking.created"}, eventBookingCreated},
		{"reservation cancel", map[string]any{"event": "reservation_cancelled"}, eventBookingCancelled},
		{"type key", map[string]any{"type": "listing.updated"}, eventListingUpdated},
		{"action key", map[string]any{"action": "calendar_changed"}, eventAvailabilityUpdated},
		{"event wins over type", map[string]any{"event": "booking.updated", "type": "listing.updated"}, eventBookingUpdated},
		{"structural booking", map[string]any{"booking": map[string]any{"id": "b"}}, eventBookingUpdated},
		{"structural listing", map[string]any{"property_id": "L1"}, eventListingUpdated},
		{"unknown", map[string]any{"ping": "pong"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyEvent(tt.payload))
		})
	}
}
