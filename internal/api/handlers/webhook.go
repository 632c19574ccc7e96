package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/git-seb/rental-sync-engine/internal/logger"
	"github.com/git-seb/rental-sync-engine/internal/models"
	"github.com/git-seb/rental-sync-engine/internal/pms"
	"github.com/git-seb/rental-sync-engine/internal/store"
	syncer "github.com/git-seb/rental-sync-engine/internal/sync"
)

// webhook event types after classification.
const (
	eventBookingCreated      = "booking_created"
	eventBookingUpdated      = "booking_updated"
	eventBookingCancelled    = "booking_cancelled"
	eventListingUpdated      = "listing_updated"
	eventAvailabilityUpdated = "availability_updated"
)

type WebhookHandler struct {
	registry     *pms.Registry
	orchestrator *syncer.Orchestrator
	syncLog      *store.SyncLog
	logger       *logger.Logger
}

func NewWebhookHandler(registry *pms.Registry, orchestrator *syncer.Orchestrator, syncLog *store.SyncLog, logger *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		registry:     registry,
		orchestrator: orchestrator,
		syncLog:      syncLog,
		logger:       logger.WithPrefix("WEBHOOK"),
	}
}

// Receive handles POST /webhook/:provider. The pipeline is provider lookup,
// signature verification, JSON parse, event classification, then dispatch to
// a single-record sync operation. A webhook never triggers a full
// reconciliation.
func (h *WebhookHandler) Receive(c *gin.Context) {
	provider := c.Param("provider")
	adapter, err := h.registry.Get(provider)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown provider: " + provider})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	signature := c.GetHeader(adapter.SignatureHeader())
	if !adapter.VerifyWebhookSignature(body, signature) {
		h.logger.Warn("[%s] webhook rejected: invalid signature", provider)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payload"})
		return
	}

	eventType := classifyEvent(payload)
	if eventType == "" {
		h.record(c, provider, models.SyncOutcomeWarning, "unclassifiable webhook", map[string]any{"payload": string(body)})
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "unknown event type"})
		return
	}

	if err := h.dispatch(c, provider, eventType, payload); err != nil {
		h.logger.Error("[%s] webhook %s failed: %v", provider, eventType, err)
		h.record(c, provider, models.SyncOutcomeError, err.Error(), map[string]any{"event": eventType})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process webhook"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *WebhookHandler) dispatch(c *gin.Context, provider, eventType string, payload map[string]any) error {
	ctx := c.Request.Context()
	switch eventType {
	case eventBookingCreated, eventBookingUpdated:
		return h.orchestrator.PullBooking(ctx, provider, bookingID(payload))
	case eventBookingCancelled:
		return h.orchestrator.CancelBookingLocal(ctx, provider, bookingID(payload))
	case eventListingUpdated:
		return h.orchestrator.PullListing(ctx, provider, listingID(payload))
	case eventAvailabilityUpdated:
		return h.orchestrator.RefreshAvailability(ctx, provider, listingID(payload))
	}
	return nil
}

func (h *WebhookHandler) record(c *gin.Context, provider string, outcome models.SyncOutcome, message string, detail map[string]any) {
	if err := h.syncLog.Record(c.Request.Context(), provider, models.SyncTypeWebhook, outcome, message, detail); err != nil {
		h.logger.Warn("[%s] failed to record webhook log: %v", provider, err)
	}
}

// classifyEvent determines the event type from the payload. The explicit
// keys win in order event > type > action; when none is present the payload
// shape decides: a booking-ish key means a booking update, a listing-ish key
// a listing update. Empty string means unclassifiable.
func classifyEvent(payload map[string]any) string {
	for _, key := range []string{"event", "type", "action"} {
		if raw := pms.StringField(payload, key); raw != "" {
			if et := normalizeEventName(raw); et != "" {
				return et
			}
		}
	}
	// Structural inference for providers that post bare records.
	for _, key := range []string{"booking", "reservation", "booking_id", "reservationId", "reservation_id"} {
		if _, ok := payload[key]; ok {
			return eventBookingUpdated
		}
	}
	for _, key := range []string{"property", "listing", "property_id", "listing_id", "propertyId", "listingId"} {
		if _, ok := payload[key]; ok {
			return eventListingUpdated
		}
	}
	return ""
}

func normalizeEventName(raw string) string {
	name := strings.ToLower(raw)
	name = strings.NewReplacer(".", "_", "-", "_", " ", "_").Replace(name)

	isBooking := strings.Contains(name, "booking") || strings.Contains(name, "reservation")
	isListing := strings.Contains(name, "listing") || strings.Contains(name, "property")

	switch {
	case strings.Contains(name, "availability") || strings.Contains(name, "calendar"):
		return eventAvailabilityUpdated
	case isBooking && (strings.Contains(name, "cancel") || strings.Contains(name, "delete")):
		return eventBookingCancelled
	case isBooking && (strings.Contains(name, "creat") || strings.Contains(name, "new")):
		return eventBookingCreated
	case isBooking:
		return eventBookingUpdated
	case isListing:
		return eventListingUpdated
	}
	return ""
}

func bookingID(payload map[string]any) string {
	if id := pms.StringField(payload, "booking_id", "bookingId", "reservation_id", "reservationId", "id"); id != "" {
		return id
	}
	for _, key := range []string{"booking", "reservation", "data"} {
		if nested := pms.MapField(payload, key); nested != nil {
			if id := pms.StringField(nested, "id", "booking_id", "reservationId"); id != "" {
				return id
			}
		}
	}
	return ""
}

func listingID(payload map[string]any) string {
	if id := pms.StringField(payload, "property_id", "propertyId", "listing_id", "listingId", "PropertyID", "id"); id != "" {
		return id
	}
	for _, key := range []string{"property", "listing", "data"} {
		if nested := pms.MapField(payload, key); nested != nil {
			if id := pms.StringField(nested, "id", "property_id", "listing_id"); id != "" {
				return id
			}
		}
	}
	return ""
}
