package sync

import (
	"context"
	"fmt"

	"github.com/git-seb/rental-sync-engine/internal/models"
)

// PullBooking fetches one booking and reconciles it. A booking seen before
// gets its order status refreshed through the existing mapping; a new one
// gets an order and a mapping. This is the webhook path for booking created
// and booking updated events.
func (o *Orchestrator) PullBooking(ctx context.Context, provider, bookingID string) error {
	adapter, err := o.registry.Get(provider)
	if err != nil {
		return err
	}
	callCtx, cancel := o.callContext(ctx)
	raw, err := adapter.FetchBooking(callCtx, bookingID)
	cancel()
	if err != nil {
		return fmt.Errorf("fetch booking %s: %w", bookingID, err)
	}
	booking := adapter.NormalizeBooking(raw)
	if booking.ID == "" {
		booking.ID = bookingID
	}
	if booking.Invalid {
		o.recordLog(ctx, provider, models.SyncTypeWebhook, models.SyncOutcomeWarning, booking.InvalidReason, map[string]any{"booking_id": bookingID})
		return fmt.Errorf("booking %s: %s", bookingID, booking.InvalidReason)
	}

	mapping, err := o.mappings.GetBookingMapping(ctx, provider, booking.ID)
	if err != nil {
		return err
	}
	if mapping != nil {
		if err := o.commerce.UpdateOrderStatus(ctx, mapping.LocalOrderID, booking.Status); err != nil {
			return err
		}
		if err := o.mappings.UpdateBookingMappingStatus(ctx, provider, booking.ID, booking.Status); err != nil {
			return err
		}
		o.recordLog(ctx, provider, models.SyncTypeWebhook, models.SyncOutcomeSuccess,
			fmt.Sprintf("refreshed booking %s", booking.ID), map[string]any{"booking_id": booking.ID, "status": booking.Status})
		return nil
	}

	if err := o.createOrderForBooking(ctx, provider, booking); err != nil {
		return err
	}
	o.recordLog(ctx, provider, models.SyncTypeWebhook, models.SyncOutcomeSuccess,
		fmt.Sprintf("imported booking %s", booking.ID), map[string]any{"booking_id": booking.ID})
	return nil
}

// CancelBookingLocal cancels the local order for a provider booking. The
// mapping row stays, marked cancelled, so the booking can never be imported
// again as new. An unmapped cancellation is a no-op.
func (o *Orchestrator) CancelBookingLocal(ctx context.Context, provider, bookingID string) error {
	mapping, err := o.mappings.GetBookingMapping(ctx, provider, bookingID)
	if err != nil {
		return err
	}
	if mapping == nil {
		o.log.Warn("[%s] cancellation for unknown booking %s ignored", provider, bookingID)
		return nil
	}
	if err := o.commerce.UpdateOrderStatus(ctx, mapping.LocalOrderID, models.BookingStatusCancelled); err != nil {
		return err
	}
	if err := o.mappings.UpdateBookingMappingStatus(ctx, provider, bookingID, models.BookingStatusCancelled); err != nil {
		return err
	}
	o.recordLog(ctx, provider, models.SyncTypeWebhook, models.SyncOutcomeSuccess,
		fmt.Sprintf("cancelled booking %s", bookingID), map[string]any{"booking_id": bookingID})
	return nil
}

// PullListing fetches one listing and reconciles it into the catalog, the
// webhook path for listing updated events.
func (o *Orchestrator) PullListing(ctx context.Context, provider, listingID string) error {
	adapter, err := o.registry.Get(provider)
	if err != nil {
		return err
	}
	callCtx, cancel := o.callContext(ctx)
	raw, err := adapter.FetchListing(callCtx, listingID)
	cancel()
	if err != nil {
		return fmt.Errorf("fetch listing %s: %w", listingID, err)
	}
	listing := adapter.NormalizeListing(raw)
	if listing.ID == "" {
		listing.ID = listingID
	}
	if err := o.reconcileListing(ctx, provider, listing); err != nil {
		return err
	}
	o.recordLog(ctx, provider, models.SyncTypeWebhook, models.SyncOutcomeSuccess,
		fmt.Sprintf("refreshed listing %s", listing.ID), map[string]any{"listing_id": listing.ID})
	return nil
}

// RefreshAvailability refreshes the calendar snapshot for one mapped listing,
// the webhook path for availability updated events. An unmapped listing is a
// no-op; the next listings pass will pick it up.
func (o *Orchestrator) RefreshAvailability(ctx context.Context, provider, listingID string) error {
	adapter, err := o.registry.Get(provider)
	if err != nil {
		return err
	}
	mapping, err := o.mappings.GetListingMapping(ctx, provider, listingID)
	if err != nil {
		return err
	}
	if mapping == nil || !mapping.SyncEnabled {
		o.log.Warn("[%s] availability update for unmapped listing %s ignored", provider, listingID)
		return nil
	}

	from := today()
	callCtx, cancel := o.callContext(ctx)
	payload, err := adapter.FetchAvailability(callCtx, listingID, from, from.Add(o.cfg.AvailabilityHorizon))
	cancel()
	if err != nil {
		return fmt.Errorf("fetch availability %s: %w", listingID, err)
	}
	if err := o.commerce.SetAvailability(ctx, mapping.LocalProductID, payload, availableToday(payload, from)); err != nil {
		return err
	}
	o.recordLog(ctx, provider, models.SyncTypeWebhook, models.SyncOutcomeSuccess,
		fmt.Sprintf("refreshed availability for listing %s", listingID), map[string]any{"listing_id": listingID})
	return nil
}
