package sync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/git-seb/rental-sync-engine/internal/models"
)

// PushBooking sends a locally created order to the provider its product came
// from and binds the returned booking id. An order that already has a booking
// mapping is forwarded as an update to the existing remote booking instead of
// being created twice. Cancelled orders are never pushed. On failure the
// order stands and the push can be retried.
func (o *Orchestrator) PushBooking(ctx context.Context, orderID string) (*models.BookingMapping, error) {
	order, err := o.commerce.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == models.BookingStatusCancelled {
		return nil, fmt.Errorf("order %s is cancelled and will not be pushed", orderID)
	}

	if existing, err := o.mappings.GetBookingMappingByOrder(ctx, orderID); err != nil {
		return nil, err
	} else if existing != nil {
		o.log.Debug("order %s already pushed to %s as %s, forwarding update", orderID, existing.Provider, existing.ProviderBookingID)
		return o.pushBookingUpdate(ctx, order, existing)
	}

	provider, providerListingID, err := o.commerce.GetProductProviderLink(ctx, order.ProductID)
	if err != nil {
		return nil, fmt.Errorf("resolve provider for order %s: %w", orderID, err)
	}
	adapter, err := o.registry.Get(provider)
	if err != nil {
		return nil, err
	}

	booking := bookingFromOrder(order)
	booking.ListingID = providerListingID
	callCtx, cancel := o.callContext(ctx)
	created, err := adapter.CreateBooking(callCtx, booking)
	cancel()
	if err != nil {
		o.recordLog(ctx, provider, models.SyncTypeBooking, models.SyncOutcomeError,
			fmt.Sprintf("push failed for order %s: %v", orderID, err), map[string]any{"order_id": orderID})
		return nil, fmt.Errorf("push booking: %w", err)
	}
	if created.ID == "" {
		return nil, fmt.Errorf("push booking: provider %s returned no booking id", provider)
	}

	data, _ := json.Marshal(created)
	mapping, err := o.mappings.UpsertBookingMapping(ctx, provider, created.ID, orderID, order.Status, string(data))
	if err != nil {
		return nil, err
	}
	o.recordLog(ctx, provider, models.SyncTypeBooking, models.SyncOutcomeSuccess,
		fmt.Sprintf("pushed order %s as booking %s", orderID, created.ID), map[string]any{"order_id": orderID, "booking_id": created.ID})
	return mapping, nil
}

// pushBookingUpdate forwards the current order state to the booking the order
// is already mapped to.
func (o *Orchestrator) pushBookingUpdate(ctx context.Context, order *models.Order, mapping *models.BookingMapping) (*models.BookingMapping, error) {
	adapter, err := o.registry.Get(mapping.Provider)
	if err != nil {
		return nil, err
	}
	booking := bookingFromOrder(order)
	if _, providerListingID, err := o.commerce.GetProductProviderLink(ctx, order.ProductID); err == nil {
		booking.ListingID = providerListingID
	}

	callCtx, cancel := o.callContext(ctx)
	updated, err := adapter.UpdateBooking(callCtx, mapping.ProviderBookingID, booking)
	cancel()
	if err != nil {
		o.recordLog(ctx, mapping.Provider, models.SyncTypeBooking, models.SyncOutcomeError,
			fmt.Sprintf("update push failed for order %s: %v", order.ID, err), map[string]any{"order_id": order.ID, "booking_id": mapping.ProviderBookingID})
		return nil, fmt.Errorf("push booking update: %w", err)
	}

	data, _ := json.Marshal(updated)
	mapping, err = o.mappings.UpsertBookingMapping(ctx, mapping.Provider, mapping.ProviderBookingID, order.ID, order.Status, string(data))
	if err != nil {
		return nil, err
	}
	o.recordLog(ctx, mapping.Provider, models.SyncTypeBooking, models.SyncOutcomeSuccess,
		fmt.Sprintf("pushed order %s update to booking %s", order.ID, mapping.ProviderBookingID), map[string]any{"order_id": order.ID, "booking_id": mapping.ProviderBookingID})
	return mapping, nil
}

// CancelBookingRemote propagates a local order cancellation to the provider
// holding the pushed booking. The remote booking is cancelled first; the
// local order and mapping are marked cancelled only after the provider
// accepts, so a failed call leaves the cancellation retryable. Cancelling an
// already-cancelled mapping is a no-op.
func (o *Orchestrator) CancelBookingRemote(ctx context.Context, orderID string) (*models.BookingMapping, error) {
	mapping, err := o.mappings.GetBookingMappingByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if mapping == nil {
		return nil, fmt.Errorf("order %s has no provider booking to cancel", orderID)
	}
	if mapping.Status == models.BookingStatusCancelled {
		o.log.Debug("booking %s for order %s already cancelled", mapping.ProviderBookingID, orderID)
		return mapping, nil
	}
	adapter, err := o.registry.Get(mapping.Provider)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := o.callContext(ctx)
	err = adapter.CancelBooking(callCtx, mapping.ProviderBookingID)
	cancel()
	if err != nil {
		o.recordLog(ctx, mapping.Provider, models.SyncTypeBooking, models.SyncOutcomeError,
			fmt.Sprintf("cancel failed for booking %s: %v", mapping.ProviderBookingID, err), map[string]any{"order_id": orderID, "booking_id": mapping.ProviderBookingID})
		return nil, fmt.Errorf("cancel booking: %w", err)
	}

	if err := o.commerce.UpdateOrderStatus(ctx, orderID, models.BookingStatusCancelled); err != nil {
		return nil, err
	}
	if err := o.mappings.UpdateBookingMappingStatus(ctx, mapping.Provider, mapping.ProviderBookingID, models.BookingStatusCancelled); err != nil {
		return nil, err
	}
	mapping.Status = models.BookingStatusCancelled
	o.recordLog(ctx, mapping.Provider, models.SyncTypeBooking, models.SyncOutcomeSuccess,
		fmt.Sprintf("cancelled booking %s for order %s", mapping.ProviderBookingID, orderID), map[string]any{"order_id": orderID, "booking_id": mapping.ProviderBookingID})
	return mapping, nil
}

func bookingFromOrder(order *models.Order) models.Booking {
	return models.Booking{
		Status:         order.Status,
		CheckIn:        order.CheckIn,
		CheckOut:       order.CheckOut,
		GuestName:      order.GuestName,
		GuestEmail:     order.GuestEmail,
		TotalAmount:    order.TotalAmount,
		Currency:       order.Currency,
		NumberOfGuests: order.NumberOfGuests,
	}
}
