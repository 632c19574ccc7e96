// Package sync drives reconciliation between the PMS providers and the local
// commerce store. The orchestrator owns batch passes (listings, availability,
// bookings), the outbound booking push, and the single-record refreshes the
// webhook router dispatches to.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/git-seb/rental-sync-engine/internal/commerce"
	"github.com/git-seb/rental-sync-engine/internal/config"
	"github.com/git-seb/rental-sync-engine/internal/logger"
	"github.com/git-seb/rental-sync-engine/internal/models"
	"github.com/git-seb/rental-sync-engine/internal/pms"
	"github.com/git-seb/rental-sync-engine/internal/store"
)

// Scope selects which passes a sync run executes.
type Scope string

const (
	ScopeListings     Scope = "listings"
	ScopeAvailability Scope = "availability"
	ScopeBookings     Scope = "bookings"
	ScopeAll          Scope = "all"
)

func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeListings, ScopeAvailability, ScopeBookings, ScopeAll:
		return Scope(s), nil
	case "":
		return ScopeAll, nil
	}
	return "", fmt.Errorf("unknown sync scope: %s", s)
}

const maxConcurrentProviders = 8

type Orchestrator struct {
	registry *pms.Registry
	mappings *store.MappingStore
	commerce commerce.Store
	syncLog  *store.SyncLog
	cfg      *config.Config
	log      *logger.Logger
}

func NewOrchestrator(registry *pms.Registry, mappings *store.MappingStore, commerceStore commerce.Store, syncLog *store.SyncLog, cfg *config.Config, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		mappings: mappings,
		commerce: commerceStore,
		syncLog:  syncLog,
		cfg:      cfg,
		log:      log.WithPrefix("SYNC"),
	}
}

// TriggerSync runs the requested scope against one provider, or against every
// enabled provider when provider is empty. Provider passes fan out on a
// bounded pool and one provider's outage never aborts the others; the
// aggregate result is always returned, even when every pass failed.
func (o *Orchestrator) TriggerSync(ctx context.Context, provider string, scope Scope) (*Result, error) {
	providers := o.registry.Names()
	if provider != "" {
		if _, err := o.registry.Get(provider); err != nil {
			return nil, err
		}
		providers = []string{provider}
	}

	result := newResult()
	limit := o.cfg.SyncConcurrency
	if limit <= 0 || limit > maxConcurrentProviders {
		limit = maxConcurrentProviders
	}
	pool := newPool(limit)
	for _, name := range providers {
		name := name
		pool.Go(func() {
			o.runProviderPass(ctx, name, scope, result)
		})
	}
	pool.Wait()
	return result, nil
}

// runProviderPass walks one provider through the pass state machine. Pass
// failures are recorded; they never propagate past the provider boundary.
func (o *Orchestrator) runProviderPass(ctx context.Context, provider string, scope Scope, result *Result) {
	adapter, err := o.registry.Get(provider)
	if err != nil {
		result.recordFailure(provider, err.Error())
		return
	}

	o.log.Info("[%s] sync started (scope=%s)", provider, scope)
	passes := []struct {
		scope Scope
		run   func(context.Context, pms.Adapter, *Result) error
	}{
		{ScopeListings, o.syncListings},
		{ScopeAvailability, o.syncAvailability},
		{ScopeBookings, o.syncBookings},
	}
	failed := false
	for _, pass := range passes {
		if scope != ScopeAll && scope != pass.scope {
			continue
		}
		if err := pass.run(ctx, adapter, result); err != nil {
			failed = true
			result.recordFailure(provider, err.Error())
			o.log.Error("[%s] %s pass failed: %v", provider, pass.scope, err)
			o.recordLog(ctx, provider, syncTypeForScope(pass.scope), models.SyncOutcomeError, err.Error(), nil)
		}
	}
	if failed {
		o.log.Warn("[%s] sync completed with failures", provider)
		return
	}
	o.log.Info("[%s] sync completed", provider)
}

func syncTypeForScope(scope Scope) models.SyncType {
	switch scope {
	case ScopeAvailability:
		return models.SyncTypeAvailability
	case ScopeBookings:
		return models.SyncTypeBooking
	default:
		return models.SyncTypeListing
	}
}

// syncListings pulls the provider catalog and reconciles each listing into a
// product. An error from the fetch fails the pass; per-listing errors are
// counted and the batch continues.
func (o *Orchestrator) syncListings(ctx context.Context, adapter pms.Adapter, result *Result) error {
	provider := adapter.Name()
	o.log.Debug("[%s] fetching listings", provider)
	callCtx, cancel := o.callContext(ctx)
	raws, err := adapter.FetchListings(callCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("fetch listings: %w", err)
	}

	o.log.Debug("[%s] reconciling %d listings", provider, len(raws))
	failed := 0
	for _, raw := range raws {
		listing := adapter.NormalizeListing(raw)
		if listing.ID == "" {
			failed++
			result.recordFailure(provider, "listing without id, skipped")
			continue
		}
		if err := o.reconcileListing(ctx, provider, listing); err != nil {
			failed++
			result.recordFailure(provider, fmt.Sprintf("listing %s: %v", listing.ID, err))
			o.recordLog(ctx, provider, models.SyncTypeListing, models.SyncOutcomeError, err.Error(), map[string]any{"listing_id": listing.ID})
			continue
		}
		result.recordSuccess(provider)
	}
	o.recordLog(ctx, provider, models.SyncTypeListing, passOutcome(failed),
		fmt.Sprintf("reconciled %d listings, %d failed", len(raws), failed), map[string]any{"count": len(raws), "failed": failed})
	return nil
}

// passOutcome grades a pass summary: any per-item failure downgrades the
// entry to a warning.
func passOutcome(failed int) models.SyncOutcome {
	if failed > 0 {
		return models.SyncOutcomeWarning
	}
	return models.SyncOutcomeSuccess
}

// reconcileListing creates or updates the product for one listing and
// refreshes its mapping. Listings whose mapping has sync disabled are left
// alone.
func (o *Orchestrator) reconcileListing(ctx context.Context, provider string, listing models.Listing) error {
	mapping, err := o.mappings.GetListingMapping(ctx, provider, listing.ID)
	if err != nil {
		return err
	}
	if mapping != nil {
		if !mapping.SyncEnabled {
			return nil
		}
		if _, err := o.commerce.UpdateProduct(ctx, mapping.LocalProductID, listing); err != nil {
			return err
		}
		_, err = o.mappings.UpsertListingMapping(ctx, provider, listing.ID, mapping.LocalProductID)
		return err
	}

	product, err := o.commerce.CreateProduct(ctx, listing)
	if err != nil {
		return err
	}
	if _, err := o.mappings.UpsertListingMapping(ctx, provider, listing.ID, product.ID); err != nil {
		return err
	}
	return nil
}

// syncAvailability refreshes the calendar snapshot for every sync-enabled
// listing mapping. The provider payload is stored opaquely; only the derived
// available-today flag is interpreted.
func (o *Orchestrator) syncAvailability(ctx context.Context, adapter pms.Adapter, result *Result) error {
	provider := adapter.Name()
	mappings, err := o.mappings.EnabledListingMappings(ctx, provider)
	if err != nil {
		return fmt.Errorf("list enabled mappings: %w", err)
	}

	from := today()
	to := from.Add(o.cfg.AvailabilityHorizon)
	failed := 0
	for _, mapping := range mappings {
		callCtx, cancel := o.callContext(ctx)
		payload, err := adapter.FetchAvailability(callCtx, mapping.ProviderListingID, from, to)
		cancel()
		if err != nil {
			failed++
			result.recordFailure(provider, fmt.Sprintf("availability %s: %v", mapping.ProviderListingID, err))
			o.recordLog(ctx, provider, models.SyncTypeAvailability, models.SyncOutcomeError, err.Error(), map[string]any{"listing_id": mapping.ProviderListingID})
			continue
		}
		inStock := availableToday(payload, from)
		if err := o.commerce.SetAvailability(ctx, mapping.LocalProductID, payload, inStock); err != nil {
			failed++
			result.recordFailure(provider, fmt.Sprintf("availability %s: %v", mapping.ProviderListingID, err))
			continue
		}
		result.recordSuccess(provider)
	}
	o.recordLog(ctx, provider, models.SyncTypeAvailability, passOutcome(failed),
		fmt.Sprintf("refreshed availability for %d listings, %d failed", len(mappings), failed), map[string]any{"count": len(mappings), "failed": failed})
	return nil
}

// syncBookings pulls the provider's bookings in the configured window and
// creates an order for each booking not seen before. Already-mapped bookings
// are skipped untouched; status changes for those arrive via webhooks or a
// single-booking pull.
func (o *Orchestrator) syncBookings(ctx context.Context, adapter pms.Adapter, result *Result) error {
	provider := adapter.Name()
	window := pms.BookingWindow{
		From: today().Add(-o.cfg.BookingLookback),
		To:   today().Add(o.cfg.BookingLookahead),
	}
	callCtx, cancel := o.callContext(ctx)
	raws, err := adapter.FetchBookings(callCtx, window)
	cancel()
	if err != nil {
		return fmt.Errorf("fetch bookings: %w", err)
	}

	failed := 0
	for _, raw := range raws {
		booking := adapter.NormalizeBooking(raw)
		if booking.ID == "" {
			failed++
			result.recordFailure(provider, "booking without id, skipped")
			continue
		}
		if booking.Invalid {
			failed++
			result.recordFailure(provider, fmt.Sprintf("booking %s: %s", booking.ID, booking.InvalidReason))
			o.recordLog(ctx, provider, models.SyncTypeBooking, models.SyncOutcomeWarning, booking.InvalidReason, map[string]any{"booking_id": booking.ID})
			continue
		}

		mapping, err := o.mappings.GetBookingMapping(ctx, provider, booking.ID)
		if err != nil {
			failed++
			result.recordFailure(provider, fmt.Sprintf("booking %s: %v", booking.ID, err))
			continue
		}
		if mapping != nil {
			result.recordSkip(provider)
			continue
		}
		if err := o.createOrderForBooking(ctx, provider, booking); err != nil {
			failed++
			result.recordFailure(provider, fmt.Sprintf("booking %s: %v", booking.ID, err))
			o.recordLog(ctx, provider, models.SyncTypeBooking, models.SyncOutcomeError, err.Error(), map[string]any{"booking_id": booking.ID})
			continue
		}
		result.recordSuccess(provider)
	}
	o.recordLog(ctx, provider, models.SyncTypeBooking, passOutcome(failed),
		fmt.Sprintf("processed %d bookings, %d failed", len(raws), failed), map[string]any{"count": len(raws), "failed": failed})
	return nil
}

// createOrderForBooking creates the local order for a provider booking and
// binds the mapping. Losing the upsert race to a concurrent delivery of the
// same booking deletes the extra order, so exactly one order survives.
func (o *Orchestrator) createOrderForBooking(ctx context.Context, provider string, booking models.Booking) error {
	productID := ""
	if booking.ListingID != "" {
		if lm, err := o.mappings.GetListingMapping(ctx, provider, booking.ListingID); err == nil && lm != nil {
			productID = lm.LocalProductID
		}
	}
	order, err := o.commerce.CreateOrder(ctx, productID, booking)
	if err != nil {
		return err
	}
	data, _ := json.Marshal(booking)
	_, err = o.mappings.UpsertBookingMapping(ctx, provider, booking.ID, order.ID, booking.Status, string(data))
	if errors.Is(err, store.ErrMappingConflict) {
		if delErr := o.commerce.DeleteOrder(ctx, order.ID); delErr != nil {
			o.log.Warn("[%s] failed to delete duplicate order %s: %v", provider, order.ID, delErr)
		}
		return nil
	}
	return err
}

func (o *Orchestrator) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.cfg.RequestTimeout)
}

// recordLog is best effort; a failed audit write never fails the sync.
func (o *Orchestrator) recordLog(ctx context.Context, provider string, syncType models.SyncType, outcome models.SyncOutcome, message string, detail map[string]any) {
	if err := o.syncLog.Record(ctx, provider, syncType, outcome, message, detail); err != nil {
		o.log.Warn("[%s] failed to record sync log: %v", provider, err)
	}
}
