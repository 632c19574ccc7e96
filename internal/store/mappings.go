// Package store owns the identity mapping tables and the sync audit log.
// Mappings are the engine's memory: they make repeated pulls idempotent and
// guard against a provider record being bound to two local records.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/git-seb/rental-sync-engine/internal/models"
)

// ErrMappingConflict is returned when an upsert would rebind an existing
// provider record to a different local record. First writer wins.
var ErrMappingConflict = errors.New("mapping conflict: provider record already bound to a different local record")

type MappingStore struct {
	db *gorm.DB
}

func NewMappingStore(db *gorm.DB) *MappingStore {
	return &MappingStore{db: db}
}

// GetListingMapping looks up the binding for a provider listing. A missing
// row returns (nil, nil) so callers can treat absence as "not yet synced".
func (s *MappingStore) GetListingMapping(ctx context.Context, provider, providerListingID string) (*models.ListingMapping, error) {
	var mapping models.ListingMapping
	err := s.db.WithContext(ctx).
		Where("provider = ? AND provider_listing_id = ?", provider, providerListingID).
		First(&mapping).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing mapping: %w", err)
	}
	return &mapping, nil
}

// UpsertListingMapping binds a provider listing to a local product. Repeating
// the call with the same pair refreshes last_synced; repeating it with a
// different local product returns ErrMappingConflict and leaves the original
// binding untouched.
func (s *MappingStore) UpsertListingMapping(ctx context.Context, provider, providerListingID, localProductID string) (*models.ListingMapping, error) {
	existing, err := s.GetListingMapping(ctx, provider, providerListingID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.LocalProductID != localProductID {
		return nil, fmt.Errorf("%w: %s/%s is bound to %s", ErrMappingConflict, provider, providerListingID, existing.LocalProductID)
	}

	mapping := models.ListingMapping{
		Provider:          provider,
		ProviderListingID: providerListingID,
		LocalProductID:    localProductID,
		SyncEnabled:       true,
		LastSynced:        time.Now().UTC(),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider"}, {Name: "provider_listing_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_synced", "updated_at"}),
	}).Create(&mapping).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert listing mapping: %w", err)
	}
	final, err := s.GetListingMapping(ctx, provider, providerListingID)
	if err != nil {
		return nil, err
	}
	// A concurrent writer may have inserted between the pre-check and the
	// upsert; the surviving row decides who won.
	if final.LocalProductID != localProductID {
		return nil, fmt.Errorf("%w: %s/%s is bound to %s", ErrMappingConflict, provider, providerListingID, final.LocalProductID)
	}
	return final, nil
}

// GetBookingMapping looks up the binding for a provider booking. A missing
// row returns (nil, nil).
func (s *MappingStore) GetBookingMapping(ctx context.Context, provider, providerBookingID string) (*models.BookingMapping, error) {
	var mapping models.BookingMapping
	err := s.db.WithContext(ctx).
		Where("provider = ? AND provider_booking_id = ?", provider, providerBookingID).
		First(&mapping).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking mapping: %w", err)
	}
	return &mapping, nil
}

// GetBookingMappingByOrder finds the provider booking bound to a local order,
// if any. The outbound push path uses it to decide whether an order has
// already been pushed.
func (s *MappingStore) GetBookingMappingByOrder(ctx context.Context, localOrderID string) (*models.BookingMapping, error) {
	var mapping models.BookingMapping
	err := s.db.WithContext(ctx).
		Where("local_order_id = ?", localOrderID).
		First(&mapping).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking mapping by order: %w", err)
	}
	return &mapping, nil
}

// UpsertBookingMapping binds a provider booking to a local order. Like the
// listing upsert, rebinding to a different order is a conflict and the first
// binding wins; a repeat with the same pair refreshes status and last_synced.
func (s *MappingStore) UpsertBookingMapping(ctx context.Context, provider, providerBookingID, localOrderID string, status models.BookingStatus, bookingData string) (*models.BookingMapping, error) {
	existing, err := s.GetBookingMapping(ctx, provider, providerBookingID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.LocalOrderID != localOrderID {
		return nil, fmt.Errorf("%w: %s/%s is bound to %s", ErrMappingConflict, provider, providerBookingID, existing.LocalOrderID)
	}

	mapping := models.BookingMapping{
		Provider:          provider,
		ProviderBookingID: providerBookingID,
		LocalOrderID:      localOrderID,
		Status:            status,
		BookingData:       bookingData,
		SyncEnabled:       true,
		LastSynced:        time.Now().UTC(),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider"}, {Name: "provider_booking_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "booking_data", "last_synced", "updated_at"}),
	}).Create(&mapping).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert booking mapping: %w", err)
	}
	final, err := s.GetBookingMapping(ctx, provider, providerBookingID)
	if err != nil {
		return nil, err
	}
	if final.LocalOrderID != localOrderID {
		return nil, fmt.Errorf("%w: %s/%s is bound to %s", ErrMappingConflict, provider, providerBookingID, final.LocalOrderID)
	}
	return final, nil
}

// UpdateBookingMappingStatus moves a booking mapping through its lifecycle
// without touching the binding itself.
func (s *MappingStore) UpdateBookingMappingStatus(ctx context.Context, provider, providerBookingID string, status models.BookingStatus) error {
	result := s.db.WithContext(ctx).Model(&models.BookingMapping{}).
		Where("provider = ? AND provider_booking_id = ?", provider, providerBookingID).
		Updates(map[string]any{
			"status":      status,
			"last_synced": time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update booking mapping status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("booking mapping not found: %s/%s", provider, providerBookingID)
	}
	return nil
}

// ListListingMappings returns the listing bindings for a provider, or for all
// providers when provider is empty. Results are newest first.
func (s *MappingStore) ListListingMappings(ctx context.Context, provider string) ([]models.ListingMapping, error) {
	var mappings []models.ListingMapping
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if provider != "" {
		q = q.Where("provider = ?", provider)
	}
	if err := q.Find(&mappings).Error; err != nil {
		return nil, fmt.Errorf("failed to list listing mappings: %w", err)
	}
	return mappings, nil
}

// ListBookingMappings returns the booking bindings for a provider, or for all
// providers when provider is empty.
func (s *MappingStore) ListBookingMappings(ctx context.Context, provider string) ([]models.BookingMapping, error) {
	var mappings []models.BookingMapping
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if provider != "" {
		q = q.Where("provider = ?", provider)
	}
	if err := q.Find(&mappings).Error; err != nil {
		return nil, fmt.Errorf("failed to list booking mappings: %w", err)
	}
	return mappings, nil
}

// SetListingSyncEnabled toggles per-listing sync without deleting the binding.
func (s *MappingStore) SetListingSyncEnabled(ctx context.Context, mappingID string, enabled bool) error {
	result := s.db.WithContext(ctx).Model(&models.ListingMapping{}).
		Where("id = ?", mappingID).
		Update("sync_enabled", enabled)
	if result.Error != nil {
		return fmt.Errorf("failed to toggle listing sync: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("listing mapping not found: %s", mappingID)
	}
	return nil
}

// EnabledListingMappings returns the provider's sync-enabled listing bindings,
// the working set for availability refreshes.
func (s *MappingStore) EnabledListingMappings(ctx context.Context, provider string) ([]models.ListingMapping, error) {
	var mappings []models.ListingMapping
	err := s.db.WithContext(ctx).
		Where("provider = ? AND sync_enabled = ?", provider, true).
		Find(&mappings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list enabled listing mappings: %w", err)
	}
	return mappings, nil
}

// EnabledBookingMappings returns the provider's sync-enabled booking bindings.
func (s *MappingStore) EnabledBookingMappings(ctx context.Context, provider string) ([]models.BookingMapping, error) {
	var mappings []models.BookingMapping
	err := s.db.WithContext(ctx).
		Where("provider = ? AND sync_enabled = ?", provider, true).
		Find(&mappings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list enabled booking mappings: %w", err)
	}
	return mappings, nil
}
