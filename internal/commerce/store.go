// Package commerce is the local side of the sync: the product catalog and
// order book the provider data lands in. The engine only touches it through
// the Store interface so tests can substitute an in-memory double.
package commerce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/git-seb/rental-sync-engine/internal/models"
)

var ErrNotFound = errors.New("commerce record not found")

type Store interface {
	CreateProduct(ctx context.Context, listing models.Listing) (*models.Product, error)
	UpdateProduct(ctx context.Context, productID string, listing models.Listing) (*models.Product, error)
	GetProduct(ctx context.Context, productID string) (*models.Product, error)
	SetAvailability(ctx context.Context, productID string, availability map[string]any, inStock bool) error

	CreateOrder(ctx context.Context, productID string, booking models.Booking) (*models.Order, error)
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status models.BookingStatus) error
	// DeleteOrder removes an order that lost the mapping race; the winning
	// delivery's order stays the only one for the booking.
	DeleteOrder(ctx context.Context, orderID string) error

	// GetProductProviderLink resolves the provider listing a local product
	// was synced from. The booking push path needs it to address the
	// provider-side create call.
	GetProductProviderLink(ctx context.Context, productID string) (provider, providerListingID string, err error)
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateProduct(ctx context.Context, listing models.Listing) (*models.Product, error) {
	product := productFromListing(listing)
	if err := s.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

func (s *GormStore) UpdateProduct(ctx context.Context, productID string, listing models.Listing) (*models.Product, error) {
	updated := productFromListing(listing)
	result := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"name":         updated.Name,
			"description":  updated.Description,
			"city":         updated.City,
			"country":      updated.Country,
			"bedrooms":     updated.Bedrooms,
			"bathrooms":    updated.Bathrooms,
			"max_guests":   updated.MaxGuests,
			"base_price":   updated.BasePrice,
			"currency":     updated.Currency,
			"listing_data": updated.ListingData,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: product %s", ErrNotFound, productID)
	}
	return s.GetProduct(ctx, productID)
}

func (s *GormStore) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).Where("id = ?", productID).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: product %s", ErrNotFound, productID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

// SetAvailability replaces the stored calendar snapshot wholesale and flips
// the storefront stock flag.
func (s *GormStore) SetAvailability(ctx context.Context, productID string, availability map[string]any, inStock bool) error {
	snapshot := "{}"
	if len(availability) > 0 {
		data, err := json.Marshal(availability)
		if err != nil {
			return fmt.Errorf("failed to marshal availability: %w", err)
		}
		snapshot = string(data)
	}
	result := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"availability": snapshot,
			"in_stock":     inStock,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to set availability: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: product %s", ErrNotFound, productID)
	}
	return nil
}

func (s *GormStore) CreateOrder(ctx context.Context, productID string, booking models.Booking) (*models.Order, error) {
	order := &models.Order{
		ProductID:      productID,
		Status:         booking.Status,
		CheckIn:        booking.CheckIn,
		CheckOut:       booking.CheckOut,
		GuestName:      booking.GuestName,
		GuestEmail:     booking.GuestEmail,
		TotalAmount:    booking.TotalAmount,
		Currency:       booking.Currency,
		NumberOfGuests: booking.NumberOfGuests,
	}
	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return order, nil
}

func (s *GormStore) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Where("id = ?", orderID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

func (s *GormStore) UpdateOrderStatus(ctx context.Context, orderID string, status models.BookingStatus) error {
	result := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update order status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: order %s", ErrNotFound, orderID)
	}
	return nil
}

func (s *GormStore) DeleteOrder(ctx context.Context, orderID string) error {
	result := s.db.WithContext(ctx).Where("id = ?", orderID).Delete(&models.Order{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete order: %w", result.Error)
	}
	return nil
}

func (s *GormStore) GetProductProviderLink(ctx context.Context, productID string) (string, string, error) {
	var mapping models.ListingMapping
	err := s.db.WithContext(ctx).
		Where("local_product_id = ?", productID).
		First(&mapping).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", "", fmt.Errorf("%w: no provider link for product %s", ErrNotFound, productID)
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve provider link: %w", err)
	}
	return mapping.Provider, mapping.ProviderListingID, nil
}

func productFromListing(listing models.Listing) *models.Product {
	product := &models.Product{
		Name:        listing.Name,
		Description: listing.Description,
		City:        listing.Address.City,
		Country:     listing.Address.Country,
		Bedrooms:    listing.Bedrooms,
		Bathrooms:   listing.Bathrooms,
		MaxGuests:   listing.MaxGuests,
		BasePrice:   listing.Pricing.BasePrice,
		Currency:    listing.Pricing.Currency,
		InStock:     true,
	}
	if data, err := json.Marshal(listing); err == nil {
		product.ListingData = string(data)
	}
	return product
}
