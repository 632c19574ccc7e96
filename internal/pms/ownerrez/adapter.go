// Package ownerrez integrates the OwnerRez PMS: bearer token plus an
// account-name header, JSON responses in an `items` envelope.
package ownerrez

import (
	"context"
	"net/url"
	"time"

	"github.com/git-seb/rental-sync-engine/internal/config"
	"github.com/git-seb/rental-sync-engine/internal/models"
	"github.com/git-seb/rental-sync-engine/internal/pms"
)

type Adapter struct {
	client        *pms.Client
	webhookSecret string
}

func New(pc config.ProviderConfig, base pms.ClientOptions) *Adapter {
	base.Provider = "ownerrez"
	base.BaseURL = pc.BaseURL
	base.Token = pms.BearerToken{
		Token: pc.APIToken,
		Extra: map[string]string{"X-OwnerRez-Username": pc.Username},
	}
	return &Adapter{
		client:        pms.NewClient(base),
		webhookSecret: pc.WebhookSecret,
	}
}

func (a *Adapter) Name() string { return "ownerrez" }

func (a *Adapter) FetchListings(ctx context.Context) ([]map[string]any, error) {
	resp, err := a.client.GetJSON(ctx, "properties", nil)
	if err != nil {
		return nil, err
	}
	return pms.ListField(resp, "items"), nil
}

func (a *Adapter) FetchListing(ctx context.Context, listingID string) (map[string]any, error) {
	return a.client.GetJSON(ctx, "properties/"+url.PathEscape(listingID), nil)
}

func (a *Adapter) FetchAvailability(ctx context.Context, listingID string, from, to time.Time) (map[string]any, error) {
	query := url.Values{}
	query.Set("startDate", from.Format("2006-01-02"))
	query.Set("endDate", to.Format("2006-01-02"))
	return a.client.GetJSON(ctx, "properties/"+url.PathEscape(listingID)+"/calendar", query)
}

func (a *Adapter) FetchBookings(ctx context.Context, window pms.BookingWindow) ([]map[string]any, error) {
	query := url.Values{}
	if !window.From.IsZero() {
		query.Set("arrivalFrom", window.From.Format("2006-01-02"))
	}
	if !window.To.IsZero() {
		query.Set("arrivalTo", window.To.Format("2006-01-02"))
	}
	resp, err := a.client.GetJSON(ctx, "bookings", query)
	if err != nil {
		return nil, err
	}
	return pms.ListField(resp, "items"), nil
}

func (a *Adapter) FetchBooking(ctx context.Context, bookingID string) (map[string]any, error) {
	return a.client.GetJSON(ctx, "bookings/"+url.PathEscape(bookingID), nil)
}

func (a *Adapter) CreateBooking(ctx context.Context, booking models.Booking) (models.Booking, error) {
	resp, err := a.client.PostJSON(ctx, "bookings", a.prepareBooking(booking))
	if err != nil {
		return models.Booking{}, err
	}
	return a.NormalizeBooking(resp), nil
}

func (a *Adapter) UpdateBooking(ctx context.Context, bookingID string, booking models.Booking) (models.Booking, error) {
	resp, err := a.client.PutJSON(ctx, "bookings/"+url.PathEscape(bookingID), a.prepareBooking(booking))
	if err != nil {
		return models.Booking{}, err
	}
	return a.NormalizeBooking(resp), nil
}

func (a *Adapter) CancelBooking(ctx context.Context, bookingID string) error {
	_, err := a.client.PostJSON(ctx, "bookings/"+url.PathEscape(bookingID)+"/cancel", map[string]any{})
	return err
}

func (a *Adapter) NormalizeListing(raw map[string]any) models.Listing {
	if raw == nil {
		raw = map[string]any{}
	}
	address := pms.MapField(raw, "address")
	rates := pms.MapField(raw, "rates")
	return models.Listing{
		ID:          pms.StringField(raw, "id"),
		Name:        pms.StringField(raw, "name"),
		Description: pms.StringField(raw, "description"),
		Address: models.Address{
			Street:  pms.StringField(address, "addressLine1"),
			City:    pms.StringField(address, "city"),
			State:   pms.StringField(address, "state"),
			Zip:     pms.StringField(address, "postalCode"),
			Country: pms.StringField(address, "country"),
		},
		Bedrooms:  pms.IntField(raw, "bedrooms"),
		Bathrooms: pms.FloatField(raw, "bathrooms"),
		MaxGuests: pms.IntField(raw, "maxOccupancy"),
		Amenities: pms.StringsField(raw, "amenities"),
		Images:    pms.StringsField(raw, "photos"),
		Pricing: models.Pricing{
			BasePrice: pms.DecimalField(rates, "nightly", "base"),
			Currency:  currencyOrDefault(rates),
		},
	}
}

func (a *Adapter) NormalizeBooking(raw map[string]any) models.Booking {
	if raw == nil {
		raw = map[string]any{}
	}
	booking := models.Booking{
		ID:             pms.StringField(raw, "id"),
		ListingID:      pms.StringField(raw, "propertyId"),
		Status:         models.ParseBookingStatus(pms.StringField(raw, "status")),
		CheckIn:        pms.DateField(raw, "arrival"),
		CheckOut:       pms.DateField(raw, "departure"),
		GuestName:      pms.StringField(raw, "guestName"),
		GuestEmail:     pms.StringField(raw, "guestEmail"),
		TotalAmount:    pms.DecimalField(raw, "totalAmount"),
		Currency:       currencyOrDefault(raw),
		NumberOfGuests: guestsOrDefault(raw),
	}
	booking.Validate()
	return booking
}

func (a *Adapter) SignatureHeader() string { return "X-Signature" }

func (a *Adapter) VerifyWebhookSignature(body []byte, signature string) bool {
	return pms.VerifySignature(body, signature, a.webhookSecret)
}

func (a *Adapter) prepareBooking(booking models.Booking) map[string]any {
	return map[string]any{
		"propertyId":     booking.ListingID,
		"arrival":        booking.CheckIn.Format("2006-01-02"),
		"departure":      booking.CheckOut.Format("2006-01-02"),
		"guestName":      booking.GuestName,
		"guestEmail":     booking.GuestEmail,
		"totalAmount":    booking.TotalAmount,
		"currency":       booking.Currency,
		"numberOfGuests": booking.NumberOfGuests,
	}
}

func currencyOrDefault(raw map[string]any) string {
	if c := pms.StringField(raw, "currency"); c != "" {
		return c
	}
	return "USD"
}

func guestsOrDefault(raw map[string]any) int {
	if n := pms.IntField(raw, "numberOfGuests"); n > 0 {
		return n
	}
	return 1
}
