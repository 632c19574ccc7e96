// Package nextpax integrates the NextPax PMS: static API-key auth, flat JSON
// records, list responses keyed by resource name and single records unwrapped.
package nextpax

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
	base.Provider = "nextpax"
	base.BaseURL = pc.BaseURL
	base.Token = pms.APIKey{Header: "X-API-KEY", Key: pc.APIKey}
	return &Adapter{
		client:        pms.NewClient(base),
		webhookSecret: pc.WebhookSecret,
	}
}

func (a *Adapter) Name() string { return "nextpax" }

func (a *Adapter) FetchListings(ctx context.Context) ([]map[string]any, error) {
	resp, err := a.client.GetJSON(ctx, "properties", nil)
	if err != nil {
		return nil, err
	}
	return pms.ListField(resp, "properties"), nil
}

func (a *Adapter) FetchListing(ctx context.Context, listingID string) (map[string]any, error) {
	return a.client.GetJSON(ctx, "properties/"+url.PathEscape(listingID), nil)
}

func (a *Adapter) FetchAvailability(ctx context.Context, listingID string, from, to time.Time) (map[string]any, error) {
	query := url.Values{}
	query.Set("property_id", listingID)
	query.Set("from", from.Format("2006-01-02"))
	query.Set("to", to.Format("2006-01-02"))
	return a.client.GetJSON(ctx, "availability", query)
}

func (a *Adapter) FetchBookings(ctx context.Context, window pms.BookingWindow) ([]map[string]any, error) {
	query := url.Values{}
	if !window.From.IsZero() {
		query.Set("from", window.From.Format("2006-01-02"))
	}
	if !window.To.IsZero() {
		query.Set("to", window.To.Format("2006-01-02"))
	}
	resp, err := a.client.GetJSON(ctx, "bookings", query)
	if err != nil {
		return nil, err
	}
	return pms.ListField(resp, "bookings"), nil
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
	rates := pms.MapField(raw, "rates")
	return models.Listing{
		ID:          pms.StringField(raw, "id"),
		Name:        pms.StringField(raw, "title"),
		Description: pms.StringField(raw, "description"),
		Address: models.Address{
			Street:  pms.StringField(raw, "street"),
			City:    pms.StringField(raw, "city"),
			State:   pms.StringField(raw, "region"),
			Zip:     pms.StringField(raw, "postal_code"),
			Country: pms.StringField(raw, "country"),
		},
		Bedrooms:  pms.IntField(raw, "bedrooms"),
		Bathrooms: pms.FloatField(raw, "bathrooms"),
		MaxGuests: pms.IntField(raw, "max_occupancy"),
		Amenities: pms.StringsField(raw, "amenities"),
		Images:    pms.StringsField(raw, "images"),
		Pricing: models.Pricing{
			BasePrice: pms.DecimalField(rates, "base_price", "nightly_rate"),
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
		ListingID:      pms.StringField(raw, "property_id"),
		Status:         models.ParseBookingStatus(pms.StringField(raw, "status")),
		CheckIn:        pms.DateField(raw, "checkin_date"),
		CheckOut:       pms.DateField(raw, "checkout_date"),
		GuestName:      pms.StringField(raw, "guest_name"),
		GuestEmail:     pms.StringField(raw, "guest_email"),
		TotalAmount:    pms.DecimalField(raw, "total"),
		Currency:       currencyOrDefault(raw),
		NumberOfGuests: guestsOrDefault(raw),
	}
	booking.Validate()
	return booking
}

func (a *Adapter) SignatureHeader() string { return "X-NextPax-Signature" }

func (a *Adapter) VerifyWebhookSignature(body []byte, signature string) bool {
	return pms.VerifySignature(body, signature, a.webhookSecret)
}

func (a *Adapter) prepareBooking(booking models.Booking) map[string]any {
	return map[string]any{
		"property_id":   booking.ListingID,
		"checkin_date":  booking.CheckIn.Format("2006-01-02"),
		"checkout_date": booking.CheckOut.Format("2006-01-02"),
		"guest_name":    booking.GuestName,
		"guest_email":   booking.GuestEmail,
		"total":         booking.TotalAmount,
		"currency":      booking.Currency,
		"guests":        booking.NumberOfGuests,
	}
}

func currencyOrDefault(raw map[string]any) string {
	if c := pms.StringField(raw, "currency"); c != "" {
		return c
	}
	return "USD"
}

func guestsOrDefault(raw map[string]any) int {
	if n := pms.IntField(raw, "guests"); n > 0 {
		return n
	}
	return 1
}
