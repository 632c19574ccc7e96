// Package uplisting integrates the Uplisting PMS: bearer-token auth, JSON
// responses in a `data` envelope.
package uplisting

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
	base.Provider = "uplisting"
	base.BaseURL = pc.BaseURL
	base.Token = pms.BearerToken{Token: pc.APIToken}
	return &Adapter{
		client:        pms.NewClient(base),
		webhookSecret: pc.WebhookSecret,
	}
}

func (a *Adapter) Name() string { return "uplisting" }

func (a *Adapter) FetchListings(ctx context.Context) ([]map[string]any, error) {
	resp, err := a.client.GetJSON(ctx, "listings", nil)
	if err != nil {
		return nil, err
	}
	return pms.ListField(resp, "data"), nil
}

func (a *Adapter) FetchListing(ctx context.Context, listingID string) (map[string]any, error) {
	resp, err := a.client.GetJSON(ctx, "listings/"+url.PathEscape(listingID), nil)
	if err != nil {
		return nil, err
	}
	return pms.MapField(resp, "data"), nil
}

func (a *Adapter) FetchAvailability(ctx context.Context, listingID string, from, to time.Time) (map[string]any, error) {
	query := url.Values{}
	query.Set("start_date", from.Format("2006-01-02"))
	query.Set("end_date", to.Format("2006-01-02"))
	return a.client.GetJSON(ctx, "listings/"+url.PathEscape(listingID)+"/availability", query)
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
	return pms.ListField(resp, "data"), nil
}

func (a *Adapter) FetchBooking(ctx context.Context, bookingID string) (map[string]any, error) {
	resp, err := a.client.GetJSON(ctx, "bookings/"+url.PathEscape(bookingID), nil)
	if err != nil {
		return nil, err
	}
	return pms.MapField(resp, "data"), nil
}

func (a *Adapter) CreateBooking(ctx context.Context, booking models.Booking) (models.Booking, error) {
	resp, err := a.client.PostJSON(ctx, "bookings", a.prepareBooking(booking))
	if err != nil {
		return models.Booking{}, err
	}
	return a.NormalizeBooking(pms.MapField(resp, "data")), nil
}

func (a *Adapter) UpdateBooking(ctx context.Context, bookingID string, booking models.Booking) (models.Booking, error) {
	resp, err := a.client.PatchJSON(ctx, "bookings/"+url.PathEscape(bookingID), a.prepareBooking(booking))
	if err != nil {
		return models.Booking{}, err
	}
	return a.NormalizeBooking(pms.MapField(resp, "data")), nil
}

func (a *Adapter) CancelBooking(ctx context.Context, bookingID string) error {
	_, err := a.client.Delete(ctx, "bookings/"+url.PathEscape(bookingID))
	return err
}

func (a *Adapter) NormalizeListing(raw map[string]any) models.Listing {
	if raw == nil {
		raw = map[string]any{}
	}
	pricing := pms.MapField(raw, "pricing")
	return models.Listing{
		ID:          pms.StringField(raw, "id"),
		Name:        pms.StringField(raw, "name"),
		Description: pms.StringField(raw, "description"),
		Address: models.Address{
			Street:  pms.StringField(raw, "address_line_1"),
			City:    pms.StringField(raw, "city"),
			State:   pms.StringField(raw, "state"),
			Zip:     pms.StringField(raw, "postcode"),
			Country: pms.StringField(raw, "country_code"),
		},
		Bedrooms:  pms.IntField(raw, "bedrooms"),
		Bathrooms: pms.FloatField(raw, "bathrooms"),
		MaxGuests: pms.IntField(raw, "max_guests"),
		Amenities: pms.StringsField(raw, "amenities"),
		Images:    pms.StringsField(raw, "images"),
		Pricing: models.Pricing{
			BasePrice: pms.DecimalField(pricing, "base_price", "nightly_rate"),
			Currency:  currencyOrDefault(pricing),
		},
	}
}

func (a *Adapter) NormalizeBooking(raw map[string]any) models.Booking {
	if raw == nil {
		raw = map[string]any{}
	}
	booking := models.Booking{
		ID:             pms.StringField(raw, "id"),
		ListingID:      pms.StringField(raw, "listing_id"),
		Status:         models.ParseBookingStatus(pms.StringField(raw, "status")),
		CheckIn:        pms.DateField(raw, "check_in_date"),
		CheckOut:       pms.DateField(raw, "check_out_date"),
		GuestName:      pms.StringField(raw, "guest_name"),
		GuestEmail:     pms.StringField(raw, "guest_email"),
		TotalAmount:    pms.DecimalField(raw, "total_price"),
		Currency:       currencyOrDefault(raw),
		NumberOfGuests: guestsOrDefault(raw),
	}
	booking.Validate()
	return booking
}

func (a *Adapter) SignatureHeader() string { return "X-Webhook-Signature" }

func (a *Adapter) VerifyWebhookSignature(body []byte, signature string) bool {
	return pms.VerifySignature(body, signature, a.webhookSecret)
}

func (a *Adapter) prepareBooking(booking models.Booking) map[string]any {
	return map[string]any{
		"listing_id":       booking.ListingID,
		"check_in_date":    booking.CheckIn.Format("2006-01-02"),
		"check_out_date":   booking.CheckOut.Format("2006-01-02"),
		"guest_name":       booking.GuestName,
		"guest_email":      booking.GuestEmail,
		"total_price":      booking.TotalAmount,
		"currency":         booking.Currency,
		"number_of_guests": booking.NumberOfGuests,
	}
}

func currencyOrDefault(raw map[string]any) string {
	if c := pms.StringField(raw, "currency"); c != "" {
		return c
	}
	return "USD"
}

func guestsOrDefault(raw map[string]any) int {
	if n := pms.IntField(raw, "number_of_guests"); n > 0 {
		return n
	}
	return 1
}
