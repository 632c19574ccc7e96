// Package hostaway integrates the Hostaway PMS. Auth is OAuth2 client
// credentials with a cached access token; all responses arrive in a
// `result` envelope.
package hostaway

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
	base.Provider = "hostaway"
	base.BaseURL = pc.BaseURL
	base.Token = newTokenSource(pc.BaseURL, pc.APIKey, pc.APISecret, base.Timeout)
	return &Adapter{
		client:        pms.NewClient(base),
		webhookSecret: pc.WebhookSecret,
	}
}

func (a *Adapter) Name() string { return "hostaway" }

func (a *Adapter) FetchListings(ctx context.Context) ([]map[string]any, error) {
	resp, err := a.client.GetJSON(ctx, "listings", nil)
	if err != nil {
		return nil, err
	}
	return pms.ListField(resp, "result"), nil
}

func (a *Adapter) FetchListing(ctx context.Context, listingID string) (map[string]any, error) {
	resp, err := a.client.GetJSON(ctx, "listings/"+url.PathEscape(listingID), nil)
	if err != nil {
		return nil, err
	}
	return pms.MapField(resp, "result"), nil
}

func (a *Adapter) FetchAvailability(ctx context.Context, listingID string, from, to time.Time) (map[string]any, error) {
	query := url.Values{}
	query.Set("listingId", listingID)
	query.Set("startDate", from.Format("2006-01-02"))
	query.Set("endDate", to.Format("2006-01-02"))
	return a.client.GetJSON(ctx, "calendars", query)
}

func (a *Adapter) FetchBookings(ctx context.Context, window pms.BookingWindow) ([]map[string]any, error) {
	query := url.Values{}
	if !window.From.IsZero() {
		query.Set("arrivalStartDate", window.From.Format("2006-01-02"))
	}
	if !window.To.IsZero() {
		query.Set("arrivalEndDate", window.To.Format("2006-01-02"))
	}
	resp, err := a.client.GetJSON(ctx, "reservations", query)
	if err != nil {
		return nil, err
	}
	return pms.ListField(resp, "result"), nil
}

func (a *Adapter) FetchBooking(ctx context.Context, bookingID string) (map[string]any, error) {
	resp, err := a.client.GetJSON(ctx, "reservations/"+url.PathEscape(bookingID), nil)
	if err != nil {
		return nil, err
	}
	return pms.MapField(resp, "result"), nil
}

func (a *Adapter) CreateBooking(ctx context.Context, booking models.Booking) (models.Booking, error) {
	resp, err := a.client.PostJSON(ctx, "reservations", a.prepareBooking(booking))
	if err != nil {
		return models.Booking{}, err
	}
	return a.NormalizeBooking(pms.MapField(resp, "result")), nil
}

func (a *Adapter) UpdateBooking(ctx context.Context, bookingID string, booking models.Booking) (models.Booking, error) {
	resp, err := a.client.PutJSON(ctx, "reservations/"+url.PathEscape(bookingID), a.prepareBooking(booking))
	if err != nil {
		return models.Booking{}, err
	}
	return a.NormalizeBooking(pms.MapField(resp, "result")), nil
}

func (a *Adapter) CancelBooking(ctx context.Context, bookingID string) error {
	_, err := a.client.Delete(ctx, "reservations/"+url.PathEscape(bookingID))
	return err
}

func (a *Adapter) NormalizeListing(raw map[string]any) models.Listing {
	if raw == nil {
		raw = map[string]any{}
	}
	return models.Listing{
		ID:          pms.StringField(raw, "id"),
		Name:        pms.StringField(raw, "name"),
		Description: pms.StringField(raw, "description"),
		Address: models.Address{
			Street:  pms.StringField(raw, "address"),
			City:    pms.StringField(raw, "city"),
			State:   pms.StringField(raw, "state"),
			Zip:     pms.StringField(raw, "zipcode"),
			Country: pms.StringField(raw, "countryCode"),
		},
		Bedrooms:  pms.IntField(raw, "bedrooms"),
		Bathrooms: pms.FloatField(raw, "bathrooms"),
		MaxGuests: pms.IntField(raw, "accommodates"),
		Amenities: pms.StringsField(raw, "amenities"),
		Images:    pms.StringsField(raw, "images"),
		Pricing: models.Pricing{
			BasePrice: pms.DecimalField(raw, "price"),
			Currency:  currencyOrDefault(raw),
		},
	}
}

func (a *Adapter) NormalizeBooking(raw map[string]any) models.Booking {
	if raw == nil {
		raw = map[string]any{}
	}
	booking := models.Booking{
		ID:             pms.StringField(raw, "id"),
		ListingID:      pms.StringField(raw, "listingId"),
		Status:         models.ParseBookingStatus(pms.StringField(raw, "status")),
		CheckIn:        pms.DateField(raw, "arrivalDate"),
		CheckOut:       pms.DateField(raw, "departureDate"),
		GuestName:      pms.StringField(raw, "guestName"),
		GuestEmail:     pms.StringField(raw, "guestEmail"),
		TotalAmount:    pms.DecimalField(raw, "totalPrice"),
		Currency:       currencyOrDefault(raw),
		NumberOfGuests: guestsOrDefault(raw, "numberOfGuests"),
	}
	booking.Validate()
	return booking
}

func (a *Adapter) SignatureHeader() string { return "X-Hostaway-Signature" }

func (a *Adapter) VerifyWebhookSignature(body []byte, signature string) bool {
	return pms.VerifySignature(body, signature, a.webhookSecret)
}

func (a *Adapter) prepareBooking(booking models.Booking) map[string]any {
	return map[string]any{
		"listingId":      booking.ListingID,
		"arrivalDate":    booking.CheckIn.Format("2006-01-02"),
		"departureDate":  booking.CheckOut.Format("2006-01-02"),
		"guestName":      booking.GuestName,
		"guestEmail":     booking.GuestEmail,
		"totalPrice":     booking.TotalAmount,
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

func guestsOrDefault(raw map[string]any, keys ...string) int {
	if n := pms.IntField(raw, keys...); n > 0 {
		return n
	}
	return 1
}
