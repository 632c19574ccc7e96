// Package hostify integrates the Hostify PMS: static API-key auth, JSON
// responses in a `data` envelope, nested guest and price objects.
package hostify

import (
	"context"
	"net/url"
	"strings"
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
	base.Provider = "hostify"
	base.BaseURL = pc.BaseURL
	base.Token = pms.APIKey{Header: "X-API-Key", Key: pc.APIKey}
	return &Adapter{
		client:        pms.NewClient(base),
		webhookSecret: pc.WebhookSecret,
	}
}

func (a *Adapter) Name() string { return "hostify" }

func (a *Adapter) FetchListings(ctx context.Context) ([]map[string]any, error) {
	resp, err := a.client.GetJSON(ctx, "properties", nil)
	if err != nil {
		return nil, err
	}
	return pms.ListField(resp, "data"), nil
}

func (a *Adapter) FetchListing(ctx context.Context, listingID string) (map[string]any, error) {
	resp, err := a.client.GetJSON(ctx, "properties/"+url.PathEscape(listingID), nil)
	if err != nil {
		return nil, err
	}
	return pms.MapField(resp, "data"), nil
}

func (a *Adapter) FetchAvailability(ctx context.Context, listingID string, from, to time.Time) (map[string]any, error) {
	query := url.Values{}
	query.Set("from", from.Format("2006-01-02"))
	query.Set("to", to.Format("2006-01-02"))
	return a.client.GetJSON(ctx, "properties/"+url.PathEscape(listingID)+"/calendar", query)
}

func (a *Adapter) FetchBookings(ctx context.Context, window pms.BookingWindow) ([]map[string]any, error) {
	query := url.Values{}
	if !window.From.IsZero() {
		query.Set("from", window.From.Format("2006-01-02"))
	}
	if !window.To.IsZero() {
		query.Set("to", window.To.Format("2006-01-02"))
	}
	resp, err := a.client.GetJSON(ctx, "reservations", query)
	if err != nil {
		return nil, err
	}
	return pms.ListField(resp, "data"), nil
}

func (a *Adapter) FetchBooking(ctx context.Context, bookingID string) (map[string]any, error) {
	resp, err := a.client.GetJSON(ctx, "reservations/"+url.PathEscape(bookingID), nil)
	if err != nil {
		return nil, err
	}
	return pms.MapField(resp, "data"), nil
}

func (a *Adapter) CreateBooking(ctx context.Context, booking models.Booking) (models.Booking, error) {
	resp, err := a.client.PostJSON(ctx, "reservations", a.prepareBooking(booking))
	if err != nil {
		return models.Booking{}, err
	}
	return a.NormalizeBooking(pms.MapField(resp, "data")), nil
}

func (a *Adapter) UpdateBooking(ctx context.Context, bookingID string, booking models.Booking) (models.Booking, error) {
	resp, err := a.client.PutJSON(ctx, "reservations/"+url.PathEscape(bookingID), a.prepareBooking(booking))
	if err != nil {
		return models.Booking{}, err
	}
	return a.NormalizeBooking(pms.MapField(resp, "data")), nil
}

func (a *Adapter) CancelBooking(ctx context.Context, bookingID string) error {
	_, err := a.client.PostJSON(ctx, "reservations/"+url.PathEscape(bookingID)+"/cancel", map[string]any{})
	return err
}

func (a *Adapter) NormalizeListing(raw map[string]any) models.Listing {
	if raw == nil {
		raw = map[string]any{}
	}
	address := pms.MapField(raw, "address")
	pricing := pms.MapField(raw, "pricing")
	return models.Listing{
		ID:          pms.StringField(raw, "uid"),
		Name:        pms.StringField(raw, "name"),
		Description: pms.StringField(raw, "description"),
		Address: models.Address{
			Street:  pms.StringField(address, "street"),
			City:    pms.StringField(address, "city"),
			State:   pms.StringField(address, "state"),
			Zip:     pms.StringField(address, "zip"),
			Country: pms.StringField(address, "country"),
		},
		Bedrooms:  pms.IntField(raw, "bedrooms"),
		Bathrooms: pms.FloatField(raw, "bathrooms"),
		MaxGuests: pms.IntField(raw, "guests"),
		Amenities: pms.StringsField(raw, "amenities"),
		Images:    pms.StringsField(raw, "photos"),
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
	guest := pms.MapField(raw, "guest")
	price := pms.MapField(raw, "price")
	name := strings.TrimSpace(pms.StringField(guest, "firstName") + " " + pms.StringField(guest, "lastName"))
	booking := models.Booking{
		ID:             pms.StringField(raw, "uid"),
		ListingID:      pms.StringField(raw, "propertyUid"),
		Status:         models.ParseBookingStatus(pms.StringField(raw, "status")),
		CheckIn:        pms.DateField(raw, "checkIn"),
		CheckOut:       pms.DateField(raw, "checkOut"),
		GuestName:      name,
		GuestEmail:     pms.StringField(guest, "email"),
		TotalAmount:    pms.DecimalField(price, "total"),
		Currency:       currencyOrDefault(price),
		NumberOfGuests: guestsOrDefault(raw),
	}
	booking.Validate()
	return booking
}

func (a *Adapter) SignatureHeader() string { return "X-Hostify-Signature" }

func (a *Adapter) VerifyWebhookSignature(body []byte, signature string) bool {
	return pms.VerifySignature(body, signature, a.webhookSecret)
}

func (a *Adapter) prepareBooking(booking models.Booking) map[string]any {
	first, last := splitName(booking.GuestName)
	return map[string]any{
		"propertyUid": booking.ListingID,
		"checkIn":     booking.CheckIn.Format("2006-01-02"),
		"checkOut":    booking.CheckOut.Format("2006-01-02"),
		"guest": map[string]any{
			"firstName": first,
			"lastName":  last,
			"email":     booking.GuestEmail,
		},
		"price": map[string]any{
			"total":    booking.TotalAmount,
			"currency": booking.Currency,
		},
		"guests": booking.NumberOfGuests,
	}
}

func splitName(full string) (string, string) {
	parts := strings.SplitN(strings.TrimSpace(full), " ", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return parts[0], ""
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
