// Package rentalsunited integrates the Rentals United PMS. The API is
// XML-only: request documents are POSTed to a single handler endpoint and
// responses are converted to the common nested-map shape by the client.
package rentalsunited

import (
	"context"
	"time"

	"github.com/git-seb/rental-sync-engine/internal/config"
	"github.com/git-seb/rental-sync-engine/internal/models"
	"github.com/git-seb/rental-sync-engine/internal/pms"
)

const handlerEndpoint = "Handler.ashx"

type Adapter struct {
	client        *pms.Client
	username      string
	password      string
	webhookSecret string
}

func New(pc config.ProviderConfig, base pms.ClientOptions) *Adapter {
	base.Provider = "rentalsunited"
	base.BaseURL = pc.BaseURL
	base.Token = pms.BasicAuth{Username: pc.Username, Password: pc.Password}
	return &Adapter{
		client:        pms.NewClient(base),
		username:      pc.Username,
		password:      pc.Password,
		webhookSecret: pc.WebhookSecret,
	}
}

func (a *Adapter) Name() string { return "rentalsunited" }

func (a *Adapter) FetchListings(ctx context.Context) ([]map[string]any, error) {
	resp, err := a.client.PostXML(ctx, handlerEndpoint, a.request("Pull_ListOwnerProp_RQ", nil))
	if err != nil {
		return nil, err
	}
	root := pms.MapField(resp, "Pull_ListOwnerProp_RS")
	return pms.ListField(pms.MapField(root, "Properties"), "Property"), nil
}

func (a *Adapter) FetchListing(ctx context.Context, listingID string) (map[string]any, error) {
	resp, err := a.client.PostXML(ctx, handlerEndpoint, a.request("Pull_ListSpecProp_RQ", map[string]string{
		"PropertyID": listingID,
	}))
	if err != nil {
		return nil, err
	}
	root := pms.MapField(resp, "Pull_ListSpecProp_RS")
	if prop := pms.MapField(root, "Property"); prop != nil {
		return prop, nil
	}
	return root, nil
}

func (a *Adapter) FetchAvailability(ctx context.Context, listingID string, from, to time.Time) (map[string]any, error) {
	resp, err := a.client.PostXML(ctx, handlerEndpoint, a.request("Pull_GetPropertyAvbCalendar_RQ", map[string]string{
		"PropertyID": listingID,
		"DateFrom":   from.Format("2006-01-02"),
		"DateTo":     to.Format("2006-01-02"),
	}))
	if err != nil {
		return nil, err
	}
	if root := pms.MapField(resp, "Pull_GetPropertyAvbCalendar_RS"); root != nil {
		return root, nil
	}
	return resp, nil
}

func (a *Adapter) FetchBookings(ctx context.Context, window pms.BookingWindow) ([]map[string]any, error) {
	fields := map[string]string{}
	if !window.From.IsZero() {
		fields["DateFrom"] = window.From.Format("2006-01-02")
	}
	if !window.To.IsZero() {
		fields["DateTo"] = window.To.Format("2006-01-02")
	}
	resp, err := a.client.PostXML(ctx, handlerEndpoint, a.request("Pull_ListReservations_RQ", fields))
	if err != nil {
		return nil, err
	}
	root := pms.MapField(resp, "Pull_ListReservations_RS")
	return pms.ListField(pms.MapField(root, "Reservations"), "Reservation"), nil
}

func (a *Adapter) FetchBooking(ctx context.Context, bookingID string) (map[string]any, error) {
	resp, err := a.client.PostXML(ctx, handlerEndpoint, a.request("Pull_GetReservation_RQ", map[string]string{
		"ReservationID": bookingID,
	}))
	if err != nil {
		return nil, err
	}
	root := pms.MapField(resp, "Pull_GetReservation_RS")
	if res := pms.MapField(root, "Reservation"); res != nil {
		return res, nil
	}
	return root, nil
}

func (a *Adapter) CreateBooking(ctx context.Context, booking models.Booking) (models.Booking, error) {
	resp, err := a.client.PostXML(ctx, handlerEndpoint, a.request("Push_PutConfirmedReservationMulti_RQ", a.prepareBooking(booking)))
	if err != nil {
		return models.Booking{}, err
	}
	root := pms.MapField(resp, "Push_PutConfirmedReservationMulti_RS")
	if res := pms.MapField(root, "Reservation"); res != nil {
		return a.NormalizeBooking(res), nil
	}
	created := booking
	created.ID = pms.StringField(root, "ReservationID")
	return created, nil
}

func (a *Adapter) UpdateBooking(ctx context.Context, bookingID string, booking models.Booking) (models.Booking, error) {
	// Rentals United has no separate update call; a confirmed-reservation
	// push with the reservation id replaces the existing record.
	fields := a.prepareBooking(booking)
	fields["ReservationID"] = bookingID
	resp, err := a.client.PostXML(ctx, handlerEndpoint, a.request("Push_PutConfirmedReservationMulti_RQ", fields))
	if err != nil {
		return models.Booking{}, err
	}
	root := pms.MapField(resp, "Push_PutConfirmedReservationMulti_RS")
	if res := pms.MapField(root, "Reservation"); res != nil {
		return a.NormalizeBooking(res), nil
	}
	updated := booking
	updated.ID = bookingID
	return updated, nil
}

func (a *Adapter) CancelBooking(ctx context.Context, bookingID string) error {
	_, err := a.client.PostXML(ctx, handlerEndpoint, a.request("Push_CancelReservation_RQ", map[string]string{
		"ReservationID": bookingID,
	}))
	return err
}

func (a *Adapter) NormalizeListing(raw map[string]any) models.Listing {
	if raw == nil {
		raw = map[string]any{}
	}
	pricing := pms.MapField(raw, "Pricing")
	return models.Listing{
		ID:          pms.StringField(raw, "PropertyID", "ID"),
		Name:        pms.StringField(raw, "PropertyName", "Name"),
		Description: pms.StringField(raw, "DetailedDescription"),
		Address: models.Address{
			Street:  pms.StringField(raw, "Street"),
			City:    pms.StringField(raw, "City"),
			State:   pms.StringField(raw, "Region"),
			Zip:     pms.StringField(raw, "ZipCode"),
			Country: pms.StringField(raw, "CountryCode"),
		},
		Bedrooms:  pms.IntField(raw, "Bedrooms"),
		Bathrooms: pms.FloatField(raw, "Bathrooms"),
		MaxGuests: pms.IntField(raw, "MaxGuests"),
		Amenities: pms.StringsField(pms.MapField(raw, "Amenities"), "Amenity"),
		Images:    pms.StringsField(pms.MapField(raw, "Images"), "Image"),
		Pricing: models.Pricing{
			BasePrice: pms.DecimalField(pricing, "BasePrice", "NightlyRate"),
			Currency:  currencyOrDefault(pricing),
		},
	}
}

func (a *Adapter) NormalizeBooking(raw map[string]any) models.Booking {
	if raw == nil {
		raw = map[string]any{}
	}
	booking := models.Booking{
		ID:             pms.StringField(raw, "ReservationID"),
		ListingID:      pms.StringField(raw, "PropertyID"),
		Status:         models.ParseBookingStatus(pms.StringField(raw, "Status")),
		CheckIn:        pms.DateField(raw, "DateFrom"),
		CheckOut:       pms.DateField(raw, "DateTo"),
		GuestName:      pms.StringField(raw, "GuestName"),
		GuestEmail:     pms.StringField(raw, "GuestEmail"),
		TotalAmount:    pms.DecimalField(raw, "TotalPrice"),
		Currency:       currencyOrDefault(raw),
		NumberOfGuests: guestsOrDefault(raw),
	}
	booking.Validate()
	return booking
}

func (a *Adapter) SignatureHeader() string { return "X-Hub-Signature" }

func (a *Adapter) VerifyWebhookSignature(body []byte, signature string) bool {
	return pms.VerifySignature(body, signature, a.webhookSecret)
}

func (a *Adapter) prepareBooking(booking models.Booking) map[string]string {
	return map[string]string{
		"PropertyID":     booking.ListingID,
		"DateFrom":       booking.CheckIn.Format("2006-01-02"),
		"DateTo":         booking.CheckOut.Format("2006-01-02"),
		"GuestName":      booking.GuestName,
		"GuestEmail":     booking.GuestEmail,
		"TotalPrice":     booking.TotalAmount.String(),
		"Currency":       booking.Currency,
		"NumberOfGuests": itoa(booking.NumberOfGuests),
	}
}

func currencyOrDefault(raw map[string]any) string {
	if c := pms.StringField(raw, "Currency"); c != "" {
		return c
	}
	return "USD"
}

func guestsOrDefault(raw map[string]any) int {
	if n := pms.IntField(raw, "NumberOfGuests"); n > 0 {
		return n
	}
	return 1
}
