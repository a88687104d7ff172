// Package source unifies heterogeneous flight-data providers behind one
// adapter contract and resolves source rows to adapter instances.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"flightmatrix/internal/airline"
	"flightmatrix/internal/models"
)

const dateLayout = "2006-01-02"

// Adapter is implemented once per upstream source. Fetch methods return the
// normalized fares found for the query; network or parse trouble surfaces as
// an error only from the single-date methods; flexible scans absorb
// per-date failures and return what they gathered.
type Adapter interface {
	Name() string

	FetchOneWay(ctx context.Context, origin, destination models.Airport, departure time.Time) ([]models.Fare, error)
	FetchRoundTrip(ctx context.Context, origin, destination models.Airport, departure, returnDate time.Time) ([]models.Fare, error)
	FetchFlexibleOneWay(ctx context.Context, origin, destination models.Airport, departureMin, departureMax time.Time) ([]models.Fare, error)
	FetchFlexibleRoundTrip(ctx context.Context, origin, destination models.Airport, departureMin, departureMax, returnMin, returnMax time.Time) ([]models.Fare, error)

	// Operational is a best-effort health probe with a short timeout.
	// It reports false on any failure and never returns an error.
	Operational(ctx context.Context) bool

	Close() error
}

// StatusError is a non-2xx upstream response. Rate-limit and server-error
// statuses mark the source as temporarily degraded so a caller can skip it
// for the remainder of a run.
type StatusError struct {
	Source string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: upstream status %d: %s", e.Source, e.Status, e.Body)
}

// Degraded reports whether err indicates an overloaded or rate-limiting
// upstream (HTTP 429 or any 5xx).
func Degraded(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.Status == http.StatusTooManyRequests || se.Status >= 500
}

// externalOffer is the adapter-internal shape every upstream payload is
// reduced to before normalization.
type externalOffer struct {
	Airline         string
	Price           decimal.Decimal
	PreviousPrice   *decimal.Decimal
	Currency        string
	Stops           int
	DurationMinutes int
	BookingURL      string
	DepartureDate   *time.Time
	ReturnDate      *time.Time
}

// normalizeFare builds the canonical Fare for one offer: currency conversion
// at the fixed rate (keeping the original for audit), base-currency default,
// logo lookup, and the query timestamp.
func normalizeFare(src models.Source, origin, destination models.Airport, departure time.Time, returnDate *time.Time, offer externalOffer) models.Fare {
	currency := offer.Currency
	if currency == "" {
		currency = models.BaseCurrency
	}

	price := offer.Price
	var originalPrice *decimal.Decimal
	originalCurrency := ""
	converted := airline.ConvertToBase(price, currency)
	if !converted.Equal(price) {
		p := price
		originalPrice = &p
		originalCurrency = currency
		price = converted
		currency = models.BaseCurrency
	}

	dep := departure
	if offer.DepartureDate != nil {
		dep = *offer.DepartureDate
	}
	ret := returnDate
	if offer.ReturnDate != nil {
		ret = offer.ReturnDate
	}

	return models.Fare{
		OriginCode:       origin.Code,
		Origin:           origin,
		DestinationCode:  destination.Code,
		Destination:      destination,
		DepartureDate:    dep,
		ReturnDate:       ret,
		Price:            price,
		PreviousPrice:    offer.PreviousPrice,
		Currency:         currency,
		OriginalPrice:    originalPrice,
		OriginalCurrency: originalCurrency,
		Airline:          offer.Airline,
		AirlineLogoURL:   airline.LogoURL(offer.Airline),
		Stops:            offer.Stops,
		DurationMinutes:  offer.DurationMinutes,
		BookingURL:       offer.BookingURL,
		SourceID:         src.ID,
		Source:           src,
		QueriedAt:        time.Now().UTC(),
	}
}
