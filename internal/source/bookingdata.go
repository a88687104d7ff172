package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"flightmatrix/internal/config"
	"flightmatrix/internal/models"
)

// bookingDataAdapter talks to the RapidAPI booking-data lookup endpoint.
// The upstream has no flexible-date support, so both flexible forms are
// emulated by iterating concrete dates.
type bookingDataAdapter struct {
	src       models.Source
	cfg       config.BookingDataConfig
	maxCombos int
	http      *http.Client
	probe     *http.Client
	logger    *zap.Logger
}

func newBookingDataAdapter(src models.Source, cfg config.BookingDataConfig, maxCombos int, logger *zap.Logger) *bookingDataAdapter {
	return &bookingDataAdapter{
		src:       src,
		cfg:       cfg,
		maxCombos: maxCombos,
		http:      &http.Client{Timeout: cfg.Timeout},
		probe:     &http.Client{Timeout: cfg.ProbeTimeout},
		logger:    logger,
	}
}

func (a *bookingDataAdapter) Name() string { return a.src.Name }

type bookingDataResponse struct {
	Flights []struct {
		Airline         string  `json:"airline"`
		Price           string  `json:"price"`
		Currency        string  `json:"currency"`
		Stops           int     `json:"stops"`
		DurationMinutes int     `json:"durationMinutes"`
		DeepLink        string  `json:"deepLink"`
		PreviousPrice   *string `json:"previousPrice"`
	} `json:"flights"`
}

func (a *bookingDataAdapter) FetchOneWay(ctx context.Context, origin, destination models.Airport, departure time.Time) ([]models.Fare, error) {
	return a.lookup(ctx, origin, destination, departure, nil)
}

func (a *bookingDataAdapter) FetchRoundTrip(ctx context.Context, origin, destination models.Airport, departure, returnDate time.Time) ([]models.Fare, error) {
	return a.lookup(ctx, origin, destination, departure, &returnDate)
}

func (a *bookingDataAdapter) FetchFlexibleOneWay(ctx context.Context, origin, destination models.Airport, departureMin, departureMax time.Time) ([]models.Fare, error) {
	fares := expandFlexibleOneWay(ctx, a.logger, a.Name(), departureMin, departureMax,
		func(ctx context.Context, d time.Time) ([]models.Fare, error) {
			return a.FetchOneWay(ctx, origin, destination, d)
		})
	return fares, nil
}

func (a *bookingDataAdapter) FetchFlexibleRoundTrip(ctx context.Context, origin, destination models.Airport, departureMin, departureMax, returnMin, returnMax time.Time) ([]models.Fare, error) {
	fares := expandFlexibleRoundTrip(ctx, a.logger, a.Name(), departureMin, departureMax, returnMin, returnMax, a.maxCombos,
		func(ctx context.Context, dep, ret time.Time) ([]models.Fare, error) {
			return a.FetchRoundTrip(ctx, origin, destination, dep, ret)
		})
	return fares, nil
}

func (a *bookingDataAdapter) Operational(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(a.cfg.BaseURL, "/")+"/status", nil)
	if err != nil {
		return false
	}
	a.setHeaders(req)
	resp, err := a.probe.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (a *bookingDataAdapter) Close() error {
	a.http.CloseIdleConnections()
	a.probe.CloseIdleConnections()
	return nil
}

func (a *bookingDataAdapter) lookup(ctx context.Context, origin, destination models.Airport, departure time.Time, returnDate *time.Time) ([]models.Fare, error) {
	query := url.Values{}
	query.Set("origin", origin.Code)
	query.Set("destination", destination.Code)
	query.Set("departureDate", departure.Format(dateLayout))
	if returnDate != nil {
		query.Set("returnDate", returnDate.Format(dateLayout))
	}

	body, err := a.doRequest(ctx, "/lookup", query)
	if err != nil {
		return nil, err
	}

	var parsed bookingDataResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%s: malformed payload: %w", a.Name(), err)
	}

	fares := make([]models.Fare, 0, len(parsed.Flights))
	for _, f := range parsed.Flights {
		price, err := decimal.NewFromString(f.Price)
		if err != nil {
			if a.logger != nil {
				a.logger.Warn("skipping offer with unparseable price",
					zap.String("source", a.Name()), zap.String("price", f.Price))
			}
			continue
		}
		offer := externalOffer{
			Airline:         f.Airline,
			Price:           price,
			Currency:        f.Currency,
			Stops:           f.Stops,
			DurationMinutes: f.DurationMinutes,
			BookingURL:      f.DeepLink,
		}
		if f.PreviousPrice != nil {
			if prev, err := decimal.NewFromString(*f.PreviousPrice); err == nil {
				offer.PreviousPrice = &prev
			}
		}
		fares = append(fares, normalizeFare(a.src, origin, destination, departure, returnDate, offer))
	}
	return fares, nil
}

func (a *bookingDataAdapter) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	fullURL := strings.TrimRight(a.cfg.BaseURL, "/") + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	a.setHeaders(req)
	resp, err := a.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Source: a.Name(), Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func (a *bookingDataAdapter) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-RapidAPI-Key", a.cfg.APIKey)
	if host := hostOf(a.cfg.BaseURL); host != "" {
		req.Header.Set("X-RapidAPI-Host", host)
	}
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}
