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

// maxMilhasAdapter talks to the MaxMilhas search API, which supports flexible
// date ranges natively, so flexible queries are a single upstream call.
type maxMilhasAdapter struct {
	src    models.Source
	cfg    config.MaxMilhasConfig
	http   *http.Client
	logger *zap.Logger
}

func newMaxMilhasAdapter(src models.Source, cfg config.MaxMilhasConfig, logger *zap.Logger) *maxMilhasAdapter {
	return &maxMilhasAdapter{
		src:    src,
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (a *maxMilhasAdapter) Name() string { return a.src.Name }

type maxMilhasResponse struct {
	Results []struct {
		Airline       string          `json:"airline"`
		BestPrice     decimal.Decimal `json:"bestPrice"`
		Currency      string          `json:"currency"`
		Stops         int             `json:"stops"`
		Duration      int             `json:"durationMinutes"`
		URL           string          `json:"url"`
		DepartureDate string          `json:"departureDate"`
		ReturnDate    string          `json:"returnDate"`
	} `json:"results"`
}

func (a *maxMilhasAdapter) FetchOneWay(ctx context.Context, origin, destination models.Airport, departure time.Time) ([]models.Fare, error) {
	query := url.Values{}
	query.Set("from", origin.Code)
	query.Set("to", destination.Code)
	query.Set("departureDate", departure.Format(dateLayout))
	return a.search(ctx, origin, destination, departure, nil, query)
}

func (a *maxMilhasAdapter) FetchRoundTrip(ctx context.Context, origin, destination models.Airport, departure, returnDate time.Time) ([]models.Fare, error) {
	query := url.Values{}
	query.Set("from", origin.Code)
	query.Set("to", destination.Code)
	query.Set("departureDate", departure.Format(dateLayout))
	query.Set("returnDate", returnDate.Format(dateLayout))
	return a.search(ctx, origin, destination, departure, &returnDate, query)
}

func (a *maxMilhasAdapter) FetchFlexibleOneWay(ctx context.Context, origin, destination models.Airport, departureMin, departureMax time.Time) ([]models.Fare, error) {
	query := url.Values{}
	query.Set("from", origin.Code)
	query.Set("to", destination.Code)
	query.Set("departureInitDate", departureMin.Format(dateLayout))
	query.Set("departureEndDate", departureMax.Format(dateLayout))
	query.Set("flexible", "true")
	return a.search(ctx, origin, destination, departureMin, nil, query)
}

func (a *maxMilhasAdapter) FetchFlexibleRoundTrip(ctx context.Context, origin, destination models.Airport, departureMin, departureMax, returnMin, returnMax time.Time) ([]models.Fare, error) {
	query := url.Values{}
	query.Set("from", origin.Code)
	query.Set("to", destination.Code)
	query.Set("departureInitDate", departureMin.Format(dateLayout))
	query.Set("departureEndDate", departureMax.Format(dateLayout))
	query.Set("returnInitDate", returnMin.Format(dateLayout))
	query.Set("returnEndDate", returnMax.Format(dateLayout))
	query.Set("flexible", "true")
	return a.search(ctx, origin, destination, departureMin, &returnMin, query)
}

// Operational trusts the stored active flag. MaxMilhas has no cheap status
// endpoint and a search call is too expensive for a probe.
func (a *maxMilhasAdapter) Operational(ctx context.Context) bool {
	return a.src.Active
}

func (a *maxMilhasAdapter) Close() error {
	a.http.CloseIdleConnections()
	return nil
}

func (a *maxMilhasAdapter) search(ctx context.Context, origin, destination models.Airport, fallbackDeparture time.Time, fallbackReturn *time.Time, query url.Values) ([]models.Fare, error) {
	fullURL := strings.TrimRight(a.cfg.BaseURL, "/") + "/search/flights?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

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

	var parsed maxMilhasResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%s: malformed payload: %w", a.Name(), err)
	}

	fares := make([]models.Fare, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		offer := externalOffer{
			Airline:         r.Airline,
			Price:           r.BestPrice,
			Currency:        r.Currency,
			Stops:           r.Stops,
			DurationMinutes: r.Duration,
			BookingURL:      r.URL,
		}
		// Flexible responses carry per-result dates; single-date queries fall
		// back to the requested dates.
		if d, err := time.Parse(dateLayout, r.DepartureDate); err == nil {
			offer.DepartureDate = &d
		}
		if d, err := time.Parse(dateLayout, r.ReturnDate); err == nil {
			offer.ReturnDate = &d
		}
		fares = append(fares, normalizeFare(a.src, origin, destination, fallbackDeparture, fallbackReturn, offer))
	}
	return fares, nil
}
