package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"flightmatrix/internal/config"
	"flightmatrix/internal/models"
)

// milhas123Adapter mixes the 123milhas JSON API with HTML scraping: when the
// API yields nothing for a query, the public results page is fetched and
// parsed instead. Flexible one-way is native to the API; flexible round-trip
// is emulated.
type milhas123Adapter struct {
	src       models.Source
	cfg       config.Milhas123Config
	maxCombos int
	http      *http.Client
	probe     *http.Client
	logger    *zap.Logger
}

func newMilhas123Adapter(src models.Source, cfg config.Milhas123Config, maxCombos int, logger *zap.Logger) *milhas123Adapter {
	return &milhas123Adapter{
		src:       src,
		cfg:       cfg,
		maxCombos: maxCombos,
		http:      &http.Client{Timeout: cfg.Timeout},
		probe:     &http.Client{Timeout: cfg.ProbeTimeout},
		logger:    logger,
	}
}

func (a *milhas123Adapter) Name() string { return a.src.Name }

type milhas123Response struct {
	Flights []struct {
		Company  string          `json:"company"`
		Price    decimal.Decimal `json:"price"`
		Currency string          `json:"currency"`
		Stops    int             `json:"stops"`
		Duration int             `json:"duration"`
		Link     string          `json:"link"`
		Date     string          `json:"date"`
	} `json:"flights"`
}

func (a *milhas123Adapter) FetchOneWay(ctx context.Context, origin, destination models.Airport, departure time.Time) ([]models.Fare, error) {
	query := url.Values{}
	query.Set("from", origin.Code)
	query.Set("to", destination.Code)
	query.Set("departure", departure.Format(dateLayout))

	fares, err := a.searchAPI(ctx, origin, destination, departure, nil, query)
	if err == nil && len(fares) > 0 {
		return fares, nil
	}
	if err != nil {
		if Degraded(err) {
			return nil, err
		}
		if a.logger != nil {
			a.logger.Warn("api search failed, falling back to scraping",
				zap.String("source", a.Name()), zap.Error(err))
		}
	}
	return a.scrape(ctx, origin, destination, departure, nil)
}

func (a *milhas123Adapter) FetchRoundTrip(ctx context.Context, origin, destination models.Airport, departure, returnDate time.Time) ([]models.Fare, error) {
	query := url.Values{}
	query.Set("from", origin.Code)
	query.Set("to", destination.Code)
	query.Set("departure", departure.Format(dateLayout))
	query.Set("return", returnDate.Format(dateLayout))

	fares, err := a.searchAPI(ctx, origin, destination, departure, &returnDate, query)
	if err == nil && len(fares) > 0 {
		return fares, nil
	}
	if err != nil {
		if Degraded(err) {
			return nil, err
		}
		if a.logger != nil {
			a.logger.Warn("api search failed, falling back to scraping",
				zap.String("source", a.Name()), zap.Error(err))
		}
	}
	return a.scrape(ctx, origin, destination, departure, &returnDate)
}

func (a *milhas123Adapter) FetchFlexibleOneWay(ctx context.Context, origin, destination models.Airport, departureMin, departureMax time.Time) ([]models.Fare, error) {
	query := url.Values{}
	query.Set("from", origin.Code)
	query.Set("to", destination.Code)
	query.Set("departureInitDate", departureMin.Format(dateLayout))
	query.Set("departureEndDate", departureMax.Format(dateLayout))
	return a.searchAPI(ctx, origin, destination, departureMin, nil, query)
}

func (a *milhas123Adapter) FetchFlexibleRoundTrip(ctx context.Context, origin, destination models.Airport, departureMin, departureMax, returnMin, returnMax time.Time) ([]models.Fare, error) {
	fares := expandFlexibleRoundTrip(ctx, a.logger, a.Name(), departureMin, departureMax, returnMin, returnMax, a.maxCombos,
		func(ctx context.Context, dep, ret time.Time) ([]models.Fare, error) {
			return a.FetchRoundTrip(ctx, origin, destination, dep, ret)
		})
	return fares, nil
}

func (a *milhas123Adapter) Operational(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.SiteURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", a.cfg.UserAgent)
	resp, err := a.probe.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (a *milhas123Adapter) Close() error {
	a.http.CloseIdleConnections()
	a.probe.CloseIdleConnections()
	return nil
}

func (a *milhas123Adapter) searchAPI(ctx context.Context, origin, destination models.Airport, departure time.Time, returnDate *time.Time, query url.Values) ([]models.Fare, error) {
	fullURL := strings.TrimRight(a.cfg.BaseURL, "/") + "/search?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", a.cfg.UserAgent)

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

	var parsed milhas123Response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%s: malformed payload: %w", a.Name(), err)
	}

	fares := make([]models.Fare, 0, len(parsed.Flights))
	for _, f := range parsed.Flights {
		offer := externalOffer{
			Airline:         f.Company,
			Price:           f.Price,
			Currency:        f.Currency,
			Stops:           f.Stops,
			DurationMinutes: f.Duration,
			BookingURL:      f.Link,
		}
		if d, err := time.Parse(dateLayout, f.Date); err == nil {
			offer.DepartureDate = &d
		}
		fares = append(fares, normalizeFare(a.src, origin, destination, departure, returnDate, offer))
	}
	return fares, nil
}

// scrape loads the public results page and extracts offers from its flight
// cards. Selector drift upstream degrades to an empty result, never an error
// that would abort aggregation.
func (a *milhas123Adapter) scrape(ctx context.Context, origin, destination models.Airport, departure time.Time, returnDate *time.Time) ([]models.Fare, error) {
	pageURL := fmt.Sprintf("%s/busca?de=%s&para=%s&ida=%s",
		strings.TrimRight(a.cfg.SiteURL, "/"), origin.Code, destination.Code, departure.Format(dateLayout))
	if returnDate != nil {
		pageURL += "&volta=" + returnDate.Format(dateLayout)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", a.cfg.UserAgent)

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Source: a.Name(), Status: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: parse results page: %w", a.Name(), err)
	}

	var fares []models.Fare
	doc.Find("div.flight-card").Each(func(_ int, card *goquery.Selection) {
		priceText := strings.TrimSpace(card.Find(".price").First().Text())
		price, ok := parseBRLPrice(priceText)
		if !ok {
			return
		}
		offer := externalOffer{
			Airline:  strings.TrimSpace(card.Find(".airline").First().Text()),
			Price:    price,
			Currency: models.BaseCurrency,
			Stops:    parseStops(card.Find(".stops").First().Text()),
		}
		if href, exists := card.Find("a.booking-link").First().Attr("href"); exists {
			offer.BookingURL = absoluteURL(a.cfg.SiteURL, href)
		}
		fares = append(fares, normalizeFare(a.src, origin, destination, departure, returnDate, offer))
	})
	return fares, nil
}

var brlPricePattern = regexp.MustCompile(`(\d{1,3}(?:\.\d{3})*(?:,\d{2})?|\d+(?:,\d{2})?)`)

// parseBRLPrice extracts a decimal from display text like "R$ 1.234,56".
func parseBRLPrice(text string) (decimal.Decimal, bool) {
	match := brlPricePattern.FindString(text)
	if match == "" {
		return decimal.Zero, false
	}
	normalized := strings.ReplaceAll(match, ".", "")
	normalized = strings.ReplaceAll(normalized, ",", ".")
	price, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, false
	}
	return price, true
}

func parseStops(text string) int {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" || strings.Contains(text, "direto") || strings.Contains(text, "direct") {
		return 0
	}
	for _, field := range strings.Fields(text) {
		if n, err := strconv.Atoi(field); err == nil {
			return n
		}
	}
	return 0
}

func absoluteURL(base, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(href, "/")
}
