package deal

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"flightmatrix/internal/config"
	"flightmatrix/internal/models"
	"flightmatrix/internal/repository"
)

var (
	gru = models.Airport{Code: "GRU", City: "São Paulo", Country: "Brasil"}
	sjk = models.Airport{Code: "SJK", City: "São José dos Campos", Country: "Brasil"}
	sjp = models.Airport{Code: "SJP", City: "São José do Rio Preto", Country: "Brasil"}
	mia = models.Airport{Code: "MIA", City: "Miami", Country: "Estados Unidos"}
)

type stubHistory struct {
	history []models.PriceHistory
	fares   []models.Fare
}

func (s *stubHistory) ListPriceHistoryForRoute(context.Context, string, string, time.Time, time.Time) ([]models.PriceHistory, error) {
	return s.history, nil
}

func (s *stubHistory) ListFares(context.Context, repository.ListFaresParams) ([]models.Fare, error) {
	return s.fares, nil
}

func defaults() config.DealConfig {
	return config.DealConfig{
		DropPct:              20,
		BelowAvgPct:          15,
		LookbackDays:         30,
		DomesticFloor:        50,
		LowCostFloor:         150,
		InternationalFloor:   300,
		MaxFavorableStops:    1,
		DomesticCeiling:      200,
		InternationalCeiling: 600,
		LastMinuteDays:       7,
	}
}

func newClassifier(repo HistoryReader) *Classifier {
	return &Classifier{Repo: repo, Config: defaults(), Logger: zap.NewNop()}
}

// farAway keeps fares out of last-minute range so only the rule under test
// can fire.
var farAway = time.Now().AddDate(0, 6, 0)

func intlFare(price int64) models.Fare {
	return models.Fare{
		OriginCode: "GRU", Origin: gru,
		DestinationCode: "MIA", Destination: mia,
		DepartureDate: farAway,
		Price:         decimal.NewFromInt(price),
		Airline:       "American Airlines",
		Stops:         3,
	}
}

// domesticFare needs endpoints sharing a country prefix; SJK and SJP both
// start with "SJ", so Domestic() holds.
func domesticFare(price int64) models.Fare {
	f := intlFare(price)
	f.OriginCode = "SJK"
	f.Origin = sjk
	f.DestinationCode = "SJP"
	f.Destination = sjp
	f.Airline = "LATAM"
	return f
}

func prev(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestPriceDropBoundary(t *testing.T) {
	c := newClassifier(&stubHistory{})

	// Prices scaled 10x over the canonical 79/100 example so the absolute
	// floors stay quiet and only the drop rule is exercised.
	deal := intlFare(790)
	deal.PreviousPrice = prev(1000)
	if !c.IsDeal(context.Background(), deal) {
		t.Fatal("21% drop must qualify at a 20% threshold")
	}

	notDeal := intlFare(700)
	notDeal.Price = decimal.NewFromInt(810)
	notDeal.PreviousPrice = prev(1000)
	if c.IsDeal(context.Background(), notDeal) {
		t.Fatal("19% drop must not qualify at a 20% threshold")
	}
}

func TestPriceDropIgnoresNonPositivePrevious(t *testing.T) {
	c := newClassifier(&stubHistory{})
	f := intlFare(700)
	f.PreviousPrice = prev(0)
	if c.IsDeal(context.Background(), f) {
		t.Fatal("zero previous price must not divide into a deal")
	}
}

func TestBelowHistoricalAverage(t *testing.T) {
	history := []models.PriceHistory{
		{Price: decimal.NewFromInt(1000)},
		{Price: decimal.NewFromInt(1000)},
		{Price: decimal.NewFromInt(1000)},
	}
	c := newClassifier(&stubHistory{history: history})

	// Mean 1000, threshold 850.
	if !c.IsDeal(context.Background(), intlFare(850)) {
		t.Fatal("price at mean*(1-15%) must qualify")
	}
	if c.IsDeal(context.Background(), intlFare(851)) {
		t.Fatal("price just above the threshold must not qualify")
	}
}

func TestBelowAverageNeverFiresWithoutHistory(t *testing.T) {
	c := newClassifier(&stubHistory{})
	if c.IsDeal(context.Background(), intlFare(851)) {
		t.Fatal("empty history must not make the average rule fire")
	}
}

func TestDomesticFloorBoundary(t *testing.T) {
	c := newClassifier(&stubHistory{})
	if !c.IsDeal(context.Background(), domesticFare(50)) {
		t.Fatal("domestic fare at the floor must qualify")
	}
	if c.IsDeal(context.Background(), domesticFare(51)) {
		t.Fatal("domestic fare above the floor must not qualify")
	}
}

func TestInternationalFloors(t *testing.T) {
	c := newClassifier(&stubHistory{})

	lowCost := intlFare(150)
	lowCost.Airline = "Ryanair"
	if !c.IsDeal(context.Background(), lowCost) {
		t.Fatal("low-cost international fare at 150 must qualify")
	}

	fullService := intlFare(150)
	fullService.Price = decimal.NewFromInt(300)
	if !c.IsDeal(context.Background(), fullService) {
		t.Fatal("international fare at 300 must qualify")
	}
	fullService.Price = decimal.NewFromInt(301)
	if c.IsDeal(context.Background(), fullService) {
		t.Fatal("international fare at 301 must not qualify")
	}
}

func TestFavorableCombinationFewStops(t *testing.T) {
	c := newClassifier(&stubHistory{})

	f := intlFare(550)
	f.Stops = 1
	if !c.IsDeal(context.Background(), f) {
		t.Fatal("1 stop at 550 international must qualify")
	}
	f.Stops = 2
	if c.IsDeal(context.Background(), f) {
		t.Fatal("2 stops must not qualify via the stops branch")
	}
}

func TestFavorableCombinationLastMinute(t *testing.T) {
	c := newClassifier(&stubHistory{})

	f := domesticFare(180)
	f.Stops = 3
	f.DepartureDate = time.Now().AddDate(0, 0, 3)
	if !c.IsDeal(context.Background(), f) {
		t.Fatal("last-minute departure under the ceiling must qualify")
	}
	f.DepartureDate = time.Now().AddDate(0, 0, 20)
	if c.IsDeal(context.Background(), f) {
		t.Fatal("departure outside the last-minute window must not qualify")
	}
}

func TestIsDealRejectsNonPositivePrice(t *testing.T) {
	c := newClassifier(&stubHistory{})
	f := domesticFare(0)
	if c.IsDeal(context.Background(), f) {
		t.Fatal("zero price must never be a deal")
	}
}

func TestIsDealIdempotent(t *testing.T) {
	c := newClassifier(&stubHistory{history: []models.PriceHistory{{Price: decimal.NewFromInt(1000)}}})
	f := intlFare(850)
	first := c.IsDeal(context.Background(), f)
	second := c.IsDeal(context.Background(), f)
	if first != second {
		t.Fatal("IsDeal must be idempotent for the same fare and history")
	}
}

func TestIdentifyDealsFiltersAndSorts(t *testing.T) {
	c := newClassifier(&stubHistory{})
	fares := []models.Fare{
		domesticFare(45),
		domesticFare(900), // not a deal
		domesticFare(30),
		domesticFare(0), // non-positive price filtered
	}
	deals := c.IdentifyDeals(context.Background(), fares)
	if len(deals) != 2 {
		t.Fatalf("expected 2 deals, got %d", len(deals))
	}
	if !deals[0].Price.Equal(decimal.NewFromInt(30)) || !deals[1].Price.Equal(decimal.NewFromInt(45)) {
		t.Fatalf("deals not sorted ascending: %s, %s", deals[0].Price, deals[1].Price)
	}
}
