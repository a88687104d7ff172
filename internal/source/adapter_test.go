package source

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"flightmatrix/internal/models"
)

var (
	gru = models.Airport{Code: "GRU", City: "São Paulo", Country: "Brasil"}
	mia = models.Airport{Code: "MIA", City: "Miami", Country: "Estados Unidos"}
)

func TestNormalizeFareDefaultsCurrency(t *testing.T) {
	fare := normalizeFare(models.Source{ID: 1}, gru, mia, day("2026-10-01"), nil, externalOffer{
		Airline: "LATAM",
		Price:   decimal.NewFromInt(900),
	})
	if fare.Currency != models.BaseCurrency {
		t.Fatalf("expected %s, got %s", models.BaseCurrency, fare.Currency)
	}
	if fare.OriginalPrice != nil {
		t.Fatal("no conversion should record an original price")
	}
	if fare.QueriedAt.IsZero() {
		t.Fatal("expected QueriedAt to be stamped")
	}
}

func TestNormalizeFareConvertsUSD(t *testing.T) {
	fare := normalizeFare(models.Source{ID: 1}, gru, mia, day("2026-10-01"), nil, externalOffer{
		Airline:  "American Airlines",
		Price:    decimal.NewFromInt(100),
		Currency: "USD",
	})
	if want := decimal.NewFromInt(510); !fare.Price.Equal(want) {
		t.Fatalf("expected converted price %s, got %s", want, fare.Price)
	}
	if fare.Currency != models.BaseCurrency {
		t.Fatalf("expected %s after conversion, got %s", models.BaseCurrency, fare.Currency)
	}
	if fare.OriginalPrice == nil || !fare.OriginalPrice.Equal(decimal.NewFromInt(100)) {
		t.Fatal("expected the pre-conversion price to be retained")
	}
	if fare.OriginalCurrency != "USD" {
		t.Fatalf("expected original currency USD, got %q", fare.OriginalCurrency)
	}
}

func TestNormalizeFarePerOfferDates(t *testing.T) {
	actual := day("2026-10-03")
	fare := normalizeFare(models.Source{}, gru, mia, day("2026-10-01"), nil, externalOffer{
		Price:         decimal.NewFromInt(500),
		DepartureDate: &actual,
	})
	if !fare.DepartureDate.Equal(actual) {
		t.Fatalf("expected per-offer departure date %v, got %v", actual, fare.DepartureDate)
	}
}

func TestDegraded(t *testing.T) {
	cases := []struct {
		status int
		want   bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusNotFound, false},
		{http.StatusBadRequest, false},
	}
	for _, c := range cases {
		err := &StatusError{Source: "test", Status: c.status}
		if got := Degraded(err); got != c.want {
			t.Errorf("Degraded(status %d) = %v, want %v", c.status, got, c.want)
		}
	}
	if Degraded(nil) {
		t.Error("Degraded(nil) should be false")
	}
}

func TestParseBRLPrice(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"R$ 1.234,56", "1234.56", true},
		{"R$ 899,00", "899", true},
		{"a partir de R$ 79", "79", true},
		{"indisponível", "", false},
	}
	for _, c := range cases {
		got, ok := parseBRLPrice(c.in)
		if ok != c.ok {
			t.Errorf("parseBRLPrice(%q) ok = %v, want %v", c.in, ok, c.ok)
			continue
		}
		if ok {
			want, _ := decimal.NewFromString(c.want)
			if !got.Equal(want) {
				t.Errorf("parseBRLPrice(%q) = %s, want %s", c.in, got, want)
			}
		}
	}
}

func TestParseStops(t *testing.T) {
	if n := parseStops("Voo direto"); n != 0 {
		t.Fatalf("expected 0 stops for direct flight, got %d", n)
	}
	if n := parseStops("2 paradas"); n != 2 {
		t.Fatalf("expected 2 stops, got %d", n)
	}
}
