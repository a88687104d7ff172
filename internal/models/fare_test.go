package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDomesticComparesCodePrefixes(t *testing.T) {
	cases := []struct {
		origin, destination string
		domestic            bool
	}{
		{"SJK", "SJP", true},
		{"GRU", "GIG", false}, // same country, different prefixes
		{"GRU", "REC", false},
		{"GRU", "MIA", false},
	}
	for _, tc := range cases {
		f := Fare{
			Origin:      Airport{Code: tc.origin},
			Destination: Airport{Code: tc.destination},
		}
		if got := f.Domestic(); got != tc.domestic {
			t.Fatalf("%s->%s: Domestic() = %v, want %v", tc.origin, tc.destination, got, tc.domestic)
		}
	}
}

func TestStayDays(t *testing.T) {
	dep := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	ret := dep.AddDate(0, 0, 7)

	oneWay := Fare{DepartureDate: dep, Price: decimal.NewFromInt(100)}
	if oneWay.RoundTrip() || oneWay.StayDays() != 0 {
		t.Fatalf("one-way fare: RoundTrip=%v StayDays=%d", oneWay.RoundTrip(), oneWay.StayDays())
	}

	roundTrip := Fare{DepartureDate: dep, ReturnDate: &ret, Price: decimal.NewFromInt(100)}
	if !roundTrip.RoundTrip() || roundTrip.StayDays() != 7 {
		t.Fatalf("round-trip fare: RoundTrip=%v StayDays=%d", roundTrip.RoundTrip(), roundTrip.StayDays())
	}
}
