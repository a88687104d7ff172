package airline

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestIsLowCost(t *testing.T) {
	cases := []struct {
		airline string
		want    bool
	}{
		{"GOL", true},
		{"Gol Linhas Aéreas", true},
		{"Azul", true},
		{"LATAM", false},
		{"American Airlines", false},
		{"", false},
	}
	for _, c := range cases {
		if got := IsLowCost(c.airline); got != c.want {
			t.Errorf("IsLowCost(%q) = %v, want %v", c.airline, got, c.want)
		}
	}
}

func TestConvertToBase(t *testing.T) {
	got := ConvertToBase(decimal.NewFromInt(100), "USD")
	if want := decimal.NewFromInt(510); !got.Equal(want) {
		t.Fatalf("ConvertToBase(100, USD) = %s, want %s", got, want)
	}
	same := ConvertToBase(decimal.NewFromInt(100), "BRL")
	if !same.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("base-currency price must pass through unchanged, got %s", same)
	}
}

func TestLogoURLFallback(t *testing.T) {
	if LogoURL("G3") == defaultLogoURL {
		t.Fatal("known carrier code should have a dedicated logo")
	}
	if LogoURL("ZZ") != defaultLogoURL {
		t.Fatal("unknown carrier code should fall back to the generic logo")
	}
}

func TestSymbol(t *testing.T) {
	if Symbol("") != "R$" || Symbol("BRL") != "R$" {
		t.Fatal("base currency symbol should be R$")
	}
	if Symbol("USD") != "$" {
		t.Fatal("USD symbol should be $")
	}
	if Symbol("JPY") != "JPY" {
		t.Fatal("unknown currency should fall back to its code")
	}
}
