// Package airline carries static carrier knowledge: low-cost classification,
// logo lookup, and the fixed-rate currency conversion applied by adapters.
package airline

import (
	"strings"

	"github.com/shopspring/decimal"
)

// usdToBRL is the fixed conversion rate; market-accurate FX is out of scope.
var usdToBRL = decimal.RequireFromString("5.1")

const defaultLogoURL = "https://logos.skyscnr.com/images/airlines/favicon/airline.png"

var logoURLs = map[string]string{
	// Brazilian carriers.
	"AD": "https://logos.skyscnr.com/images/airlines/favicon/AD.png",
	"G3": "https://logos.skyscnr.com/images/airlines/favicon/G3.png",
	"LA": "https://logos.skyscnr.com/images/airlines/favicon/LA.png",
	// International carriers.
	"AA": "https://logos.skyscnr.com/images/airlines/favicon/AA.png",
	"UA": "https://logos.skyscnr.com/images/airlines/favicon/UA.png",
	"DL": "https://logos.skyscnr.com/images/airlines/favicon/DL.png",
	"AF": "https://logos.skyscnr.com/images/airlines/favicon/AF.png",
	"BA": "https://logos.skyscnr.com/images/airlines/favicon/BA.png",
	"IB": "https://logos.skyscnr.com/images/airlines/favicon/IB.png",
	"LH": "https://logos.skyscnr.com/images/airlines/favicon/LH.png",
	"KL": "https://logos.skyscnr.com/images/airlines/favicon/KL.png",
	"EK": "https://logos.skyscnr.com/images/airlines/favicon/EK.png",
	"QR": "https://logos.skyscnr.com/images/airlines/favicon/QR.png",
}

var lowCostCarriers = []string{
	"RYANAIR", "EASYJET", "WIZZ", "VUELING", "LEVEL",
	"TRANSAVIA", "AZUL", "GOL", "JETBLUE", "SOUTHWEST",
	"FRONTIER", "SPIRIT", "FLYBONDI", "JETSMART",
}

// LogoURL returns the logo for an IATA carrier code, falling back to a
// generic image for unknown codes.
func LogoURL(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return defaultLogoURL
	}
	if url, ok := logoURLs[code]; ok {
		return url
	}
	return defaultLogoURL
}

// IsLowCost reports whether the airline name or code matches a known
// low-cost carrier.
func IsLowCost(airline string) bool {
	if airline == "" {
		return false
	}
	upper := strings.ToUpper(airline)
	for _, c := range lowCostCarriers {
		if strings.Contains(upper, c) {
			return true
		}
	}
	return false
}

// ConvertToBase converts a USD price to the base currency at the fixed rate.
// Any other currency is returned unchanged.
func ConvertToBase(price decimal.Decimal, currency string) decimal.Decimal {
	if strings.EqualFold(currency, "USD") {
		return price.Mul(usdToBRL).Round(2)
	}
	return price
}

// Symbol returns the display symbol for a currency code.
func Symbol(currency string) string {
	switch strings.ToUpper(currency) {
	case "", "BRL":
		return "R$"
	case "USD":
		return "$"
	case "EUR":
		return "€"
	case "GBP":
		return "£"
	default:
		return currency
	}
}
