package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BaseCurrency is assumed whenever a source omits the currency.
const BaseCurrency = "BRL"

// Fare is one normalized, source-attributed priced itinerary option.
// Rows are immutable once stored; re-queries insert new rows.
type Fare struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`

	OriginCode      string  `gorm:"type:varchar(3);not null;index:idx_fares_route" json:"origin_code"`
	Origin          Airport `gorm:"foreignKey:OriginCode" json:"origin"`
	DestinationCode string  `gorm:"type:varchar(3);not null;index:idx_fares_route" json:"destination_code"`
	Destination     Airport `gorm:"foreignKey:DestinationCode" json:"destination"`

	DepartureDate time.Time  `gorm:"type:date;not null;index" json:"departure_date"`
	ReturnDate    *time.Time `gorm:"type:date" json:"return_date,omitempty"`

	Price         decimal.Decimal  `gorm:"type:numeric(10,2);not null" json:"price"`
	PreviousPrice *decimal.Decimal `gorm:"type:numeric(10,2)" json:"previous_price,omitempty"`
	Currency      string           `gorm:"type:varchar(3);not null" json:"currency"`

	// Pre-conversion values, kept for audit when the source quoted another currency.
	OriginalPrice    *decimal.Decimal `gorm:"type:numeric(10,2)" json:"original_price,omitempty"`
	OriginalCurrency string           `gorm:"type:varchar(3)" json:"original_currency,omitempty"`

	Airline         string `gorm:"type:varchar(50)" json:"airline"`
	AirlineLogoURL  string `gorm:"type:varchar(500)" json:"airline_logo_url,omitempty"`
	Stops           int    `gorm:"not null;default:0" json:"stops"`
	DurationMinutes int    `gorm:"not null;default:0" json:"duration_minutes"`
	BookingURL      string `gorm:"type:varchar(1000)" json:"booking_url,omitempty"`

	SourceID uint64 `gorm:"not null;index" json:"source_id"`
	Source   Source `json:"source"`

	QueriedAt time.Time `gorm:"type:timestamptz;not null;index" json:"queried_at"`
}

func (Fare) TableName() string {
	return "fares"
}

// RoundTrip reports whether the fare includes a return leg.
func (f Fare) RoundTrip() bool {
	return f.ReturnDate != nil
}

// StayDays is the number of nights between departure and return.
// Zero for one-way fares.
func (f Fare) StayDays() int {
	if f.ReturnDate == nil {
		return 0
	}
	return int(f.ReturnDate.Sub(f.DepartureDate).Hours() / 24)
}

// Domestic reports whether both endpoints share the same 2-letter country prefix.
func (f Fare) Domestic() bool {
	return f.Origin.CountryPrefix() == f.Destination.CountryPrefix()
}
