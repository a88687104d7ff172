package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceHistory is the append-only statistical basis for deal detection.
// One row per observed fare; never updated.
type PriceHistory struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`

	OriginCode      string  `gorm:"type:varchar(3);not null;index:idx_price_history_route" json:"origin_code"`
	Origin          Airport `gorm:"foreignKey:OriginCode" json:"-"`
	DestinationCode string  `gorm:"type:varchar(3);not null;index:idx_price_history_route" json:"destination_code"`
	Destination     Airport `gorm:"foreignKey:DestinationCode" json:"-"`

	Airline  string          `gorm:"type:varchar(50);not null" json:"airline"`
	Price    decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Currency string          `gorm:"type:varchar(3);not null" json:"currency"`

	QueriedAt time.Time `gorm:"type:timestamptz;not null;index" json:"queried_at"`

	SourceID uint64 `gorm:"not null" json:"source_id"`
	Source   Source `json:"-"`
}

func (PriceHistory) TableName() string {
	return "price_history"
}
