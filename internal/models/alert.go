package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Alert is a user's standing subscription for a route. All constraint fields
// are optional; an unset constraint always passes.
type Alert struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`

	UserID uint64 `gorm:"not null;index" json:"user_id"`
	User   User   `json:"-"`

	OriginCode      string  `gorm:"type:varchar(3);not null;index:idx_alerts_route" json:"origin_code"`
	Origin          Airport `gorm:"foreignKey:OriginCode" json:"origin"`
	DestinationCode string  `gorm:"type:varchar(3);not null;index:idx_alerts_route" json:"destination_code"`
	Destination     Airport `gorm:"foreignKey:DestinationCode" json:"destination"`

	DepartureMin *time.Time `gorm:"type:date" json:"departure_min,omitempty"`
	DepartureMax *time.Time `gorm:"type:date" json:"departure_max,omitempty"`
	ReturnMin    *time.Time `gorm:"type:date" json:"return_min,omitempty"`
	ReturnMax    *time.Time `gorm:"type:date" json:"return_max,omitempty"`

	MaxPrice *decimal.Decimal `gorm:"type:numeric(10,2)" json:"max_price,omitempty"`
	MinStay  *int             `json:"min_stay,omitempty"`
	MaxStay  *int             `json:"max_stay,omitempty"`
	MaxStops *int             `json:"max_stops,omitempty"`

	// Airlines is a comma-separated allow-list; empty means any airline.
	Airlines string `gorm:"type:varchar(500)" json:"airlines,omitempty"`

	Active         bool       `gorm:"not null;default:true;index" json:"active"`
	LastNotifiedAt *time.Time `gorm:"type:timestamptz;index" json:"last_notified_at,omitempty"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (Alert) TableName() string {
	return "alerts"
}
