package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Notification kinds.
const (
	NotificationKindFareAlert = "FARE_ALERT"
	NotificationKindDigest    = "DAILY_DIGEST"
)

// Notification is the delivery log entry for one send attempt. Per-fare alert
// sends pair an alert with a fare; digest sends have no fare and carry the
// offer count and minimum price instead.
type Notification struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`

	AlertID uint64 `gorm:"not null;index:idx_notifications_alert_fare" json:"alert_id"`
	Alert   Alert  `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	FareID *uint64 `gorm:"index:idx_notifications_alert_fare" json:"fare_id,omitempty"`
	Fare   *Fare   `json:"-"`

	Kind    string `gorm:"type:varchar(20);not null;index" json:"kind"`
	Success bool   `gorm:"not null" json:"success"`
	Content string `gorm:"type:text" json:"content,omitempty"`

	// Digest-only summary fields.
	OfferCount *int             `json:"offer_count,omitempty"`
	MinPrice   *decimal.Decimal `gorm:"type:numeric(10,2)" json:"min_price,omitempty"`

	SentAt time.Time `gorm:"type:timestamptz;not null;index" json:"sent_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
