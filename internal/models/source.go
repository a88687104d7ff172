package models

import (
	"gorm.io/datatypes"
)

// Source kinds as stored in the sources table.
const (
	SourceKindAPI         = "API"
	SourceKindAPIScraping = "API_SCRAPING"
)

// Source is one external flight-data provider. Adapters are resolved by Name;
// Config is an opaque per-source blob (user agent, scraping switches).
type Source struct {
	ID     uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Name   string         `gorm:"type:varchar(50);not null;uniqueIndex" json:"name"`
	URL    string         `gorm:"type:varchar(500);not null" json:"url"`
	Kind   string         `gorm:"type:varchar(20);not null" json:"kind"`
	Active bool           `gorm:"not null;default:true;index" json:"active"`
	Config datatypes.JSON `gorm:"type:jsonb" json:"config,omitempty"`
}

func (Source) TableName() string {
	return "sources"
}
