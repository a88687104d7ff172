package models

// Airport is immutable reference data keyed by its 3-letter IATA code.
type Airport struct {
	Code    string `gorm:"primaryKey;type:varchar(3)" json:"code"`
	Name    string `gorm:"type:varchar(200);not null" json:"name"`
	City    string `gorm:"type:varchar(100);not null" json:"city"`
	Country string `gorm:"type:varchar(100);not null" json:"country"`
}

func (Airport) TableName() string {
	return "airports"
}

// CountryPrefix is the 2-letter prefix used to tell domestic routes from
// international ones. Codes shorter than 2 characters yield the code itself.
func (a Airport) CountryPrefix() string {
	if len(a.Code) < 2 {
		return a.Code
	}
	return a.Code[:2]
}
