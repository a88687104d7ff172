package db

import (
	"flightmatrix/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Airport{},
		&models.Source{},
		&models.User{},
		&models.Fare{},
		&models.PriceHistory{},
		&models.Alert{},
		&models.Notification{},
	)
}
