package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"flightmatrix/internal/models"
	"flightmatrix/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repository.ErrNotFound
	}
	return err
}

// --- airports ---------------------------------------------------------------

func (s *Store) UpsertAirport(ctx context.Context, item *models.Airport) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	item.Code = strings.ToUpper(strings.TrimSpace(item.Code))
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "city", "country"}),
	}).Create(item).Error
}

func (s *Store) GetAirportByCode(ctx context.Context, code string) (*models.Airport, error) {
	var item models.Airport
	err := s.db.WithContext(ctx).
		First(&item, "code = ?", strings.ToUpper(strings.TrimSpace(code))).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

func (s *Store) ListAirports(ctx context.Context) ([]models.Airport, error) {
	var items []models.Airport
	if err := s.db.WithContext(ctx).Order("code asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- sources ----------------------------------------------------------------

func (s *Store) CountSources(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Source{}).Count(&n).Error
	return n, err
}

func (s *Store) CreateSources(ctx context.Context, items []models.Source) error {
	if len(items) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&items).Error
}

func (s *Store) ListSources(ctx context.Context) ([]models.Source, error) {
	var items []models.Source
	if err := s.db.WithContext(ctx).Order("name asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListActiveSources(ctx context.Context) ([]models.Source, error) {
	var items []models.Source
	err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Order("name asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) GetSourceByName(ctx context.Context, name string) (*models.Source, error) {
	var item models.Source
	err := s.db.WithContext(ctx).First(&item, "name = ?", strings.ToLower(strings.TrimSpace(name))).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

func (s *Store) SetSourceActive(ctx context.Context, name string, active bool) error {
	res := s.db.WithContext(ctx).
		Model(&models.Source{}).
		Where("name = ?", strings.ToLower(strings.TrimSpace(name))).
		Update("active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// --- fares & price history --------------------------------------------------

func (s *Store) InsertFaresTx(ctx context.Context, tx *gorm.DB, items []models.Fare) error {
	if len(items) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Omit("Origin", "Destination", "Source").Create(&items).Error
}

func (s *Store) InsertPriceHistoryTx(ctx context.Context, tx *gorm.DB, items []models.PriceHistory) error {
	if len(items) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Omit("Origin", "Destination", "Source").Create(&items).Error
}

func (s *Store) ListFares(ctx context.Context, params repository.ListFaresParams) ([]models.Fare, error) {
	query := s.db.WithContext(ctx).Model(&models.Fare{}).
		Preload("Origin").Preload("Destination").Preload("Source")
	if params.OriginCode != "" {
		query = query.Where("origin_code = ?", strings.ToUpper(params.OriginCode))
	}
	if params.DestinationCode != "" {
		query = query.Where("destination_code = ?", strings.ToUpper(params.DestinationCode))
	}
	if params.DepartureFrom != nil {
		query = query.Where("departure_date >= ?", *params.DepartureFrom)
	}
	if params.DepartureTo != nil {
		query = query.Where("departure_date <= ?", *params.DepartureTo)
	}
	if params.MaxPrice != nil {
		query = query.Where("price <= ?", *params.MaxPrice)
	}
	limit := params.Limit
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}
	var items []models.Fare
	err := query.Order("price asc").Limit(limit).Offset(offset).Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListFaresQueriedSince(ctx context.Context, since time.Time) ([]models.Fare, error) {
	var items []models.Fare
	err := s.db.WithContext(ctx).
		Preload("Origin").Preload("Destination").Preload("Source").
		Where("queried_at >= ?", since).
		Order("price asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) GetFareByID(ctx context.Context, id uint64) (*models.Fare, error) {
	var item models.Fare
	err := s.db.WithContext(ctx).
		Preload("Origin").Preload("Destination").Preload("Source").
		First(&item, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

func (s *Store) ListPriceHistoryForRoute(ctx context.Context, originCode, destinationCode string, from, to time.Time) ([]models.PriceHistory, error) {
	var items []models.PriceHistory
	err := s.db.WithContext(ctx).
		Where("origin_code = ? AND destination_code = ?", strings.ToUpper(originCode), strings.ToUpper(destinationCode)).
		Where("queried_at BETWEEN ? AND ?", from, to).
		Order("queried_at asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- users ------------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, item *models.User) error {
	if item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetUserByID(ctx context.Context, id uint64) (*models.User, error) {
	var item models.User
	if err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

func (s *Store) ListUsers(ctx context.Context, activeOnly bool) ([]models.User, error) {
	query := s.db.WithContext(ctx).Model(&models.User{})
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var items []models.User
	if err := query.Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- alerts -----------------------------------------------------------------

func (s *Store) CreateAlert(ctx context.Context, item *models.Alert) error {
	if item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Omit("User", "Origin", "Destination").Create(item).Error
}

func (s *Store) SaveAlert(ctx context.Context, item *models.Alert) error {
	if item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Omit("User", "Origin", "Destination").Save(item).Error
}

func (s *Store) GetAlertByID(ctx context.Context, id uint64) (*models.Alert, error) {
	var item models.Alert
	err := s.db.WithContext(ctx).
		Preload("Origin").Preload("Destination").Preload("User").
		First(&item, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

func (s *Store) ListAlertsByUser(ctx context.Context, userID uint64) ([]models.Alert, error) {
	var items []models.Alert
	err := s.db.WithContext(ctx).
		Preload("Origin").Preload("Destination").
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) DeleteAlert(ctx context.Context, id uint64) error {
	// The notification log cascades via the FK constraint.
	res := s.db.WithContext(ctx).Delete(&models.Alert{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) ListAlertsDueForCheck(ctx context.Context, notNotifiedSince time.Time) ([]models.Alert, error) {
	var items []models.Alert
	err := s.db.WithContext(ctx).
		Preload("Origin").Preload("Destination").Preload("User").
		Where("active = ?", true).
		Where("last_notified_at IS NULL OR last_notified_at < ?", notNotifiedSince).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListCandidateAlerts(ctx context.Context, params repository.CandidateAlertsParams) ([]models.Alert, error) {
	query := s.db.WithContext(ctx).
		Preload("Origin").Preload("Destination").Preload("User").
		Where("active = ?", true).
		Where("origin_code = ? AND destination_code = ?",
			strings.ToUpper(params.OriginCode), strings.ToUpper(params.DestinationCode)).
		Where("departure_min IS NULL OR ? BETWEEN departure_min AND departure_max", params.Departure)
	if params.Return != nil {
		query = query.Where("return_min IS NULL OR ? BETWEEN return_min AND return_max", *params.Return)
	}
	var items []models.Alert
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) SetAlertNotifiedAtTx(ctx context.Context, tx *gorm.DB, alertID uint64, at time.Time) error {
	return tx.WithContext(ctx).
		Model(&models.Alert{}).
		Where("id = ?", alertID).
		Update("last_notified_at", at).Error
}

// --- notifications ----------------------------------------------------------

func (s *Store) InsertNotificationTx(ctx context.Context, tx *gorm.DB, item *models.Notification) error {
	if item == nil {
		return nil
	}
	return tx.WithContext(ctx).Omit("Alert", "Fare").Create(item).Error
}

func (s *Store) InsertNotification(ctx context.Context, item *models.Notification) error {
	if item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Omit("Alert", "Fare").Create(item).Error
}

func (s *Store) HasSentNotification(ctx context.Context, alertID, fareID uint64) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("alert_id = ? AND fare_id = ? AND success = ?", alertID, fareID, true).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) ListNotificationsByAlert(ctx context.Context, alertID uint64) ([]models.Notification, error) {
	var items []models.Notification
	err := s.db.WithContext(ctx).
		Where("alert_id = ?", alertID).
		Order("sent_at desc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
