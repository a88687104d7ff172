package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"flightmatrix/internal/models"
)

// ErrNotFound signals a missing airport/user/alert/source. It indicates a
// caller or data bug and is surfaced, unlike upstream integration failures.
var ErrNotFound = errors.New("resource not found")

type ListFaresParams struct {
	OriginCode      string
	DestinationCode string
	DepartureFrom   *time.Time
	DepartureTo     *time.Time
	MaxPrice        *decimal.Decimal
	Limit           int
	Offset          int
}

// CandidateAlertsParams mirrors the route+window step of alert matching:
// active alerts on the fare's route whose departure window (when set) contains
// the fare's departure date, and whose return window (when both sides set one)
// contains the fare's return date.
type CandidateAlertsParams struct {
	OriginCode      string
	DestinationCode string
	Departure       time.Time
	Return          *time.Time
}

type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Airports (admin-maintained reference data).
	UpsertAirport(ctx context.Context, item *models.Airport) error
	GetAirportByCode(ctx context.Context, code string) (*models.Airport, error)
	ListAirports(ctx context.Context) ([]models.Airport, error)

	// Sources.
	CountSources(ctx context.Context) (int64, error)
	CreateSources(ctx context.Context, items []models.Source) error
	ListSources(ctx context.Context) ([]models.Source, error)
	ListActiveSources(ctx context.Context) ([]models.Source, error)
	GetSourceByName(ctx context.Context, name string) (*models.Source, error)
	SetSourceActive(ctx context.Context, name string, active bool) error

	// Fares (immutable once stored) and their price history.
	InsertFaresTx(ctx context.Context, tx *gorm.DB, items []models.Fare) error
	InsertPriceHistoryTx(ctx context.Context, tx *gorm.DB, items []models.PriceHistory) error
	ListFares(ctx context.Context, params ListFaresParams) ([]models.Fare, error)
	ListFaresQueriedSince(ctx context.Context, since time.Time) ([]models.Fare, error)
	GetFareByID(ctx context.Context, id uint64) (*models.Fare, error)
	ListPriceHistoryForRoute(ctx context.Context, originCode, destinationCode string, from, to time.Time) ([]models.PriceHistory, error)

	// Users.
	CreateUser(ctx context.Context, item *models.User) error
	GetUserByID(ctx context.Context, id uint64) (*models.User, error)
	ListUsers(ctx context.Context, activeOnly bool) ([]models.User, error)

	// Alerts.
	CreateAlert(ctx context.Context, item *models.Alert) error
	SaveAlert(ctx context.Context, item *models.Alert) error
	GetAlertByID(ctx context.Context, id uint64) (*models.Alert, error)
	ListAlertsByUser(ctx context.Context, userID uint64) ([]models.Alert, error)
	DeleteAlert(ctx context.Context, id uint64) error
	ListAlertsDueForCheck(ctx context.Context, notNotifiedSince time.Time) ([]models.Alert, error)
	ListCandidateAlerts(ctx context.Context, params CandidateAlertsParams) ([]models.Alert, error)
	SetAlertNotifiedAtTx(ctx context.Context, tx *gorm.DB, alertID uint64, at time.Time) error

	// Notification log.
	InsertNotificationTx(ctx context.Context, tx *gorm.DB, item *models.Notification) error
	InsertNotification(ctx context.Context, item *models.Notification) error
	HasSentNotification(ctx context.Context, alertID, fareID uint64) (bool, error)
	ListNotificationsByAlert(ctx context.Context, alertID uint64) ([]models.Notification, error)
}

// UserDirectory is the narrow read-only user lookup shared by the alert and
// notification services, so neither needs the other for user resolution.
type UserDirectory interface {
	GetUserByID(ctx context.Context, id uint64) (*models.User, error)
}
