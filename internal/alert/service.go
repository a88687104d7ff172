// Package alert manages fare alert subscriptions and resolves which alerts a
// fare satisfies.
package alert

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"flightmatrix/internal/config"
	"flightmatrix/internal/models"
	"flightmatrix/internal/repository"
)

const defaultRecheckHours = 12

// ErrInvalid marks alert payloads rejected by validation, as opposed to
// repository failures.
var ErrInvalid = errors.New("invalid alert")

type Service struct {
	Repo   repository.Repository
	Users  repository.UserDirectory
	Config config.AlertConfig
	Logger *zap.Logger
}

// Create validates and stores a new alert. The owning user and both route
// endpoints must exist.
func (s *Service) Create(ctx context.Context, item *models.Alert) error {
	if _, err := s.Users.GetUserByID(ctx, item.UserID); err != nil {
		return fmt.Errorf("alert owner %d: %w", item.UserID, err)
	}
	if _, err := s.Repo.GetAirportByCode(ctx, item.OriginCode); err != nil {
		return fmt.Errorf("origin airport %s: %w", item.OriginCode, err)
	}
	if _, err := s.Repo.GetAirportByCode(ctx, item.DestinationCode); err != nil {
		return fmt.Errorf("destination airport %s: %w", item.DestinationCode, err)
	}
	if err := validateWindows(item); err != nil {
		return err
	}
	item.Active = true
	return s.Repo.CreateAlert(ctx, item)
}

// UpdateParams carries the mutable alert fields; nil leaves a field unchanged.
type UpdateParams struct {
	DepartureMin *time.Time
	DepartureMax *time.Time
	ReturnMin    *time.Time
	ReturnMax    *time.Time
	MaxPrice     *decimal.Decimal
	MinStay      *int
	MaxStay      *int
	MaxStops     *int
	Airlines     *string
}

func (s *Service) Update(ctx context.Context, id uint64, params UpdateParams) (*models.Alert, error) {
	item, err := s.Repo.GetAlertByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if params.DepartureMin != nil {
		item.DepartureMin = params.DepartureMin
	}
	if params.DepartureMax != nil {
		item.DepartureMax = params.DepartureMax
	}
	if params.ReturnMin != nil {
		item.ReturnMin = params.ReturnMin
	}
	if params.ReturnMax != nil {
		item.ReturnMax = params.ReturnMax
	}
	if params.MaxPrice != nil {
		item.MaxPrice = params.MaxPrice
	}
	if params.MinStay != nil {
		item.MinStay = params.MinStay
	}
	if params.MaxStay != nil {
		item.MaxStay = params.MaxStay
	}
	if params.MaxStops != nil {
		item.MaxStops = params.MaxStops
	}
	if params.Airlines != nil {
		item.Airlines = *params.Airlines
	}
	if err := validateWindows(item); err != nil {
		return nil, err
	}
	if err := s.Repo.SaveAlert(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) SetActive(ctx context.Context, id uint64, active bool) (*models.Alert, error) {
	item, err := s.Repo.GetAlertByID(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Active = active
	if err := s.Repo.SaveAlert(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) Get(ctx context.Context, id uint64) (*models.Alert, error) {
	return s.Repo.GetAlertByID(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID uint64) ([]models.Alert, error) {
	if _, err := s.Users.GetUserByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("user %d: %w", userID, err)
	}
	return s.Repo.ListAlertsByUser(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, id uint64) error {
	if _, err := s.Repo.GetAlertByID(ctx, id); err != nil {
		return err
	}
	return s.Repo.DeleteAlert(ctx, id)
}

// DueForCheck lists active alerts not notified within the re-check window.
func (s *Service) DueForCheck(ctx context.Context) ([]models.Alert, error) {
	hours := s.Config.RecheckHours
	if hours <= 0 {
		hours = defaultRecheckHours
	}
	return s.Repo.ListAlertsDueForCheck(ctx, time.Now().Add(-time.Duration(hours)*time.Hour))
}

// FindMatchingAlerts resolves the active alerts the fare satisfies: route and
// date windows at the repository, then the in-memory constraint filters.
// Every unset constraint passes.
func (s *Service) FindMatchingAlerts(ctx context.Context, fare models.Fare) ([]models.Alert, error) {
	candidates, err := s.Repo.ListCandidateAlerts(ctx, repository.CandidateAlertsParams{
		OriginCode:      fare.OriginCode,
		DestinationCode: fare.DestinationCode,
		Departure:       fare.DepartureDate,
		Return:          fare.ReturnDate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate alerts: %w", err)
	}

	var matched []models.Alert
	for _, a := range candidates {
		if Matches(a, fare) {
			matched = append(matched, a)
		}
	}
	return matched, nil
}

// Matches applies the in-memory alert constraints to a fare.
func Matches(a models.Alert, fare models.Fare) bool {
	return matchesPrice(a, fare) &&
		matchesStops(a, fare) &&
		matchesAirlines(a, fare) &&
		matchesStay(a, fare)
}

func matchesPrice(a models.Alert, fare models.Fare) bool {
	return a.MaxPrice == nil || fare.Price.LessThanOrEqual(*a.MaxPrice)
}

func matchesStops(a models.Alert, fare models.Fare) bool {
	return a.MaxStops == nil || fare.Stops <= *a.MaxStops
}

// matchesAirlines checks the comma-separated allow-list. Matching is
// case-insensitive and passes on substring containment either way, so "GOL"
// matches "Gol Linhas Aéreas" and vice versa.
func matchesAirlines(a models.Alert, fare models.Fare) bool {
	list := strings.TrimSpace(a.Airlines)
	if list == "" {
		return true
	}
	fareAirline := strings.ToUpper(strings.TrimSpace(fare.Airline))
	if fareAirline == "" {
		return false
	}
	for _, entry := range strings.Split(list, ",") {
		entry = strings.ToUpper(strings.TrimSpace(entry))
		if entry == "" {
			continue
		}
		if strings.Contains(fareAirline, entry) || strings.Contains(entry, fareAirline) {
			return true
		}
	}
	return false
}

// matchesStay bounds the trip length for round-trip fares; one-way fares
// always pass.
func matchesStay(a models.Alert, fare models.Fare) bool {
	if !fare.RoundTrip() {
		return true
	}
	stay := fare.StayDays()
	if a.MinStay != nil && stay < *a.MinStay {
		return false
	}
	if a.MaxStay != nil && stay > *a.MaxStay {
		return false
	}
	return true
}

func validateWindows(item *models.Alert) error {
	if item.DepartureMin != nil && item.DepartureMax != nil && item.DepartureMax.Before(*item.DepartureMin) {
		return fmt.Errorf("%w: departure window is inverted", ErrInvalid)
	}
	if item.ReturnMin != nil && item.ReturnMax != nil && item.ReturnMax.Before(*item.ReturnMin) {
		return fmt.Errorf("%w: return window is inverted", ErrInvalid)
	}
	if item.MinStay != nil && item.MaxStay != nil && *item.MaxStay < *item.MinStay {
		return fmt.Errorf("%w: stay bounds are inverted", ErrInvalid)
	}
	return nil
}
