// Package aggregator fans a fare query out to every active source, persists
// what came back together with price-history rows, and returns the merged
// list sorted by price. One bad source never aborts a query.
package aggregator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"flightmatrix/internal/models"
	"flightmatrix/internal/repository"
	"flightmatrix/internal/source"
)

// AdapterResolver yields the adapter for a source row, or nil when the source
// cannot be served.
type AdapterResolver interface {
	Resolve(src models.Source) source.Adapter
}

type Service struct {
	Repo     repository.Repository
	Resolver AdapterResolver
	Logger   *zap.Logger
}

// Run tracks sources that responded with rate-limit or server-error statuses
// so they are skipped for the remainder of a scheduling cycle. A nil Run is
// valid and tracks nothing beyond the single call.
type Run struct {
	mu       sync.Mutex
	degraded map[uint64]bool
}

func NewRun() *Run {
	return &Run{degraded: map[uint64]bool{}}
}

func (r *Run) isDegraded(sourceID uint64) bool {
	if r == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.degraded[sourceID]
}

func (r *Run) markDegraded(sourceID uint64) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.degraded[sourceID] = true
}

func (s *Service) SearchOneWay(ctx context.Context, run *Run, originCode, destinationCode string, departure time.Time) ([]models.Fare, error) {
	origin, destination, err := s.airports(ctx, originCode, destinationCode)
	if err != nil {
		return nil, err
	}
	return s.collect(ctx, run, func(ctx context.Context, a source.Adapter) ([]models.Fare, error) {
		return a.FetchOneWay(ctx, *origin, *destination, departure)
	})
}

func (s *Service) SearchRoundTrip(ctx context.Context, run *Run, originCode, destinationCode string, departure, returnDate time.Time) ([]models.Fare, error) {
	origin, destination, err := s.airports(ctx, originCode, destinationCode)
	if err != nil {
		return nil, err
	}
	return s.collect(ctx, run, func(ctx context.Context, a source.Adapter) ([]models.Fare, error) {
		return a.FetchRoundTrip(ctx, *origin, *destination, departure, returnDate)
	})
}

func (s *Service) SearchFlexibleOneWay(ctx context.Context, run *Run, originCode, destinationCode string, departureMin, departureMax time.Time) ([]models.Fare, error) {
	origin, destination, err := s.airports(ctx, originCode, destinationCode)
	if err != nil {
		return nil, err
	}
	return s.collect(ctx, run, func(ctx context.Context, a source.Adapter) ([]models.Fare, error) {
		return a.FetchFlexibleOneWay(ctx, *origin, *destination, departureMin, departureMax)
	})
}

func (s *Service) SearchFlexibleRoundTrip(ctx context.Context, run *Run, originCode, destinationCode string, departureMin, departureMax, returnMin, returnMax time.Time) ([]models.Fare, error) {
	origin, destination, err := s.airports(ctx, originCode, destinationCode)
	if err != nil {
		return nil, err
	}
	return s.collect(ctx, run, func(ctx context.Context, a source.Adapter) ([]models.Fare, error) {
		return a.FetchFlexibleRoundTrip(ctx, *origin, *destination, departureMin, departureMax, returnMin, returnMax)
	})
}

func (s *Service) airports(ctx context.Context, originCode, destinationCode string) (*models.Airport, *models.Airport, error) {
	origin, err := s.Repo.GetAirportByCode(ctx, originCode)
	if err != nil {
		return nil, nil, fmt.Errorf("origin airport %s: %w", originCode, err)
	}
	destination, err := s.Repo.GetAirportByCode(ctx, destinationCode)
	if err != nil {
		return nil, nil, fmt.Errorf("destination airport %s: %w", destinationCode, err)
	}
	return origin, destination, nil
}

// collect drives one fetch across all active sources, persists the merged
// results, and sorts them by ascending price. Per-source failures are
// absorbed; partial results always beat total failure.
func (s *Service) collect(ctx context.Context, run *Run, fetch func(context.Context, source.Adapter) ([]models.Fare, error)) ([]models.Fare, error) {
	sources, err := s.Repo.ListActiveSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active sources: %w", err)
	}

	var merged []models.Fare
	for _, src := range sources {
		if run.isDegraded(src.ID) {
			continue
		}
		adapter := s.Resolver.Resolve(src)
		if adapter == nil {
			continue
		}
		fares, err := fetch(ctx, adapter)
		if err != nil {
			if source.Degraded(err) {
				run.markDegraded(src.ID)
				s.Logger.Warn("source degraded, skipping for the rest of this run",
					zap.String("source", src.Name), zap.Error(err))
			} else {
				s.Logger.Warn("source fetch failed",
					zap.String("source", src.Name), zap.Error(err))
			}
			continue
		}
		merged = append(merged, fares...)
	}

	merged = dropInvalid(merged, s.Logger)
	if err := s.persist(ctx, merged); err != nil {
		return nil, err
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Price.LessThan(merged[j].Price)
	})
	return merged, nil
}

// dropInvalid removes fares that must never reach storage.
func dropInvalid(fares []models.Fare, logger *zap.Logger) []models.Fare {
	kept := fares[:0]
	for _, f := range fares {
		if f.Price.IsNegative() {
			logger.Warn("dropping fare with negative price",
				zap.String("origin", f.OriginCode), zap.String("destination", f.DestinationCode),
				zap.String("airline", f.Airline), zap.String("price", f.Price.String()))
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

// persist stores fares and their history rows in one transaction.
func (s *Service) persist(ctx context.Context, fares []models.Fare) error {
	if len(fares) == 0 {
		return nil
	}
	history := make([]models.PriceHistory, 0, len(fares))
	for _, f := range fares {
		history = append(history, models.PriceHistory{
			OriginCode:      f.OriginCode,
			DestinationCode: f.DestinationCode,
			Airline:         f.Airline,
			Price:           f.Price,
			Currency:        f.Currency,
			QueriedAt:       f.QueriedAt,
			SourceID:        f.SourceID,
		})
	}
	return s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.Repo.InsertFaresTx(ctx, tx, fares); err != nil {
			return fmt.Errorf("failed to insert fares: %w", err)
		}
		if err := s.Repo.InsertPriceHistoryTx(ctx, tx, history); err != nil {
			return fmt.Errorf("failed to insert price history: %w", err)
		}
		return nil
	})
}
