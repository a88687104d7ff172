// Package deal classifies fares as deals with a small set of independent
// price heuristics. It is intentionally a rule engine: first rule that fires
// wins, no scoring.
package deal

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"flightmatrix/internal/airline"
	"flightmatrix/internal/config"
	"flightmatrix/internal/models"
	"flightmatrix/internal/repository"
)

// HistoryReader is the slice of the repository the classifier needs.
type HistoryReader interface {
	ListPriceHistoryForRoute(ctx context.Context, originCode, destinationCode string, from, to time.Time) ([]models.PriceHistory, error)
	ListFares(ctx context.Context, params repository.ListFaresParams) ([]models.Fare, error)
}

type Classifier struct {
	Repo   HistoryReader
	Config config.DealConfig
	Logger *zap.Logger

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

func (c *Classifier) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// IsDeal reports whether the fare qualifies under any rule. History lookup
// failure degrades that one rule, never the call.
func (c *Classifier) IsDeal(ctx context.Context, fare models.Fare) bool {
	if !fare.Price.IsPositive() {
		return false
	}
	if c.priceDrop(fare) {
		return true
	}
	if c.belowHistoricalAverage(ctx, fare) {
		return true
	}
	if c.belowAbsoluteFloor(fare) {
		return true
	}
	return c.favorableCombination(fare)
}

// IdentifyDeals filters fares to deals and returns them sorted ascending by
// price.
func (c *Classifier) IdentifyDeals(ctx context.Context, fares []models.Fare) []models.Fare {
	var deals []models.Fare
	for _, f := range fares {
		if c.IsDeal(ctx, f) {
			deals = append(deals, f)
		}
	}
	sort.SliceStable(deals, func(i, j int) bool {
		return deals[i].Price.LessThan(deals[j].Price)
	})
	return deals
}

// BestOffers runs stored fares for a route and departure window through the
// classifier.
func (c *Classifier) BestOffers(ctx context.Context, originCode, destinationCode string, from, to time.Time, limit int) ([]models.Fare, error) {
	fares, err := c.Repo.ListFares(ctx, repository.ListFaresParams{
		OriginCode:      originCode,
		DestinationCode: destinationCode,
		DepartureFrom:   &from,
		DepartureTo:     &to,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load stored fares: %w", err)
	}
	deals := c.IdentifyDeals(ctx, fares)
	if limit > 0 && len(deals) > limit {
		deals = deals[:limit]
	}
	return deals, nil
}

// priceDrop: previous price present and positive, and the relative drop meets
// the threshold.
func (c *Classifier) priceDrop(fare models.Fare) bool {
	if fare.PreviousPrice == nil || !fare.PreviousPrice.IsPositive() {
		return false
	}
	drop := decimal.NewFromInt(1).
		Sub(fare.Price.Div(*fare.PreviousPrice)).
		Mul(decimal.NewFromInt(100))
	return drop.GreaterThanOrEqual(decimal.NewFromInt(int64(c.Config.DropPct)))
}

// belowHistoricalAverage: price at or under the lookback-window mean reduced
// by the threshold percentage. No history means this rule never fires.
func (c *Classifier) belowHistoricalAverage(ctx context.Context, fare models.Fare) bool {
	now := c.now()
	history, err := c.Repo.ListPriceHistoryForRoute(ctx, fare.OriginCode, fare.DestinationCode,
		now.AddDate(0, 0, -c.Config.LookbackDays), now)
	if err != nil {
		c.Logger.Warn("price history lookup failed",
			zap.String("origin", fare.OriginCode), zap.String("destination", fare.DestinationCode),
			zap.Error(err))
		return false
	}
	if len(history) == 0 {
		return false
	}

	sum := decimal.Zero
	for _, h := range history {
		sum = sum.Add(h.Price)
	}
	mean := sum.Div(decimal.NewFromInt(int64(len(history))))
	threshold := mean.Mul(decimal.NewFromInt(int64(100 - c.Config.BelowAvgPct))).
		Div(decimal.NewFromInt(100))
	return fare.Price.LessThanOrEqual(threshold)
}

// belowAbsoluteFloor: domestic routes against the domestic floor;
// international against the low-cost floor when the carrier is low-cost,
// otherwise the general international floor.
func (c *Classifier) belowAbsoluteFloor(fare models.Fare) bool {
	if fare.Domestic() {
		return fare.Price.LessThanOrEqual(decimal.NewFromInt(int64(c.Config.DomesticFloor)))
	}
	if airline.IsLowCost(fare.Airline) {
		return fare.Price.LessThanOrEqual(decimal.NewFromInt(int64(c.Config.LowCostFloor)))
	}
	return fare.Price.LessThanOrEqual(decimal.NewFromInt(int64(c.Config.InternationalFloor)))
}

// favorableCombination: few stops at a reasonable price, or a last-minute
// departure at a reasonable price.
func (c *Classifier) favorableCombination(fare models.Fare) bool {
	ceiling := decimal.NewFromInt(int64(c.Config.InternationalCeiling))
	if fare.Domestic() {
		ceiling = decimal.NewFromInt(int64(c.Config.DomesticCeiling))
	}
	if fare.Price.GreaterThan(ceiling) {
		return false
	}
	if fare.Stops <= c.Config.MaxFavorableStops {
		return true
	}
	daysOut := int(fare.DepartureDate.Sub(c.now()).Hours() / 24)
	return daysOut >= 0 && daysOut <= c.Config.LastMinuteDays
}
