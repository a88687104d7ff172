package source

import (
	"context"
	"time"

	"go.uber.org/zap"

	"flightmatrix/internal/models"
)

// DefaultMaxDateCombinations bounds an emulated flexible round-trip scan.
// Hitting the cap stops iteration early and returns what was gathered;
// an accuracy/cost trade-off, not an error.
const DefaultMaxDateCombinations = 30

type datePair struct {
	depart time.Time
	ret    time.Time
}

func oneWayDates(min, max time.Time) []time.Time {
	var dates []time.Time
	for d := min; !d.After(max); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// roundTripDatePairs enumerates (departure, return) combinations with
// return strictly after departure. When returnMin falls on or before a
// departure date, the effective lower bound is departure+1 day. The scan
// counts every attempted pair against maxCombos and stops once exhausted.
func roundTripDatePairs(departureMin, departureMax, returnMin, returnMax time.Time, maxCombos int) []datePair {
	if maxCombos <= 0 {
		maxCombos = DefaultMaxDateCombinations
	}
	var pairs []datePair
	combos := 0
	for dep := departureMin; !dep.After(departureMax) && combos < maxCombos; dep = dep.AddDate(0, 0, 1) {
		ret := returnMin
		if !ret.After(dep) {
			ret = dep.AddDate(0, 0, 1)
		}
		for ; !ret.After(returnMax) && combos < maxCombos; ret = ret.AddDate(0, 0, 1) {
			pairs = append(pairs, datePair{depart: dep, ret: ret})
			combos++
		}
	}
	return pairs
}

// expandFlexibleOneWay emulates a flexible one-way scan by calling fetch once
// per date in [min, max]. A failing date is logged and skipped.
func expandFlexibleOneWay(ctx context.Context, logger *zap.Logger, name string, min, max time.Time, fetch func(context.Context, time.Time) ([]models.Fare, error)) []models.Fare {
	var all []models.Fare
	for _, d := range oneWayDates(min, max) {
		fares, err := fetch(ctx, d)
		if err != nil {
			if logger != nil {
				logger.Warn("flexible one-way date failed",
					zap.String("source", name),
					zap.Time("date", d),
					zap.Error(err),
				)
			}
			continue
		}
		all = append(all, fares...)
	}
	return all
}

// expandFlexibleRoundTrip emulates a flexible round-trip scan over the capped
// date-pair product. A failing pair is logged and skipped.
func expandFlexibleRoundTrip(ctx context.Context, logger *zap.Logger, name string, departureMin, departureMax, returnMin, returnMax time.Time, maxCombos int, fetch func(context.Context, time.Time, time.Time) ([]models.Fare, error)) []models.Fare {
	var all []models.Fare
	for _, p := range roundTripDatePairs(departureMin, departureMax, returnMin, returnMax, maxCombos) {
		fares, err := fetch(ctx, p.depart, p.ret)
		if err != nil {
			if logger != nil {
				logger.Warn("flexible round-trip pair failed",
					zap.String("source", name),
					zap.Time("departure", p.depart),
					zap.Time("return", p.ret),
					zap.Error(err),
				)
			}
			continue
		}
		all = append(all, fares...)
	}
	return all
}
