// Package monitor drives the periodic scan: due alerts grouped by route, one
// bounded-concurrency task per route running fetch, classification, matching
// and dispatch.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"flightmatrix/internal/aggregator"
	"flightmatrix/internal/config"
	"flightmatrix/internal/models"
)

const (
	defaultWorkers   = 5
	defaultDaysAhead = 60
	defaultUpcoming  = 7
)

type AlertDirectory interface {
	DueForCheck(ctx context.Context) ([]models.Alert, error)
	FindMatchingAlerts(ctx context.Context, fare models.Fare) ([]models.Alert, error)
}

type Searcher interface {
	SearchOneWay(ctx context.Context, run *aggregator.Run, originCode, destinationCode string, departure time.Time) ([]models.Fare, error)
}

type DealFilter interface {
	IdentifyDeals(ctx context.Context, fares []models.Fare) []models.Fare
}

type FareDispatcher interface {
	DispatchFareAlert(ctx context.Context, a models.Alert, fare models.Fare) (bool, error)
}

type Service struct {
	Alerts     AlertDirectory
	Search     Searcher
	Deals      DealFilter
	Dispatcher FareDispatcher
	Config     config.MonitorConfig
	Logger     *zap.Logger

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

type route struct {
	origin      string
	destination string
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) workers() int {
	if s.Config.Workers > 0 {
		return s.Config.Workers
	}
	return defaultWorkers
}

// DailyScan checks every route with due alerts over the full monitoring
// horizon, sampling dates to keep the call count bounded.
func (s *Service) DailyScan(ctx context.Context) error {
	days := s.Config.DaysAhead
	if days <= 0 {
		days = defaultDaysAhead
	}
	return s.scan(ctx, sampleDates(s.now().AddDate(0, 0, 1), days))
}

// UpcomingScan is the tighter, more frequent pass over imminent departures;
// every day in the short window is checked.
func (s *Service) UpcomingScan(ctx context.Context) error {
	days := s.Config.UpcomingDays
	if days <= 0 {
		days = defaultUpcoming
	}
	start := s.now().AddDate(0, 0, 1)
	var dates []time.Time
	for i := 0; i < days; i++ {
		dates = append(dates, start.AddDate(0, 0, i))
	}
	return s.scan(ctx, dates)
}

func (s *Service) scan(ctx context.Context, dates []time.Time) error {
	alerts, err := s.Alerts.DueForCheck(ctx)
	if err != nil {
		return fmt.Errorf("failed to load due alerts: %w", err)
	}
	routes := groupByRoute(alerts)
	if len(routes) == 0 {
		s.Logger.Info("no alerts due for check")
		return nil
	}
	s.Logger.Info("starting scan",
		zap.Int("routes", len(routes)), zap.Int("alerts", len(alerts)), zap.Int("dates", len(dates)))

	// Degraded sources are skipped for the whole scan, across routes.
	run := aggregator.NewRun()

	sem := make(chan struct{}, s.workers())
	var wg sync.WaitGroup
	for _, rt := range routes {
		wg.Add(1)
		sem <- struct{}{}
		go func(rt route) {
			defer wg.Done()
			defer func() { <-sem }()
			s.scanRoute(ctx, run, rt, dates)
		}(rt)
	}
	wg.Wait()
	return nil
}

func (s *Service) scanRoute(ctx context.Context, run *aggregator.Run, rt route, dates []time.Time) {
	var fares []models.Fare
	for _, date := range dates {
		found, err := s.Search.SearchOneWay(ctx, run, rt.origin, rt.destination, date)
		if err != nil {
			s.Logger.Warn("route search failed",
				zap.String("origin", rt.origin), zap.String("destination", rt.destination),
				zap.Time("date", date), zap.Error(err))
			continue
		}
		fares = append(fares, found...)
	}

	deals := s.Deals.IdentifyDeals(ctx, fares)
	if len(deals) == 0 {
		return
	}
	s.Logger.Info("deals found on route",
		zap.String("origin", rt.origin), zap.String("destination", rt.destination),
		zap.Int("deals", len(deals)))

	for _, d := range deals {
		matched, err := s.Alerts.FindMatchingAlerts(ctx, d)
		if err != nil {
			s.Logger.Warn("alert matching failed", zap.Uint64("fare_id", d.ID), zap.Error(err))
			continue
		}
		for _, a := range matched {
			if _, err := s.Dispatcher.DispatchFareAlert(ctx, a, d); err != nil {
				s.Logger.Warn("dispatch failed",
					zap.Uint64("alert_id", a.ID), zap.Uint64("fare_id", d.ID), zap.Error(err))
			}
		}
	}
}

// groupByRoute collapses due alerts to their distinct routes so each route is
// fetched once per scan regardless of how many alerts watch it.
func groupByRoute(alerts []models.Alert) []route {
	seen := map[route]bool{}
	var routes []route
	for _, a := range alerts {
		rt := route{origin: a.OriginCode, destination: a.DestinationCode}
		if seen[rt] {
			continue
		}
		seen[rt] = true
		routes = append(routes, rt)
	}
	return routes
}

// sampleDates thins a long horizon: short windows keep every day, longer ones
// keep the first 3 days, then every 5th day in the first month and every 10th
// beyond it.
func sampleDates(start time.Time, days int) []time.Time {
	var dates []time.Time
	if days <= 10 {
		for i := 0; i < days; i++ {
			dates = append(dates, start.AddDate(0, 0, i))
		}
		return dates
	}
	for i := 0; i < days; i++ {
		switch {
		case i < 3:
			dates = append(dates, start.AddDate(0, 0, i))
		case i < 30:
			if (i-3)%5 == 0 {
				dates = append(dates, start.AddDate(0, 0, i))
			}
		default:
			if (i-30)%10 == 0 {
				dates = append(dates, start.AddDate(0, 0, i))
			}
		}
	}
	return dates
}
