package aggregator

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"flightmatrix/internal/models"
	"flightmatrix/internal/repository"
	"flightmatrix/internal/source"
)

var (
	gru = models.Airport{Code: "GRU", City: "São Paulo", Country: "Brasil"}
	rec = models.Airport{Code: "REC", City: "Recife", Country: "Brasil"}
)

type stubRepo struct {
	repository.Repository

	airports map[string]models.Airport
	sources  []models.Source

	insertedFares   []models.Fare
	insertedHistory []models.PriceHistory
	txCount         int
}

func (r *stubRepo) GetAirportByCode(_ context.Context, code string) (*models.Airport, error) {
	if a, ok := r.airports[code]; ok {
		return &a, nil
	}
	return nil, repository.ErrNotFound
}

func (r *stubRepo) ListActiveSources(_ context.Context) ([]models.Source, error) {
	return r.sources, nil
}

func (r *stubRepo) InTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	r.txCount++
	return fn(nil)
}

func (r *stubRepo) InsertFaresTx(_ context.Context, _ *gorm.DB, items []models.Fare) error {
	r.insertedFares = append(r.insertedFares, items...)
	return nil
}

func (r *stubRepo) InsertPriceHistoryTx(_ context.Context, _ *gorm.DB, items []models.PriceHistory) error {
	r.insertedHistory = append(r.insertedHistory, items...)
	return nil
}

// stubAdapter returns canned fares or a fixed error for every fetch.
type stubAdapter struct {
	name  string
	fares []models.Fare
	err   error
	calls int
}

func (a *stubAdapter) Name() string { return a.name }

func (a *stubAdapter) fetch() ([]models.Fare, error) {
	a.calls++
	return a.fares, a.err
}

func (a *stubAdapter) FetchOneWay(context.Context, models.Airport, models.Airport, time.Time) ([]models.Fare, error) {
	return a.fetch()
}
func (a *stubAdapter) FetchRoundTrip(context.Context, models.Airport, models.Airport, time.Time, time.Time) ([]models.Fare, error) {
	return a.fetch()
}
func (a *stubAdapter) FetchFlexibleOneWay(context.Context, models.Airport, models.Airport, time.Time, time.Time) ([]models.Fare, error) {
	return a.fetch()
}
func (a *stubAdapter) FetchFlexibleRoundTrip(context.Context, models.Airport, models.Airport, time.Time, time.Time, time.Time, time.Time) ([]models.Fare, error) {
	return a.fetch()
}
func (a *stubAdapter) Operational(context.Context) bool { return true }
func (a *stubAdapter) Close() error                     { return nil }

type stubResolver struct {
	adapters map[string]*stubAdapter
}

func (r *stubResolver) Resolve(src models.Source) source.Adapter {
	a, ok := r.adapters[src.Name]
	if !ok || !src.Active {
		return nil
	}
	return a
}

func fare(airline string, price int64, sourceID uint64) models.Fare {
	return models.Fare{
		OriginCode:      "GRU",
		DestinationCode: "REC",
		DepartureDate:   time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		Price:           decimal.NewFromInt(price),
		Currency:        models.BaseCurrency,
		Airline:         airline,
		SourceID:        sourceID,
		QueriedAt:       time.Now().UTC(),
	}
}

func newService(repo *stubRepo, resolver *stubResolver) *Service {
	return &Service{Repo: repo, Resolver: resolver, Logger: zap.NewNop()}
}

func TestSearchMergesSortsAndPersists(t *testing.T) {
	repo := &stubRepo{
		airports: map[string]models.Airport{"GRU": gru, "REC": rec},
		sources: []models.Source{
			{ID: 1, Name: "alpha", Active: true},
			{ID: 2, Name: "beta", Active: true},
		},
	}
	resolver := &stubResolver{adapters: map[string]*stubAdapter{
		"alpha": {name: "alpha", fares: []models.Fare{fare("LATAM", 900, 1), fare("GOL", 400, 1)}},
		"beta":  {name: "beta", fares: []models.Fare{fare("AZUL", 650, 2)}},
	}}

	fares, err := newService(repo, resolver).SearchOneWay(context.Background(), nil, "GRU", "REC", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fares) != 3 {
		t.Fatalf("expected 3 merged fares, got %d", len(fares))
	}
	for i := 1; i < len(fares); i++ {
		if fares[i].Price.LessThan(fares[i-1].Price) {
			t.Fatalf("fares not sorted ascending: %s before %s", fares[i-1].Price, fares[i].Price)
		}
	}
	if len(repo.insertedFares) != 3 || len(repo.insertedHistory) != 3 {
		t.Fatalf("expected 3 fares and 3 history rows persisted, got %d/%d",
			len(repo.insertedFares), len(repo.insertedHistory))
	}
	if repo.txCount != 1 {
		t.Fatalf("expected a single transaction, got %d", repo.txCount)
	}
}

func TestSearchIsolatesSourceFailures(t *testing.T) {
	repo := &stubRepo{
		airports: map[string]models.Airport{"GRU": gru, "REC": rec},
		sources: []models.Source{
			{ID: 1, Name: "alpha", Active: true},
			{ID: 2, Name: "beta", Active: true},
		},
	}
	resolver := &stubResolver{adapters: map[string]*stubAdapter{
		"alpha": {name: "alpha", err: errors.New("connection refused")},
		"beta":  {name: "beta", fares: []models.Fare{fare("AZUL", 650, 2)}},
	}}

	fares, err := newService(repo, resolver).SearchOneWay(context.Background(), nil, "GRU", "REC", time.Now())
	if err != nil {
		t.Fatalf("one failed source must not abort the search: %v", err)
	}
	if len(fares) != 1 {
		t.Fatalf("expected the healthy source's fare, got %d fares", len(fares))
	}
}

func TestSearchSkipsDegradedSourceForRun(t *testing.T) {
	repo := &stubRepo{
		airports: map[string]models.Airport{"GRU": gru, "REC": rec},
		sources:  []models.Source{{ID: 1, Name: "alpha", Active: true}},
	}
	limited := &stubAdapter{name: "alpha", err: &source.StatusError{Source: "alpha", Status: http.StatusTooManyRequests}}
	resolver := &stubResolver{adapters: map[string]*stubAdapter{"alpha": limited}}
	svc := newService(repo, resolver)

	run := NewRun()
	if _, err := svc.SearchOneWay(context.Background(), run, "GRU", "REC", time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.SearchOneWay(context.Background(), run, "GRU", "REC", time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if limited.calls != 1 {
		t.Fatalf("expected the rate-limited source to be skipped after first failure, got %d calls", limited.calls)
	}
}

func TestSearchUnknownAirport(t *testing.T) {
	repo := &stubRepo{airports: map[string]models.Airport{"GRU": gru}}
	svc := newService(repo, &stubResolver{})

	_, err := svc.SearchOneWay(context.Background(), nil, "GRU", "XXX", time.Now())
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown airport, got %v", err)
	}
}

func TestSearchNeverPersistsNegativePrice(t *testing.T) {
	repo := &stubRepo{
		airports: map[string]models.Airport{"GRU": gru, "REC": rec},
		sources:  []models.Source{{ID: 1, Name: "alpha", Active: true}},
	}
	bad := fare("LATAM", 500, 1)
	bad.Price = decimal.NewFromInt(-10)
	resolver := &stubResolver{adapters: map[string]*stubAdapter{
		"alpha": {name: "alpha", fares: []models.Fare{bad, fare("GOL", 300, 1)}},
	}}

	fares, err := newService(repo, resolver).SearchOneWay(context.Background(), nil, "GRU", "REC", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fares) != 1 {
		t.Fatalf("expected the negative-price fare to be dropped, got %d fares", len(fares))
	}
	for _, f := range repo.insertedFares {
		if f.Price.IsNegative() {
			t.Fatal("negative price reached storage")
		}
	}
}
