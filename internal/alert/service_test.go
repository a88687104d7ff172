package alert

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"flightmatrix/internal/models"
	"flightmatrix/internal/repository"
)

type stubRepo struct {
	repository.Repository

	airports   map[string]models.Airport
	alerts     map[uint64]models.Alert
	candidates []models.Alert
	created    []models.Alert
	saved      []models.Alert
	deleted    []uint64
}

func (r *stubRepo) GetAirportByCode(_ context.Context, code string) (*models.Airport, error) {
	if a, ok := r.airports[code]; ok {
		return &a, nil
	}
	return nil, repository.ErrNotFound
}

func (r *stubRepo) CreateAlert(_ context.Context, item *models.Alert) error {
	item.ID = uint64(len(r.created) + 1)
	r.created = append(r.created, *item)
	return nil
}

func (r *stubRepo) SaveAlert(_ context.Context, item *models.Alert) error {
	r.saved = append(r.saved, *item)
	return nil
}

func (r *stubRepo) GetAlertByID(_ context.Context, id uint64) (*models.Alert, error) {
	if a, ok := r.alerts[id]; ok {
		return &a, nil
	}
	return nil, repository.ErrNotFound
}

func (r *stubRepo) DeleteAlert(_ context.Context, id uint64) error {
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *stubRepo) ListCandidateAlerts(_ context.Context, _ repository.CandidateAlertsParams) ([]models.Alert, error) {
	return r.candidates, nil
}

type stubUsers struct {
	users map[uint64]models.User
}

func (u *stubUsers) GetUserByID(_ context.Context, id uint64) (*models.User, error) {
	if user, ok := u.users[id]; ok {
		return &user, nil
	}
	return nil, repository.ErrNotFound
}

func newService(repo *stubRepo, users *stubUsers) *Service {
	return &Service{Repo: repo, Users: users, Logger: zap.NewNop()}
}

func price(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func intPtr(v int) *int { return &v }

func baseFare() models.Fare {
	return models.Fare{
		OriginCode:      "GRU",
		DestinationCode: "REC",
		DepartureDate:   time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		Price:           decimal.NewFromInt(500),
		Airline:         "Gol Linhas Aéreas",
		Stops:           1,
	}
}

func TestCreateRequiresExistingUser(t *testing.T) {
	repo := &stubRepo{airports: map[string]models.Airport{
		"GRU": {Code: "GRU"}, "REC": {Code: "REC"},
	}}
	svc := newService(repo, &stubUsers{})

	err := svc.Create(context.Background(), &models.Alert{UserID: 9, OriginCode: "GRU", DestinationCode: "REC"})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing user, got %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatal("nothing should be created for a missing user")
	}
}

func TestCreateActivatesAlert(t *testing.T) {
	repo := &stubRepo{airports: map[string]models.Airport{
		"GRU": {Code: "GRU"}, "REC": {Code: "REC"},
	}}
	svc := newService(repo, &stubUsers{users: map[uint64]models.User{1: {ID: 1}}})

	item := &models.Alert{UserID: 1, OriginCode: "GRU", DestinationCode: "REC"}
	if err := svc.Create(context.Background(), item); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !item.Active {
		t.Fatal("new alerts must start active")
	}
}

func TestCreateRejectsInvertedWindow(t *testing.T) {
	repo := &stubRepo{airports: map[string]models.Airport{
		"GRU": {Code: "GRU"}, "REC": {Code: "REC"},
	}}
	svc := newService(repo, &stubUsers{users: map[uint64]models.User{1: {ID: 1}}})

	min := time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC)
	max := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	err := svc.Create(context.Background(), &models.Alert{
		UserID: 1, OriginCode: "GRU", DestinationCode: "REC",
		DepartureMin: &min, DepartureMax: &max,
	})
	if err == nil {
		t.Fatal("expected validation error for inverted departure window")
	}
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("validation failure must wrap ErrInvalid, got %v", err)
	}
	if errors.Is(err, repository.ErrNotFound) {
		t.Fatal("validation failure must not look like a repository error")
	}
}

func TestUpdatePartial(t *testing.T) {
	repo := &stubRepo{alerts: map[uint64]models.Alert{
		4: {ID: 4, OriginCode: "GRU", DestinationCode: "REC", MaxPrice: price("900"), Airlines: "GOL"},
	}}
	svc := newService(repo, &stubUsers{})

	updated, err := svc.Update(context.Background(), 4, UpdateParams{MaxPrice: price("700")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.MaxPrice.Equal(decimal.NewFromInt(700)) {
		t.Fatalf("expected max price 700, got %s", updated.MaxPrice)
	}
	if updated.Airlines != "GOL" {
		t.Fatal("untouched fields must survive a partial update")
	}
}

func TestMatchPriceInclusiveBoundary(t *testing.T) {
	a := models.Alert{MaxPrice: price("500")}

	fare := baseFare()
	if !Matches(a, fare) {
		t.Fatal("fare at exactly the max price must match")
	}
	fare.Price = decimal.RequireFromString("500.01")
	if Matches(a, fare) {
		t.Fatal("fare a cent over the max price must not match")
	}
}

func TestMatchStops(t *testing.T) {
	a := models.Alert{MaxStops: intPtr(1)}

	fare := baseFare()
	if !Matches(a, fare) {
		t.Fatal("1 stop against max 1 must match")
	}
	fare.Stops = 2
	if Matches(a, fare) {
		t.Fatal("2 stops against max 1 must not match")
	}
}

func TestMatchAirlineList(t *testing.T) {
	fare := baseFare() // "Gol Linhas Aéreas"

	if !Matches(models.Alert{Airlines: "LATAM, GOL"}, fare) {
		t.Fatal("substring entry must match the fare airline")
	}
	if Matches(models.Alert{Airlines: "LATAM, AZUL"}, fare) {
		t.Fatal("no matching entry must reject the fare")
	}
	if !Matches(models.Alert{}, fare) {
		t.Fatal("empty allow-list must pass any airline")
	}
}

func TestMatchStayDuration(t *testing.T) {
	ret := time.Date(2026, 10, 8, 0, 0, 0, 0, time.UTC)
	fare := baseFare()
	fare.ReturnDate = &ret // 7-night stay

	if !Matches(models.Alert{MinStay: intPtr(5), MaxStay: intPtr(10)}, fare) {
		t.Fatal("stay inside the bounds must match")
	}
	if Matches(models.Alert{MinStay: intPtr(8)}, fare) {
		t.Fatal("stay under the minimum must not match")
	}
	if Matches(models.Alert{MaxStay: intPtr(6)}, fare) {
		t.Fatal("stay over the maximum must not match")
	}

	oneWay := baseFare()
	if !Matches(models.Alert{MinStay: intPtr(8)}, oneWay) {
		t.Fatal("one-way fares must always pass the stay filter")
	}
}

func TestFindMatchingAlertsFilters(t *testing.T) {
	repo := &stubRepo{candidates: []models.Alert{
		{ID: 1, MaxPrice: price("600")},
		{ID: 2, MaxPrice: price("400")},
		{ID: 3, Airlines: "AZUL"},
	}}
	svc := newService(repo, &stubUsers{})

	matched, err := svc.FindMatchingAlerts(context.Background(), baseFare())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matched) != 1 || matched[0].ID != 1 {
		t.Fatalf("expected only alert 1 to match, got %v", matched)
	}
}
