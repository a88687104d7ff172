package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"flightmatrix/internal/alert"
	"flightmatrix/internal/config"
	"flightmatrix/internal/models"
	"flightmatrix/internal/repository"
)

type stubAlertRepo struct {
	repository.Repository

	airports map[string]models.Airport
}

func (r *stubAlertRepo) GetAirportByCode(_ context.Context, code string) (*models.Airport, error) {
	if a, ok := r.airports[code]; ok {
		return &a, nil
	}
	return nil, repository.ErrNotFound
}

type stubUserDir struct {
	users map[uint64]models.User
}

func (d *stubUserDir) GetUserByID(_ context.Context, id uint64) (*models.User, error) {
	if u, ok := d.users[id]; ok {
		return &u, nil
	}
	return nil, repository.ErrNotFound
}

func newAlertRouter(repo repository.Repository, users repository.UserDirectory) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := &AlertHandler{
		Service: &alert.Service{Repo: repo, Users: users, Config: config.AlertConfig{}, Logger: zap.NewNop()},
		Repo:    repo,
	}
	h.Register(r)
	return r
}

func postAlert(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateAlertInvertedWindowIsBadRequest(t *testing.T) {
	repo := &stubAlertRepo{airports: map[string]models.Airport{
		"GRU": {Code: "GRU"}, "REC": {Code: "REC"},
	}}
	router := newAlertRouter(repo, &stubUserDir{users: map[uint64]models.User{1: {ID: 1}}})

	w := postAlert(router, `{"user_id":1,"origin":"GRU","destination":"REC","departure_min":"2026-10-10","departure_max":"2026-10-01"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("inverted window: status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestCreateAlertUnknownUserIsNotFound(t *testing.T) {
	repo := &stubAlertRepo{airports: map[string]models.Airport{
		"GRU": {Code: "GRU"}, "REC": {Code: "REC"},
	}}
	router := newAlertRouter(repo, &stubUserDir{})

	w := postAlert(router, `{"user_id":9,"origin":"GRU","destination":"REC"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown user: status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
