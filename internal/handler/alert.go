package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"flightmatrix/internal/alert"
	"flightmatrix/internal/models"
	"flightmatrix/internal/repository"
)

type AlertHandler struct {
	Service *alert.Service
	Repo    repository.Repository
}

func (h *AlertHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/alerts")
	group.POST("", h.create)
	group.GET("/:id", h.get)
	group.PATCH("/:id", h.update)
	group.PUT("/:id/active", h.setActive)
	group.DELETE("/:id", h.remove)
	group.GET("/:id/notifications", h.notifications)

	r.GET("/api/v1/users/:id/alerts", h.listByUser)
}

type alertRequest struct {
	UserID       uint64  `json:"user_id" binding:"required"`
	Origin       string  `json:"origin" binding:"required"`
	Destination  string  `json:"destination" binding:"required"`
	DepartureMin *string `json:"departure_min"`
	DepartureMax *string `json:"departure_max"`
	ReturnMin    *string `json:"return_min"`
	ReturnMax    *string `json:"return_max"`
	MaxPrice     *string `json:"max_price"`
	MinStay      *int    `json:"min_stay"`
	MaxStay      *int    `json:"max_stay"`
	MaxStops     *int    `json:"max_stops"`
	Airlines     *string `json:"airlines"`
}

func parseOptionalDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(*raw))
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseOptionalPrice(raw *string) (*decimal.Decimal, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	price, err := decimal.NewFromString(strings.TrimSpace(*raw))
	if err != nil {
		return nil, err
	}
	return &price, nil
}

func (h *AlertHandler) create(c *gin.Context) {
	var req alertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	item := &models.Alert{
		UserID:          req.UserID,
		OriginCode:      strings.ToUpper(strings.TrimSpace(req.Origin)),
		DestinationCode: strings.ToUpper(strings.TrimSpace(req.Destination)),
		MinStay:         req.MinStay,
		MaxStay:         req.MaxStay,
		MaxStops:        req.MaxStops,
	}
	if req.Airlines != nil {
		item.Airlines = *req.Airlines
	}

	var err error
	if item.DepartureMin, err = parseOptionalDate(req.DepartureMin); err != nil {
		Error(c, http.StatusBadRequest, "invalid departure_min date", nil)
		return
	}
	if item.DepartureMax, err = parseOptionalDate(req.DepartureMax); err != nil {
		Error(c, http.StatusBadRequest, "invalid departure_max date", nil)
		return
	}
	if item.ReturnMin, err = parseOptionalDate(req.ReturnMin); err != nil {
		Error(c, http.StatusBadRequest, "invalid return_min date", nil)
		return
	}
	if item.ReturnMax, err = parseOptionalDate(req.ReturnMax); err != nil {
		Error(c, http.StatusBadRequest, "invalid return_max date", nil)
		return
	}
	if item.MaxPrice, err = parseOptionalPrice(req.MaxPrice); err != nil {
		Error(c, http.StatusBadRequest, "invalid max_price", nil)
		return
	}

	if err := h.Service.Create(c.Request.Context(), item); err != nil {
		if errors.Is(err, alert.ErrInvalid) {
			Error(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		repoError(c, err)
		return
	}
	Ok(c, item, nil)
}

func (h *AlertHandler) get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	item, err := h.Service.Get(c.Request.Context(), id)
	if err != nil {
		repoError(c, err)
		return
	}
	Ok(c, item, nil)
}

type updateAlertRequest struct {
	DepartureMin *string `json:"departure_min"`
	DepartureMax *string `json:"departure_max"`
	ReturnMin    *string `json:"return_min"`
	ReturnMax    *string `json:"return_max"`
	MaxPrice     *string `json:"max_price"`
	MinStay      *int    `json:"min_stay"`
	MaxStay      *int    `json:"max_stay"`
	MaxStops     *int    `json:"max_stops"`
	Airlines     *string `json:"airlines"`
}

func (h *AlertHandler) update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req updateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	params := alert.UpdateParams{
		MinStay:  req.MinStay,
		MaxStay:  req.MaxStay,
		MaxStops: req.MaxStops,
		Airlines: req.Airlines,
	}
	var err error
	if params.DepartureMin, err = parseOptionalDate(req.DepartureMin); err != nil {
		Error(c, http.StatusBadRequest, "invalid departure_min date", nil)
		return
	}
	if params.DepartureMax, err = parseOptionalDate(req.DepartureMax); err != nil {
		Error(c, http.StatusBadRequest, "invalid departure_max date", nil)
		return
	}
	if params.ReturnMin, err = parseOptionalDate(req.ReturnMin); err != nil {
		Error(c, http.StatusBadRequest, "invalid return_min date", nil)
		return
	}
	if params.ReturnMax, err = parseOptionalDate(req.ReturnMax); err != nil {
		Error(c, http.StatusBadRequest, "invalid return_max date", nil)
		return
	}
	if params.MaxPrice, err = parseOptionalPrice(req.MaxPrice); err != nil {
		Error(c, http.StatusBadRequest, "invalid max_price", nil)
		return
	}

	item, err := h.Service.Update(c.Request.Context(), id, params)
	if err != nil {
		if errors.Is(err, alert.ErrInvalid) {
			Error(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		repoError(c, err)
		return
	}
	Ok(c, item, nil)
}

func (h *AlertHandler) setActive(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	item, err := h.Service.SetActive(c.Request.Context(), id, *req.Active)
	if err != nil {
		repoError(c, err)
		return
	}
	Ok(c, item, nil)
}

func (h *AlertHandler) remove(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Service.Delete(c.Request.Context(), id); err != nil {
		repoError(c, err)
		return
	}
	Ok(c, gin.H{"deleted": id}, nil)
}

func (h *AlertHandler) listByUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	items, err := h.Service.ListByUser(c.Request.Context(), id)
	if err != nil {
		repoError(c, err)
		return
	}
	Ok(c, items, nil)
}

func (h *AlertHandler) notifications(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	items, err := h.Repo.ListNotificationsByAlert(c.Request.Context(), id)
	if err != nil {
		repoError(c, err)
		return
	}
	Ok(c, items, nil)
}
