package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"flightmatrix/internal/models"
	"flightmatrix/internal/repository"
)

type AirportHandler struct {
	Repo repository.Repository
}

func (h *AirportHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/airports")
	group.GET("", h.list)
	group.GET("/:code", h.get)
	group.PUT("/:code", h.upsert)
}

func (h *AirportHandler) list(c *gin.Context) {
	items, err := h.Repo.ListAirports(c.Request.Context())
	if err != nil {
		repoError(c, err)
		return
	}
	Ok(c, items, nil)
}

func (h *AirportHandler) get(c *gin.Context) {
	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))
	item, err := h.Repo.GetAirportByCode(c.Request.Context(), code)
	if err != nil {
		repoError(c, err)
		return
	}
	Ok(c, item, nil)
}

type upsertAirportRequest struct {
	Name    string `json:"name" binding:"required"`
	City    string `json:"city" binding:"required"`
	Country string `json:"country" binding:"required"`
}

func (h *AirportHandler) upsert(c *gin.Context) {
	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))
	if len(code) != 3 {
		Error(c, http.StatusBadRequest, "airport code must be 3 letters", nil)
		return
	}
	var req upsertAirportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	item := &models.Airport{Code: code, Name: req.Name, City: req.City, Country: req.Country}
	if err := h.Repo.UpsertAirport(c.Request.Context(), item); err != nil {
		repoError(c, err)
		return
	}
	Ok(c, item, nil)
}
