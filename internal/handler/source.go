package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"flightmatrix/internal/repository"
	"flightmatrix/internal/source"
)

type SourceHandler struct {
	Repo     repository.Repository
	Registry *source.Registry
}

func (h *SourceHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/sources")
	group.GET("", h.list)
	group.GET("/:name/status", h.status)
	group.PUT("/:name/active", h.setActive)
}

// status probes the source's adapter. A source that cannot be resolved
// (inactive, unknown, missing credential) reports operational=false rather
// than an error.
func (h *SourceHandler) status(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	src, err := h.Repo.GetSourceByName(c.Request.Context(), name)
	if err != nil {
		repoError(c, err)
		return
	}
	operational := false
	if adapter := h.Registry.Resolve(*src); adapter != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		operational = adapter.Operational(ctx)
	}
	Ok(c, gin.H{"name": src.Name, "active": src.Active, "operational": operational}, nil)
}

func (h *SourceHandler) list(c *gin.Context) {
	items, err := h.Repo.ListSources(c.Request.Context())
	if err != nil {
		repoError(c, err)
		return
	}
	Ok(c, items, nil)
}

type setActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

func (h *SourceHandler) setActive(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err := h.Repo.SetSourceActive(c.Request.Context(), name, *req.Active); err != nil {
		repoError(c, err)
		return
	}
	// Toggled sources get a fresh adapter on the next resolve.
	if h.Registry != nil {
		h.Registry.ClearCache()
	}
	item, err := h.Repo.GetSourceByName(c.Request.Context(), name)
	if err != nil {
		repoError(c, err)
		return
	}
	Ok(c, item, nil)
}
