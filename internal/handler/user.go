package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"flightmatrix/internal/models"
	"flightmatrix/internal/repository"
)

type UserHandler struct {
	Repo repository.Repository
}

func (h *UserHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/users")
	group.POST("", h.create)
	group.GET("", h.list)
	group.GET("/:id", h.get)
}

type createUserRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

func (h *UserHandler) create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	item := &models.User{
		Name:   strings.TrimSpace(req.Name),
		Email:  strings.ToLower(strings.TrimSpace(req.Email)),
		Active: true,
	}
	if err := h.Repo.CreateUser(c.Request.Context(), item); err != nil {
		repoError(c, err)
		return
	}
	Ok(c, item, nil)
}

func (h *UserHandler) list(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	items, err := h.Repo.ListUsers(c.Request.Context(), activeOnly)
	if err != nil {
		repoError(c, err)
		return
	}
	Ok(c, items, nil)
}

func (h *UserHandler) get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	item, err := h.Repo.GetUserByID(c.Request.Context(), id)
	if err != nil {
		repoError(c, err)
		return
	}
	Ok(c, item, nil)
}
