package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"flightmatrix/internal/deal"
)

type DealHandler struct {
	Classifier *deal.Classifier
}

func (h *DealHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/deals/best", h.best)
}

// best returns the stored fares for a route and departure window that pass
// the deal rules, cheapest first. The window defaults to the next 60 days.
func (h *DealHandler) best(c *gin.Context) {
	origin := strings.ToUpper(strings.TrimSpace(c.Query("origin")))
	destination := strings.ToUpper(strings.TrimSpace(c.Query("destination")))
	if origin == "" || destination == "" {
		Error(c, http.StatusBadRequest, "origin and destination are required", nil)
		return
	}

	from, err := dateQuery(c, "from")
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid from date", nil)
		return
	}
	to, err := dateQuery(c, "to")
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid to date", nil)
		return
	}
	now := time.Now()
	if from == nil {
		from = &now
	}
	if to == nil {
		limit := now.AddDate(0, 0, 60)
		to = &limit
	}
	limit := intQuery(c, "limit", 20)

	deals, err := h.Classifier.BestOffers(c.Request.Context(), origin, destination, *from, *to, limit)
	if err != nil {
		repoError(c, err)
		return
	}
	Ok(c, deals, nil)
}
