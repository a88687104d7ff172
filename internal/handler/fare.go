package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"flightmatrix/internal/aggregator"
	"flightmatrix/internal/repository"
)

type FareHandler struct {
	Repo       repository.Repository
	Aggregator *aggregator.Service
}

func (h *FareHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/fares")
	group.GET("/search", h.search)
	group.GET("", h.list)
	group.GET("/:id", h.get)
}

// search runs a live multi-source query. Required: origin, destination,
// departure (or departure_min+departure_max for flexible dates). Optional:
// return / return_min+return_max.
func (h *FareHandler) search(c *gin.Context) {
	origin := strings.ToUpper(strings.TrimSpace(c.Query("origin")))
	destination := strings.ToUpper(strings.TrimSpace(c.Query("destination")))
	if origin == "" || destination == "" {
		Error(c, http.StatusBadRequest, "origin and destination are required", nil)
		return
	}

	departure, err := dateQuery(c, "departure")
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid departure date", nil)
		return
	}
	returnDate, err := dateQuery(c, "return")
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid return date", nil)
		return
	}
	departureMin, err := dateQuery(c, "departure_min")
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid departure_min date", nil)
		return
	}
	departureMax, err := dateQuery(c, "departure_max")
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid departure_max date", nil)
		return
	}
	returnMin, err := dateQuery(c, "return_min")
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid return_min date", nil)
		return
	}
	returnMax, err := dateQuery(c, "return_max")
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid return_max date", nil)
		return
	}

	ctx := c.Request.Context()
	switch {
	case departureMin != nil && departureMax != nil && returnMin != nil && returnMax != nil:
		fares, err := h.Aggregator.SearchFlexibleRoundTrip(ctx, nil, origin, destination,
			*departureMin, *departureMax, *returnMin, *returnMax)
		if err != nil {
			repoError(c, err)
			return
		}
		Ok(c, fares, nil)
	case departureMin != nil && departureMax != nil:
		fares, err := h.Aggregator.SearchFlexibleOneWay(ctx, nil, origin, destination, *departureMin, *departureMax)
		if err != nil {
			repoError(c, err)
			return
		}
		Ok(c, fares, nil)
	case departure != nil && returnDate != nil:
		fares, err := h.Aggregator.SearchRoundTrip(ctx, nil, origin, destination, *departure, *returnDate)
		if err != nil {
			repoError(c, err)
			return
		}
		Ok(c, fares, nil)
	case departure != nil:
		fares, err := h.Aggregator.SearchOneWay(ctx, nil, origin, destination, *departure)
		if err != nil {
			repoError(c, err)
			return
		}
		Ok(c, fares, nil)
	default:
		Error(c, http.StatusBadRequest, "departure or departure_min/departure_max is required", nil)
	}
}

// list queries stored fares with optional route, window and max-price
// filters.
func (h *FareHandler) list(c *gin.Context) {
	params := repository.ListFaresParams{
		OriginCode:      strings.ToUpper(strings.TrimSpace(c.Query("origin"))),
		DestinationCode: strings.ToUpper(strings.TrimSpace(c.Query("destination"))),
		Limit:           intQuery(c, "limit", 50),
		Offset:          intQuery(c, "offset", 0),
	}
	var err error
	if params.DepartureFrom, err = dateQuery(c, "departure_from"); err != nil {
		Error(c, http.StatusBadRequest, "invalid departure_from date", nil)
		return
	}
	if params.DepartureTo, err = dateQuery(c, "departure_to"); err != nil {
		Error(c, http.StatusBadRequest, "invalid departure_to date", nil)
		return
	}
	if raw := c.Query("max_price"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil || price.IsNegative() {
			Error(c, http.StatusBadRequest, "invalid max_price", nil)
			return
		}
		params.MaxPrice = &price
	}

	items, err := h.Repo.ListFares(c.Request.Context(), params)
	if err != nil {
		repoError(c, err)
		return
	}
	Ok(c, items, paginationMeta(params.Limit, params.Offset, int64(len(items))))
}

func (h *FareHandler) get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	item, err := h.Repo.GetFareByID(c.Request.Context(), id)
	if err != nil {
		repoError(c, err)
		return
	}
	Ok(c, item, nil)
}
