package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/ticket-resale-market/internal/repository"
)

// priceCacheTTL bounds how stale a served average can be.  Averages
// move only when a listing arrives, so a short TTL keeps reads cheap
// without hiding price movement for long.
const priceCacheTTL = 30 * time.Second

// MarketHandler serves read-side market data.
type MarketHandler struct {
	Events *repository.EventRepo
	RDB    *redis.Client
}

func NewMarketHandler(events *repository.EventRepo, rdb *redis.Client) *MarketHandler {
	if events == nil {
		panic("nil event repo passed to NewMarketHandler")
	}
	return &MarketHandler{Events: events, RDB: rdb}
}

type priceResp struct {
	EventID         string  `json:"event_id"`
	AveragePrice    float64 `json:"average_price"`
	PreviousAverage float64 `json:"previous_average"`
}

// EventPrice returns the rolling average listing price for an event,
// served from Redis when a fresh copy exists.  Cache failures fall
// through to the database.
func (h *MarketHandler) EventPrice(c echo.Context) error {
	id := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	key := "price:event:" + id
	if h.RDB != nil {
		if cached, err := h.RDB.Get(ctx, key).Bytes(); err == nil {
			var resp priceResp
			if json.Unmarshal(cached, &resp) == nil {
				return c.JSON(http.StatusOK, resp)
			}
		}
	}

	event, err := h.Events.GetByID(ctx, id)
	if errors.Is(err, repository.ErrEventNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	resp := priceResp{
		EventID:         event.ID,
		AveragePrice:    event.AveragePrice,
		PreviousAverage: event.PreviousAverage,
	}
	if h.RDB != nil {
		if payload, err := json.Marshal(resp); err == nil {
			_ = h.RDB.Set(ctx, key, payload, priceCacheTTL).Err()
		}
	}
	return c.JSON(http.StatusOK, resp)
}
