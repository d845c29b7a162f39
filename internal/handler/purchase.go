package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-resale-market/internal/checkout"
	"github.com/iliyamo/ticket-resale-market/internal/repository"
)

// PurchaseHandler exposes the purchase-intent endpoint.
type PurchaseHandler struct {
	Calc *checkout.Calculator
}

func NewPurchaseHandler(calc *checkout.Calculator) *PurchaseHandler {
	return &PurchaseHandler{Calc: calc}
}

type purchaseReq struct {
	EventID  string `json:"event_id"`
	TicketID string `json:"ticket_id"`
}

type purchaseResp struct {
	ClientSecret string `json:"client_secret"`
}

// CreateIntent opens a payment intent for a listed ticket and returns
// the client secret the buyer's client needs to complete the charge.
// Precondition failures answer 400/404/409 without touching the
// processor; a ticket that already has a pending purchase answers 409.
func (h *PurchaseHandler) CreateIntent(c echo.Context) error {
	var req purchaseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	secret, err := h.Calc.CreatePurchaseIntent(ctx, userID(c), req.EventID, req.TicketID)
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, purchaseResp{ClientSecret: secret})
	case errors.Is(err, checkout.ErrMissingArguments):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrTicketNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
	case errors.Is(err, checkout.ErrTicketMismatch):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, checkout.ErrTicketAlreadySold),
		errors.Is(err, repository.ErrTicketInFlight):
		return c.JSON(http.StatusConflict, echo.Map{"error": "ticket is not available"})
	case errors.Is(err, checkout.ErrPriceNotSet),
		errors.Is(err, checkout.ErrSellerNotSet),
		errors.Is(err, checkout.ErrSellerNotOnboarded),
		errors.Is(err, checkout.ErrTransfersInactive):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "purchase intent failed"})
	}
}
