package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-resale-market/internal/payment"
	"github.com/iliyamo/ticket-resale-market/internal/repository"
	"github.com/iliyamo/ticket-resale-market/internal/settlement"
)

// signatureHeader carries the processor's timestamped HMAC over the
// raw request body.
const signatureHeader = "Webhook-Signature"

// WebhookHandler terminates the processor's two webhook endpoints.
// Each endpoint has its own signing secret; a request that fails
// verification is answered 500 so the processor retries it, and no
// state is touched.
type WebhookHandler struct {
	PaymentSecret string
	AccountSecret string
	Reconciler    *settlement.Reconciler
}

func NewWebhookHandler(paymentSecret, accountSecret string, rec *settlement.Reconciler) *WebhookHandler {
	if rec == nil {
		panic("nil reconciler passed to NewWebhookHandler")
	}
	return &WebhookHandler{PaymentSecret: paymentSecret, AccountSecret: accountSecret, Reconciler: rec}
}

// Payment handles payment_intent.succeeded and
// payment_intent.payment_failed.  Other event types are acknowledged
// without action so the processor does not retry them.
func (h *WebhookHandler) Payment(c echo.Context) error {
	event, ok := h.parse(c, h.PaymentSecret)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "bad signature"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	switch event.Type {
	case payment.EventIntentSucceeded:
		var data payment.IntentData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed event"})
		}
		return h.answer(c, event, h.Reconciler.HandleIntentSucceeded(ctx, data.ID))
	case payment.EventIntentFailed:
		var data payment.IntentData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed event"})
		}
		return h.answer(c, event, h.Reconciler.HandleIntentFailed(ctx, data.ID))
	default:
		return c.JSON(http.StatusOK, echo.Map{"received": true, "ignored": event.Type})
	}
}

// Account handles account.updated for connected seller accounts.
func (h *WebhookHandler) Account(c echo.Context) error {
	event, ok := h.parse(c, h.AccountSecret)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "bad signature"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	if event.Type != payment.EventAccountUpdated {
		return c.JSON(http.StatusOK, echo.Map{"received": true, "ignored": event.Type})
	}
	var data payment.AccountData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed event"})
	}
	return h.answer(c, event, h.Reconciler.HandleAccountUpdated(ctx, data.ID, data.TransfersActive()))
}

// parse reads the raw body and verifies the signature before any JSON
// is trusted.  The body must be read whole: echo's Bind would consume
// it and the HMAC covers the exact bytes on the wire.
func (h *WebhookHandler) parse(c echo.Context, secret string) (*payment.Event, bool) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		log.Printf("webhook: reading body failed: %v", err)
		return nil, false
	}
	event, err := payment.ParseEvent(secret, body, c.Request().Header.Get(signatureHeader), time.Now())
	if err != nil {
		log.Printf("webhook: rejected event: %v", err)
		return nil, false
	}
	return event, true
}

// answer maps a reconciler outcome to a response.  A missing
// transaction or account means the event refers to something already
// settled or never tracked; 404 tells the processor not to retry.
func (h *WebhookHandler) answer(c echo.Context, event *payment.Event, err error) error {
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"received": true})
	case errors.Is(err, repository.ErrTransactionNotFound),
		errors.Is(err, repository.ErrAccountNotFound),
		errors.Is(err, repository.ErrEventNotFound),
		errors.Is(err, repository.ErrTicketNotFound),
		errors.Is(err, settlement.ErrBuyerNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown resource"})
	default:
		log.Printf("webhook: handling %s %s failed: %v", event.Type, event.ID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "event handling failed"})
	}
}
