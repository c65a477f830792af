package api

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	models "ShopPulse/internal/domain/models"
	xhttp "ShopPulse/pkg/http"
	xlogger "ShopPulse/pkg/logger"
	"ShopPulse/pkg/queue"
)

// Stripe documents 64KiB as the webhook payload ceiling.
const maxWebhookBody = 65536

// DeadLetterSource lists payment jobs that exhausted their retries.
type DeadLetterSource interface {
	DeadLetters(ctx context.Context, limit int64) ([]queue.Message, error)
}

type PaymentsService interface {
	CreateIntent(ctx context.Context, req models.CreatePaymentIntentRequest) (models.CreatePaymentIntentResponse, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type PaymentsEchoHandler struct {
	logger *xlogger.Logger
	svc    PaymentsService
	dlq    DeadLetterSource
}

var _ xhttp.Handler = (*PaymentsEchoHandler)(nil)

func NewPaymentsEchoHandler(logger *xlogger.Logger, svc PaymentsService) *PaymentsEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &PaymentsEchoHandler{logger: logger, svc: svc}
}

// WithDeadLetters exposes GET /api/payments/dead-letters.
func (h *PaymentsEchoHandler) WithDeadLetters(src DeadLetterSource) *PaymentsEchoHandler {
	h.dlq = src
	return h
}

func (h *PaymentsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/payments")
	g.POST("/create-payment-intent", h.CreateIntent)
	g.POST("/webhook", h.Webhook)
	if h.dlq != nil {
		g.GET("/dead-letters", h.DeadLetters)
	}
}

func (h *PaymentsEchoHandler) CreateIntent(c echo.Context) error {
	req := &models.CreatePaymentIntentRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return respondInvalid(c, "create_payment_intent", verr)
	}

	res, err := h.svc.CreateIntent(c.Request().Context(), *req)
	if err != nil {
		return respondError(c, h.logger, "create_payment_intent", err)
	}
	return xhttp.JSONResponse(c, res)
}

// Webhook needs the untouched body for signature verification, so it never binds.
func (h *PaymentsEchoHandler) Webhook(c echo.Context) error {
	sig := c.Request().Header.Get("Stripe-Signature")
	if sig == "" {
		return respondError(c, h.logger, "payment_webhook", xhttp.BadRequestError("missing Stripe-Signature header"))
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return respondError(c, h.logger, "payment_webhook",
			xhttp.NewAppError("ERR_BAD_REQUEST", "", "unreadable body", http.StatusBadRequest).WithError(err))
	}

	if err := h.svc.HandleWebhook(c.Request().Context(), payload, sig); err != nil {
		return respondError(c, h.logger, "payment_webhook", err)
	}
	return xhttp.JSONResponse(c, map[string]bool{"received": true})
}

// DeadLetters is operational: it answers in the standard envelope.
func (h *PaymentsEchoHandler) DeadLetters(c echo.Context) error {
	limit := xhttp.QueryInt(c, "limit", 50)
	if limit < 1 || limit > 500 {
		return respondError(c, h.logger, "payment_dead_letters", xhttp.BadRequestError("limit must be between 1 and 500"))
	}
	msgs, err := h.dlq.DeadLetters(c.Request().Context(), int64(limit))
	if err != nil {
		return respondError(c, h.logger, "payment_dead_letters", err)
	}
	return xhttp.ListResponse(c, msgs, int64(len(msgs)))
}
