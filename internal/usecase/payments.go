package usecase

import (
	"context"
	"fmt"
	"strings"

	"ShopPulse/internal/domain/models"
	domrepo "ShopPulse/internal/domain/repository"
	domsvc "ShopPulse/internal/domain/service"
	applogger "ShopPulse/pkg/logger"
	"ShopPulse/pkg/queue"
	"ShopPulse/pkg/util"

	"github.com/shopspring/decimal"
)

const (
	JobTypePaymentStatus = "payment.status"
	defaultPaymentMethod = "card"
)

// PaymentsUseCase starts payments with the processor and tracks their status from webhooks.
type PaymentsUseCase struct {
	processor domsvc.PaymentProcessor
	store     domrepo.PaymentStore
	queue     queue.QueueService
	metrics   domrepo.Metrics
	l         *applogger.Logger
}

func NewPaymentsUseCase(processor domsvc.PaymentProcessor, store domrepo.PaymentStore, metrics domrepo.Metrics) *PaymentsUseCase {
	return &PaymentsUseCase{processor: processor, store: store, metrics: metrics, l: applogger.Nop()}
}

// SetQueue routes status updates through the job queue instead of applying them inline.
func (uc *PaymentsUseCase) SetQueue(q queue.QueueService) { uc.queue = q }

// SetLogger injects a structured logger.
func (uc *PaymentsUseCase) SetLogger(l *applogger.Logger) {
	if l != nil {
		uc.l = l
	}
}

// ToMinorUnits converts a major-unit amount to cents, rounding half away from zero.
func ToMinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Shift(2).Round(0).IntPart()
}

// CreateIntent creates a processor intent and records a pending payment for it.
func (uc *PaymentsUseCase) CreateIntent(ctx context.Context, req models.CreatePaymentIntentRequest) (models.CreatePaymentIntentResponse, error) {
	currency := strings.ToUpper(util.FirstNonEmpty(req.Currency, "USD"))

	intent, err := uc.processor.CreateIntent(ctx, models.PaymentIntentParams{
		Amount:   ToMinorUnits(req.Amount),
		Currency: currency,
		Metadata: map[string]string{
			"storeId":       req.StoreID,
			"transactionId": req.TransactionID,
		},
	})
	if err != nil {
		uc.metrics.RecordError("payment_intent")
		return models.CreatePaymentIntentResponse{}, fmt.Errorf("create intent: %w", err)
	}

	p := &models.Payment{
		StoreID:         req.StoreID,
		TransactionID:   req.TransactionID,
		Amount:          req.Amount,
		Currency:        currency,
		Status:          models.PaymentPending,
		PaymentMethod:   defaultPaymentMethod,
		PaymentIntentID: intent.ID,
	}
	if err := uc.store.Insert(ctx, p); err != nil {
		uc.metrics.RecordError("payment_insert")
		return models.CreatePaymentIntentResponse{}, fmt.Errorf("record payment: %w", err)
	}

	uc.l.Info("payment intent created",
		applogger.String("intent_id", intent.ID),
		applogger.String("store_id", req.StoreID),
		applogger.String("transaction_id", req.TransactionID))
	return models.CreatePaymentIntentResponse{ClientSecret: intent.ClientSecret}, nil
}

// HandleWebhook verifies a processor notification and applies the status change it carries.
// Unrelated event types are acknowledged and ignored.
func (uc *PaymentsUseCase) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if signature == "" {
		return fmt.Errorf("missing signature: %w", models.ErrInvalidSignature)
	}
	ev, err := uc.processor.ParseWebhook(payload, signature)
	if err != nil {
		uc.metrics.RecordError("webhook_parse")
		return fmt.Errorf("parse webhook: %w", err)
	}

	update, ok := statusUpdateFor(ev)
	if !ok {
		uc.l.Debug("webhook event ignored",
			applogger.String("event_id", ev.ID),
			applogger.String("type", string(ev.Type)))
		return nil
	}

	if uc.queue != nil {
		if err := uc.queue.PublishMessage(ctx, JobTypePaymentStatus, update); err != nil {
			uc.metrics.RecordError("payment_status_enqueue")
			return fmt.Errorf("enqueue status update: %w", err)
		}
		return nil
	}
	return uc.ApplyStatus(ctx, update)
}

// ApplyStatus persists a status change for an intent.
func (uc *PaymentsUseCase) ApplyStatus(ctx context.Context, u models.StatusUpdate) error {
	if u.IntentID == "" {
		return fmt.Errorf("intent id: %w", models.ErrInvalidInput)
	}
	if err := uc.store.UpdateStatus(ctx, u.IntentID, u.Status, u.ErrorMessage); err != nil {
		uc.metrics.RecordError("payment_status")
		return fmt.Errorf("update payment %s: %w", u.IntentID, err)
	}
	uc.l.Info("payment status updated",
		applogger.String("intent_id", u.IntentID),
		applogger.String("status", string(u.Status)))
	return nil
}

func statusUpdateFor(ev models.PaymentEvent) (models.StatusUpdate, bool) {
	switch ev.Type {
	case models.EventPaymentSucceeded:
		return models.StatusUpdate{IntentID: ev.IntentID, Status: models.PaymentSucceeded}, true
	case models.EventPaymentFailed:
		return models.StatusUpdate{IntentID: ev.IntentID, Status: models.PaymentFailed, ErrorMessage: ev.ErrorMessage}, true
	default:
		return models.StatusUpdate{}, false
	}
}
