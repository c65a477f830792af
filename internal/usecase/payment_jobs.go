package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ShopPulse/internal/domain/models"
	"ShopPulse/pkg/queue"
)

// PaymentStatusJob applies queued payment status updates. An unknown intent is
// retried, since the webhook can arrive before the payment row is committed.
type PaymentStatusJob struct {
	payments *PaymentsUseCase
}

var _ queue.Job = (*PaymentStatusJob)(nil)

func NewPaymentStatusJob(payments *PaymentsUseCase) *PaymentStatusJob {
	return &PaymentStatusJob{payments: payments}
}

func (j *PaymentStatusJob) Name() string { return "payment-status" }
func (j *PaymentStatusJob) Type() string { return JobTypePaymentStatus }

func (j *PaymentStatusJob) Handle(ctx context.Context, payload json.RawMessage) error {
	u, err := queue.ParsePayload[models.StatusUpdate](payload)
	if err != nil {
		return fmt.Errorf("%w: %v", queue.ErrPermanent, err)
	}
	err = j.payments.ApplyStatus(ctx, *u)
	if errors.Is(err, models.ErrInvalidInput) {
		return fmt.Errorf("%w: %v", queue.ErrPermanent, err)
	}
	return err
}
