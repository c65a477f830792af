package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ShopPulse/internal/domain/models"
	domsvc "ShopPulse/internal/domain/service"

	stripego "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// ErrSignature is returned when a webhook payload fails verification.
var ErrSignature = models.ErrInvalidSignature

// Processor is the Stripe-backed PaymentProcessor.
type Processor struct {
	api           *client.API
	webhookSecret string
}

var _ domsvc.PaymentProcessor = (*Processor)(nil)

type Option func(*options)

type options struct {
	backends *stripego.Backends
}

// WithBackends overrides the API backends, e.g. to point at a stub server.
func WithBackends(b *stripego.Backends) Option {
	return func(o *options) { o.backends = b }
}

func NewProcessor(secretKey, webhookSecret string, opts ...Option) *Processor {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	api := &client.API{}
	api.Init(secretKey, o.backends)
	return &Processor{api: api, webhookSecret: webhookSecret}
}

// CreateIntent creates a payment intent with automatic payment methods.
func (p *Processor) CreateIntent(ctx context.Context, in models.PaymentIntentParams) (models.PaymentIntent, error) {
	params := &stripego.PaymentIntentParams{
		Amount:   stripego.Int64(in.Amount),
		Currency: stripego.String(strings.ToLower(in.Currency)),
		AutomaticPaymentMethods: &stripego.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripego.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return models.PaymentIntent{}, fmt.Errorf("create payment intent: %w", err)
	}
	return models.PaymentIntent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// ParseWebhook verifies the signature and reduces the event to what status
// tracking needs. Events other than payment intents carry only ID and Type.
func (p *Processor) ParseWebhook(payload []byte, signature string) (models.PaymentEvent, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return models.PaymentEvent{}, fmt.Errorf("%w: %v", ErrSignature, err)
	}

	out := models.PaymentEvent{ID: ev.ID, Type: models.PaymentEventType(ev.Type)}
	switch out.Type {
	case models.EventPaymentSucceeded, models.EventPaymentFailed:
	default:
		return out, nil
	}
	if ev.Data == nil {
		return out, fmt.Errorf("event %s has no data", ev.ID)
	}

	var pi stripego.PaymentIntent
	if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
		return out, fmt.Errorf("decode payment intent: %w", err)
	}
	out.IntentID = pi.ID
	if pi.LastPaymentError != nil {
		out.ErrorMessage = pi.LastPaymentError.Msg
	}
	return out, nil
}
