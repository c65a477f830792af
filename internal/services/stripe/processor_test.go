package stripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"ShopPulse/internal/domain/models"

	stripego "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test"

func sign(t *testing.T, payload string) (string, []byte) {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: []byte(payload),
		Secret:  testSecret,
	})
	return signed.Header, signed.Payload
}

func TestParseWebhookFailed(t *testing.T) {
	p := NewProcessor("sk_test", testSecret)
	header, body := sign(t, `{
		"id": "evt_1",
		"object": "event",
		"type": "payment_intent.payment_failed",
		"data": {"object": {"id": "pi_1", "object": "payment_intent", "last_payment_error": {"message": "Your card was declined."}}}
	}`)

	ev, err := p.ParseWebhook(body, header)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, models.EventPaymentFailed, ev.Type)
	assert.Equal(t, "pi_1", ev.IntentID)
	assert.Equal(t, "Your card was declined.", ev.ErrorMessage)
}

func TestParseWebhookSucceeded(t *testing.T) {
	p := NewProcessor("sk_test", testSecret)
	header, body := sign(t, `{
		"id": "evt_2",
		"object": "event",
		"type": "payment_intent.succeeded",
		"data": {"object": {"id": "pi_2", "object": "payment_intent"}}
	}`)

	ev, err := p.ParseWebhook(body, header)
	require.NoError(t, err)
	assert.Equal(t, models.EventPaymentSucceeded, ev.Type)
	assert.Equal(t, "pi_2", ev.IntentID)
	assert.Empty(t, ev.ErrorMessage)
}

func TestParseWebhookOtherEvent(t *testing.T) {
	p := NewProcessor("sk_test", testSecret)
	header, body := sign(t, `{"id":"evt_3","object":"event","type":"charge.refunded","data":{"object":{"id":"ch_1","object":"charge"}}}`)

	ev, err := p.ParseWebhook(body, header)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentEventType("charge.refunded"), ev.Type)
	assert.Empty(t, ev.IntentID)
}

func TestParseWebhookBadSignature(t *testing.T) {
	p := NewProcessor("sk_test", testSecret)
	_, body := sign(t, `{"id":"evt_1","object":"event","type":"payment_intent.succeeded"}`)

	_, err := p.ParseWebhook(body, "t=1,v1=deadbeef")
	require.ErrorIs(t, err, ErrSignature)
}

func TestCreateIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "1999", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, "true", r.PostForm.Get("automatic_payment_methods[enabled]"))
		assert.Equal(t, "s1", r.PostForm.Get("metadata[storeId]"))
		assert.Equal(t, "tx1", r.PostForm.Get("metadata[transactionId]"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_123","object":"payment_intent","client_secret":"pi_123_secret_abc"}`))
	}))
	defer srv.Close()

	backend := stripego.GetBackendWithConfig(stripego.APIBackend, &stripego.BackendConfig{
		URL:               stripego.String(srv.URL),
		HTTPClient:        srv.Client(),
		MaxNetworkRetries: stripego.Int64(0),
		LeveledLogger:     &stripego.LeveledLogger{Level: stripego.LevelNull},
	})
	p := NewProcessor("sk_test", testSecret, WithBackends(&stripego.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	}))

	intent, err := p.CreateIntent(context.Background(), models.PaymentIntentParams{
		Amount:   1999,
		Currency: "USD",
		Metadata: map[string]string{"storeId": "s1", "transactionId": "tx1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, "pi_123_secret_abc", intent.ClientSecret)
}
