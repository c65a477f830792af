package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ShopPulse/internal/domain/models"
	"ShopPulse/internal/middleware"
	xhttp "ShopPulse/pkg/http"
	"ShopPulse/pkg/queue"
)

type fakePricing struct {
	rec      models.PriceRecommendation
	trend    models.TrendReport
	insights *models.PricingInsights
	err      error
	gotID    string
}

func (f *fakePricing) Predict(_ context.Context, id string) (models.PriceRecommendation, error) {
	f.gotID = id
	return f.rec, f.err
}

func (f *fakePricing) TrendReport(_ context.Context, id string) (models.TrendReport, error) {
	f.gotID = id
	return f.trend, f.err
}

func (f *fakePricing) Insights(_ context.Context, id string) (*models.PricingInsights, error) {
	f.gotID = id
	return f.insights, f.err
}

type fakePaymentsSvc struct {
	res     models.CreatePaymentIntentResponse
	err     error
	gotReq  models.CreatePaymentIntentRequest
	payload []byte
	sig     string
}

func (f *fakePaymentsSvc) CreateIntent(_ context.Context, req models.CreatePaymentIntentRequest) (models.CreatePaymentIntentResponse, error) {
	f.gotReq = req
	return f.res, f.err
}

func (f *fakePaymentsSvc) HandleWebhook(_ context.Context, payload []byte, sig string) error {
	f.payload, f.sig = payload, sig
	return f.err
}

type fakeIngester struct {
	got *models.Sale
	err error
}

func (f *fakeIngester) Process(_ context.Context, s *models.Sale) error {
	f.got = s
	return f.err
}

func newEcho(handlers ...xhttp.Handler) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = xhttp.HTTPErrorHandler
	for _, h := range handlers {
		h.RegisterRoutes(e)
	}
	return e
}

func do(e *echo.Echo, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestPredictEndpoint(t *testing.T) {
	svc := &fakePricing{rec: models.PriceRecommendation{
		ProductID:        "p1",
		CurrentPrice:     19.99,
		RecommendedPrice: 21.99,
		Confidence:       0.85,
		Factors:          models.PriceFactors{Demand: 0.95, Competition: 0.75, Inventory: 0.6},
	}}
	e := newEcho(NewPricingEchoHandler(nil, svc))

	rec := do(e, http.MethodPost, "/api/pricing/predict", `{"productId":"p1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "p1", svc.gotID)
	assert.Contains(t, rec.Body.String(), `"recommendedPrice":21.99`)
	assert.NotContains(t, rec.Body.String(), `"data"`, "no envelope")

	rec = do(e, http.MethodPost, "/api/pricing/predict?productId=p9", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "p9", svc.gotID)
}

func TestPredictEndpointErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		want   string
	}{
		{"missing id", "", nil, 400, `{"error":"productId is required","code":"ERR_REQUIRED"}`},
		{"blank id", `{"productId":"  "}`, fmt.Errorf("productId: %w", models.ErrInvalidInput), 400, `{"error":"productId is required","code":"ERR_REQUIRED"}`},
		{"not found", `{"productId":"x"}`, fmt.Errorf("get product: %w", models.ErrNotFound), 404, `{"error":"product not found"}`},
		{"invalid product", `{"productId":"x"}`, models.ErrInvalidProduct, 422, `{"error":"product has invalid price or stock","code":"ERR_UNPROCESSABLE"}`},
		{"internal", `{"productId":"x"}`, errors.New("db password leaked"), 500, `{"error":"Internal server error"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEcho(NewPricingEchoHandler(nil, &fakePricing{err: tt.err}))
			rec := do(e, http.MethodPost, "/api/pricing/predict", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.want, rec.Body.String())
		})
	}
}

func TestTrendReportEndpoint(t *testing.T) {
	svc := &fakePricing{trend: models.TrendReport{
		ProductID:             "p1",
		PriceElasticity:       -2,
		RecommendedPriceRange: models.PriceRange{Min: 90, Max: 121},
	}}
	e := newEcho(NewPricingEchoHandler(nil, svc))

	rec := do(e, http.MethodGet, "/api/pricing/trend-report?productId=p1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"priceElasticity":-2`)

	svc.err = models.ErrEmptyHistory
	rec = do(e, http.MethodGet, "/api/pricing/trend-report?productId=p1", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestInsightsEndpoint(t *testing.T) {
	svc := &fakePricing{insights: &models.PricingInsights{
		ProductID: "p1",
		Errors:    map[string]string{"trend": "no price history"},
	}}
	e := newEcho(NewPricingEchoHandler(nil, svc))

	rec := do(e, http.MethodGet, "/api/pricing/insights?productId=p1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"trend":"no price history"`)
	assert.Equal(t, "private, max-age=15", rec.Header().Get(echo.HeaderCacheControl))
}

func TestUnknownRoute(t *testing.T) {
	e := newEcho(NewPricingEchoHandler(nil, &fakePricing{}))
	rec := do(e, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, rec.Body.String())
}

func TestCreatePaymentIntentEndpoint(t *testing.T) {
	svc := &fakePaymentsSvc{res: models.CreatePaymentIntentResponse{ClientSecret: "pi_1_secret"}}
	e := newEcho(NewPaymentsEchoHandler(nil, svc))

	rec := do(e, http.MethodPost, "/api/payments/create-payment-intent",
		`{"amount":12.5,"storeId":"s1","transactionId":"t1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"clientSecret":"pi_1_secret"}`, rec.Body.String())
	assert.Equal(t, "USD", svc.gotReq.Currency)
	assert.Equal(t, 12.5, svc.gotReq.Amount)

	rec = do(e, http.MethodPost, "/api/payments/create-payment-intent",
		`{"amount":0,"storeId":"s1","transactionId":"t1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"amount must be greater than 0","code":"ERR_GT"}`, rec.Body.String())
}

func TestWebhookEndpoint(t *testing.T) {
	svc := &fakePaymentsSvc{}
	e := newEcho(NewPaymentsEchoHandler(nil, svc))

	rec := do(e, http.MethodPost, "/api/payments/webhook", `{"id":"evt_1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, svc.payload, "not called without a signature")

	rec = do(e, http.MethodPost, "/api/payments/webhook", `{"id":"evt_1"}`, "Stripe-Signature", "t=1,v1=abc")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"received":true}`, rec.Body.String())
	assert.Equal(t, `{"id":"evt_1"}`, string(svc.payload))
	assert.Equal(t, "t=1,v1=abc", svc.sig)

	svc.err = fmt.Errorf("parse webhook: %w", models.ErrInvalidSignature)
	rec = do(e, http.MethodPost, "/api/payments/webhook", `{}`, "Stripe-Signature", "bad")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_SIGNATURE")

	svc.err = errors.New("redis down")
	rec = do(e, http.MethodPost, "/api/payments/webhook", `{}`, "Stripe-Signature", "ok")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type fakeDLQ struct {
	msgs     []queue.Message
	gotLimit int64
}

func (f *fakeDLQ) DeadLetters(_ context.Context, limit int64) ([]queue.Message, error) {
	f.gotLimit = limit
	return f.msgs, nil
}

func TestDeadLettersEndpoint(t *testing.T) {
	e := newEcho(NewPaymentsEchoHandler(nil, &fakePaymentsSvc{}))
	rec := do(e, http.MethodGet, "/api/payments/dead-letters", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "not routed without a queue")

	dlq := &fakeDLQ{msgs: []queue.Message{{ID: "m1", Type: "payment.status", Attempts: 4}}}
	e = newEcho(NewPaymentsEchoHandler(nil, &fakePaymentsSvc{}).WithDeadLetters(dlq))

	rec = do(e, http.MethodGet, "/api/payments/dead-letters", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(50), dlq.gotLimit)
	assert.Contains(t, rec.Body.String(), `"total":1`)
	assert.Contains(t, rec.Body.String(), `"m1"`)

	rec = do(e, http.MethodGet, "/api/payments/dead-letters?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordSaleEndpoint(t *testing.T) {
	ing := &fakeIngester{}
	h := NewSalesEchoHandler(nil, ing)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return fixed }
	e := newEcho(h)

	rec := do(e, http.MethodPost, "/api/sales", `{"productId":"p1","price":9.5}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.NotNil(t, ing.got)
	assert.Equal(t, 1, ing.got.Quantity)
	assert.Equal(t, fixed, ing.got.SoldAt)
	assert.NotEmpty(t, ing.got.EventID)
	assert.Contains(t, rec.Body.String(), ing.got.EventID)

	rec = do(e, http.MethodPost, "/api/sales", `{"productId":"p1","price":9.5,"quantity":2,"soldAt":"2024-04-30T08:00:00Z"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, time.Date(2024, 4, 30, 8, 0, 0, 0, time.UTC), ing.got.SoldAt)
	assert.Equal(t, 2, ing.got.Quantity)

	rec = do(e, http.MethodPost, "/api/sales", `{"productId":"p1","price":9.5,"soldAt":"yesterday"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/api/sales", `{"productId":"p1","price":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ing.err = fmt.Errorf("product p1: %w", middleware.ErrThrottled)
	rec = do(e, http.MethodPost, "/api/sales", `{"productId":"p1","price":9.5}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

type fakeCheck struct{ err error }

func (f fakeCheck) Health(context.Context) error { return f.err }

func TestHealthEndpoints(t *testing.T) {
	e := newEcho(NewHealthHandler(nil, map[string]HealthChecker{
		"postgres":   fakeCheck{},
		"clickhouse": fakeCheck{},
		"redis":      nil,
	}))
	rec := do(e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"postgres":"ok","clickhouse":"ok"}}`, rec.Body.String())

	e = newEcho(NewHealthHandler(nil, map[string]HealthChecker{
		"postgres": fakeCheck{err: errors.New("conn refused")},
	}))
	rec = do(e, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable","checks":{"postgres":"unavailable"}}`, rec.Body.String())
}
