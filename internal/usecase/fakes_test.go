package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"ShopPulse/internal/domain/models"
)

type fakeProducts struct {
	mu       sync.Mutex
	products map[string]models.Product
	err      error
	listErr  error
	gets     int
}

func newFakeProducts(ps ...models.Product) *fakeProducts {
	f := &fakeProducts{products: map[string]models.Product{}}
	for _, p := range ps {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeProducts) GetProduct(_ context.Context, id string) (models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.err != nil {
		return models.Product{}, f.err
	}
	p, ok := f.products[id]
	if !ok {
		return models.Product{}, models.ErrNotFound
	}
	return p, nil
}

func (f *fakeProducts) ListProducts(_ context.Context, afterID string, limit int) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	ids := make([]string, 0, len(f.products))
	for id := range f.products {
		if id > afterID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.products[id])
	}
	return out, nil
}

func (f *fakeProducts) Health(context.Context) error { return nil }

func (f *fakeProducts) getCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets
}

type fakeHistory struct {
	points []models.HistoricalPricePoint
	err    error
	days   int
}

func (f *fakeHistory) GetHistory(_ context.Context, _ string, windowDays int) ([]models.HistoricalPricePoint, error) {
	f.days = windowDays
	return f.points, f.err
}

type fakeScorer struct {
	score float64
	err   error
}

func (f fakeScorer) Score(context.Context, string) (float64, error) { return f.score, f.err }

type fakeRecPublisher struct {
	mu     sync.Mutex
	events []models.RecommendationEvent
	err    error
	failOn map[string]bool
}

func (f *fakeRecPublisher) PublishRecommendation(_ context.Context, ev models.RecommendationEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.failOn[ev.Recommendation.ProductID] {
		return errors.New("publish failed")
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeRecPublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

type fakeFeed struct {
	mu     sync.Mutex
	events []models.RecommendationEvent
}

func (f *fakeFeed) Broadcast(ev models.RecommendationEvent) {
	f.mu.Lock()
	f.events = append(f.events, ev)
	f.mu.Unlock()
}

func (f *fakeFeed) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

type fakeProcessor struct {
	params   models.PaymentIntentParams
	intent   models.PaymentIntent
	err      error
	event    models.PaymentEvent
	parseErr error
}

func (f *fakeProcessor) CreateIntent(_ context.Context, p models.PaymentIntentParams) (models.PaymentIntent, error) {
	f.params = p
	return f.intent, f.err
}

func (f *fakeProcessor) ParseWebhook([]byte, string) (models.PaymentEvent, error) {
	return f.event, f.parseErr
}

type statusCall struct {
	intentID string
	status   models.PaymentStatus
	msg      string
}

type fakePayments struct {
	inserted  []*models.Payment
	insertErr error
	updates   []statusCall
	updateErr error
}

func (f *fakePayments) Insert(_ context.Context, p *models.Payment) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	p.ID = "pay_1"
	p.CreatedAt = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	f.inserted = append(f.inserted, p)
	return nil
}

func (f *fakePayments) UpdateStatus(_ context.Context, intentID string, status models.PaymentStatus, msg string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, statusCall{intentID, status, msg})
	return nil
}

func (f *fakePayments) GetByIntentID(context.Context, string) (*models.Payment, error) {
	return nil, models.ErrNotFound
}

type queued struct {
	msgType string
	payload interface{}
}

type fakeQueue struct {
	msgs []queued
	err  error
}

func (f *fakeQueue) PublishMessage(_ context.Context, msgType string, payload interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, queued{msgType, payload})
	return nil
}

type fakeSaleStorage struct {
	mu     sync.Mutex
	stored []*models.Sale
	err    error
}

func (f *fakeSaleStorage) Store(_ context.Context, s *models.Sale) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, s)
	return nil
}

func (f *fakeSaleStorage) StoreBatch(ctx context.Context, sales []*models.Sale) error {
	for _, s := range sales {
		if err := f.Store(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeSaleStorage) Query(context.Context, string, time.Time, time.Time, int) ([]*models.Sale, error) {
	return f.stored, nil
}

func (f *fakeSaleStorage) Health(context.Context) error { return nil }
func (f *fakeSaleStorage) Close() error                 { return nil }

type fakeSalePublisher struct {
	published []*models.Sale
	err       error
}

func (f *fakeSalePublisher) Publish(_ context.Context, s *models.Sale) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, s)
	return nil
}

func (f *fakeSalePublisher) PublishBatch(_ context.Context, sales []*models.Sale) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, sales...)
	return nil
}

func (f *fakeSalePublisher) Close() error { return nil }
