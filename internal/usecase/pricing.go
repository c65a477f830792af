package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ShopPulse/internal/domain/models"
	domrepo "ShopPulse/internal/domain/repository"
	domsvc "ShopPulse/internal/domain/service"
	"ShopPulse/pkg/cache"
	applogger "ShopPulse/pkg/logger"
)

const (
	SourcePredict = "predict"
	SourceSweep   = "sweep"
)

// Broadcaster pushes recommendation events to live subscribers.
type Broadcaster interface {
	Broadcast(ev models.RecommendationEvent)
}

// PricingUseCase serves recommendations, trend reports and the combined insights view.
type PricingUseCase struct {
	products    domrepo.ProductStore
	history     domrepo.HistoryStore
	recommender domsvc.PriceRecommender
	trends      domsvc.TrendReporter
	metrics     domrepo.Metrics

	scorer    domsvc.CompetitionScorer
	publisher domrepo.RecommendationPublisher
	feed      Broadcaster
	cache     cache.Service
	cacheTTL  time.Duration

	windowDays int
	timeout    time.Duration
	l          *applogger.Logger
	now        func() time.Time
}

type PricingOption func(*PricingUseCase)

// WithCompetitionScorer supplies the competition signal per product.
func WithCompetitionScorer(s domsvc.CompetitionScorer) PricingOption {
	return func(uc *PricingUseCase) { uc.scorer = s }
}

// WithRecommendationPublisher publishes every computed recommendation.
func WithRecommendationPublisher(p domrepo.RecommendationPublisher) PricingOption {
	return func(uc *PricingUseCase) { uc.publisher = p }
}

func WithBroadcaster(b Broadcaster) PricingOption {
	return func(uc *PricingUseCase) { uc.feed = b }
}

// WithResponseCache caches predict and trend results for ttl. A zero ttl disables caching.
func WithResponseCache(c cache.Service, ttl time.Duration) PricingOption {
	return func(uc *PricingUseCase) {
		if c != nil && ttl > 0 {
			uc.cache = c
			uc.cacheTTL = ttl
		}
	}
}

func WithWindowDays(days int) PricingOption {
	return func(uc *PricingUseCase) { uc.windowDays = domrepo.NormalizeWindowDays(days) }
}

// WithTimeout bounds the insights aggregate.
func WithTimeout(d time.Duration) PricingOption {
	return func(uc *PricingUseCase) {
		if d > 0 {
			uc.timeout = d
		}
	}
}

func NewPricingUseCase(
	products domrepo.ProductStore,
	history domrepo.HistoryStore,
	recommender domsvc.PriceRecommender,
	trends domsvc.TrendReporter,
	metrics domrepo.Metrics,
	opts ...PricingOption,
) *PricingUseCase {
	uc := &PricingUseCase{
		products:    products,
		history:     history,
		recommender: recommender,
		trends:      trends,
		metrics:     metrics,
		windowDays:  domrepo.DefaultWindowDays,
		timeout:     10 * time.Second,
		l:           applogger.Nop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// SetLogger injects a structured logger.
func (uc *PricingUseCase) SetLogger(l *applogger.Logger) {
	if l != nil {
		uc.l = l
	}
}

// Predict recommends a price for one product.
func (uc *PricingUseCase) Predict(ctx context.Context, productID string) (models.PriceRecommendation, error) {
	id, err := requireProductID(productID)
	if err != nil {
		return models.PriceRecommendation{}, err
	}
	start := uc.now()
	defer uc.observe("predict", start)

	key := cache.Key("pricing", "predict", id)
	if rec, ok := cached[models.PriceRecommendation](ctx, uc, key); ok {
		return rec, nil
	}

	product, err := uc.products.GetProduct(ctx, id)
	if err != nil {
		uc.metrics.RecordError("predict")
		return models.PriceRecommendation{}, fmt.Errorf("get product: %w", err)
	}

	rec, err := uc.recommend(ctx, product)
	if err != nil {
		return models.PriceRecommendation{}, err
	}
	uc.store(ctx, key, rec)
	uc.emit(ctx, SourcePredict, rec)
	return rec, nil
}

// Reprice recomputes and emits a recommendation for an already loaded product.
func (uc *PricingUseCase) Reprice(ctx context.Context, product models.Product) (models.PriceRecommendation, error) {
	rec, err := uc.recommend(ctx, product)
	if err != nil {
		return models.PriceRecommendation{}, err
	}
	uc.store(ctx, cache.Key("pricing", "predict", product.ID), rec)
	if err := uc.publish(ctx, SourceSweep, rec); err != nil {
		return rec, err
	}
	return rec, nil
}

func (uc *PricingUseCase) recommend(ctx context.Context, product models.Product) (models.PriceRecommendation, error) {
	if err := product.Validate(); err != nil {
		uc.metrics.RecordError("invalid_product")
		return models.PriceRecommendation{}, fmt.Errorf("product %s: %w", product.ID, err)
	}
	rec := uc.recommender.RecommendWith(product, uc.signals(ctx, product.ID))
	uc.metrics.RecordRecommendedPrice(rec.ProductID, rec.RecommendedPrice)
	return rec, nil
}

// signals starts from the configured defaults and replaces competition when a scorer answers.
func (uc *PricingUseCase) signals(ctx context.Context, productID string) models.PricingSignals {
	s := uc.recommender.Defaults()
	if uc.scorer == nil {
		return s
	}
	score, err := uc.scorer.Score(ctx, productID)
	if err != nil {
		uc.metrics.RecordError("competition")
		uc.l.Warn("competition score unavailable, using default",
			applogger.String("product_id", productID),
			applogger.Error(err))
		return s
	}
	s.Competition = score
	return s
}

// TrendReport derives elasticity and a recommended range from the product's history.
func (uc *PricingUseCase) TrendReport(ctx context.Context, productID string) (models.TrendReport, error) {
	id, err := requireProductID(productID)
	if err != nil {
		return models.TrendReport{}, err
	}
	start := uc.now()
	defer uc.observe("trend_report", start)

	key := cache.Key("pricing", "trend", id)
	if rep, ok := cached[models.TrendReport](ctx, uc, key); ok {
		return rep, nil
	}

	history, err := uc.history.GetHistory(ctx, id, uc.windowDays)
	if err != nil {
		uc.metrics.RecordError("trend_report")
		return models.TrendReport{}, fmt.Errorf("get history: %w", err)
	}
	rep, err := uc.trends.Report(id, history)
	if err != nil {
		uc.metrics.RecordError("trend_report")
		return models.TrendReport{}, err
	}
	uc.store(ctx, key, rep)
	return rep, nil
}

// Insights runs Predict and TrendReport concurrently. Parts that fail are
// reported in Errors; the call itself fails only on a missing id.
func (uc *PricingUseCase) Insights(ctx context.Context, productID string) (*models.PricingInsights, error) {
	id, err := requireProductID(productID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	res := &models.PricingInsights{ProductID: id, Errors: map[string]string{}}

	type item struct {
		name string
		val  interface{}
		err  error
	}
	ch := make(chan item, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := uc.Predict(ctx, id)
		ch <- item{"recommendation", v, err}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := uc.TrendReport(ctx, id)
		ch <- item{"trend", v, err}
	}()

	go func() { wg.Wait(); close(ch) }()

	for it := range ch {
		if it.err != nil {
			res.Errors[it.name] = PublicMessage(it.err)
			if !isClientError(it.err) {
				uc.l.Error("insights part failed",
					applogger.String("part", it.name),
					applogger.String("product_id", id),
					applogger.Error(it.err))
			}
			continue
		}
		switch it.name {
		case "recommendation":
			v := it.val.(models.PriceRecommendation)
			res.Recommendation = &v
		case "trend":
			v := it.val.(models.TrendReport)
			res.Trend = &v
		}
	}

	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	return res, nil
}

func (uc *PricingUseCase) emit(ctx context.Context, source string, rec models.PriceRecommendation) {
	if err := uc.publish(ctx, source, rec); err != nil {
		uc.l.Warn("publish recommendation failed",
			applogger.String("product_id", rec.ProductID),
			applogger.Error(err))
	}
}

// publish sends rec to the publisher and the live feed. Only the publisher can fail.
func (uc *PricingUseCase) publish(ctx context.Context, source string, rec models.PriceRecommendation) error {
	ev := models.RecommendationEvent{Source: source, Recommendation: rec, ComputedAt: uc.now().UTC()}
	if uc.feed != nil {
		uc.feed.Broadcast(ev)
	}
	if uc.publisher == nil {
		return nil
	}
	if err := uc.publisher.PublishRecommendation(ctx, ev); err != nil {
		uc.metrics.RecordError("publish_recommendation")
		return fmt.Errorf("publish recommendation: %w", err)
	}
	uc.metrics.RecordMessageSent(BackendKafka, "recommendation")
	return nil
}

func (uc *PricingUseCase) store(ctx context.Context, key string, v interface{}) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Set(ctx, key, v, uc.cacheTTL); err != nil {
		uc.l.Warn("cache set failed", applogger.String("key", key), applogger.Error(err))
	}
}

func (uc *PricingUseCase) observe(op string, start time.Time) {
	uc.metrics.RecordLatency(op, uc.now().Sub(start).Seconds())
}

func cached[T any](ctx context.Context, uc *PricingUseCase, key string) (T, bool) {
	var zero T
	if uc.cache == nil {
		return zero, false
	}
	v, err := cache.GetJSON[T](ctx, uc.cache, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			uc.l.Warn("cache get failed", applogger.String("key", key), applogger.Error(err))
		}
		return zero, false
	}
	return v, true
}

func requireProductID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("productId: %w", models.ErrInvalidInput)
	}
	return id, nil
}

func isClientError(err error) bool {
	return errors.Is(err, models.ErrInvalidInput) ||
		errors.Is(err, models.ErrNotFound) ||
		errors.Is(err, models.ErrInvalidProduct) ||
		errors.Is(err, models.ErrEmptyHistory)
}

// PublicMessage renders err for API clients without leaking internals.
func PublicMessage(err error) string {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return "productId is required"
	case errors.Is(err, models.ErrNotFound):
		return "product not found"
	case errors.Is(err, models.ErrInvalidProduct):
		return "product has invalid price or stock"
	case errors.Is(err, models.ErrEmptyHistory):
		return "no price history"
	default:
		return "Internal server error"
	}
}
