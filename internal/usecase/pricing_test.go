package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"ShopPulse/internal/domain/models"
	"ShopPulse/internal/services/pricing"
	"ShopPulse/pkg/cache"
	"ShopPulse/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var twoDays = []models.HistoricalPricePoint{
	{Date: "2024-03-01", Price: 100, Sales: 50},
	{Date: "2024-03-02", Price: 110, Sales: 40},
}

func newPricingUC(products *fakeProducts, history *fakeHistory, opts ...PricingOption) *PricingUseCase {
	return NewPricingUseCase(products, history, pricing.NewRecommender(), pricing.NewTrendReporter(), metrics.Noop{}, opts...)
}

func TestPredict(t *testing.T) {
	pub := &fakeRecPublisher{}
	feed := &fakeFeed{}
	uc := newPricingUC(newFakeProducts(models.Product{ID: "p1", Price: 19.99, Stock: 5}), &fakeHistory{},
		WithRecommendationPublisher(pub), WithBroadcaster(feed))

	rec, err := uc.Predict(context.Background(), " p1 ")
	require.NoError(t, err)
	assert.Equal(t, models.PriceRecommendation{
		ProductID:        "p1",
		CurrentPrice:     19.99,
		RecommendedPrice: 21.99,
		Confidence:       0.85,
		Factors:          models.PriceFactors{Demand: 0.95, Competition: 0.75, Inventory: 0.6},
	}, rec)

	require.Equal(t, 1, pub.count())
	assert.Equal(t, SourcePredict, pub.events[0].Source)
	assert.Equal(t, rec, pub.events[0].Recommendation)
	assert.Equal(t, 1, feed.count())
}

func TestPredictErrors(t *testing.T) {
	products := newFakeProducts(
		models.Product{ID: "zero", Price: 0, Stock: 10},
		models.Product{ID: "neg", Price: 10, Stock: -1},
	)
	uc := newPricingUC(products, &fakeHistory{})
	ctx := context.Background()

	_, err := uc.Predict(ctx, "  ")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = uc.Predict(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = uc.Predict(ctx, "zero")
	assert.ErrorIs(t, err, models.ErrInvalidProduct)

	_, err = uc.Predict(ctx, "neg")
	assert.ErrorIs(t, err, models.ErrInvalidProduct)

	products.err = errors.New("connection refused")
	_, err = uc.Predict(ctx, "zero")
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrNotFound)
}

func TestPredictCompetitionSignal(t *testing.T) {
	products := newFakeProducts(models.Product{ID: "p1", Price: 10, Stock: 30})

	uc := newPricingUC(products, &fakeHistory{}, WithCompetitionScorer(fakeScorer{score: 0.3}))
	rec, err := uc.Predict(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 0.3, rec.Factors.Competition)

	uc = newPricingUC(products, &fakeHistory{}, WithCompetitionScorer(fakeScorer{err: errors.New("timeout")}))
	rec, err = uc.Predict(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 0.75, rec.Factors.Competition)
}

func TestPredictPublishFailureIsBestEffort(t *testing.T) {
	uc := newPricingUC(newFakeProducts(models.Product{ID: "p1", Price: 10, Stock: 30}), &fakeHistory{},
		WithRecommendationPublisher(&fakeRecPublisher{err: errors.New("broker down")}))
	_, err := uc.Predict(context.Background(), "p1")
	require.NoError(t, err)
}

func TestPredictCache(t *testing.T) {
	mc := cache.NewMemoryCache(cache.WithMemoryCleanup(0))
	defer mc.Close()
	products := newFakeProducts(models.Product{ID: "p1", Price: 12.5, Stock: 500})
	uc := newPricingUC(products, &fakeHistory{}, WithResponseCache(mc, time.Minute))

	first, err := uc.Predict(context.Background(), "p1")
	require.NoError(t, err)
	second, err := uc.Predict(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 11.25, second.RecommendedPrice)
	assert.Equal(t, 1, products.getCount())
}

func TestResponseCacheZeroTTLDisables(t *testing.T) {
	mc := cache.NewMemoryCache(cache.WithMemoryCleanup(0))
	defer mc.Close()
	uc := newPricingUC(newFakeProducts(), &fakeHistory{}, WithResponseCache(mc, 0))
	assert.Nil(t, uc.cache)
}

func TestTrendReport(t *testing.T) {
	hist := &fakeHistory{points: twoDays}
	uc := newPricingUC(newFakeProducts(), hist, WithWindowDays(14))

	rep, err := uc.TrendReport(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 14, hist.days)
	assert.Equal(t, "p1", rep.ProductID)
	assert.Equal(t, -2.0, rep.PriceElasticity)
	assert.Equal(t, 1.2, rep.SeasonalityFactor)
	assert.Equal(t, models.PriceRange{Min: 90, Max: 121}, rep.RecommendedPriceRange)
	assert.Equal(t, twoDays, rep.HistoricalPrices)
}

func TestTrendReportErrors(t *testing.T) {
	ctx := context.Background()

	uc := newPricingUC(newFakeProducts(), &fakeHistory{})
	_, err := uc.TrendReport(ctx, "")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = uc.TrendReport(ctx, "p1")
	assert.ErrorIs(t, err, models.ErrEmptyHistory)

	uc = newPricingUC(newFakeProducts(), &fakeHistory{err: errors.New("clickhouse down")})
	_, err = uc.TrendReport(ctx, "p1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clickhouse down")
}

func TestTrendReportSyntheticFallback(t *testing.T) {
	now := func() time.Time { return time.Date(2024, 3, 31, 15, 0, 0, 0, time.UTC) }
	hist := pricing.NewFallbackHistory(&fakeHistory{}, pricing.NewSyntheticHistory(pricing.WithSeed(7), pricing.WithClock(now)))
	uc := NewPricingUseCase(newFakeProducts(), hist, pricing.NewRecommender(), pricing.NewTrendReporter(), metrics.Noop{})

	rep, err := uc.TrendReport(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, rep.HistoricalPrices, 31)
	assert.Equal(t, "2024-03-01", rep.HistoricalPrices[0].Date)
	assert.Equal(t, "2024-03-31", rep.HistoricalPrices[30].Date)
	assert.LessOrEqual(t, rep.RecommendedPriceRange.Min, rep.RecommendedPriceRange.Max)
}

func TestInsights(t *testing.T) {
	uc := newPricingUC(newFakeProducts(models.Product{ID: "p1", Price: 19.99, Stock: 5}), &fakeHistory{points: twoDays})

	res, err := uc.Insights(context.Background(), "p1")
	require.NoError(t, err)
	require.NotNil(t, res.Recommendation)
	require.NotNil(t, res.Trend)
	assert.Nil(t, res.Errors)
	assert.Equal(t, 21.99, res.Recommendation.RecommendedPrice)
	assert.Equal(t, -2.0, res.Trend.PriceElasticity)
}

func TestInsightsPartialFailure(t *testing.T) {
	uc := newPricingUC(newFakeProducts(), &fakeHistory{err: errors.New("secret dsn in message")})

	res, err := uc.Insights(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, res.Recommendation)
	assert.Nil(t, res.Trend)
	assert.Equal(t, map[string]string{
		"recommendation": "product not found",
		"trend":          "Internal server error",
	}, res.Errors)

	_, err = uc.Insights(context.Background(), "")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "productId is required", PublicMessage(models.ErrInvalidInput))
	assert.Equal(t, "product not found", PublicMessage(models.ErrNotFound))
	assert.Equal(t, "Internal server error", PublicMessage(errors.New("boom")))
}
