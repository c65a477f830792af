package service

import (
	"context"

	"ShopPulse/internal/domain/models"
)

// PriceRecommender derives a recommended price from a product snapshot.
type PriceRecommender interface {
	Recommend(p models.Product) models.PriceRecommendation
	RecommendWith(p models.Product, signals models.PricingSignals) models.PriceRecommendation
	Defaults() models.PricingSignals
}

// TrendReporter derives elasticity and a price range from a historical series.
type TrendReporter interface {
	Report(productID string, history []models.HistoricalPricePoint) (models.TrendReport, error)
}

// CompetitionScorer supplies a competitive-pressure score in [0,1] for a product.
type CompetitionScorer interface {
	Score(ctx context.Context, productID string) (float64, error)
}

// PaymentProcessor is the third-party payment processor.
type PaymentProcessor interface {
	CreateIntent(ctx context.Context, params models.PaymentIntentParams) (models.PaymentIntent, error)
	ParseWebhook(payload []byte, signature string) (models.PaymentEvent, error)
}
