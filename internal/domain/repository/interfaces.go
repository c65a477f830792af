package repository

import (
	"context"
	"time"

	"ShopPulse/internal/domain/models"
)

// ProductStore reads product snapshots. GetProduct returns models.ErrNotFound for unknown ids.
type ProductStore interface {
	GetProduct(ctx context.Context, id string) (models.Product, error)
	ListProducts(ctx context.Context, afterID string, limit int) ([]models.Product, error)
	Health(ctx context.Context) error
}

// HistoryStore supplies a chronological price/sales series for a product over a window.
type HistoryStore interface {
	GetHistory(ctx context.Context, productID string, windowDays int) ([]models.HistoricalPricePoint, error)
}

type SalePublisher interface {
	Publish(ctx context.Context, s *models.Sale) error
	PublishBatch(ctx context.Context, sales []*models.Sale) error
	Close() error
}

type SaleStorage interface {
	Store(ctx context.Context, s *models.Sale) error
	StoreBatch(ctx context.Context, sales []*models.Sale) error
	Query(ctx context.Context, productID string, from, to time.Time, limit int) ([]*models.Sale, error)
	Health(ctx context.Context) error
	Close() error
}

type PaymentStore interface {
	Insert(ctx context.Context, p *models.Payment) error
	UpdateStatus(ctx context.Context, intentID string, status models.PaymentStatus, errMsg string) error
	GetByIntentID(ctx context.Context, intentID string) (*models.Payment, error)
}

// RecommendationPublisher fans a computed recommendation out to downstream consumers.
type RecommendationPublisher interface {
	PublishRecommendation(ctx context.Context, ev models.RecommendationEvent) error
}

type Metrics interface {
	RecordMessageSent(backend, kind string)
	RecordError(kind string)
	RecordRecommendedPrice(productID string, price float64)
	RecordLatency(op string, seconds float64)
}
