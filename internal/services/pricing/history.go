package pricing

import (
	"context"
	"fmt"

	"ShopPulse/internal/domain/models"
	"ShopPulse/internal/domain/repository"
)

// FallbackHistory serves the primary store's series and falls back when it has nothing for a product.
// Primary errors are returned as-is; only an empty result triggers the fallback.
type FallbackHistory struct {
	primary  repository.HistoryStore
	fallback repository.HistoryStore
}

func NewFallbackHistory(primary, fallback repository.HistoryStore) *FallbackHistory {
	return &FallbackHistory{primary: primary, fallback: fallback}
}

func (f *FallbackHistory) GetHistory(ctx context.Context, productID string, windowDays int) ([]models.HistoricalPricePoint, error) {
	if f.primary != nil {
		points, err := f.primary.GetHistory(ctx, productID, windowDays)
		if err != nil {
			return nil, fmt.Errorf("load history: %w", err)
		}
		if len(points) > 0 {
			return points, nil
		}
	}
	if f.fallback == nil {
		return nil, nil
	}
	return f.fallback.GetHistory(ctx, productID, windowDays)
}

var _ repository.HistoryStore = (*FallbackHistory)(nil)
