package pricing

import (
	"fmt"

	"ShopPulse/internal/domain/models"
	domsvc "ShopPulse/internal/domain/service"
)

const (
	DefaultSeasonality   = 1.20
	DefaultRangeLowMult  = 0.90
	DefaultRangeHighMult = 1.10
)

// TrendReporter derives elasticity, seasonality and a price band from an ordered history.
type TrendReporter struct {
	seasonality float64
	lowMult     float64
	highMult    float64
}

type TrendOption func(*TrendReporter)

// WithSeasonality overrides the seasonality factor reported for every product.
func WithSeasonality(f float64) TrendOption {
	return func(t *TrendReporter) { t.seasonality = f }
}

// WithRangeMultipliers overrides the 0.9/1.1 band around observed prices.
func WithRangeMultipliers(low, high float64) TrendOption {
	return func(t *TrendReporter) {
		t.lowMult = low
		t.highMult = high
	}
}

func NewTrendReporter(opts ...TrendOption) *TrendReporter {
	t := &TrendReporter{
		seasonality: DefaultSeasonality,
		lowMult:     DefaultRangeLowMult,
		highMult:    DefaultRangeHighMult,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Report builds a TrendReport. history must be in ascending date order.
func (t *TrendReporter) Report(productID string, history []models.HistoricalPricePoint) (models.TrendReport, error) {
	if len(history) == 0 {
		return models.TrendReport{}, fmt.Errorf("trend report %s: %w", productID, models.ErrEmptyHistory)
	}

	prices := make([]float64, len(history))
	for i, p := range history {
		prices[i] = p.Price
	}
	lo, hi, _ := MinMax(prices)

	points := make([]models.HistoricalPricePoint, len(history))
	copy(points, history)

	return models.TrendReport{
		ProductID:         productID,
		HistoricalPrices:  points,
		PriceElasticity:   Elasticity(history),
		SeasonalityFactor: t.seasonality,
		RecommendedPriceRange: models.PriceRange{
			Min: Round2(lo * t.lowMult),
			Max: Round2(hi * t.highMult),
		},
	}, nil
}

// Elasticity is the relative change in sales over the relative change in price between
// the first and last point. Degenerate inputs (fewer than two points, zero first sales,
// zero first price, unchanged price) yield 0.
func Elasticity(history []models.HistoricalPricePoint) float64 {
	if len(history) < 2 {
		return 0
	}
	first, last := history[0], history[len(history)-1]
	if first.Sales == 0 || first.Price == 0 {
		return 0
	}
	priceChange := RelativeChange(first.Price, last.Price)
	if priceChange == 0 {
		return 0
	}
	salesChange := RelativeChange(float64(first.Sales), float64(last.Sales))
	return Round2(salesChange / priceChange)
}

var _ domsvc.TrendReporter = (*TrendReporter)(nil)
