package pricing

import (
	"math"

	"ShopPulse/internal/domain/models"
	domsvc "ShopPulse/internal/domain/service"
)

// RecommenderConfig holds the stock thresholds and placeholder scores of the heuristic.
type RecommenderConfig struct {
	LowStockThreshold   int
	HighStockThreshold  int
	LowStockMultiplier  float64
	HighStockMultiplier float64
	DemandCeiling       float64 // stock level at which demand reads 0
	OptimalStock        float64
	MaxStockDistance    float64
	Competition         float64
	Confidence          float64
}

// DefaultRecommenderConfig returns the reference heuristic constants.
func DefaultRecommenderConfig() RecommenderConfig {
	return RecommenderConfig{
		LowStockThreshold:   5,
		HighStockThreshold:  50,
		LowStockMultiplier:  1.10,
		HighStockMultiplier: 0.90,
		DemandCeiling:       100,
		OptimalStock:        25,
		MaxStockDistance:    50,
		Competition:         0.75,
		Confidence:          0.85,
	}
}

type RecommenderOption func(*RecommenderConfig)

// WithCompetition sets the default competition score.
func WithCompetition(score float64) RecommenderOption {
	return func(c *RecommenderConfig) { c.Competition = score }
}

// WithConfidence sets the default confidence score.
func WithConfidence(score float64) RecommenderOption {
	return func(c *RecommenderConfig) { c.Confidence = score }
}

// WithStockThresholds sets the low/high stock cut-offs.
func WithStockThresholds(low, high int) RecommenderOption {
	return func(c *RecommenderConfig) {
		c.LowStockThreshold = low
		c.HighStockThreshold = high
	}
}

// WithMultipliers sets the low/high stock price multipliers.
func WithMultipliers(low, high float64) RecommenderOption {
	return func(c *RecommenderConfig) {
		c.LowStockMultiplier = low
		c.HighStockMultiplier = high
	}
}

// WithInventoryModel sets the demand ceiling, the optimal stock level and the max meaningful distance.
func WithInventoryModel(demandCeiling, optimal, maxDistance float64) RecommenderOption {
	return func(c *RecommenderConfig) {
		c.DemandCeiling = demandCeiling
		c.OptimalStock = optimal
		c.MaxStockDistance = maxDistance
	}
}

// Recommender implements the stock-driven pricing heuristic. It is stateless and safe for concurrent use.
type Recommender struct {
	cfg RecommenderConfig
}

func NewRecommender(opts ...RecommenderOption) *Recommender {
	cfg := DefaultRecommenderConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Recommender{cfg: cfg}
}

// Defaults returns the configured placeholder signals.
func (r *Recommender) Defaults() models.PricingSignals {
	return models.PricingSignals{Competition: r.cfg.Competition, Confidence: r.cfg.Confidence}
}

// Recommend computes a recommendation using the configured default signals.
func (r *Recommender) Recommend(p models.Product) models.PriceRecommendation {
	return r.RecommendWith(p, r.Defaults())
}

// RecommendWith computes a recommendation with caller-supplied signals.
func (r *Recommender) RecommendWith(p models.Product, signals models.PricingSignals) models.PriceRecommendation {
	return models.PriceRecommendation{
		ProductID:        p.ID,
		CurrentPrice:     p.Price,
		RecommendedPrice: r.RecommendedPrice(p.Price, p.Stock),
		Confidence:       Round2(Clamp01(signals.Confidence)),
		Factors: models.PriceFactors{
			Demand:      r.DemandScore(p.Stock),
			Competition: Round2(Clamp01(signals.Competition)),
			Inventory:   r.InventoryScore(p.Stock),
		},
	}
}

// RecommendedPrice applies the stock multiplier to price.
func (r *Recommender) RecommendedPrice(price float64, stock int) float64 {
	m := 1.0
	switch {
	case stock <= r.cfg.LowStockThreshold:
		m = r.cfg.LowStockMultiplier
	case stock >= r.cfg.HighStockThreshold:
		m = r.cfg.HighStockMultiplier
	}
	return Round2(price * m)
}

// DemandScore reads scarcity as demand: 1 at zero stock, 0 at or above the demand ceiling.
func (r *Recommender) DemandScore(stock int) float64 {
	if r.cfg.DemandCeiling <= 0 {
		return 0
	}
	s := math.Max(float64(stock), 0)
	return Clamp01(Round2(1 - s/r.cfg.DemandCeiling))
}

// InventoryScore is 1 at the optimal stock level and falls linearly to 0 at MaxStockDistance away.
func (r *Recommender) InventoryScore(stock int) float64 {
	if r.cfg.MaxStockDistance <= 0 {
		return 0
	}
	s := math.Max(float64(stock), 0)
	dist := math.Abs(s - r.cfg.OptimalStock)
	return Clamp01(Round2(1 - dist/r.cfg.MaxStockDistance))
}

var _ domsvc.PriceRecommender = (*Recommender)(nil)
