package models

// PriceFactors are the contributing scores of a recommendation, each in [0,1].
type PriceFactors struct {
	Demand      float64 `json:"demand"`
	Competition float64 `json:"competition"`
	Inventory   float64 `json:"inventory"`
}

// PriceRecommendation is computed per request and never persisted.
type PriceRecommendation struct {
	ProductID        string       `json:"productId"`
	CurrentPrice     float64      `json:"currentPrice"`
	RecommendedPrice float64      `json:"recommendedPrice"`
	Confidence       float64      `json:"confidence"`
	Factors          PriceFactors `json:"factors"`
}

// PricingSignals carries the replaceable per-call inputs of a recommendation.
type PricingSignals struct {
	Competition float64
	Confidence  float64
}

// HistoricalPricePoint is one calendar day of price/sales history.
type HistoricalPricePoint struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Price float64 `json:"price"`
	Sales int     `json:"sales"`
}

type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// TrendReport is derived entirely from HistoricalPrices.
type TrendReport struct {
	ProductID             string                 `json:"productId"`
	HistoricalPrices      []HistoricalPricePoint `json:"historicalPrices"`
	PriceElasticity       float64                `json:"priceElasticity"`
	SeasonalityFactor     float64                `json:"seasonalityFactor"`
	RecommendedPriceRange PriceRange             `json:"recommendedPriceRange"`
}

// PricingInsights bundles a recommendation and a trend report for one product.
// Note: parts that failed are reported in Errors and left nil.
type PricingInsights struct {
	ProductID      string               `json:"productId"`
	Recommendation *PriceRecommendation `json:"recommendation,omitempty"`
	Trend          *TrendReport         `json:"trend,omitempty"`
	Errors         map[string]string    `json:"errors,omitempty"`
}
