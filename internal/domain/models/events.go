package models

import "time"

// RecommendationEvent is published whenever a recommendation is computed.
type RecommendationEvent struct {
	Source         string              `json:"source"` // "predict" | "sweep"
	Recommendation PriceRecommendation `json:"recommendation"`
	ComputedAt     time.Time           `json:"computedAt"`
}

// SweepResult summarizes one repricing sweep.
type SweepResult struct {
	Scanned   int           `json:"scanned"`
	Published int           `json:"published"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}
