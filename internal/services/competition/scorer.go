package competition

import (
	"context"
	"fmt"
	"time"

	domsvc "ShopPulse/internal/domain/service"
	"ShopPulse/internal/services/pricing"
	xhttp "ShopPulse/pkg/http"
)

const scorePath = "/competition/score"

// HTTPScorer asks an external service how much competitive pressure a product is under.
type HTTPScorer struct {
	base     *httpServiceBase
	attempts int
}

var _ domsvc.CompetitionScorer = (*HTTPScorer)(nil)

func NewHTTPScorer(baseURL string, timeout time.Duration, attempts int, opts ...xhttp.ClientOption) *HTTPScorer {
	if attempts <= 0 {
		attempts = 1
	}
	return &HTTPScorer{base: newHTTPServiceBase(baseURL, timeout, opts...), attempts: attempts}
}

type scoreReq struct {
	ProductID string `json:"productId"`
}

type scoreResp struct {
	Score float64 `json:"score"`
}

// Score returns the service's score clamped to [0,1].
func (s *HTTPScorer) Score(ctx context.Context, productID string) (float64, error) {
	var resp scoreResp
	if err := s.base.postJSONWithRetry(ctx, scorePath, scoreReq{ProductID: productID}, &resp, s.attempts); err != nil {
		return 0, fmt.Errorf("competition score: %w", err)
	}
	return pricing.Clamp01(resp.Score), nil
}

// StaticScorer always returns the same score.
type StaticScorer struct {
	Value float64
}

var _ domsvc.CompetitionScorer = StaticScorer{}

func (s StaticScorer) Score(context.Context, string) (float64, error) {
	return pricing.Clamp01(s.Value), nil
}

// New returns an HTTP scorer when baseURL is set, otherwise a static one.
func New(baseURL string, timeout time.Duration, fallback float64) domsvc.CompetitionScorer {
	if baseURL == "" {
		return StaticScorer{Value: fallback}
	}
	return NewHTTPScorer(baseURL, timeout, 2)
}
