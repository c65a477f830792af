package pricing

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"ShopPulse/internal/domain/models"
	"ShopPulse/internal/domain/repository"
	"ShopPulse/pkg/util"
)

const (
	syntheticBasePrice = 100.0
	syntheticBaseSales = 50.0
	syntheticNoise     = 10.0
)

// SyntheticHistory fabricates a noisy daily series around a fixed base price and sales level.
// It stands in for real analytics until sales are ingested for a product.
type SyntheticHistory struct {
	mu    sync.Mutex
	rnd   *rand.Rand
	now   func() time.Time
	price float64
	sales float64
	noise float64
}

type SyntheticOption func(*SyntheticHistory)

// WithSeed makes the generated series reproducible.
func WithSeed(seed int64) SyntheticOption {
	return func(s *SyntheticHistory) { s.rnd = rand.New(rand.NewSource(seed)) }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) SyntheticOption {
	return func(s *SyntheticHistory) { s.now = now }
}

// WithBase overrides base price, base sales and the noise amplitude.
func WithBase(price, sales, noise float64) SyntheticOption {
	return func(s *SyntheticHistory) {
		s.price = price
		s.sales = sales
		s.noise = noise
	}
}

func NewSyntheticHistory(opts ...SyntheticOption) *SyntheticHistory {
	s := &SyntheticHistory{
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		now:   time.Now,
		price: syntheticBasePrice,
		sales: syntheticBaseSales,
		noise: syntheticNoise,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetHistory returns windowDays+1 points, from today-windowDays through today (UTC), ascending.
func (s *SyntheticHistory) GetHistory(ctx context.Context, productID string, windowDays int) ([]models.HistoricalPricePoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	windowDays = repository.NormalizeWindowDays(windowDays)
	today := util.StartOfDayUTC(s.now())

	s.mu.Lock()
	defer s.mu.Unlock()

	points := make([]models.HistoricalPricePoint, 0, windowDays+1)
	for i := windowDays; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		price := Round2(s.price + s.jitter())
		sales := int(math.Max(0, math.Round(s.sales+s.jitter())))
		points = append(points, models.HistoricalPricePoint{
			Date:  util.FormatDay(day),
			Price: price,
			Sales: sales,
		})
	}
	return points, nil
}

// jitter draws uniformly from [-noise, noise]. Caller holds mu.
func (s *SyntheticHistory) jitter() float64 {
	return (s.rnd.Float64()*2 - 1) * s.noise
}

var _ repository.HistoryStore = (*SyntheticHistory)(nil)
