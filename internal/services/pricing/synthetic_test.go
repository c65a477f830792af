package pricing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = func() time.Time { return time.Date(2024, 3, 31, 18, 45, 0, 0, time.UTC) }

func TestSyntheticHistoryShape(t *testing.T) {
	s := NewSyntheticHistory(WithSeed(42), WithClock(fixedNow))
	points, err := s.GetHistory(context.Background(), "p-1", 30)
	require.NoError(t, err)
	require.Len(t, points, 31)

	assert.Equal(t, "2024-03-01", points[0].Date)
	assert.Equal(t, "2024-03-31", points[30].Date)
	for i, p := range points {
		assert.GreaterOrEqual(t, p.Price, 90.0)
		assert.LessOrEqual(t, p.Price, 110.0)
		assert.GreaterOrEqual(t, p.Sales, 40)
		assert.LessOrEqual(t, p.Sales, 60)
		assert.Equal(t, Round2(p.Price), p.Price)
		if i > 0 {
			assert.Less(t, points[i-1].Date, p.Date)
		}
	}
}

func TestSyntheticHistoryDeterministic(t *testing.T) {
	a, err := NewSyntheticHistory(WithSeed(7), WithClock(fixedNow)).GetHistory(context.Background(), "p", 30)
	require.NoError(t, err)
	b, err := NewSyntheticHistory(WithSeed(7), WithClock(fixedNow)).GetHistory(context.Background(), "p", 30)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSyntheticHistorySalesFloor(t *testing.T) {
	s := NewSyntheticHistory(WithSeed(1), WithClock(fixedNow), WithBase(5, 2, 10))
	points, err := s.GetHistory(context.Background(), "p", 60)
	require.NoError(t, err)
	require.Len(t, points, 61)
	for _, p := range points {
		assert.GreaterOrEqual(t, p.Sales, 0)
	}
}

func TestSyntheticHistoryDefaultWindow(t *testing.T) {
	points, err := NewSyntheticHistory(WithSeed(3), WithClock(fixedNow)).GetHistory(context.Background(), "p", 0)
	require.NoError(t, err)
	assert.Len(t, points, 31)
}

func TestSyntheticHistoryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSyntheticHistory().GetHistory(ctx, "p", 30)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSyntheticHistoryConcurrent(t *testing.T) {
	s := NewSyntheticHistory(WithSeed(9))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			points, err := s.GetHistory(context.Background(), "p", 30)
			assert.NoError(t, err)
			assert.Len(t, points, 31)
		}()
	}
	wg.Wait()
}

func TestSyntheticFeedsReporter(t *testing.T) {
	points, err := NewSyntheticHistory(WithSeed(11), WithClock(fixedNow)).GetHistory(context.Background(), "p", 30)
	require.NoError(t, err)
	rep, err := NewTrendReporter().Report("p", points)
	require.NoError(t, err)
	assert.LessOrEqual(t, rep.RecommendedPriceRange.Min, rep.RecommendedPriceRange.Max)
	assert.GreaterOrEqual(t, rep.RecommendedPriceRange.Min, 81.0)
	assert.LessOrEqual(t, rep.RecommendedPriceRange.Max, 121.0)
	assert.Len(t, rep.HistoricalPrices, 31)
}
