package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ShopPulse/internal/domain/models"
)

type stubHistory struct {
	points []models.HistoricalPricePoint
	err    error
	calls  int
}

func (s *stubHistory) GetHistory(_ context.Context, _ string, _ int) ([]models.HistoricalPricePoint, error) {
	s.calls++
	return s.points, s.err
}

func TestFallbackHistoryPrefersPrimary(t *testing.T) {
	primary := &stubHistory{points: series([2]float64{10, 1})}
	fallback := &stubHistory{points: series([2]float64{20, 2})}
	got, err := NewFallbackHistory(primary, fallback).GetHistory(context.Background(), "p", 30)
	require.NoError(t, err)
	assert.Equal(t, primary.points, got)
	assert.Equal(t, 0, fallback.calls)
}

func TestFallbackHistoryOnEmpty(t *testing.T) {
	primary := &stubHistory{}
	fallback := &stubHistory{points: series([2]float64{20, 2})}
	got, err := NewFallbackHistory(primary, fallback).GetHistory(context.Background(), "p", 30)
	require.NoError(t, err)
	assert.Equal(t, fallback.points, got)
}

func TestFallbackHistoryPropagatesErrors(t *testing.T) {
	boom := errors.New("clickhouse down")
	primary := &stubHistory{err: boom}
	fallback := &stubHistory{points: series([2]float64{20, 2})}
	_, err := NewFallbackHistory(primary, fallback).GetHistory(context.Background(), "p", 30)
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, 0, fallback.calls)
}

func TestFallbackHistoryNilPrimary(t *testing.T) {
	fallback := &stubHistory{points: series([2]float64{20, 2})}
	got, err := NewFallbackHistory(nil, fallback).GetHistory(context.Background(), "p", 30)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
