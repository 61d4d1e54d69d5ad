package indicators

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratesurf/internal/domain"
)

func bars(rates ...float64) []*domain.Bar {
	out := make([]*domain.Bar, len(rates))
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, r := range rates {
		out[i] = &domain.Bar{Time: base.AddDate(0, 0, i), Rate: r, Close: r * 25}
	}
	return out
}

func TestSMA(t *testing.T) {
	ma := NewMovingAverage(Config{Period: 3, Source: RateSeries}, SimpleMovingAverage)
	v, err := ma.Calculate(context.Background(), bars(4.0, 4.2, 4.4, 4.6))
	require.NoError(t, err)
	assert.InDelta(t, (4.2+4.4+4.6)/3, v, 1e-9)
}

func TestSMAPriceSeries(t *testing.T) {
	ma := NewMovingAverage(Config{Period: 2, Source: PriceSeries}, SimpleMovingAverage)
	v, err := ma.Calculate(context.Background(), bars(4.0, 4.2))
	require.NoError(t, err)
	assert.InDelta(t, (100.0+105.0)/2, v, 1e-9)
}

func TestSMANotEnoughData(t *testing.T) {
	ma := NewMovingAverage(Config{Period: 5, Source: RateSeries}, SimpleMovingAverage)
	_, err := ma.Calculate(context.Background(), bars(4.0, 4.2))
	assert.Error(t, err)
}

func TestEMA(t *testing.T) {
	ma := NewMovingAverage(Config{Period: 2, Source: RateSeries}, ExponentialMovingAverage)
	// Seed SMA = 4.1; multiplier = 2/3.
	// Next: (4.4-4.1)*2/3 + 4.1 = 4.3; then (4.0-4.3)*2/3 + 4.3 = 4.1.
	v, err := ma.Calculate(context.Background(), bars(4.0, 4.2, 4.4, 4.0))
	require.NoError(t, err)
	assert.InDelta(t, 4.1, v, 1e-9)
}

func TestMovingAverageRequiredBars(t *testing.T) {
	ma := NewMovingAverage(Config{Period: 20, Source: RateSeries}, SimpleMovingAverage)
	assert.Equal(t, 20, ma.RequiredBars())
}
