package signals

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratesurf/internal/domain"
)

func rateBars(rates ...float64) []*domain.Bar {
	out := make([]*domain.Bar, len(rates))
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, r := range rates {
		out[i] = &domain.Bar{Time: base.AddDate(0, 0, i), Rate: r, Close: 100}
	}
	return out
}

func priceBars(prices ...float64) []*domain.Bar {
	out := make([]*domain.Bar, len(prices))
	base := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	for i, p := range prices {
		out[i] = &domain.Bar{Time: base.Add(time.Duration(i) * time.Hour), Close: p, Rate: 4.2}
	}
	return out
}

func TestRawDirection(t *testing.T) {
	src := NewRawDirection()
	ctx := context.Background()

	tests := []struct {
		name  string
		rates []float64
		want  domain.Signal
	}{
		{name: "insufficient history", rates: []float64{4.2}, want: domain.SignalWait},
		{name: "rate rose", rates: []float64{4.2, 4.25}, want: domain.SignalEnterLong},
		{name: "rate fell", rates: []float64{4.25, 4.2}, want: domain.SignalExit},
		{name: "rate flat counts as fall", rates: []float64{4.2, 4.2}, want: domain.SignalExit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, src.Evaluate(ctx, rateBars(tt.rates...)))
		})
	}
}

func TestMAFilter(t *testing.T) {
	src, err := NewMAFilter(3)
	require.NoError(t, err)
	ctx := context.Background()

	// Not enough bars for the window: WAIT, never ENTER.
	assert.Equal(t, domain.SignalWait, src.Evaluate(ctx, rateBars(4.0, 4.1, 4.2)))

	// Up-tick with rate above its 3-day average: entry passes the filter.
	assert.Equal(t, domain.SignalEnterLong, src.Evaluate(ctx, rateBars(4.0, 4.1, 4.2, 4.4)))

	// Up-tick while still below the average: no entry, no exit.
	assert.Equal(t, domain.SignalWait, src.Evaluate(ctx, rateBars(4.8, 4.6, 4.0, 4.1)))

	// Down-tick exits regardless of the filter.
	assert.Equal(t, domain.SignalExit, src.Evaluate(ctx, rateBars(4.0, 4.1, 4.4, 4.2)))
}

func TestMAFilterValidation(t *testing.T) {
	_, err := NewMAFilter(1)
	assert.Error(t, err)
}

func TestMomentum(t *testing.T) {
	src, err := NewMomentum(5, 0.02)
	require.NoError(t, err)
	ctx := context.Background()

	// Five hourly bars is one short of the lookback+1 requirement.
	assert.Equal(t, domain.SignalWait, src.Evaluate(ctx, priceBars(150.00, 150.01, 150.02, 150.03, 150.04)))

	// Rose more than the threshold over the window.
	assert.Equal(t, domain.SignalEnterLong, src.Evaluate(ctx, priceBars(150.00, 150.01, 150.02, 150.03, 150.04, 150.05)))

	// Rose by exactly the threshold: not enough.
	assert.Equal(t, domain.SignalWait, src.Evaluate(ctx, priceBars(150.00, 150.00, 150.00, 150.00, 150.00, 150.02)))

	// Momentum never exits; a falling market is just WAIT.
	assert.Equal(t, domain.SignalWait, src.Evaluate(ctx, priceBars(150.10, 150.08, 150.06, 150.04, 150.02, 150.00)))
}

func TestCrossover(t *testing.T) {
	src, err := NewCrossover(2, 4)
	require.NoError(t, err)
	ctx := context.Background()

	assert.Equal(t, domain.SignalWait, src.Evaluate(ctx, rateBars(4.0, 4.1, 4.2)))

	// Rising rates: fast MA above slow.
	assert.Equal(t, domain.SignalEnterLong, src.Evaluate(ctx, rateBars(4.0, 4.1, 4.2, 4.3)))

	// Falling rates: fast MA below slow.
	assert.Equal(t, domain.SignalExit, src.Evaluate(ctx, rateBars(4.3, 4.2, 4.1, 4.0)))
}

func TestCrossoverValidation(t *testing.T) {
	_, err := NewCrossover(5, 5)
	assert.Error(t, err)
	_, err = NewCrossover(0, 5)
	assert.Error(t, err)
}

func TestFactory(t *testing.T) {
	tests := []struct {
		name     string
		params   Params
		wantName string
		wantErr  bool
	}{
		{name: "raw_direction", wantName: "raw_direction"},
		{name: "ma_filter", params: Params{MAWindow: 20}, wantName: "ma_filter(20)"},
		{name: "momentum", params: Params{MomentumLookback: 5, MomentumThreshold: 0.02}, wantName: "momentum(5)"},
		{name: "crossover", params: Params{CrossoverFast: 5, CrossoverSlow: 20}, wantName: "crossover(5,20)"},
		{name: "unknown", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := New(tt.name, tt.params)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, src.Name())
		})
	}
}
