package signals

import (
	"context"
	"fmt"

	"ratesurf/internal/domain"
	"ratesurf/internal/indicators"
)

// MAFilter gates RawDirection entries behind a moving-average trend filter on
// the reference rate: a daily up-tick only produces an entry while the rate
// is above its window-day average. Exits are ungated, so a held position is
// still released on the first down-tick.
type MAFilter struct {
	window int
	raw    *RawDirection
	sma    *indicators.MovingAverage
}

// NewMAFilter creates the filtered signal source. Window must be at least 2.
func NewMAFilter(window int) (*MAFilter, error) {
	if window < 2 {
		return nil, fmt.Errorf("moving average window must be at least 2, got %d", window)
	}
	return &MAFilter{
		window: window,
		raw:    NewRawDirection(),
		sma: indicators.NewMovingAverage(
			indicators.Config{Period: window, Source: indicators.RateSeries},
			indicators.SimpleMovingAverage,
		),
	}, nil
}

func (s *MAFilter) Name() string { return fmt.Sprintf("ma_filter(%d)", s.window) }

func (s *MAFilter) RequiredBars() int { return s.window + 1 }

func (s *MAFilter) Evaluate(ctx context.Context, bars []*domain.Bar) domain.Signal {
	if len(bars) < s.RequiredBars() {
		return domain.SignalWait
	}
	raw := s.raw.Evaluate(ctx, bars)
	if raw != domain.SignalEnterLong {
		return raw
	}
	avg, err := s.sma.Calculate(ctx, bars)
	if err != nil {
		// Guarded by RequiredBars above; treat as insufficient history.
		return domain.SignalWait
	}
	if bars[len(bars)-1].Rate > avg {
		return domain.SignalEnterLong
	}
	// Up-tick against the trend: no entry, but no exit either.
	return domain.SignalWait
}
