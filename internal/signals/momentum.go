package signals

import (
	"context"
	"fmt"

	"ratesurf/internal/domain"
)

// Momentum is the day-trade entry signal: the pair's price must have risen by
// more than a threshold over the lookback window. It never emits EXIT; the
// day-trade variant leaves exits to take-profit, stop-loss and the session
// forced close.
type Momentum struct {
	lookback  int
	threshold float64
}

// NewMomentum creates the momentum signal source. The reference deployment
// uses a 5-bar lookback on hourly bars with a 0.02 yen threshold.
func NewMomentum(lookback int, threshold float64) (*Momentum, error) {
	if lookback < 1 {
		return nil, fmt.Errorf("momentum lookback must be at least 1, got %d", lookback)
	}
	if threshold < 0 {
		return nil, fmt.Errorf("momentum threshold cannot be negative, got %v", threshold)
	}
	return &Momentum{lookback: lookback, threshold: threshold}, nil
}

func (s *Momentum) Name() string { return fmt.Sprintf("momentum(%d)", s.lookback) }

func (s *Momentum) RequiredBars() int { return s.lookback + 1 }

func (s *Momentum) Evaluate(ctx context.Context, bars []*domain.Bar) domain.Signal {
	n := len(bars)
	if n < s.RequiredBars() {
		return domain.SignalWait
	}
	if bars[n-1].Close > bars[n-1-s.lookback].Close+s.threshold {
		return domain.SignalEnterLong
	}
	return domain.SignalWait
}
