package signals

import (
	"context"
	"fmt"

	"ratesurf/internal/domain"
	"ratesurf/internal/indicators"
)

// Crossover holds while the fast moving average of the reference rate is
// above the slow one and exits when it drops below.
type Crossover struct {
	fast, slow int
	fastMA     *indicators.MovingAverage
	slowMA     *indicators.MovingAverage
}

// NewCrossover creates the moving-average crossover signal source.
func NewCrossover(fast, slow int) (*Crossover, error) {
	if fast < 1 || slow < 2 {
		return nil, fmt.Errorf("crossover periods must be positive, got fast=%d slow=%d", fast, slow)
	}
	if fast >= slow {
		return nil, fmt.Errorf("fast period must be less than slow period, got fast=%d slow=%d", fast, slow)
	}
	cfg := indicators.Config{Source: indicators.RateSeries}
	fastCfg, slowCfg := cfg, cfg
	fastCfg.Period, slowCfg.Period = fast, slow
	return &Crossover{
		fast:   fast,
		slow:   slow,
		fastMA: indicators.NewMovingAverage(fastCfg, indicators.SimpleMovingAverage),
		slowMA: indicators.NewMovingAverage(slowCfg, indicators.SimpleMovingAverage),
	}, nil
}

func (s *Crossover) Name() string { return fmt.Sprintf("crossover(%d,%d)", s.fast, s.slow) }

func (s *Crossover) RequiredBars() int { return s.slow }

func (s *Crossover) Evaluate(ctx context.Context, bars []*domain.Bar) domain.Signal {
	if len(bars) < s.RequiredBars() {
		return domain.SignalWait
	}
	fast, err := s.fastMA.Calculate(ctx, bars)
	if err != nil {
		return domain.SignalWait
	}
	slow, err := s.slowMA.Calculate(ctx, bars)
	if err != nil {
		return domain.SignalWait
	}
	if fast > slow {
		return domain.SignalEnterLong
	}
	return domain.SignalExit
}
