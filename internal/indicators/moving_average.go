package indicators

import (
	"context"
	"fmt"

	"ratesurf/internal/domain"
)

// MovingAverageType defines the type of moving average.
type MovingAverageType string

const (
	// SimpleMovingAverage represents a simple moving average.
	SimpleMovingAverage MovingAverageType = "SMA"
	// ExponentialMovingAverage represents an exponential moving average.
	ExponentialMovingAverage MovingAverageType = "EMA"
)

// MovingAverage implements both SMA and EMA over a configured bar series.
type MovingAverage struct {
	cfg Config
	typ MovingAverageType
}

// NewMovingAverage creates a new moving average indicator instance.
func NewMovingAverage(cfg Config, typ MovingAverageType) *MovingAverage {
	return &MovingAverage{cfg: cfg, typ: typ}
}

// Name returns the name of the indicator.
func (m *MovingAverage) Name() string {
	return fmt.Sprintf("%s(%d,%s)", m.typ, m.cfg.Period, m.cfg.Source)
}

// RequiredBars returns the minimum number of bars needed for calculation.
func (m *MovingAverage) RequiredBars() int {
	return m.cfg.Period
}

// Calculate computes the moving average value based on the configured type.
func (m *MovingAverage) Calculate(ctx context.Context, bars []*domain.Bar) (float64, error) {
	switch m.typ {
	case SimpleMovingAverage:
		return m.calculateSMA(bars)
	case ExponentialMovingAverage:
		return m.calculateEMA(bars)
	default:
		return 0, fmt.Errorf("unsupported moving average type: %s", m.typ)
	}
}

// calculateSMA computes the simple moving average over the last Period bars.
func (m *MovingAverage) calculateSMA(bars []*domain.Bar) (float64, error) {
	if len(bars) < m.cfg.Period {
		return 0, fmt.Errorf("not enough data (%d) to calculate SMA for period %d", len(bars), m.cfg.Period)
	}
	total := 0.0
	for i := len(bars) - m.cfg.Period; i < len(bars); i++ {
		total += m.cfg.value(bars[i])
	}
	return total / float64(m.cfg.Period), nil
}

// calculateEMA computes the exponential moving average seeded with the SMA of
// the first Period bars.
func (m *MovingAverage) calculateEMA(bars []*domain.Bar) (float64, error) {
	if len(bars) < m.cfg.Period {
		return 0, fmt.Errorf("not enough data (%d) to calculate EMA for period %d", len(bars), m.cfg.Period)
	}

	multiplier := 2.0 / float64(m.cfg.Period+1)

	seed, err := m.calculateSMA(bars[:m.cfg.Period])
	if err != nil {
		return 0, fmt.Errorf("failed to calculate seed SMA for EMA: %w", err)
	}
	ema := seed
	for i := m.cfg.Period; i < len(bars); i++ {
		v := m.cfg.value(bars[i])
		ema = (v-ema)*multiplier + ema
	}
	return ema, nil
}
