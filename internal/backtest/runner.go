// Package backtest drives the position engine over a historical bar
// sequence: strictly single-threaded, one bar at a time, no look-ahead. The
// signal source only ever sees the prefix of the history up to the current
// bar.
package backtest

import (
	"context"
	"fmt"

	"ratesurf/internal/domain"
	"ratesurf/internal/engine"
	"ratesurf/internal/metrics"
	"ratesurf/internal/ports"
)

// Result holds the outcome of one backtest run.
type Result struct {
	Summary     *metrics.Summary
	Trades      []*domain.Trade
	EquityCurve []*domain.EquitySample
}

// Run replays bars through a fresh state machine and reduces the outcome.
// A nil bar in the sequence is skipped (the feed had no observation for that
// step); everything else is processed in order.
func Run(ctx context.Context, src ports.SignalSource, bars []*domain.Bar, cfg engine.Config, logger ports.Logger) (*Result, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: signal source is required", ports.ErrConfigurationError)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no bars to replay", ports.ErrMarketDataUnavailable)
	}

	m, err := engine.NewMachine(cfg, logger)
	if err != nil {
		return nil, err
	}
	tracker := engine.NewTracker()

	var trades []*domain.Trade
	history := make([]*domain.Bar, 0, len(bars))
	for i, bar := range bars {
		if bar == nil {
			logger.Warn(ctx, "Skipping empty bar", map[string]interface{}{"index": i})
			continue
		}
		history = append(history, bar)
		sig := src.Evaluate(ctx, history)
		trade, err := m.Step(ctx, bar, sig)
		if err != nil {
			return nil, fmt.Errorf("step %d failed: %w", i, err)
		}
		if trade != nil {
			trades = append(trades, trade)
		}
		tracker.Record(bar.Time, m.Balance(), m.Unrealized(bar.Close), bar.Rate, bar.Close)
	}

	return &Result{
		Summary:     metrics.Summarize(trades, tracker.Samples(), cfg.InitialCapital),
		Trades:      trades,
		EquityCurve: tracker.Samples(),
	}, nil
}
