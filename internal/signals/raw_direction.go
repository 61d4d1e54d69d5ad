// Package signals holds the SignalSource implementations: the named strategy
// variants selected by configuration. All sources are pure functions of the
// bar history they are given and return WAIT until their lookback window is
// filled.
package signals

import (
	"context"

	"ratesurf/internal/domain"
)

// RawDirection is the primary trend-surfing signal: the reference rate rose
// against the previous bar means buy/hold, fell means exit. Combined with the
// long-only state machine this reproduces the action table
// flat+up=entry, flat+down=wait, held+up=hold, held+down=exit.
type RawDirection struct{}

// NewRawDirection creates the raw daily-direction signal source.
func NewRawDirection() *RawDirection { return &RawDirection{} }

func (s *RawDirection) Name() string { return "raw_direction" }

// RequiredBars returns the minimum history: the current bar and the one before it.
func (s *RawDirection) RequiredBars() int { return 2 }

func (s *RawDirection) Evaluate(ctx context.Context, bars []*domain.Bar) domain.Signal {
	n := len(bars)
	if n < s.RequiredBars() {
		return domain.SignalWait
	}
	if bars[n-1].Rate > bars[n-2].Rate {
		return domain.SignalEnterLong
	}
	return domain.SignalExit
}
