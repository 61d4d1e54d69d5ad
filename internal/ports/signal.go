package ports

import (
	"context"

	"ratesurf/internal/domain"
)

// SignalSource produces the per-bar trading decision. Implementations are
// pure functions of the bar history up to and including the current bar;
// they must never be given future bars and hold no state of their own.
type SignalSource interface {
	// RequiredBars returns the minimum number of bars needed for the source's
	// lookback window. With fewer bars Evaluate returns SignalWait.
	RequiredBars() int

	// Evaluate returns the decision for the most recent bar in bars.
	Evaluate(ctx context.Context, bars []*domain.Bar) domain.Signal

	// Name returns the name of the signal source.
	Name() string
}
