package risk

import (
	"fmt"
)

// Guard is a circuit breaker on new entries. The engine itself never refuses
// a signal; the guard sits in front of it in live mode and blocks opening a
// fresh position once equity has fallen too far. Exits are never blocked.
type Guard struct {
	// MaxDrawdownFrac blocks new entries when equity has lost this fraction
	// of the initial capital (e.g. 0.5 halts at half the starting stake).
	// 0 disables the guard.
	MaxDrawdownFrac float64
}

// Validate checks the guard parameters.
func (g Guard) Validate() error {
	if g.MaxDrawdownFrac < 0 || g.MaxDrawdownFrac >= 1 {
		return fmt.Errorf("max drawdown fraction must be within [0, 1), got %v", g.MaxDrawdownFrac)
	}
	return nil
}

// Enabled reports whether the guard is active.
func (g Guard) Enabled() bool { return g.MaxDrawdownFrac > 0 }

// CheckEntry returns an error when a new entry must be refused at the given
// equity level. A disabled guard always allows the entry.
func (g Guard) CheckEntry(initialCapital, equity float64) error {
	if !g.Enabled() {
		return nil
	}
	floor := initialCapital * (1 - g.MaxDrawdownFrac)
	if equity <= floor {
		return fmt.Errorf("equity %.0f at or below the halt floor %.0f (%.0f%% drawdown limit)",
			equity, floor, g.MaxDrawdownFrac*100)
	}
	return nil
}
