package engine

import (
	"fmt"
	"time"

	"ratesurf/internal/domain"
)

// Costs is the transaction-cost model: spread on entry, time-prorated swap
// while holding, and the exit-trigger checks. Stateless; all methods are
// pure functions of their arguments.
type Costs struct {
	Spread       float64 // Price units charged once, on entry
	SwapLongDay  float64 // Swap per SwapUnits per day for long positions (signed)
	SwapShortDay float64 // Swap per SwapUnits per day for short positions (signed)
	SwapUnits    int     // Unit basis for the daily swap rate (e.g., 10000)

	TakeProfit float64 // Absolute price distance from entry fill; 0 disables
	StopLoss   float64 // Absolute price distance from entry fill; 0 disables

	Session  Session        // Trading-session window; zero value disables it
	Location *time.Location // Timezone for the session window
}

// Session bounds trading to a daily window: entries are only taken inside
// [StartHour, EndHour) and an open position is force-closed outside it. The
// window may wrap past midnight (StartHour > EndHour).
type Session struct {
	Enabled   bool
	StartHour int // First hour of day (in Location) at which entries are taken
	EndHour   int // Hour at which the session ends and open positions are force-closed
}

// Validate checks the cost parameters.
func (c Costs) Validate() error {
	if c.Spread < 0 {
		return fmt.Errorf("spread cannot be negative, got %v", c.Spread)
	}
	if c.SwapUnits <= 0 && (c.SwapLongDay != 0 || c.SwapShortDay != 0) {
		return fmt.Errorf("swap unit basis must be positive when a swap rate is set, got %d", c.SwapUnits)
	}
	if c.TakeProfit < 0 || c.StopLoss < 0 {
		return fmt.Errorf("take profit and stop loss offsets cannot be negative")
	}
	if c.Session.Enabled {
		if c.Session.StartHour < 0 || c.Session.StartHour > 23 || c.Session.EndHour < 0 || c.Session.EndHour > 23 {
			return fmt.Errorf("session hours must be within 0-23, got %d-%d", c.Session.StartHour, c.Session.EndHour)
		}
		if c.Session.StartHour == c.Session.EndHour {
			return fmt.Errorf("session start and end hours must differ, got %d", c.Session.StartHour)
		}
		if c.Location == nil {
			return fmt.Errorf("session window requires a timezone")
		}
	}
	return nil
}

// EntryFill returns the fill price for a new position: the spread is charged
// here, once, by worsening the entry.
func (c Costs) EntryFill(marketPrice float64, dir domain.Direction) float64 {
	if dir == domain.Short {
		return marketPrice - c.Spread
	}
	return marketPrice + c.Spread
}

// ExitFill returns the fill price on close. No additional cost beyond the
// entry spread.
func (c Costs) ExitFill(marketPrice float64) float64 {
	return marketPrice
}

// SwapAccrual prorates the configured per-day swap rate linearly over the
// elapsed wall-clock time.
func (c Costs) SwapAccrual(units int, dir domain.Direction, elapsed time.Duration) float64 {
	perDay := c.SwapLongDay
	if dir == domain.Short {
		perDay = c.SwapShortDay
	}
	if perDay == 0 || elapsed <= 0 {
		return 0
	}
	days := elapsed.Hours() / 24
	return perDay * (float64(units) / float64(c.SwapUnits)) * days
}

// inSession reports whether the hour of day falls inside the trading window.
func (c Costs) inSession(now time.Time) bool {
	h := now.In(c.Location).Hour()
	if c.Session.StartHour < c.Session.EndHour {
		return h >= c.Session.StartHour && h < c.Session.EndHour
	}
	return h >= c.Session.StartHour || h < c.Session.EndHour
}

// CanEnter reports whether a new position may be opened at now. Always true
// when no session window is configured.
func (c Costs) CanEnter(now time.Time) bool {
	return !c.Session.Enabled || c.inSession(now)
}

// sessionClosed reports whether the session boundary has been reached.
func (c Costs) sessionClosed(now time.Time) bool {
	return c.Session.Enabled && !c.inSession(now)
}

// CheckExit evaluates the price/time exit triggers for an open position in a
// fixed priority order: forced close beats take-profit beats stop-loss. The
// ordinary signal exit is arbitrated by the state machine after this check.
// The order matters: at the session boundary both the stop and the forced
// close can be true on the same bar, and the recorded reason must be
// FORCE_CLOSE.
func (c Costs) CheckExit(pos *domain.Position, marketPrice float64, now time.Time) (domain.ExitReason, bool) {
	if c.sessionClosed(now) {
		return domain.ExitReasonForcedClose, true
	}
	move := (marketPrice - pos.EntryPrice) * pos.Direction.Sign()
	if c.TakeProfit > 0 && move >= c.TakeProfit {
		return domain.ExitReasonTakeProfit, true
	}
	if c.StopLoss > 0 && move <= -c.StopLoss {
		return domain.ExitReasonStopLoss, true
	}
	return "", false
}
