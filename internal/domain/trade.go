package domain

import "time"

// Trade is the immutable record created exactly once per position closure.
// The trade log is append-only; records are never mutated after creation.
type Trade struct {
	ID         int64      // Unique identifier (assigned by the repository)
	PositionID int64      // Identifier of the position this trade closed (0 in backtests)
	Direction  Direction  // Side of the closed position
	EntryPrice float64    // Entry fill price, spread included
	ExitPrice  float64    // Exit fill price, no additional spread
	Units      int        // Quantity traded
	GrossPNL   float64    // (exit - entry) * units, sign-flipped for shorts
	SpreadCost float64    // Spread charged at entry, informational (already inside GrossPNL)
	SwapTotal  float64    // Swap accumulated over the holding period
	NetPNL     float64    // GrossPNL + SwapTotal
	EntryTime  time.Time  // When the position was opened
	ExitTime   time.Time  // When the position was closed
	ExitReason ExitReason // Why the position was closed
}
