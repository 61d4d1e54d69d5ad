package domain

import "time"

// Position represents the single open position owned by the state machine.
// At most one position is open at any time; it is created on an entry
// transition and converted into a Trade on close.
type Position struct {
	ID           int64          // Unique identifier (assigned by the repository in live mode)
	Direction    Direction      // Long in the primary strategy; Short only in the symmetric variant
	EntryPrice   float64        // Fill price including the entry spread
	CurrentPrice float64        // Latest mark price
	Units        int            // Notional quantity held, multiple of the sizing granularity
	EntryTime    time.Time      // When the position was opened
	SwapTotal    float64        // Accumulated swap credited while holding
	Status       PositionStatus // OPEN or CLOSED
	UpdatedAt    time.Time      // Last mark/swap accrual time, drives swap proration
}

// IsOpen reports whether the position status is open.
func (p *Position) IsOpen() bool {
	return p.Status == StatusOpen
}

// UnrealizedPNL returns the mark-to-market P&L against the entry fill,
// excluding accumulated swap.
func (p *Position) UnrealizedPNL(markPrice float64) float64 {
	return (markPrice - p.EntryPrice) * float64(p.Units) * p.Direction.Sign()
}
