package domain

// Direction represents the side of a position (long or short).
type Direction string

const (
	Long  Direction = "BUY"
	Short Direction = "SELL"
)

// Sign returns +1 for long positions and -1 for short positions,
// used to flip price P&L and swap accrual.
func (d Direction) Sign() float64 {
	if d == Short {
		return -1
	}
	return 1
}

// PositionStatus represents the status of a trading position.
type PositionStatus string

const (
	StatusOpen   PositionStatus = "OPEN"
	StatusClosed PositionStatus = "CLOSED"
)

// Signal is the per-bar decision produced by a SignalSource.
type Signal string

const (
	// SignalEnterLong requests a new long position (or confirms holding an existing one).
	SignalEnterLong Signal = "ENTER_LONG"
	// SignalExit requests closing the current long position.
	SignalExit Signal = "EXIT"
	// SignalHold confirms an existing position without a directional opinion.
	SignalHold Signal = "HOLD"
	// SignalWait means no action. Also returned when the signal source does
	// not yet have enough history for its lookback window.
	SignalWait Signal = "WAIT"
)

// ExitReason indicates why a position was closed.
type ExitReason string

const (
	ExitReasonSignal      ExitReason = "SIGNAL_EXIT"
	ExitReasonTakeProfit  ExitReason = "TAKE_PROFIT"
	ExitReasonStopLoss    ExitReason = "STOP_LOSS"
	ExitReasonForcedClose ExitReason = "FORCE_CLOSE" // session boundary reached
)
