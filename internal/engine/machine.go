package engine

import (
	"context"
	"fmt"
	"time"

	"ratesurf/internal/domain"
	"ratesurf/internal/ports"
)

// Config holds the immutable parameters of the position state machine.
// There is no process-wide state; every engine instance carries its own copy.
type Config struct {
	InitialCapital float64
	Sizer          Sizer
	Costs          Costs
	// AllowShort enables the symmetric variant: an EXIT signal while flat
	// opens a short instead of being a no-op. The primary strategy is
	// long-only and leaves this off.
	AllowShort bool
}

// Machine is the bar-by-bar position state machine. It exclusively owns the
// cash balance and the single open position, applying the cost model and the
// sizer on transitions. States are FLAT (pos == nil) and OPEN; the machine
// performs at most one transition per step, so a position closed on a bar is
// never re-entered on the same bar.
type Machine struct {
	cfg    Config
	logger ports.Logger

	balance float64
	pos     *domain.Position
}

// NewMachine creates a machine in the FLAT state with balance set to the
// initial capital. Configuration is validated up front; the engine refuses
// to run with missing or zero capital or sizing parameters.
func NewMachine(cfg Config, logger ports.Logger) (*Machine, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for the engine")
	}
	if cfg.InitialCapital <= 0 {
		return nil, fmt.Errorf("%w: initial capital must be positive, got %v", ports.ErrConfigurationError, cfg.InitialCapital)
	}
	if err := cfg.Sizer.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrConfigurationError, err)
	}
	if err := cfg.Costs.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrConfigurationError, err)
	}
	return &Machine{cfg: cfg, logger: logger, balance: cfg.InitialCapital}, nil
}

// Restore loads previously persisted state into the machine. Used by the
// live runner, which keeps no in-memory state between invocations.
func (m *Machine) Restore(balance float64, pos *domain.Position) {
	m.balance = balance
	m.pos = pos
}

// Balance returns the current cash balance.
func (m *Machine) Balance() float64 { return m.balance }

// Position returns the open position, or nil when flat.
func (m *Machine) Position() *domain.Position { return m.pos }

// Unrealized returns the open position's mark-to-market P&L at the given
// price, or 0 when flat.
func (m *Machine) Unrealized(markPrice float64) float64 {
	if m.pos == nil {
		return 0
	}
	return m.pos.UnrealizedPNL(markPrice)
}

// Step consumes one bar and one signal, using the bar's own timestamp as the
// transition clock. Backtests call this.
func (m *Machine) Step(ctx context.Context, bar *domain.Bar, sig domain.Signal) (*domain.Trade, error) {
	return m.StepAt(ctx, bar, sig, bar.Time)
}

// StepAt is Step with an explicit clock. The live runner passes wall-clock
// time here so the session-boundary forced close fires even when the latest
// bar carries an older timestamp. Returns the closing Trade when a position
// was closed on this step, nil otherwise.
func (m *Machine) StepAt(ctx context.Context, bar *domain.Bar, sig domain.Signal, now time.Time) (*domain.Trade, error) {
	if bar == nil {
		return nil, fmt.Errorf("%w: step requires a bar", ports.ErrMarketDataUnavailable)
	}

	if m.pos == nil {
		wantsEntry := sig == domain.SignalEnterLong || (sig == domain.SignalExit && m.cfg.AllowShort)
		if wantsEntry && !m.cfg.Costs.CanEnter(now) {
			m.logger.Debug(ctx, "Entry signal outside session window", map[string]interface{}{
				"signal": sig,
				"now":    now,
			})
			return nil, nil
		}
		switch {
		case sig == domain.SignalEnterLong:
			m.open(ctx, domain.Long, bar, now)
		case sig == domain.SignalExit && m.cfg.AllowShort:
			m.open(ctx, domain.Short, bar, now)
		}
		// WAIT/EXIT while flat: no-op.
		return nil, nil
	}

	// Price/time triggers first, in their fixed priority order, then the
	// ordinary signal exit.
	if reason, ok := m.cfg.Costs.CheckExit(m.pos, bar.Close, now); ok {
		return m.close(ctx, bar, now, reason), nil
	}
	if m.isCloseSignal(sig) {
		return m.close(ctx, bar, now, domain.ExitReasonSignal), nil
	}

	// Trend continuation: accrue swap into the running total and bank the
	// same amount into cash immediately. Spread and directional P&L stay
	// unrealized until closure.
	m.hold(ctx, bar, now)
	return nil, nil
}

// isCloseSignal reports whether sig requests closing the current position.
func (m *Machine) isCloseSignal(sig domain.Signal) bool {
	if m.pos.Direction == domain.Short {
		return sig == domain.SignalEnterLong
	}
	return sig == domain.SignalExit
}

func (m *Machine) open(ctx context.Context, dir domain.Direction, bar *domain.Bar, now time.Time) {
	units := m.cfg.Sizer.Size(m.balance)
	fill := m.cfg.Costs.EntryFill(bar.Close, dir)
	m.pos = &domain.Position{
		Direction:    dir,
		EntryPrice:   fill,
		CurrentPrice: bar.Close,
		Units:        units,
		EntryTime:    now,
		Status:       domain.StatusOpen,
		UpdatedAt:    now,
	}
	m.logger.Info(ctx, "Opened position", map[string]interface{}{
		"direction":  dir,
		"units":      units,
		"entryPrice": fill,
		"balance":    m.balance,
	})
}

func (m *Machine) hold(ctx context.Context, bar *domain.Bar, now time.Time) {
	swap := m.cfg.Costs.SwapAccrual(m.pos.Units, m.pos.Direction, now.Sub(m.pos.UpdatedAt))
	m.pos.SwapTotal += swap
	m.balance += swap
	m.pos.CurrentPrice = bar.Close
	m.pos.UpdatedAt = now
	m.logger.Debug(ctx, "Holding position", map[string]interface{}{
		"markPrice":  bar.Close,
		"swapStep":   swap,
		"swapTotal":  m.pos.SwapTotal,
		"unrealized": m.pos.UnrealizedPNL(bar.Close),
	})
}

func (m *Machine) close(ctx context.Context, bar *domain.Bar, now time.Time, reason domain.ExitReason) *domain.Trade {
	pos := m.pos
	exit := m.cfg.Costs.ExitFill(bar.Close)
	gross := (exit - pos.EntryPrice) * float64(pos.Units) * pos.Direction.Sign()
	net := gross + pos.SwapTotal

	// Swap was banked into cash incrementally while holding, so closure
	// realizes the gross price P&L only; adding net here would count the
	// swap twice.
	m.balance += gross
	m.pos = nil

	trade := &domain.Trade{
		PositionID: pos.ID,
		Direction:  pos.Direction,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  exit,
		Units:      pos.Units,
		GrossPNL:   gross,
		SpreadCost: m.cfg.Costs.Spread * float64(pos.Units),
		SwapTotal:  pos.SwapTotal,
		NetPNL:     net,
		EntryTime:  pos.EntryTime,
		ExitTime:   now,
		ExitReason: reason,
	}
	m.logger.Info(ctx, "Closed position", map[string]interface{}{
		"reason":    reason,
		"exitPrice": exit,
		"grossPnl":  gross,
		"swapTotal": pos.SwapTotal,
		"netPnl":    net,
		"balance":   m.balance,
	})
	return trade
}
