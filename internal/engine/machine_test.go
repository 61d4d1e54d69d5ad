package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratesurf/internal/domain"
	"ratesurf/internal/ports"
)

// mockLogger implements ports.Logger for testing.
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func swingConfig() Config {
	return Config{
		InitialCapital: 1_000_000,
		Sizer:          Sizer{Ratio: 0.02, Granularity: 10000, MinUnits: 10000, MaxUnits: 100000},
		Costs:          Costs{Spread: 0.004, SwapLongDay: 100, SwapUnits: 10000},
	}
}

func dailyBar(day int, price, rate float64) *domain.Bar {
	return &domain.Bar{
		Time:  time.Date(2025, 6, day, 0, 0, 0, 0, time.UTC),
		Close: price,
		Rate:  rate,
	}
}

func TestMachineReferenceScenario(t *testing.T) {
	// Capital 1,000,000, ratio 0.02, granularity 10,000, spread 0.004,
	// swap 100 yen per 10k units per day.
	m, err := NewMachine(swingConfig(), &mockLogger{})
	require.NoError(t, err)
	ctx := context.Background()

	// Day 1: enter at 100 -> 20,000 units filled at 100.004, balance unchanged.
	trade, err := m.Step(ctx, dailyBar(1, 100, 4.2), domain.SignalEnterLong)
	require.NoError(t, err)
	assert.Nil(t, trade)
	require.NotNil(t, m.Position())
	assert.Equal(t, 20000, m.Position().Units)
	assert.InDelta(t, 100.004, m.Position().EntryPrice, 1e-9)
	assert.InDelta(t, 1_000_000, m.Balance(), 1e-9)

	// Day 2: hold at 100.5 -> one day of swap banked straight into cash.
	trade, err = m.Step(ctx, dailyBar(2, 100.5, 4.25), domain.SignalHold)
	require.NoError(t, err)
	assert.Nil(t, trade)
	assert.InDelta(t, 1_000_200, m.Balance(), 1e-9)
	assert.InDelta(t, 200, m.Position().SwapTotal, 1e-9)

	// Day 3: exit at 99.8 -> gross (99.8-100.004)*20,000 = -4,080. Closure
	// realizes the gross only; the swap was already banked on day 2.
	trade, err = m.Step(ctx, dailyBar(3, 99.8, 4.1), domain.SignalExit)
	require.NoError(t, err)
	require.NotNil(t, trade)
	assert.InDelta(t, -4080, trade.GrossPNL, 1e-6)
	assert.InDelta(t, 200, trade.SwapTotal, 1e-9)
	assert.InDelta(t, -3880, trade.NetPNL, 1e-6)
	assert.Equal(t, domain.ExitReasonSignal, trade.ExitReason)
	assert.InDelta(t, 996_120, m.Balance(), 1e-6)

	// Conservation over the trade's lifetime:
	// balance_at_close = balance_at_entry + net_pnl.
	assert.InDelta(t, 1_000_000+trade.NetPNL, m.Balance(), 1e-6)
	assert.InDelta(t, trade.GrossPNL+trade.SwapTotal, trade.NetPNL, 1e-9)

	// FLAT again: equity equals balance.
	assert.Nil(t, m.Position())
	assert.Zero(t, m.Unrealized(99.8))
}

func TestMachineAtMostOnePosition(t *testing.T) {
	m, err := NewMachine(swingConfig(), &mockLogger{})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = m.Step(ctx, dailyBar(1, 100, 4.2), domain.SignalEnterLong)
	require.NoError(t, err)
	first := m.Position()
	require.NotNil(t, first)

	// A second ENTER while holding is a continuation, never a second position.
	_, err = m.Step(ctx, dailyBar(2, 101, 4.3), domain.SignalEnterLong)
	require.NoError(t, err)
	assert.Same(t, first, m.Position())
	assert.Equal(t, 20000, m.Position().Units)
}

func TestMachineNoReentryOnCloseBar(t *testing.T) {
	m, err := NewMachine(swingConfig(), &mockLogger{})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = m.Step(ctx, dailyBar(1, 100, 4.2), domain.SignalEnterLong)
	require.NoError(t, err)

	trade, err := m.Step(ctx, dailyBar(2, 101, 4.1), domain.SignalExit)
	require.NoError(t, err)
	require.NotNil(t, trade)
	// One transition per bar: the machine is flat after a close, no same-bar re-entry.
	assert.Nil(t, m.Position())
}

func TestMachineFlatNoOp(t *testing.T) {
	m, err := NewMachine(swingConfig(), &mockLogger{})
	require.NoError(t, err)
	ctx := context.Background()

	for _, sig := range []domain.Signal{domain.SignalWait, domain.SignalExit, domain.SignalHold} {
		trade, err := m.Step(ctx, dailyBar(1, 100, 4.2), sig)
		require.NoError(t, err)
		assert.Nil(t, trade)
		assert.Nil(t, m.Position())
		assert.InDelta(t, 1_000_000, m.Balance(), 1e-9)
	}
}

func TestMachineCompounding(t *testing.T) {
	m, err := NewMachine(swingConfig(), &mockLogger{})
	require.NoError(t, err)
	ctx := context.Background()

	// First round trip: ride a 3 yen move with 20,000 units.
	_, err = m.Step(ctx, dailyBar(1, 100, 4.2), domain.SignalEnterLong)
	require.NoError(t, err)
	trade, err := m.Step(ctx, dailyBar(2, 103, 4.1), domain.SignalExit)
	require.NoError(t, err)
	require.NotNil(t, trade)
	assert.Greater(t, m.Balance(), 1_000_000.0)

	// Second entry sizes off the grown balance, not the initial capital.
	_, err = m.Step(ctx, dailyBar(3, 103, 4.3), domain.SignalEnterLong)
	require.NoError(t, err)
	assert.Equal(t, swingConfig().Sizer.Size(m.Balance()), m.Position().Units)
}

func TestMachineForcedCloseBeatsTakeProfit(t *testing.T) {
	jst, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	cfg := Config{
		InitialCapital: 1_000_000,
		Sizer:          Sizer{Ratio: 0.15, Granularity: 10000, MinUnits: 10000},
		Costs: Costs{
			Spread:     0.004,
			TakeProfit: 0.15,
			StopLoss:   0.20,
			Session:    Session{Enabled: true, StartHour: 10, EndHour: 18},
			Location:   jst,
		},
	}
	m, err := NewMachine(cfg, &mockLogger{})
	require.NoError(t, err)
	ctx := context.Background()

	entry := time.Date(2025, 6, 2, 10, 0, 0, 0, jst)
	_, err = m.StepAt(ctx, &domain.Bar{Time: entry, Close: 150}, domain.SignalEnterLong, entry)
	require.NoError(t, err)

	// At 18:00 both the take-profit distance and the session boundary are
	// true; the recorded reason must be the forced close.
	atClose := time.Date(2025, 6, 2, 18, 0, 0, 0, jst)
	trade, err := m.StepAt(ctx, &domain.Bar{Time: atClose, Close: 150.30}, domain.SignalHold, atClose)
	require.NoError(t, err)
	require.NotNil(t, trade)
	assert.Equal(t, domain.ExitReasonForcedClose, trade.ExitReason)
}

func TestMachineNoEntryOutsideSessionWindow(t *testing.T) {
	jst, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	cfg := Config{
		InitialCapital: 1_000_000,
		Sizer:          Sizer{Ratio: 0.15, Granularity: 10000, MinUnits: 10000},
		Costs: Costs{
			Spread:   0.004,
			Session:  Session{Enabled: true, StartHour: 10, EndHour: 18},
			Location: jst,
		},
	}
	m, err := NewMachine(cfg, &mockLogger{})
	require.NoError(t, err)
	ctx := context.Background()

	// An entry signal before the session opens is ignored; the machine
	// stays flat with the balance untouched.
	early := time.Date(2025, 6, 2, 8, 0, 0, 0, jst)
	trade, err := m.StepAt(ctx, &domain.Bar{Time: early, Close: 150}, domain.SignalEnterLong, early)
	require.NoError(t, err)
	assert.Nil(t, trade)
	assert.Nil(t, m.Position())
	assert.Equal(t, 1_000_000.0, m.Balance())

	// Same after the session has ended.
	late := time.Date(2025, 6, 2, 19, 0, 0, 0, jst)
	trade, err = m.StepAt(ctx, &domain.Bar{Time: late, Close: 150}, domain.SignalEnterLong, late)
	require.NoError(t, err)
	assert.Nil(t, trade)
	assert.Nil(t, m.Position())

	// Inside the window the same signal opens the position.
	open := time.Date(2025, 6, 3, 10, 0, 0, 0, jst)
	_, err = m.StepAt(ctx, &domain.Bar{Time: open, Close: 150}, domain.SignalEnterLong, open)
	require.NoError(t, err)
	require.NotNil(t, m.Position())
	assert.Equal(t, 20000, m.Position().Units)
}

func TestMachineStopLoss(t *testing.T) {
	cfg := swingConfig()
	cfg.Costs.TakeProfit = 0.15
	cfg.Costs.StopLoss = 0.20
	m, err := NewMachine(cfg, &mockLogger{})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = m.Step(ctx, dailyBar(1, 100, 4.2), domain.SignalEnterLong)
	require.NoError(t, err)

	trade, err := m.Step(ctx, dailyBar(2, 99.7, 4.2), domain.SignalHold)
	require.NoError(t, err)
	require.NotNil(t, trade)
	assert.Equal(t, domain.ExitReasonStopLoss, trade.ExitReason)
	assert.Less(t, trade.NetPNL, 0.0)
}

func TestMachineSymmetricVariant(t *testing.T) {
	cfg := swingConfig()
	cfg.AllowShort = true
	cfg.Costs.SwapShortDay = -80
	m, err := NewMachine(cfg, &mockLogger{})
	require.NoError(t, err)
	ctx := context.Background()

	// EXIT while flat opens a short in the symmetric variant.
	_, err = m.Step(ctx, dailyBar(1, 100, 4.2), domain.SignalExit)
	require.NoError(t, err)
	require.NotNil(t, m.Position())
	assert.Equal(t, domain.Short, m.Position().Direction)
	assert.InDelta(t, 99.996, m.Position().EntryPrice, 1e-9)

	// Price falls: the short gains, sign flipped.
	trade, err := m.Step(ctx, dailyBar(2, 99, 4.1), domain.SignalEnterLong)
	require.NoError(t, err)
	require.NotNil(t, trade)
	assert.InDelta(t, (99.996-99.0)*20000, trade.GrossPNL, 1e-6)
}

func TestMachineRestore(t *testing.T) {
	m, err := NewMachine(swingConfig(), &mockLogger{})
	require.NoError(t, err)
	ctx := context.Background()

	pos := &domain.Position{
		ID:         7,
		Direction:  domain.Long,
		EntryPrice: 100.004,
		Units:      20000,
		EntryTime:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		SwapTotal:  150,
		Status:     domain.StatusOpen,
		UpdatedAt:  time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
	}
	m.Restore(1_050_000, pos)

	trade, err := m.Step(ctx, dailyBar(3, 101, 4.0), domain.SignalExit)
	require.NoError(t, err)
	require.NotNil(t, trade)
	assert.Equal(t, int64(7), trade.PositionID)
	assert.InDelta(t, 150, trade.SwapTotal, 1e-9)
	assert.InDelta(t, 1_050_000+trade.GrossPNL, m.Balance(), 1e-6)
}

func TestNewMachineValidation(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Config)
	}{
		{name: "zero capital", mut: func(c *Config) { c.InitialCapital = 0 }},
		{name: "negative capital", mut: func(c *Config) { c.InitialCapital = -1 }},
		{name: "bad sizer", mut: func(c *Config) { c.Sizer.Ratio = 0 }},
		{name: "bad costs", mut: func(c *Config) { c.Costs.Spread = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := swingConfig()
			tt.mut(&cfg)
			_, err := NewMachine(cfg, &mockLogger{})
			require.Error(t, err)
			assert.ErrorIs(t, err, ports.ErrConfigurationError)
		})
	}
}
