package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratesurf/internal/domain"
)

func TestCostsEntryFill(t *testing.T) {
	c := Costs{Spread: 0.004}
	assert.InDelta(t, 100.004, c.EntryFill(100, domain.Long), 1e-9)
	assert.InDelta(t, 99.996, c.EntryFill(100, domain.Short), 1e-9)
	// Spread is charged once, on entry; the exit fills at market.
	assert.InDelta(t, 100.0, c.ExitFill(100), 1e-9)
}

func TestCostsSwapAccrual(t *testing.T) {
	c := Costs{SwapLongDay: 100, SwapShortDay: -80, SwapUnits: 10000}

	tests := []struct {
		name    string
		units   int
		dir     domain.Direction
		elapsed time.Duration
		want    float64
	}{
		{name: "one day one lot", units: 10000, dir: domain.Long, elapsed: 24 * time.Hour, want: 100},
		{name: "one day two lots", units: 20000, dir: domain.Long, elapsed: 24 * time.Hour, want: 200},
		{name: "one hour prorated", units: 10000, dir: domain.Long, elapsed: time.Hour, want: 100.0 / 24},
		{name: "short side is signed", units: 10000, dir: domain.Short, elapsed: 24 * time.Hour, want: -80},
		{name: "zero elapsed", units: 10000, dir: domain.Long, elapsed: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, c.SwapAccrual(tt.units, tt.dir, tt.elapsed), 1e-9)
		})
	}
}

func TestCostsCheckExitPriority(t *testing.T) {
	jst, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	c := Costs{
		TakeProfit: 0.15,
		StopLoss:   0.20,
		Session:    Session{Enabled: true, StartHour: 10, EndHour: 18},
		Location:   jst,
	}
	pos := &domain.Position{Direction: domain.Long, EntryPrice: 100.004, Units: 20000}

	inSession := time.Date(2025, 6, 2, 14, 0, 0, 0, jst)
	atClose := time.Date(2025, 6, 2, 18, 0, 0, 0, jst)

	tests := []struct {
		name       string
		price      float64
		now        time.Time
		wantReason domain.ExitReason
		wantExit   bool
	}{
		{name: "no trigger", price: 100.05, now: inSession, wantExit: false},
		{name: "take profit", price: 100.16, now: inSession, wantReason: domain.ExitReasonTakeProfit, wantExit: true},
		{name: "stop loss", price: 99.80, now: inSession, wantReason: domain.ExitReasonStopLoss, wantExit: true},
		{name: "forced close wins over take profit", price: 100.20, now: atClose, wantReason: domain.ExitReasonForcedClose, wantExit: true},
		{name: "forced close wins over stop loss", price: 99.50, now: atClose, wantReason: domain.ExitReasonForcedClose, wantExit: true},
		{name: "forced close with no price trigger", price: 100.05, now: atClose, wantReason: domain.ExitReasonForcedClose, wantExit: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason, ok := c.CheckExit(pos, tt.price, tt.now)
			assert.Equal(t, tt.wantExit, ok)
			if tt.wantExit {
				assert.Equal(t, tt.wantReason, reason)
			}
		})
	}
}

func TestCostsCheckExitDisabled(t *testing.T) {
	// The pure trend-following variant has no price or session triggers;
	// only the signal ever closes the position.
	c := Costs{Spread: 0.004}
	pos := &domain.Position{Direction: domain.Long, EntryPrice: 100.004, Units: 20000}

	_, ok := c.CheckExit(pos, 50, time.Now())
	assert.False(t, ok)
	_, ok = c.CheckExit(pos, 200, time.Now())
	assert.False(t, ok)
}

func TestCostsCheckExitShort(t *testing.T) {
	c := Costs{TakeProfit: 0.15, StopLoss: 0.20}
	pos := &domain.Position{Direction: domain.Short, EntryPrice: 99.996, Units: 20000}

	reason, ok := c.CheckExit(pos, 99.80, time.Now())
	assert.True(t, ok)
	assert.Equal(t, domain.ExitReasonTakeProfit, reason)

	reason, ok = c.CheckExit(pos, 100.25, time.Now())
	assert.True(t, ok)
	assert.Equal(t, domain.ExitReasonStopLoss, reason)
}

func TestCostsValidate(t *testing.T) {
	assert.NoError(t, Costs{Spread: 0.004, SwapLongDay: 100, SwapUnits: 10000}.Validate())
	assert.Error(t, Costs{Spread: -1}.Validate())
	assert.Error(t, Costs{SwapLongDay: 100}.Validate(), "swap rate without a unit basis")
	assert.Error(t, Costs{Session: Session{Enabled: true, StartHour: 10, EndHour: 18}}.Validate(), "session window without a timezone")
	assert.Error(t, Costs{Session: Session{Enabled: true, StartHour: 10, EndHour: 25}, Location: time.UTC}.Validate())
	assert.Error(t, Costs{Session: Session{Enabled: true, StartHour: 10, EndHour: 10}, Location: time.UTC}.Validate(), "degenerate window")
	assert.NoError(t, Costs{Session: Session{Enabled: true, StartHour: 10, EndHour: 0}, Location: time.UTC}.Validate(), "midnight boundary")
}

func TestCostsSessionWindow(t *testing.T) {
	jst, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	c := Costs{
		Session:  Session{Enabled: true, StartHour: 10, EndHour: 18},
		Location: jst,
	}
	at := func(hour int) time.Time { return time.Date(2025, 6, 2, hour, 30, 0, 0, jst) }

	assert.False(t, c.CanEnter(at(8)), "before the session opens")
	assert.True(t, c.CanEnter(at(10)))
	assert.True(t, c.CanEnter(at(17)))
	assert.False(t, c.CanEnter(at(18)), "at the boundary")
	assert.False(t, c.CanEnter(at(21)))

	// Disabled window never restricts entries.
	assert.True(t, Costs{}.CanEnter(at(3)))

	// A window past midnight wraps.
	wrap := Costs{
		Session:  Session{Enabled: true, StartHour: 22, EndHour: 2},
		Location: jst,
	}
	assert.True(t, wrap.CanEnter(at(23)))
	assert.True(t, wrap.CanEnter(at(1)))
	assert.False(t, wrap.CanEnter(at(12)))
}

func TestCostsForcedCloseOutsideWindow(t *testing.T) {
	jst, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	c := Costs{
		Session:  Session{Enabled: true, StartHour: 10, EndHour: 18},
		Location: jst,
	}
	pos := &domain.Position{Direction: domain.Long, EntryPrice: 100.004, Units: 20000}

	// A position still open before the next session starts is force-closed
	// too; overnight holds are not part of the day-trade variant.
	reason, ok := c.CheckExit(pos, 100.05, time.Date(2025, 6, 3, 8, 0, 0, 0, jst))
	require.True(t, ok)
	assert.Equal(t, domain.ExitReasonForcedClose, reason)
}
