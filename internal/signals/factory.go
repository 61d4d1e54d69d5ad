package signals

import (
	"fmt"

	"ratesurf/internal/ports"
)

// Params carries the per-variant parameters used by the factory.
type Params struct {
	MAWindow          int
	MomentumLookback  int
	MomentumThreshold float64
	CrossoverFast     int
	CrossoverSlow     int
}

// New builds a signal source by its configured name. The engine stays a
// single state machine; the strategy variants differ only here.
func New(name string, p Params) (ports.SignalSource, error) {
	switch name {
	case "raw_direction":
		return NewRawDirection(), nil
	case "ma_filter":
		return NewMAFilter(p.MAWindow)
	case "momentum":
		return NewMomentum(p.MomentumLookback, p.MomentumThreshold)
	case "crossover":
		return NewCrossover(p.CrossoverFast, p.CrossoverSlow)
	default:
		return nil, fmt.Errorf("unknown signal source %q", name)
	}
}
