package engine

import "fmt"

// Sizer implements compounding lot sizing: a fixed fraction of the current
// cash balance converted to units, floored to the unit granularity and
// clamped to [MinUnits, MaxUnits]. Pure and deterministic; called exactly
// once per entry with the balance at the moment of entry, so later entries
// compound on realized profits rather than the initial capital.
type Sizer struct {
	Ratio       float64 // Fraction of balance converted to units (e.g., 0.02)
	Granularity int     // Units must be an integer multiple of this (e.g., 10000)
	MinUnits    int     // Floor after rounding
	MaxUnits    int     // Cap; 0 means uncapped
}

// Validate checks the sizing parameters, failing fast on a configuration
// that could never produce a valid quantity.
func (s Sizer) Validate() error {
	if s.Ratio <= 0 {
		return fmt.Errorf("sizing ratio must be positive, got %v", s.Ratio)
	}
	if s.Granularity <= 0 {
		return fmt.Errorf("unit granularity must be positive, got %d", s.Granularity)
	}
	if s.MinUnits <= 0 || s.MinUnits%s.Granularity != 0 {
		return fmt.Errorf("minimum units must be a positive multiple of granularity, got %d", s.MinUnits)
	}
	if s.MaxUnits != 0 && (s.MaxUnits < s.MinUnits || s.MaxUnits%s.Granularity != 0) {
		return fmt.Errorf("maximum units must be a multiple of granularity >= minimum, got %d", s.MaxUnits)
	}
	return nil
}

// Size maps the current balance to a tradable unit quantity.
func (s Sizer) Size(balance float64) int {
	raw := balance * s.Ratio
	units := int(raw) / s.Granularity * s.Granularity
	if units < s.MinUnits {
		units = s.MinUnits
	}
	if s.MaxUnits > 0 && units > s.MaxUnits {
		units = s.MaxUnits
	}
	return units
}
