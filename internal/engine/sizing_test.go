package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSizerSize(t *testing.T) {
	sizer := Sizer{Ratio: 0.02, Granularity: 10000, MinUnits: 10000, MaxUnits: 100000}

	tests := []struct {
		name    string
		balance float64
		want    int
	}{
		{name: "reference capital", balance: 1_000_000, want: 20000},
		{name: "compounded balance rounds down", balance: 1_550_000, want: 30000},
		{name: "grown balance", balance: 2_000_000, want: 40000},
		{name: "below minimum clamps up", balance: 100_000, want: 10000},
		{name: "zero balance clamps to minimum", balance: 0, want: 10000},
		{name: "huge balance clamps to cap", balance: 100_000_000, want: 100000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sizer.Size(tt.balance))
		})
	}
}

func TestSizerSizeBounds(t *testing.T) {
	sizer := Sizer{Ratio: 0.15, Granularity: 10000, MinUnits: 10000, MaxUnits: 200000}

	// For any non-negative balance the result is a positive multiple of the
	// granularity within [min, max].
	for balance := 0.0; balance <= 5_000_000; balance += 37_500 {
		units := sizer.Size(balance)
		assert.Zero(t, units%sizer.Granularity, "units must be a multiple of granularity at balance %v", balance)
		assert.GreaterOrEqual(t, units, sizer.MinUnits)
		assert.LessOrEqual(t, units, sizer.MaxUnits)
	}
}

func TestSizerSizeUncapped(t *testing.T) {
	sizer := Sizer{Ratio: 0.02, Granularity: 10000, MinUnits: 10000}
	assert.Equal(t, 2_000_000, sizer.Size(100_000_000))
}

func TestSizerValidate(t *testing.T) {
	tests := []struct {
		name    string
		sizer   Sizer
		wantErr bool
	}{
		{name: "valid", sizer: Sizer{Ratio: 0.02, Granularity: 10000, MinUnits: 10000, MaxUnits: 100000}},
		{name: "valid uncapped", sizer: Sizer{Ratio: 0.02, Granularity: 10000, MinUnits: 10000}},
		{name: "zero ratio", sizer: Sizer{Granularity: 10000, MinUnits: 10000}, wantErr: true},
		{name: "negative ratio", sizer: Sizer{Ratio: -0.1, Granularity: 10000, MinUnits: 10000}, wantErr: true},
		{name: "zero granularity", sizer: Sizer{Ratio: 0.02, MinUnits: 10000}, wantErr: true},
		{name: "min not multiple of granularity", sizer: Sizer{Ratio: 0.02, Granularity: 10000, MinUnits: 15000}, wantErr: true},
		{name: "max below min", sizer: Sizer{Ratio: 0.02, Granularity: 10000, MinUnits: 20000, MaxUnits: 10000}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sizer.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
