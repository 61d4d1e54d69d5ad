package engine

import (
	"time"

	"ratesurf/internal/domain"
)

// Tracker appends one equity sample per bar and keeps running statistics.
// Running min, peak and max drawdown are maintained incrementally, O(1) per
// bar; prior samples are never mutated.
type Tracker struct {
	samples []*domain.EquitySample

	minEquity   float64
	peak        float64
	maxDrawdown float64 // absolute peak-to-trough decline
}

// NewTracker creates an empty equity tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Record appends a sample after a bar's transition has been applied.
func (t *Tracker) Record(at time.Time, balance, unrealized, rate, price float64) *domain.EquitySample {
	equity := balance + unrealized
	s := &domain.EquitySample{
		Time:          at,
		Balance:       balance,
		UnrealizedPNL: unrealized,
		Equity:        equity,
		Rate:          rate,
		Price:         price,
	}
	if len(t.samples) == 0 || equity < t.minEquity {
		t.minEquity = equity
	}
	if len(t.samples) == 0 || equity > t.peak {
		t.peak = equity
	}
	if dd := t.peak - equity; dd > t.maxDrawdown {
		t.maxDrawdown = dd
	}
	t.samples = append(t.samples, s)
	return s
}

// Samples returns the full equity curve, oldest first.
func (t *Tracker) Samples() []*domain.EquitySample { return t.samples }

// MinEquity returns the lowest equity seen so far.
func (t *Tracker) MinEquity() float64 { return t.minEquity }

// Peak returns the running equity peak.
func (t *Tracker) Peak() float64 { return t.peak }

// MaxDrawdown returns the largest absolute peak-to-trough decline seen so far.
func (t *Tracker) MaxDrawdown() float64 { return t.maxDrawdown }
