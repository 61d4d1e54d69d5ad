package domain

import "time"

// EquitySample is one point on the equity curve, appended once per bar.
// Equity is always Balance + UnrealizedPNL; UnrealizedPNL is zero when flat.
type EquitySample struct {
	Time          time.Time
	Balance       float64
	UnrealizedPNL float64
	Equity        float64
	Rate          float64 // Reference rate at the bar, kept for reporting
	Price         float64 // Pair price at the bar, kept for reporting
}

// Account holds the persisted account state read and written by the live
// runner: configured starting capital, the compounding cash balance, and the
// timestamp of the last bar already processed (idempotence guard).
type Account struct {
	InitialCapital float64
	Balance        float64
	LastBarAt      time.Time
}
