package domain

import "time"

// Bar represents one settlement observation of the traded pair together with
// the reference interest rate driving the signal. Bars form an ordered,
// immutable sequence; a signal computed for bar i may only read bars <= i.
type Bar struct {
	Time  time.Time // Settlement timestamp of the bar
	Open  float64   // Opening price (optional, 0 when the feed has close only)
	High  float64   // Highest price (optional)
	Low   float64   // Lowest price (optional)
	Close float64   // Settlement/close price of the traded pair
	Rate  float64   // Reference interest rate (e.g., 10Y treasury yield) at the bar
}
