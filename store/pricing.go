package store

import (
	"math"
	"time"

	"github.com/semanticallynull/bikerental/bike"
)

// Rates is the price per rental day for each bike type.
type Rates map[bike.Type]float64

// DefaultRates are the daily prices used when no rate table is configured.
var DefaultRates = Rates{
	bike.City:  15.00,
	bike.EBike: 25.00,
}

// Price bills every started rental for at least one day. Longer rentals pay
// for the number of whole days between start and end, so 25 hours costs one
// day and 47 hours costs one day as well.
func (r Rates) Price(t bike.Type, start, end time.Time) float64 {
	days := wholeDays(start, end)
	if days <= 0 {
		days = 1
	}
	return math.Round(r[t]*float64(days)*100) / 100
}

func (r Rates) clone() Rates {
	out := make(Rates, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// wholeDays counts the full 24 hour periods from start to end on the wall
// clock, so a daylight saving switch inside the range does not cost a day.
func wholeDays(start, end time.Time) int64 {
	d := wallClock(end).Sub(wallClock(start))
	return int64(d / (24 * time.Hour))
}

func wallClock(t time.Time) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()
	return time.Date(y, m, d, hh, mm, ss, t.Nanosecond(), time.UTC)
}
