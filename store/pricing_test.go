package store

import (
	"testing"
	"time"

	"github.com/semanticallynull/bikerental/bike"
)

func TestPrice_ShortRentalsCostOneDay(t *testing.T) {
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		end  time.Time
	}{
		{"one minute", start.Add(time.Minute)},
		{"five hours", start.Add(5 * time.Hour)},
		{"exactly one day", start.Add(24 * time.Hour)},
		{"zero length", start},
		{"inverted range", start.Add(-48 * time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, bt := range bike.Types {
				got := DefaultRates.Price(bt, start, tt.end)
				if got != DefaultRates[bt] {
					t.Errorf("%s: expected %.2f, got %.2f", bt, DefaultRates[bt], got)
				}
			}
		})
	}
}

func TestPrice_WholeDaysAreFloored(t *testing.T) {
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		duration time.Duration
		days     float64
	}{
		{25 * time.Hour, 1},
		{47 * time.Hour, 1},
		{48 * time.Hour, 2},
		{7 * 24 * time.Hour, 7},
		{10*24*time.Hour + 23*time.Hour, 10},
	}

	for _, tt := range tests {
		got := DefaultRates.Price(bike.EBike, start, start.Add(tt.duration))
		want := DefaultRates[bike.EBike] * tt.days
		if got != want {
			t.Errorf("%s: expected %.2f, got %.2f", tt.duration, want, got)
		}
	}
}

func TestPrice_IgnoresDaylightSavingSwitch(t *testing.T) {
	ams, err := time.LoadLocation("Europe/Amsterdam")
	if err != nil {
		t.Skipf("no tzdata: %v", err)
	}

	// Clocks go forward on 2025-03-30, so this range is 47 real hours.
	start := time.Date(2025, 3, 29, 10, 0, 0, 0, ams)
	end := time.Date(2025, 3, 31, 10, 0, 0, 0, ams)

	got := DefaultRates.Price(bike.City, start, end)
	if got != 30.00 {
		t.Errorf("expected 30.00, got %.2f", got)
	}
}

func TestPrice_RoundsToCents(t *testing.T) {
	rates := Rates{bike.City: 10.004}
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	got := rates.Price(bike.City, start, start.Add(72*time.Hour))
	if got != 30.01 {
		t.Errorf("expected 30.01, got %v", got)
	}
}
