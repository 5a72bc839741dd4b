package models

import (
	"fmt"
	"math"
	"time"
)

// BarDaily is one OHLCV observation for a ticker.
type BarDaily struct {
	Ticker string    `json:"ticker"`
	Date   time.Time `json:"date"` // trade date, midnight in exchange zone
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Validate checks the OHLCV invariants: positive finite prices, volume >= 0.
func (b *BarDaily) Validate() error {
	if b.Ticker == "" {
		return fmt.Errorf("ticker empty")
	}
	if b.Date.IsZero() {
		return fmt.Errorf("date zero")
	}
	for _, p := range []float64{b.Open, b.High, b.Low, b.Close} {
		if p <= 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("price invalid: %v", p)
		}
	}
	if b.Volume < 0 {
		return fmt.Errorf("negative volume")
	}
	return nil
}

// IsFlat reports a bar with no intrabar range.
func (b *BarDaily) IsFlat() bool {
	return b.High == b.Low
}

// LastBarDate returns the date of the newest bar in an ascending series.
func LastBarDate(bars []BarDaily) time.Time {
	if len(bars) == 0 {
		return time.Time{}
	}
	return bars[len(bars)-1].Date
}
