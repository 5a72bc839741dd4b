package util

import (
	"testing"
	"time"
)

func TestIsWeekend(t *testing.T) {
	sat := time.Date(2025, 8, 23, 0, 0, 0, 0, time.UTC)
	if !IsWeekend(sat) {
		t.Fatalf("saturday should be weekend")
	}
	if IsWeekend(sat.AddDate(0, 0, 2)) {
		t.Fatalf("monday should not be weekend")
	}
}

func TestTradingDaysBetween(t *testing.T) {
	fri := time.Date(2025, 8, 22, 0, 0, 0, 0, time.UTC)
	mon := fri.AddDate(0, 0, 3)

	if got := TradingDaysBetween(fri, mon); got != 1 {
		t.Fatalf("friday to monday: want 1, got %d", got)
	}
	if got := TradingDaysBetween(fri, fri.AddDate(0, 0, 1)); got != 0 {
		t.Fatalf("friday to saturday: want 0, got %d", got)
	}
	if got := TradingDaysBetween(mon, fri); got != 0 {
		t.Fatalf("reversed range: want 0, got %d", got)
	}
	if got := TradingDaysBetween(fri, fri.AddDate(0, 0, 7)); got != 5 {
		t.Fatalf("full week: want 5, got %d", got)
	}
}
