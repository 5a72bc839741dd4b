package fetch

import (
	"testing"
	"time"

	"StockScan/internal/domain/models"
)

func testGates() *Gates {
	return &Gates{
		BaseFreshDays:  1,
		MinHistoryBars: 5,
		MinPrice:       50,
		MinAvgVolume:   1000,
		MaxZeroVolDays: 1,
		MaxFlatDays:    2,
		LookbackDays:   10,
		Location:       time.UTC,
	}
}

func TestGatesPass(t *testing.T) {
	today := time.Date(2025, 8, 27, 9, 0, 0, 0, time.UTC)
	bars := weekdayBars("7203.T", 10, today.AddDate(0, 0, -1))

	insufficient, reason := testGates().Evaluate(bars, today)
	if insufficient != models.InsufficientNone || reason != models.ReasonNone {
		t.Fatalf("clean series should pass, got %s/%s", insufficient, reason)
	}
}

func TestGatesOrderStaleBeforeShort(t *testing.T) {
	today := time.Date(2025, 8, 27, 9, 0, 0, 0, time.UTC)
	// Both stale and too short; staleness must win.
	bars := weekdayBars("7203.T", 2, today.AddDate(0, 0, -15))

	insufficient, reason := testGates().Evaluate(bars, today)
	if insufficient != models.InsufficientStale || reason != models.ReasonStale {
		t.Fatalf("want STALE first, got %s/%s", insufficient, reason)
	}
}

func TestGatesFreshnessUsesConfiguredZone(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatal(err)
	}
	gates := testGates()
	gates.Location = tokyo

	// Friday close in Tokyo; by Tokyo's Tuesday the series is two trading
	// days behind and must be stale even though the same instant is still
	// Monday in UTC, where the widened Monday allowance would let it pass.
	lastBar := time.Date(2026, 8, 21, 15, 0, 0, 0, tokyo)
	bars := weekdayBars("7203.T", 10, lastBar)
	instant := time.Date(2026, 8, 24, 23, 0, 0, 0, time.UTC)

	for _, today := range []time.Time{instant, instant.In(tokyo)} {
		insufficient, reason := gates.Evaluate(bars, today)
		if insufficient != models.InsufficientStale || reason != models.ReasonStale {
			t.Fatalf("today=%s: want STALE, got %s/%s", today, insufficient, reason)
		}
	}
}

func TestGatesHistoryShort(t *testing.T) {
	today := time.Date(2025, 8, 27, 9, 0, 0, 0, time.UTC)
	bars := weekdayBars("7203.T", 3, today.AddDate(0, 0, -1))

	insufficient, reason := testGates().Evaluate(bars, today)
	if insufficient != models.InsufficientHistoryShort || reason != models.ReasonHistoryShort {
		t.Fatalf("want HISTORY_SHORT, got %s/%s", insufficient, reason)
	}
}

func TestGatesNonTradable(t *testing.T) {
	today := time.Date(2025, 8, 27, 9, 0, 0, 0, time.UTC)

	cheap := weekdayBars("PENNY.T", 10, today.AddDate(0, 0, -1))
	for i := range cheap {
		cheap[i].Open, cheap[i].High, cheap[i].Low, cheap[i].Close = 10, 11, 9, 10
	}
	insufficient, reason := testGates().Evaluate(cheap, today)
	if insufficient != models.InsufficientNone || reason != models.ReasonFilteredNonTradable {
		t.Fatalf("penny ticker: want FILTERED_NON_TRADABLE, got %s/%s", insufficient, reason)
	}

	dead := weekdayBars("DEAD.T", 10, today.AddDate(0, 0, -1))
	for i := range dead {
		dead[i].Volume = 0
	}
	_, reason = testGates().Evaluate(dead, today)
	if reason != models.ReasonFilteredNonTradable {
		t.Fatalf("zero-volume ticker: want FILTERED_NON_TRADABLE, got %s", reason)
	}
}

func TestGatesEmptyBars(t *testing.T) {
	today := time.Date(2025, 8, 27, 9, 0, 0, 0, time.UTC)
	insufficient, reason := testGates().Evaluate(nil, today)
	if insufficient != models.InsufficientNoData || reason != models.ReasonHTTP404NoData {
		t.Fatalf("want NO_DATA, got %s/%s", insufficient, reason)
	}
}
