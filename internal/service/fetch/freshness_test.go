package fetch

import (
	"testing"
	"time"
)

func TestEffectiveFreshDaysWithBaseOne(t *testing.T) {
	// 2025-08-25 is a Monday.
	monday := time.Date(2025, 8, 25, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		day  time.Time
		want int
	}{
		{monday, 3},
		{monday.AddDate(0, 0, 1), 1}, // Tuesday
		{monday.AddDate(0, 0, 2), 1}, // Wednesday
		{monday.AddDate(0, 0, 3), 1}, // Thursday
		{monday.AddDate(0, 0, 4), 1}, // Friday
		{monday.AddDate(0, 0, 5), 2}, // Saturday, weekend floor
		{monday.AddDate(0, 0, 6), 2}, // Sunday
	}
	for _, c := range cases {
		if got := EffectiveFreshDays(c.day, 1); got != c.want {
			t.Fatalf("%s: want %d, got %d", c.day.Weekday(), c.want, got)
		}
	}
}

func TestEffectiveFreshDaysWeekendFloor(t *testing.T) {
	saturday := time.Date(2025, 8, 23, 9, 0, 0, 0, time.UTC)
	sunday := saturday.AddDate(0, 0, 1)

	for base := 1; base <= 4; base++ {
		if got := EffectiveFreshDays(saturday, base); got < 2 {
			t.Fatalf("saturday base %d: allowance %d below weekend floor", base, got)
		}
		if got := EffectiveFreshDays(sunday, base); got < 2 {
			t.Fatalf("sunday base %d: allowance %d below weekend floor", base, got)
		}
	}
}

func TestIsFreshAcrossWeekend(t *testing.T) {
	loc := time.UTC
	friday := time.Date(2025, 8, 22, 0, 0, 0, 0, loc)
	monday := friday.AddDate(0, 0, 3)
	tuesday := friday.AddDate(0, 0, 4)

	bars := weekdayBars("7203.T", 5, friday)

	if !IsFresh(bars, monday, 1, loc) {
		t.Fatalf("friday bar should be fresh on monday")
	}
	if !IsFresh(bars, tuesday, 1, loc) {
		t.Fatalf("friday bar is one trading day old on tuesday")
	}
	if IsFresh(bars, friday.AddDate(0, 0, 6), 1, loc) {
		t.Fatalf("friday bar should be stale the following thursday")
	}
	if IsFresh(nil, monday, 1, loc) {
		t.Fatalf("empty history must never be fresh")
	}
}
