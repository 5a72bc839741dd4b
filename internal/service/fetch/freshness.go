package fetch

import (
	"time"

	"StockScan/internal/domain/models"
	"StockScan/pkg/util"
)

// EffectiveFreshDays widens the allowed bar age around non-trading days.
// Monday tolerates the whole weekend plus Friday's bar, Sunday one day
// less, and a weekend day never tolerates less than two days even when
// the base allowance is tighter.
func EffectiveFreshDays(today time.Time, baseDays int) int {
	days := baseDays
	switch today.Weekday() {
	case time.Monday:
		days = baseDays + 2
	case time.Sunday:
		days = baseDays + 1
	}
	if util.IsWeekend(today) && days < 2 {
		days = 2
	}
	return days
}

// IsFresh reports whether the newest bar is recent enough to serve without
// a live fetch. Empty history is never fresh. The day-of-week widening is
// evaluated in loc, whatever zone the caller's clock runs in.
func IsFresh(bars []models.BarDaily, today time.Time, baseDays int, loc *time.Location) bool {
	if loc != nil {
		today = today.In(loc)
	}
	last := models.LastBarDate(bars)
	if last.IsZero() {
		return false
	}
	gap := util.TradingDaysBetween(util.DateOnly(last, loc), util.DateOnly(today, loc))
	return gap <= EffectiveFreshDays(today, baseDays)
}
