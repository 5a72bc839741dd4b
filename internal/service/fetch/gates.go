package fetch

import (
	"time"

	"StockScan/internal/domain/models"
)

// Gates runs the post-fetch data-quality checks in a fixed order:
// freshness, then history depth, then tradability. The first failing gate
// determines the scan failure reason and later gates are skipped.
type Gates struct {
	BaseFreshDays  int
	MinHistoryBars int
	MinPrice       float64
	MinAvgVolume   float64
	MaxZeroVolDays int
	MaxFlatDays    int
	LookbackDays   int
	Location       *time.Location
}

// Evaluate classifies bars against the three gates. It returns the
// insufficiency kind for checkpoint-facing bookkeeping and the scan
// failure reason for the run histogram. Both are NONE when all gates pass.
func (g *Gates) Evaluate(bars []models.BarDaily, today time.Time) (models.DataInsufficientReason, models.ScanFailureReason) {
	if len(bars) == 0 {
		return models.InsufficientNoData, models.ReasonHTTP404NoData
	}
	if !IsFresh(bars, today, g.BaseFreshDays, g.Location) {
		return models.InsufficientStale, models.ReasonStale
	}
	if len(bars) < g.MinHistoryBars {
		return models.InsufficientHistoryShort, models.ReasonHistoryShort
	}
	if !g.tradable(bars) {
		return models.InsufficientNone, models.ReasonFilteredNonTradable
	}
	return models.InsufficientNone, models.ReasonNone
}

// tradable applies the liquidity and shape checks over the lookback
// window: last close above the price floor, average volume above the
// floor, and bounded counts of zero-volume and flat (high == low) days.
func (g *Gates) tradable(bars []models.BarDaily) bool {
	window := bars
	if g.LookbackDays > 0 && len(bars) > g.LookbackDays {
		window = bars[len(bars)-g.LookbackDays:]
	}

	last := window[len(window)-1]
	if last.Close < g.MinPrice {
		return false
	}

	var volSum float64
	zeroVol, flat := 0, 0
	for _, b := range window {
		volSum += float64(b.Volume)
		if b.Volume == 0 {
			zeroVol++
		}
		if b.IsFlat() {
			flat++
		}
	}
	if volSum/float64(len(window)) < g.MinAvgVolume {
		return false
	}
	if zeroVol > g.MaxZeroVolDays {
		return false
	}
	if flat > g.MaxFlatDays {
		return false
	}
	return true
}

// usableCachedShape rejects degenerate cached history that would satisfy
// the freshness and depth gates while being obviously dead data, such as
// a series that never traded.
func usableCachedShape(bars []models.BarDaily) bool {
	if len(bars) == 0 {
		return false
	}
	allZero, allFlat := true, true
	for _, b := range bars {
		if b.Volume > 0 {
			allZero = false
		}
		if !b.IsFlat() {
			allFlat = false
		}
		if !allZero && !allFlat {
			return true
		}
	}
	return false
}
