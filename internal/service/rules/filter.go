package rules

import (
	"StockScan/internal/domain/models"
	"StockScan/internal/domain/repository"
)

// TrendFilter passes tickers trading above their 20-day average with the
// short average above the long one. It is pure: same bars and snapshot,
// same decision.
type TrendFilter struct{}

func NewTrendFilter() *TrendFilter {
	return &TrendFilter{}
}

func (f *TrendFilter) Evaluate(bars []models.BarDaily, snap *models.IndicatorSnapshot) repository.Decision {
	d := repository.Decision{Passed: true, Metrics: map[string]float64{}}

	close, ok := snap.Values[KeyClose]
	if !ok {
		return reject(d, "close_unavailable")
	}
	sma20, ok := snap.Values[KeySMA20]
	if !ok {
		return reject(d, "sma20_unavailable")
	}
	d.Metrics["close"] = close
	d.Metrics["sma20"] = sma20

	if close < sma20 {
		return reject(d, "close_below_sma20")
	}
	if sma60, ok := snap.Values[KeySMA60]; ok {
		d.Metrics["sma60"] = sma60
		if sma20 < sma60 {
			return reject(d, "sma20_below_sma60")
		}
	}
	return d
}

func reject(d repository.Decision, reason string) repository.Decision {
	d.Passed = false
	d.Reasons = append(d.Reasons, reason)
	return d
}
