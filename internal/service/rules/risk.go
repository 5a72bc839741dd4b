package rules

import (
	"StockScan/internal/domain/models"
	"StockScan/internal/domain/repository"
)

// VolatilityRisk rejects tickers whose daily range is too wide relative
// to price. The ATR ratio it computes is reused by the scorer as a
// penalty input.
type VolatilityRisk struct {
	MaxATRRatio float64
}

func NewVolatilityRisk(maxATRRatio float64) *VolatilityRisk {
	if maxATRRatio <= 0 {
		maxATRRatio = 0.08
	}
	return &VolatilityRisk{MaxATRRatio: maxATRRatio}
}

func (r *VolatilityRisk) Evaluate(bars []models.BarDaily, snap *models.IndicatorSnapshot) repository.Decision {
	d := repository.Decision{Passed: true, Metrics: map[string]float64{}}

	close, ok := snap.Values[KeyClose]
	if !ok || close <= 0 {
		return reject(d, "close_unavailable")
	}
	atr14, ok := snap.Values[KeyATR14]
	if !ok {
		return reject(d, "atr14_unavailable")
	}

	ratio := atr14 / close
	d.Metrics["atr_ratio"] = ratio
	if ratio > r.MaxATRRatio {
		return reject(d, "atr_ratio_above_max")
	}
	return d
}
