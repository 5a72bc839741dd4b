package rules

import (
	"math"

	"StockScan/internal/domain/models"
	"StockScan/internal/domain/repository"
)

// MomentumScorer ranks candidates by trailing return, boosted by trend
// strength and discounted by the volatility measured during the risk
// check. Scores are clamped to [0, 100].
type MomentumScorer struct{}

func NewMomentumScorer() *MomentumScorer {
	return &MomentumScorer{}
}

func (s *MomentumScorer) Score(bars []models.BarDaily, snap *models.IndicatorSnapshot, risk repository.Decision) (float64, repository.Decision) {
	d := repository.Decision{Passed: true, Metrics: map[string]float64{}}

	ret, ok := snap.Values[KeyRet20D]
	if !ok {
		d.Passed = false
		d.Reasons = append(d.Reasons, "ret20d_unavailable")
		return 0, d
	}

	score := 50 + ret*200
	d.Metrics["ret20d"] = ret

	if rsi14, ok := snap.Values[KeyRSI14]; ok {
		d.Metrics["rsi14"] = rsi14
		// Overbought and oversold extremes both pull the score in.
		score -= math.Abs(rsi14-60) * 0.3
	}
	if atrRatio, ok := risk.Metrics["atr_ratio"]; ok {
		d.Metrics["atr_ratio"] = atrRatio
		score -= atrRatio * 150
	}

	score = math.Max(0, math.Min(100, score))
	d.Metrics["score"] = score
	return score, d
}
