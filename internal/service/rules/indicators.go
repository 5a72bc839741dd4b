package rules

import (
	"math"

	"StockScan/internal/domain/models"
)

// Indicator keys produced by Engine.
const (
	KeyClose  = "close"
	KeySMA20  = "sma20"
	KeySMA60  = "sma60"
	KeyATR14  = "atr14"
	KeyRSI14  = "rsi14"
	KeyVol20  = "vol20"
	KeyRet20D = "ret20d"
)

// Engine is a pure technical-indicator calculator over ascending daily
// bars. Indicators whose lookback exceeds the available history are
// reported in Missing rather than failing the whole snapshot; only an
// empty or unusable series yields nil.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

func (e *Engine) Compute(bars []models.BarDaily) *models.IndicatorSnapshot {
	if len(bars) == 0 {
		return nil
	}
	last := bars[len(bars)-1]
	if last.Close <= 0 || math.IsNaN(last.Close) {
		return nil
	}

	snap := &models.IndicatorSnapshot{
		Ticker: last.Ticker,
		Values: map[string]float64{KeyClose: last.Close},
	}

	put := func(key string, v float64, ok bool) {
		if ok && !math.IsNaN(v) && !math.IsInf(v, 0) {
			snap.Values[key] = v
		} else {
			snap.Missing = append(snap.Missing, key)
		}
	}

	v, ok := sma(bars, 20)
	put(KeySMA20, v, ok)
	v, ok = sma(bars, 60)
	put(KeySMA60, v, ok)
	v, ok = atr(bars, 14)
	put(KeyATR14, v, ok)
	v, ok = rsi(bars, 14)
	put(KeyRSI14, v, ok)
	v, ok = avgVolume(bars, 20)
	put(KeyVol20, v, ok)
	v, ok = trailingReturn(bars, 20)
	put(KeyRet20D, v, ok)
	return snap
}

func sma(bars []models.BarDaily, n int) (float64, bool) {
	if len(bars) < n {
		return 0, false
	}
	var sum float64
	for _, b := range bars[len(bars)-n:] {
		sum += b.Close
	}
	return sum / float64(n), true
}

// atr is the Wilder average true range over the last n+1 bars.
func atr(bars []models.BarDaily, n int) (float64, bool) {
	if len(bars) < n+1 {
		return 0, false
	}
	window := bars[len(bars)-n-1:]
	var sum float64
	for i := 1; i < len(window); i++ {
		sum += trueRange(window[i], window[i-1])
	}
	return sum / float64(n), true
}

func trueRange(cur, prev models.BarDaily) float64 {
	hl := cur.High - cur.Low
	hc := math.Abs(cur.High - prev.Close)
	lc := math.Abs(cur.Low - prev.Close)
	return math.Max(hl, math.Max(hc, lc))
}

func rsi(bars []models.BarDaily, n int) (float64, bool) {
	if len(bars) < n+1 {
		return 0, false
	}
	window := bars[len(bars)-n-1:]
	var gains, losses float64
	for i := 1; i < len(window); i++ {
		diff := window[i].Close - window[i-1].Close
		if diff > 0 {
			gains += diff
		} else {
			losses -= diff
		}
	}
	if losses == 0 {
		return 100, true
	}
	rs := gains / losses
	return 100 - 100/(1+rs), true
}

func avgVolume(bars []models.BarDaily, n int) (float64, bool) {
	if len(bars) < n {
		return 0, false
	}
	var sum float64
	for _, b := range bars[len(bars)-n:] {
		sum += float64(b.Volume)
	}
	return sum / float64(n), true
}

func trailingReturn(bars []models.BarDaily, n int) (float64, bool) {
	if len(bars) < n+1 {
		return 0, false
	}
	base := bars[len(bars)-n-1].Close
	if base <= 0 {
		return 0, false
	}
	return bars[len(bars)-1].Close/base - 1, true
}
