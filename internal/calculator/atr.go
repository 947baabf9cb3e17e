package calculator

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"MarketPulse/internal/model"
)

// CalculateTrueRange returns max(high-low, |high-prevClose|, |low-prevClose|) per bar.
// The first bar has no previous close and uses high-low.
func CalculateTrueRange(bars []model.OHLCV) []float64 {
	tr := make([]float64, len(bars))
	for i, b := range bars {
		if i == 0 {
			tr[i] = b.High - b.Low
			continue
		}
		prev := bars[i-1].Close
		tr[i] = floats.Max([]float64{b.High - b.Low, math.Abs(b.High - prev), math.Abs(b.Low - prev)})
	}
	return tr
}

// CalculateATR returns the rolling simple mean of true range over period, and
// ATR as a percentage of close.
func CalculateATR(bars []model.OHLCV, period int) (atr, atrPct []model.Value) {
	atr = CalculateSMA(CalculateTrueRange(bars), period)
	atrPct = make([]model.Value, len(bars))
	for i, v := range atr {
		a, ok := v.Get()
		if !ok || bars[i].Close == 0 {
			continue
		}
		atrPct[i] = model.Some(a / bars[i].Close * 100)
	}
	return atr, atrPct
}
