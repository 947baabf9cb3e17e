package calculator

import (
	"gonum.org/v1/gonum/stat"

	"MarketPulse/internal/model"
)

// BollingerBands holds the band columns.
type BollingerBands struct {
	Mid, Upper, Lower, WidthPct []model.Value
}

// CalculateBollinger computes SMA(period) ± k sample standard deviations (n-1 denominator).
// Width is (upper-lower)/mid*100 and is undefined when mid is zero.
func CalculateBollinger(closes []float64, period int, k float64) BollingerBands {
	n := len(closes)
	bb := BollingerBands{
		Mid:      make([]model.Value, n),
		Upper:    make([]model.Value, n),
		Lower:    make([]model.Value, n),
		WidthPct: make([]model.Value, n),
	}
	if period < 2 {
		return bb
	}
	for i := period - 1; i < n; i++ {
		window := closes[i-period+1 : i+1]
		mid, std := stat.MeanStdDev(window, nil)
		upper := mid + k*std
		lower := mid - k*std
		bb.Mid[i] = model.Some(mid)
		bb.Upper[i] = model.Some(upper)
		bb.Lower[i] = model.Some(lower)
		if mid != 0 {
			bb.WidthPct[i] = model.Some((upper - lower) / mid * 100)
		}
	}
	return bb
}
