package calculator

import (
	"errors"
	"sort"

	"MarketPulse/internal/model"
)

// CalculateDrawdown tracks the running peak close and returns the deepest
// drawdown and the latest one, both as percentages (<= 0).
func CalculateDrawdown(closes []float64) (maxDD, latest float64, err error) {
	if len(closes) == 0 {
		return 0, 0, errors.New("no closes provided")
	}
	peak := closes[0]
	for _, c := range closes {
		if c > peak {
			peak = c
		}
		dd := 0.0
		if peak > 0 {
			dd = (c - peak) / peak * 100
		}
		if dd < maxDD {
			maxDD = dd
		}
		latest = dd
	}
	return maxDD, latest, nil
}

// CalculatePercentileRank returns the share (0-100) of defined values in window
// that are strictly below current.
func CalculatePercentileRank(window []model.Value, current float64) (float64, error) {
	total, below := 0, 0
	for _, v := range window {
		x, ok := v.Get()
		if !ok {
			continue
		}
		total++
		if x < current {
			below++
		}
	}
	if total == 0 {
		return 0, errors.New("no defined values in window")
	}
	return float64(below) / float64(total) * 100, nil
}

// CalculateSupportResistance takes the n highest highs and n lowest lows in bars.
// Resistance is the smallest of those highs above price, support the largest of
// those lows below it. Either may be undefined.
func CalculateSupportResistance(bars []model.OHLCV, price float64, n int) (support, resistance model.Value) {
	if len(bars) == 0 || n <= 0 {
		return model.Undefined, model.Undefined
	}
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(highs)))
	sort.Float64s(lows)
	if n > len(bars) {
		n = len(bars)
	}

	for _, h := range highs[:n] {
		if h > price && (!resistance.Defined() || h < resistance.Or(h)) {
			resistance = model.Some(h)
		}
	}
	for _, l := range lows[:n] {
		if l < price && (!support.Defined() || l > support.Or(l)) {
			support = model.Some(l)
		}
	}
	return support, resistance
}
