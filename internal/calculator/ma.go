package calculator

import (
	"gonum.org/v1/gonum/stat"

	"MarketPulse/internal/model"
)

// CalculateSMA returns the rolling simple moving average of values over period.
// The first period-1 entries are undefined.
func CalculateSMA(values []float64, period int) []model.Value {
	out := make([]model.Value, len(values))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		out[i] = model.Some(stat.Mean(values[i-period+1:i+1], nil))
	}
	return out
}

// CalculateEMA returns the exponential moving average with alpha = 2/(span+1),
// seeded with the first value: EMA[0] = v[0], EMA[t] = a*v[t] + (1-a)*EMA[t-1].
func CalculateEMA(values []float64, span int) []model.Value {
	out := make([]model.Value, len(values))
	if len(values) == 0 || span <= 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)
	prev := values[0]
	out[0] = model.Some(prev)
	for i := 1; i < len(values); i++ {
		prev = alpha*values[i] + (1-alpha)*prev
		out[i] = model.Some(prev)
	}
	return out
}

// emaOfColumn applies CalculateEMA to a column that may have a leading undefined run.
// The EMA is seeded at the first defined row; earlier rows stay undefined.
func emaOfColumn(col []model.Value, span int) []model.Value {
	out := make([]model.Value, len(col))
	start := -1
	for i, v := range col {
		if v.Defined() {
			start = i
			break
		}
	}
	if start < 0 {
		return out
	}
	vals := make([]float64, 0, len(col)-start)
	for _, v := range col[start:] {
		vals = append(vals, v.Or(0))
	}
	copy(out[start:], CalculateEMA(vals, span))
	return out
}

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

func extractVolumes(bars []model.OHLCV) []float64 {
	vols := make([]float64, len(bars))
	for i, b := range bars {
		vols[i] = b.Volume
	}
	return vols
}
