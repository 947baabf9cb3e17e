package calculator

import (
	"gonum.org/v1/gonum/stat"

	"MarketPulse/internal/model"
)

// CalculateRSI returns the RSI column using plain rolling means (not Wilder smoothing)
// of the last period close-to-close gains and losses. Row i is defined once period
// real deltas are available, i.e. from row period onward. Row period-1 stays
// undefined: its window would need a delta before the first close, and it is not
// padded with a zero. RSI(14) therefore warms up one row later than MA(14).
//
// Degenerate windows: no losses and some gains -> 100; no movement at all -> 50.
func CalculateRSI(closes []float64, period int) []model.Value {
	out := make([]model.Value, len(closes))
	if period <= 0 || len(closes) <= period {
		return out
	}
	gains := make([]float64, len(closes)-1)
	losses := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i-1] = change
		} else {
			losses[i-1] = -change
		}
	}
	for i := period; i < len(closes); i++ {
		// deltas ending at row i live at indexes [i-period, i-1]
		avgGain := stat.Mean(gains[i-period:i], nil)
		avgLoss := stat.Mean(losses[i-period:i], nil)
		out[i] = model.Some(rsiFromAverages(avgGain, avgLoss))
	}
	return out
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50.0
		}
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
