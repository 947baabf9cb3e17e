package classifier

import "MarketPulse/internal/model"

// Each table is checked top to bottom; the first matching rule wins.

type trendRule struct {
	match func(c, ma7, ma20, ma50 float64) bool
	trend model.Trend
	score int
}

var trendTable = []trendRule{
	{func(c, m7, m20, m50 float64) bool { return c > m7 && m7 > m20 && m20 > m50 }, model.TrendStrongUp, 5},
	{func(c, m7, m20, _ float64) bool { return c > m7 && m7 > m20 }, model.TrendUp, 4},
	{func(c, _, _, m50 float64) bool { return c > m50 }, model.TrendWeakUp, 3},
	{func(c, m7, m20, m50 float64) bool { return c < m7 && m7 < m20 && m20 < m50 }, model.TrendStrongDown, 1},
	{func(c, m7, m20, _ float64) bool { return c < m7 && m7 < m20 }, model.TrendDown, 2},
}

// ClassifyTrend maps the price/MA alignment to a trend and its score (1-5).
func ClassifyTrend(price, ma7, ma20, ma50 float64) (model.Trend, int) {
	for _, r := range trendTable {
		if r.match(price, ma7, ma20, ma50) {
			return r.trend, r.score
		}
	}
	return model.TrendRange, 3
}

var rsiTable = []struct {
	above  float64
	status model.RSIStatus
}{
	{70, model.RSIOverbought},
	{60, model.RSIStrong},
	{50, model.RSINeutralUpper},
	{40, model.RSINeutralLower},
	{30, model.RSIWeak},
}

func ClassifyRSI(rsi float64) model.RSIStatus {
	for _, r := range rsiTable {
		if rsi > r.above {
			return r.status
		}
	}
	return model.RSIOversold
}

var volumeTable = []struct {
	above  float64
	status model.VolumeStatus
}{
	{2.0, model.VolumeExplosive},
	{1.5, model.VolumeHigh},
	{1.2, model.VolumeElevated},
	{0.8, model.VolumeNormal},
}

func ClassifyVolume(ratio model.Value) model.VolumeStatus {
	r, ok := ratio.Get()
	if !ok {
		return model.VolumeUnknown
	}
	for _, v := range volumeTable {
		if r > v.above {
			return v.status
		}
	}
	return model.VolumeLow
}

// ClassifyBand places price relative to the Bollinger envelope. pct is the
// position inside the band in percent and is undefined outside it. A collapsed
// band (upper == lower) counts as mid-band at 50%.
func ClassifyBand(price, upper, lower float64) (model.BandPosition, model.Value) {
	switch {
	case price > upper:
		return model.BandOverextendedHigh, model.Undefined
	case price < lower:
		return model.BandOverextendedLow, model.Undefined
	}
	if upper == lower {
		return model.BandMid, model.Some(50)
	}
	pct := (price - lower) / (upper - lower) * 100
	switch {
	case pct >= 80:
		return model.BandNearUpper, model.Some(pct)
	case pct <= 20:
		return model.BandNearLower, model.Some(pct)
	default:
		return model.BandMid, model.Some(pct)
	}
}
