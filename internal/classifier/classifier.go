// Package classifier reduces one timeframe's indicator columns to a qualitative
// TimeframeState: trend, momentum, volatility, volume and nearby price levels.
package classifier

import (
	"fmt"
	"math"

	"MarketPulse/internal/calculator"
	"MarketPulse/internal/model"
)

const (
	// MinRows is the number of fully defined rows a timeframe needs.
	MinRows = 100
	// Window is the trailing row count used for percentiles and levels.
	Window = 100

	histogramLookback = 5
	slopeLookback     = 5
	levelCount        = 5
)

var coreColumns = []string{
	model.MA7, model.MA20, model.MA50,
	model.RSI,
	model.MACD, model.MACDSignal, model.MACDHist,
	model.BBUpper, model.BBLower, model.BBWidth,
	model.ATRPct, model.VolumeMA20,
}

// Classify builds the TimeframeState of the latest row of s. It returns
// calculator.ErrInsufficientHistory when fewer than MinRows rows have every
// core indicator defined.
func Classify(s model.IndicatorSeries) (*model.TimeframeState, error) {
	rows := s.DefinedRows(coreColumns...)
	if rows < MinRows {
		return nil, fmt.Errorf("%s: %d usable rows, need %d: %w", s.Timeframe, rows, MinRows, calculator.ErrInsufficientHistory)
	}
	last := s.Len() - 1
	snap := s.Snapshot(last)
	for _, name := range coreColumns {
		if !snap[name].Defined() {
			return nil, fmt.Errorf("%s: latest %s undefined: %w", s.Timeframe, name, calculator.ErrInsufficientHistory)
		}
	}
	get := func(name string) float64 { return snap[name].Or(math.NaN()) }

	bar := s.Candles[last]
	price := bar.Close
	st := &model.TimeframeState{
		Timeframe: s.Timeframe,
		Price:     price,
		MA7:       get(model.MA7),
		MA20:      get(model.MA20),
		MA50:      get(model.MA50),
		RSI:       get(model.RSI),
		ATRPct:    get(model.ATRPct),
	}

	st.Trend, st.TrendScore = ClassifyTrend(price, st.MA7, st.MA20, st.MA50)
	st.DistMA20Pct = pctChange(st.MA20, price)
	st.DistMA50Pct = pctChange(st.MA50, price)
	if prev, ok := s.At(model.MA20, last-slopeLookback).Get(); ok && prev != 0 {
		st.MA20SlopePct = model.Some(pctChange(prev, st.MA20))
	}

	start := last - Window + 1
	if start < 0 {
		start = 0
	}

	st.RSIStatus = ClassifyRSI(st.RSI)
	st.RSIPercentile, _ = calculator.CalculatePercentileRank(s.Column(model.RSI)[start:], st.RSI)

	if get(model.MACD) > get(model.MACDSignal) {
		st.MACDCross = model.MACDBullish
	} else {
		st.MACDCross = model.MACDBearish
	}
	st.HistogramTrend = model.HistContracting
	if back, ok := s.At(model.MACDHist, last-histogramLookback).Get(); ok {
		if math.Abs(get(model.MACDHist)) > math.Abs(back) {
			st.HistogramTrend = model.HistExpanding
		}
	}

	st.BandPosition, st.BandPct = ClassifyBand(price, get(model.BBUpper), get(model.BBLower))
	st.BandWidthPct = get(model.BBWidth)

	if volMA := get(model.VolumeMA20); volMA > 0 {
		st.VolumeRatio = model.Some(bar.Volume / volMA)
	}
	st.VolumeStatus = ClassifyVolume(st.VolumeRatio)

	st.ATRPercentile, _ = calculator.CalculatePercentileRank(s.Column(model.ATRPct)[start:], st.ATRPct)

	st.Support, st.Resistance = calculator.CalculateSupportResistance(s.Candles[start:], price, levelCount)

	maxDD, latestDD, err := calculator.CalculateDrawdown(s.Closes())
	if err != nil {
		return nil, fmt.Errorf("%s: drawdown: %w", s.Timeframe, err)
	}
	st.MaxDrawdownPct = maxDD
	st.LatestDrawdownPct = latestDD

	return st, nil
}

func pctChange(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	return (to - from) / from * 100
}
