package calculator

import (
	"errors"
	"fmt"

	"MarketPulse/internal/model"
)

// MinBars is the shortest series the engine computes indicators for.
const MinBars = 100

// ErrInsufficientHistory marks a series too short to analyze.
var ErrInsufficientHistory = errors.New("insufficient history")

const (
	rsiPeriod        = 14
	macdFastPeriod   = 12
	macdSlowPeriod   = 26
	macdSignalPeriod = 9
	bollingerPeriod  = 20
	bollingerStdDevs = 2.0
	atrPeriod        = 14
	volumeWindow     = 20
)

var maPeriods = map[string]int{
	model.MA7:   7,
	model.MA20:  20,
	model.MA50:  50,
	model.MA99:  99,
	model.MA200: 200,
}

// Compute derives every indicator column for s and returns a new IndicatorSeries.
// s itself is left untouched. For series shorter than MinBars the result carries
// the candles without columns, together with ErrInsufficientHistory.
func Compute(s model.Series) (model.IndicatorSeries, error) {
	candles := make([]model.OHLCV, len(s.Candles))
	copy(candles, s.Candles)
	out := model.IndicatorSeries{
		Series: model.Series{Symbol: s.Symbol, Timeframe: s.Timeframe, Candles: candles},
	}
	if len(candles) < MinBars {
		return out, fmt.Errorf("%s: %d bars, need %d: %w", s.Timeframe, len(candles), MinBars, ErrInsufficientHistory)
	}

	closes := extractCloses(candles)
	cols := make(map[string][]model.Value, 20)

	for name, period := range maPeriods {
		cols[name] = CalculateSMA(closes, period)
	}

	cols[model.EMA12] = CalculateEMA(closes, macdFastPeriod)
	cols[model.EMA26] = CalculateEMA(closes, macdSlowPeriod)
	cols[model.RSI] = CalculateRSI(closes, rsiPeriod)

	macd := make([]model.Value, len(closes))
	for i := range closes {
		fast, ok1 := cols[model.EMA12][i].Get()
		slow, ok2 := cols[model.EMA26][i].Get()
		if ok1 && ok2 {
			macd[i] = model.Some(fast - slow)
		}
	}
	signal := emaOfColumn(macd, macdSignalPeriod)
	hist := make([]model.Value, len(closes))
	for i := range closes {
		m, ok1 := macd[i].Get()
		sg, ok2 := signal[i].Get()
		if ok1 && ok2 {
			hist[i] = model.Some(m - sg)
		}
	}
	cols[model.MACD] = macd
	cols[model.MACDSignal] = signal
	cols[model.MACDHist] = hist

	bb := CalculateBollinger(closes, bollingerPeriod, bollingerStdDevs)
	cols[model.BBMid] = bb.Mid
	cols[model.BBUpper] = bb.Upper
	cols[model.BBLower] = bb.Lower
	cols[model.BBWidth] = bb.WidthPct

	tr := CalculateTrueRange(candles)
	trCol := make([]model.Value, len(tr))
	for i, v := range tr {
		trCol[i] = model.Some(v)
	}
	cols[model.TR] = trCol
	cols[model.ATR], cols[model.ATRPct] = CalculateATR(candles, atrPeriod)

	cols[model.VolumeMA20] = CalculateSMA(extractVolumes(candles), volumeWindow)

	out.Columns = cols
	return out, nil
}
