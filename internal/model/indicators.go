package model

import "math"

// Indicator column names.
const (
	MA7        = "MA7"
	MA20       = "MA20"
	MA50       = "MA50"
	MA99       = "MA99"
	MA200      = "MA200"
	EMA12      = "EMA12"
	EMA26      = "EMA26"
	RSI        = "RSI"
	MACD       = "MACD"
	MACDSignal = "MACD_signal"
	MACDHist   = "MACD_hist"
	BBMid      = "BB_mid"
	BBUpper    = "BB_upper"
	BBLower    = "BB_lower"
	BBWidth    = "BB_width"
	TR         = "TR"
	ATR        = "ATR"
	ATRPct     = "ATR_pct"
	VolumeMA20 = "VOL_MA20"
)

// Value is an indicator reading that may be undefined (not enough history yet).
// The zero Value is undefined.
type Value struct {
	v  float64
	ok bool
}

// Some wraps a defined reading. NaN and infinities are treated as undefined.
func Some(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}
	}
	return Value{v: v, ok: true}
}

// Undefined is the missing reading.
var Undefined = Value{}

func (x Value) Get() (float64, bool) { return x.v, x.ok }
func (x Value) Defined() bool        { return x.ok }

// Or returns the reading, or def when undefined.
func (x Value) Or(def float64) float64 {
	if !x.ok {
		return def
	}
	return x.v
}

// IndicatorSeries is a candle series with derived columns attached.
// Columns are index-aligned with Candles.
type IndicatorSeries struct {
	Series
	Columns map[string][]Value
}

// Column returns the named column, or nil if it was not computed.
func (s IndicatorSeries) Column(name string) []Value {
	return s.Columns[name]
}

// At returns the value of a column at row i.
func (s IndicatorSeries) At(name string, i int) Value {
	col := s.Columns[name]
	if i < 0 || i >= len(col) {
		return Undefined
	}
	return col[i]
}

// Snapshot returns every indicator value for row i.
func (s IndicatorSeries) Snapshot(i int) map[string]Value {
	snap := make(map[string]Value, len(s.Columns))
	for name := range s.Columns {
		snap[name] = s.At(name, i)
	}
	return snap
}

// DefinedRows counts rows where all of the given columns are defined.
func (s IndicatorSeries) DefinedRows(names ...string) int {
	n := 0
	for i := range s.Candles {
		ok := true
		for _, name := range names {
			if !s.At(name, i).Defined() {
				ok = false
				break
			}
		}
		if ok {
			n++
		}
	}
	return n
}
