package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrUnorderedSeries is returned when candle timestamps are not strictly increasing.
var ErrUnorderedSeries = errors.New("candle timestamps not strictly increasing")

// Timeframe is a candle granularity label such as "1h", "4h" or "1d".
type Timeframe string

const (
	TF15m Timeframe = "15m"
	TF1h  Timeframe = "1h"
	TF4h  Timeframe = "4h"
	TF1d  Timeframe = "1d"
	TF1w  Timeframe = "1w"
)

// Duration parses the label. Supported units: m, h, d, w.
func (tf Timeframe) Duration() (time.Duration, error) {
	s := strings.TrimSpace(string(tf))
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid timeframe %q", tf)
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid timeframe %q", tf)
	}
	var unit time.Duration
	switch s[len(s)-1] {
	case 'm':
		unit = time.Minute
	case 'h':
		unit = time.Hour
	case 'd':
		unit = 24 * time.Hour
	case 'w':
		unit = 7 * 24 * time.Hour
	default:
		return 0, fmt.Errorf("invalid timeframe %q", tf)
	}
	return time.Duration(n) * unit, nil
}

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Valid reports whether low <= open,close <= high and volume >= 0.
func (c OHLCV) Valid() bool {
	return c.Low <= c.Open && c.Low <= c.Close &&
		c.Open <= c.High && c.Close <= c.High &&
		c.Volume >= 0
}

// Series holds the ordered candles of one symbol at one timeframe.
type Series struct {
	Symbol    string
	Timeframe Timeframe
	Candles   []OHLCV
}

func (s Series) Len() int { return len(s.Candles) }

// Last returns the most recent candle. ok is false for an empty series.
func (s Series) Last() (OHLCV, bool) {
	if len(s.Candles) == 0 {
		return OHLCV{}, false
	}
	return s.Candles[len(s.Candles)-1], true
}

// Closes extracts the close column.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Close
	}
	return out
}

// Validate checks ordering and the per-candle price invariants.
func (s Series) Validate() error {
	for i, c := range s.Candles {
		if !c.Valid() {
			return fmt.Errorf("candle %d at %s: invalid OHLCV %+v", i, c.Time.Format(time.RFC3339), c)
		}
		if i > 0 && !c.Time.After(s.Candles[i-1].Time) {
			return fmt.Errorf("candle %d at %s: %w", i, c.Time.Format(time.RFC3339), ErrUnorderedSeries)
		}
	}
	return nil
}
