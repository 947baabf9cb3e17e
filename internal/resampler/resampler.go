// Package resampler aggregates a candle series into a coarser timeframe.
// Buckets are aligned to the Unix epoch in UTC: bucket = ts - ts%tf.
package resampler

import (
	"errors"
	"fmt"
	"time"

	"MarketPulse/internal/model"
)

// ErrIncompatibleTimeframe is returned when the target is not a whole multiple of the source.
var ErrIncompatibleTimeframe = errors.New("target timeframe is not a multiple of the source timeframe")

// Resample merges consecutive candles of s into buckets of the target timeframe.
// open = first open, close = last close, high = max, low = min, volume = sum.
// Buckets without source candles are dropped, never forward-filled.
func Resample(s model.Series, target model.Timeframe) (model.Series, error) {
	src, err := s.Timeframe.Duration()
	if err != nil {
		return model.Series{}, fmt.Errorf("source: %w", err)
	}
	dst, err := target.Duration()
	if err != nil {
		return model.Series{}, fmt.Errorf("target: %w", err)
	}
	if dst < src || dst%src != 0 {
		return model.Series{}, fmt.Errorf("%s -> %s: %w", s.Timeframe, target, ErrIncompatibleTimeframe)
	}

	out := model.Series{Symbol: s.Symbol, Timeframe: target}
	if len(s.Candles) == 0 {
		return out, nil
	}
	out.Candles = make([]model.OHLCV, 0, len(s.Candles)/int(dst/src)+1)

	tf := int64(dst / time.Second)
	var (
		cur     model.OHLCV
		bucket  int64
		started bool
		prev    time.Time
	)
	for i, c := range s.Candles {
		if i > 0 && !c.Time.After(prev) {
			return model.Series{}, fmt.Errorf("candle %d: %w", i, model.ErrUnorderedSeries)
		}
		prev = c.Time

		ts := c.Time.Unix()
		b := ts - mod(ts, tf)

		if started && b != bucket {
			out.Candles = append(out.Candles, cur)
			started = false
		}
		if !started {
			bucket = b
			cur = model.OHLCV{
				Time:   time.Unix(b, 0).UTC(),
				Open:   c.Open,
				High:   c.High,
				Low:    c.Low,
				Close:  c.Close,
				Volume: c.Volume,
			}
			started = true
			continue
		}

		if c.High > cur.High {
			cur.High = c.High
		}
		if c.Low < cur.Low {
			cur.Low = c.Low
		}
		cur.Close = c.Close
		cur.Volume += c.Volume
	}
	if started {
		out.Candles = append(out.Candles, cur)
	}
	return out, nil
}

// mod is a floored modulo so pre-epoch timestamps land in the right bucket.
func mod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
