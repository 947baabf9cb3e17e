// Package analysis runs the candle -> indicator -> state -> opinion pipeline for one asset.
package analysis

import (
	"errors"
	"fmt"
	"log"
	"time"

	"MarketPulse/internal/calculator"
	"MarketPulse/internal/classifier"
	"MarketPulse/internal/model"
	"MarketPulse/internal/resampler"
	"MarketPulse/internal/strategy"
)

// ErrNoData is returned when the base series is empty.
var ErrNoData = errors.New("no candle data")

// Result is everything one run produces. Opinion is nil when synthesis failed.
type Result struct {
	Symbol    string
	Price     float64
	Change1h  model.Value
	Change24h model.Value

	// States holds the classified timeframes in short, medium, long order.
	States  []*model.TimeframeState
	Skipped map[model.Timeframe]error
	Opinion *model.CompositeOpinion
}

// Analyzer holds the three horizons analyzed on every run.
type Analyzer struct {
	Short  model.Timeframe
	Medium model.Timeframe
	Long   model.Timeframe
}

// NewAnalyzer creates an Analyzer for the given short/medium/long timeframes.
func NewAnalyzer(short, medium, long model.Timeframe) *Analyzer {
	return &Analyzer{Short: short, Medium: medium, Long: long}
}

// Timeframes lists the horizons in short, medium, long order.
func (a *Analyzer) Timeframes() []model.Timeframe {
	return []model.Timeframe{a.Short, a.Medium, a.Long}
}

// Run analyzes base (the finest granularity) and returns the result. Each horizon
// uses the longer of base resampled to it and a supplement already at that
// timeframe. Timeframes lacking history are skipped and listed in Result.Skipped.
// When fewer than three survive, the partial result is returned with an error
// wrapping strategy.ErrSynthesisUnavailable.
func (a *Analyzer) Run(base model.Series, supplements ...model.Series) (*Result, error) {
	if base.Len() == 0 {
		return nil, fmt.Errorf("%s: %w", base.Symbol, ErrNoData)
	}
	if err := base.Validate(); err != nil {
		return nil, fmt.Errorf("validate %s %s: %w", base.Symbol, base.Timeframe, err)
	}

	last, _ := base.Last()
	res := &Result{
		Symbol:    base.Symbol,
		Price:     last.Close,
		Change1h:  changeOver(base, time.Hour),
		Change24h: changeOver(base, 24*time.Hour),
		Skipped:   make(map[model.Timeframe]error),
	}

	states := make(map[model.Timeframe]*model.TimeframeState, 3)
	for _, tf := range a.Timeframes() {
		st, err := a.analyzeTimeframe(base, tf, supplements)
		if err != nil {
			log.Printf("[WARN] skipping %s %s: %v", base.Symbol, tf, err)
			res.Skipped[tf] = err
			continue
		}
		states[tf] = st
		res.States = append(res.States, st)
	}

	op, err := strategy.Synthesize(strategy.Timeframes{
		Short:  states[a.Short],
		Medium: states[a.Medium],
		Long:   states[a.Long],
	})
	if err != nil {
		return res, fmt.Errorf("%s: %w", base.Symbol, err)
	}
	res.Opinion = op
	return res, nil
}

func (a *Analyzer) analyzeTimeframe(base model.Series, tf model.Timeframe, supplements []model.Series) (*model.TimeframeState, error) {
	series, err := a.seriesFor(base, tf, supplements)
	if err != nil {
		return nil, err
	}
	ind, err := calculator.Compute(series)
	if err != nil {
		return nil, err
	}
	return classifier.Classify(ind)
}

func (a *Analyzer) seriesFor(base model.Series, tf model.Timeframe, supplements []model.Series) (model.Series, error) {
	var best model.Series
	if base.Timeframe == tf {
		best = base
	} else {
		rs, err := resampler.Resample(base, tf)
		if err != nil {
			return model.Series{}, err
		}
		best = rs
	}
	for _, s := range supplements {
		if s.Timeframe != tf || s.Len() <= best.Len() {
			continue
		}
		if err := s.Validate(); err != nil {
			log.Printf("[WARN] ignoring %s %s supplement: %v", s.Symbol, tf, err)
			continue
		}
		best = s
	}
	return best, nil
}

// changeOver returns the percent change of the latest close against the close
// one span earlier, counted in bars. Undefined when span is not a whole number
// of bars or the series is too short.
func changeOver(s model.Series, span time.Duration) model.Value {
	d, err := s.Timeframe.Duration()
	if err != nil || span < d || span%d != 0 {
		return model.Undefined
	}
	n := int(span / d)
	if s.Len() <= n {
		return model.Undefined
	}
	cur := s.Candles[s.Len()-1].Close
	prev := s.Candles[s.Len()-1-n].Close
	if prev == 0 {
		return model.Undefined
	}
	return model.Some((cur/prev - 1) * 100)
}
