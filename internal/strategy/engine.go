package strategy

import (
	"errors"
	"fmt"

	"MarketPulse/internal/model"
)

// ErrSynthesisUnavailable is returned when a timeframe state is missing.
var ErrSynthesisUnavailable = errors.New("synthesis unavailable: need short, medium and long timeframes")

// Timeframes groups the three classified horizons.
type Timeframes struct {
	Short  *model.TimeframeState
	Medium *model.TimeframeState
	Long   *model.TimeframeState
}

func (t Timeframes) missing() []string {
	var out []string
	if t.Short == nil {
		out = append(out, "short")
	}
	if t.Medium == nil {
		out = append(out, "medium")
	}
	if t.Long == nil {
		out = append(out, "long")
	}
	return out
}

// viewRules is evaluated in order; the first matching rule decides the view.
var viewRules = []struct {
	match func(Timeframes) bool
	view  model.View
	notes func(Timeframes) []string
}{
	{
		match: func(t Timeframes) bool { return t.Short.Trend.Bullish() && t.Medium.Trend.Bullish() && t.Long.Trend.Bullish() },
		view:  model.ViewBullish,
	},
	{
		match: func(t Timeframes) bool { return t.Short.Trend.Bearish() && t.Medium.Trend.Bearish() && t.Long.Trend.Bearish() },
		view:  model.ViewBearish,
	},
	{
		match: func(t Timeframes) bool { return t.Long.Trend.Bearish() },
		view:  model.ViewBearish,
		notes: counterTrendNotes,
	},
	{
		match: func(t Timeframes) bool { return t.Long.Trend.Bullish() },
		view:  model.ViewBullish,
		notes: pullbackNotes,
	},
}

// Synthesize combines the three timeframe states into one opinion.
// It is a pure function of its input.
func Synthesize(tf Timeframes) (*model.CompositeOpinion, error) {
	if m := tf.missing(); len(m) > 0 {
		return nil, fmt.Errorf("missing %v: %w", m, ErrSynthesisUnavailable)
	}

	op := &model.CompositeOpinion{
		View:              model.ViewNeutral,
		MaxDrawdownPct:    tf.Long.MaxDrawdownPct,
		LatestDrawdownPct: tf.Long.LatestDrawdownPct,
	}
	for _, r := range viewRules {
		if r.match(tf) {
			op.View = r.view
			if r.notes != nil {
				op.ViewNotes = r.notes(tf)
			}
			break
		}
	}

	op.Momentum = momentumLines(tf)
	op.Overlay, op.OverlayNote = momentumOverlay(tf)
	op.Strategy = strategyText(op.View, op.Overlay, tf)
	op.Risks = evaluateRisks(tf)
	return op, nil
}

func counterTrendNotes(t Timeframes) []string {
	var notes []string
	for _, st := range []*model.TimeframeState{t.Short, t.Medium} {
		if st.RSI > 50 {
			notes = append(notes, fmt.Sprintf("%s RSI %.1f above 50: possible counter-trend bounce, not a reversal", st.Timeframe, st.RSI))
		}
	}
	return notes
}

func pullbackNotes(t Timeframes) []string {
	var notes []string
	for _, st := range []*model.TimeframeState{t.Short, t.Medium} {
		if st.RSI < 50 {
			notes = append(notes, fmt.Sprintf("%s RSI %.1f below 50: possible pullback within the uptrend", st.Timeframe, st.RSI))
		}
	}
	return notes
}
