package strategy

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"MarketPulse/internal/model"
)

var trendByScore = map[int]model.Trend{
	5: model.TrendStrongUp,
	4: model.TrendUp,
	3: model.TrendRange,
	2: model.TrendDown,
	1: model.TrendStrongDown,
}

func state(tf model.Timeframe, score int, rsi float64) *model.TimeframeState {
	return &model.TimeframeState{
		Timeframe:     tf,
		Price:         100,
		MA20:          98,
		Trend:         trendByScore[score],
		TrendScore:    score,
		RSI:           rsi,
		RSIPercentile: 50,
		MACDCross:     model.MACDBullish,
		VolumeRatio:   model.Some(1),
		ATRPercentile: 40,
		Support:       model.Some(95),
		Resistance:    model.Some(110),
	}
}

func frames(scores [3]int, rsis [3]float64) Timeframes {
	return Timeframes{
		Short:  state(model.TF1h, scores[0], rsis[0]),
		Medium: state(model.TF4h, scores[1], rsis[1]),
		Long:   state(model.TF1d, scores[2], rsis[2]),
	}
}

func TestSynthesize_AllBullish(t *testing.T) {
	op, err := Synthesize(frames([3]int{5, 5, 5}, [3]float64{60, 60, 60}))
	if err != nil {
		t.Fatal(err)
	}
	if op.View != model.ViewBullish {
		t.Fatalf("expected bullish, got %s", op.View)
	}
	if !strings.Contains(op.Strategy, "1d support") || !strings.Contains(op.Strategy, "1d resistance") {
		t.Errorf("strategy should reference long-timeframe levels: %s", op.Strategy)
	}
	if !strings.Contains(op.Strategy, "95.00") || !strings.Contains(op.Strategy, "110.00") {
		t.Errorf("strategy should carry level prices: %s", op.Strategy)
	}
	if len(op.ViewNotes) != 0 {
		t.Errorf("unexpected notes: %v", op.ViewNotes)
	}
}

func TestSynthesize_AllBearish(t *testing.T) {
	op, err := Synthesize(frames([3]int{1, 1, 1}, [3]float64{40, 40, 40}))
	if err != nil {
		t.Fatal(err)
	}
	if op.View != model.ViewBearish {
		t.Fatalf("expected bearish, got %s", op.View)
	}
	if !strings.HasPrefix(op.Strategy, "Stand aside") {
		t.Errorf("unexpected strategy: %s", op.Strategy)
	}
}

func TestSynthesize_LongBearishOversold(t *testing.T) {
	op, err := Synthesize(frames([3]int{5, 3, 1}, [3]float64{62, 45, 25}))
	if err != nil {
		t.Fatal(err)
	}
	if op.View != model.ViewBearish {
		t.Fatalf("expected bearish, got %s", op.View)
	}
	if op.Overlay != model.OverlayOversold || !strings.Contains(op.OverlayNote, "technical bounce") {
		t.Errorf("expected technical bounce overlay, got %q %q", op.Overlay, op.OverlayNote)
	}
	if !strings.Contains(op.OverlayNote, "weakened") {
		t.Errorf("medium RSI below 50 should weaken the bounce: %s", op.OverlayNote)
	}
	if !strings.HasPrefix(op.Strategy, "Speculative bounce only") {
		t.Errorf("unexpected strategy: %s", op.Strategy)
	}
	if len(op.ViewNotes) != 1 || !strings.Contains(op.ViewNotes[0], "1h") || !strings.Contains(op.ViewNotes[0], "not a reversal") {
		t.Errorf("expected a single 1h counter-trend note, got %v", op.ViewNotes)
	}
}

func TestSynthesize_OversoldStrengthened(t *testing.T) {
	op, err := Synthesize(frames([3]int{3, 3, 1}, [3]float64{55, 52, 28}))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(op.OverlayNote, "strengthened") {
		t.Errorf("expected strengthened bounce, got %s", op.OverlayNote)
	}
}

func TestSynthesize_LongBullishPullback(t *testing.T) {
	op, err := Synthesize(frames([3]int{2, 3, 4}, [3]float64{35, 48, 75}))
	if err != nil {
		t.Fatal(err)
	}
	if op.View != model.ViewBullish {
		t.Fatalf("expected bullish, got %s", op.View)
	}
	if len(op.ViewNotes) != 2 {
		t.Errorf("expected pullback notes for 1h and 4h, got %v", op.ViewNotes)
	}
	if op.Overlay != model.OverlayOverbought || !strings.Contains(op.OverlayNote, "strengthened") {
		t.Errorf("expected strengthened pullback warning, got %q %q", op.Overlay, op.OverlayNote)
	}
}

func TestSynthesize_Neutral(t *testing.T) {
	op, err := Synthesize(frames([3]int{5, 4, 3}, [3]float64{55, 55, 55}))
	if err != nil {
		t.Fatal(err)
	}
	if op.View != model.ViewNeutral {
		t.Fatalf("expected neutral, got %s", op.View)
	}
	if !strings.HasPrefix(op.Strategy, "Wait for a breakout") {
		t.Errorf("unexpected strategy: %s", op.Strategy)
	}
	if op.Overlay != model.OverlayNone || op.OverlayNote != "" {
		t.Errorf("unexpected overlay %q %q", op.Overlay, op.OverlayNote)
	}
}

func TestSynthesize_WeakUptrendLongIsNotBullish(t *testing.T) {
	tf := frames([3]int{5, 5, 3}, [3]float64{55, 55, 55})
	tf.Long.Trend = model.TrendWeakUp
	op, err := Synthesize(tf)
	if err != nil {
		t.Fatal(err)
	}
	if op.View != model.ViewNeutral {
		t.Errorf("expected neutral, got %s", op.View)
	}
}

func TestSynthesize_MissingTimeframe(t *testing.T) {
	tf := frames([3]int{5, 5, 5}, [3]float64{50, 50, 50})
	tf.Medium = nil
	op, err := Synthesize(tf)
	if !errors.Is(err, ErrSynthesisUnavailable) {
		t.Fatalf("expected ErrSynthesisUnavailable, got %v", err)
	}
	if op != nil {
		t.Error("expected no opinion")
	}
}

func TestSynthesize_Deterministic(t *testing.T) {
	tf := frames([3]int{5, 3, 1}, [3]float64{62, 45, 25})
	first, err := Synthesize(tf)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, _ := Synthesize(tf)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs", i)
		}
	}
}

func TestEvaluateRisks(t *testing.T) {
	tf := frames([3]int{3, 3, 3}, [3]float64{50, 50, 50})
	if flags := evaluateRisks(tf); len(flags) != 0 {
		t.Fatalf("expected no flags, got %v", flags)
	}

	tf.Long.VolumeRatio = model.Some(2.0)
	tf.Long.ATRPercentile = 80
	tf.Long.LatestDrawdownPct = -20
	if flags := evaluateRisks(tf); len(flags) != 0 {
		t.Fatalf("boundary values must not flag, got %v", flags)
	}

	tf.Long.VolumeRatio = model.Some(2.01)
	tf.Long.ATRPercentile = 81
	tf.Long.LatestDrawdownPct = -25
	tf.Medium.MACDCross = model.MACDBearish
	flags := evaluateRisks(tf)
	var codes []string
	for _, f := range flags {
		codes = append(codes, f.Code)
	}
	want := []string{model.RiskVolumeSpike, model.RiskHighVolatility, model.RiskDeepDrawdown, model.RiskMACDDivergence}
	if !reflect.DeepEqual(codes, want) {
		t.Errorf("got %v, want %v", codes, want)
	}
}

func TestMomentumLines(t *testing.T) {
	lines := momentumLines(frames([3]int{3, 3, 3}, [3]float64{41, 52, 63}))
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	for i, tf := range []string{"1h", "4h", "1d"} {
		if !strings.HasPrefix(lines[i], tf+" RSI") {
			t.Errorf("line %d: %s", i, lines[i])
		}
	}
}
