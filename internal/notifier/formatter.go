package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"MarketPulse/internal/analysis"
	"MarketPulse/internal/model"
)

// FormatReport renders a full analysis result as a Telegram HTML message.
func FormatReport(res *analysis.Result, generatedAt time.Time) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>%s multi-timeframe report</b> | %s\n",
		esc(res.Symbol), generatedAt.UTC().Format("2006-01-02 15:04 UTC")))
	b.WriteString(fmt.Sprintf("Price: $%s | 1h: %s | 24h: %s\n",
		formatPrice(res.Price), formatChange(res.Change1h), formatChange(res.Change24h)))

	for _, st := range res.States {
		b.WriteString("\n")
		writeTimeframe(&b, st)
	}

	if len(res.Skipped) > 0 {
		b.WriteString("\n")
		for _, tf := range sortedTimeframes(res.Skipped) {
			b.WriteString(fmt.Sprintf("⏭ %s skipped: %s\n", esc(string(tf)), esc(res.Skipped[tf].Error())))
		}
	}

	b.WriteString("\n🧭 <b>Composite view</b>\n")
	if res.Opinion == nil {
		b.WriteString(fmt.Sprintf("Insufficient data: %d of 3 timeframes classified.\n", len(res.States)))
		return b.String()
	}
	writeOpinion(&b, res.Opinion)
	return b.String()
}

// maxFailureDetail caps the error text in a failure message, in runes.
const maxFailureDetail = 300

// FormatFailure renders the short diagnostic sent when a run cannot produce a report.
func FormatFailure(symbol string, err error) string {
	return fmt.Sprintf("⚠️ <b>%s report</b>\nData unavailable: %s", esc(symbol), esc(shorten(err.Error(), maxFailureDetail)))
}

// shorten cuts s to at most n runes, marking the cut with an ellipsis.
func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

func writeTimeframe(b *strings.Builder, st *model.TimeframeState) {
	b.WriteString(fmt.Sprintf("▶ <b>%s</b>\n", esc(string(st.Timeframe))))
	b.WriteString(fmt.Sprintf("  Trend: %s (%d/5) | MA20 %+.2f%% | MA50 %+.2f%%",
		esc(string(st.Trend)), st.TrendScore, st.DistMA20Pct, st.DistMA50Pct))
	if slope, ok := st.MA20SlopePct.Get(); ok {
		b.WriteString(fmt.Sprintf(" | MA20 slope %+.2f%%", slope))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  RSI: %.1f %s (p%.0f)\n", st.RSI, esc(string(st.RSIStatus)), st.RSIPercentile))
	b.WriteString(fmt.Sprintf("  MACD: %s, histogram %s\n", esc(string(st.MACDCross)), esc(string(st.HistogramTrend))))

	band := esc(string(st.BandPosition))
	if pct, ok := st.BandPct.Get(); ok {
		band = fmt.Sprintf("%s (%.0f%%)", band, pct)
	}
	b.WriteString(fmt.Sprintf("  Bollinger: %s, width %.2f%%\n", band, st.BandWidthPct))

	vol := "n/a"
	if r, ok := st.VolumeRatio.Get(); ok {
		vol = fmt.Sprintf("%.2fx", r)
	}
	b.WriteString(fmt.Sprintf("  Volume: %s (%s) | ATR %.2f%% (p%.0f)\n",
		vol, esc(string(st.VolumeStatus)), st.ATRPct, st.ATRPercentile))
	b.WriteString(fmt.Sprintf("  Support: %s | Resistance: %s\n", formatLevel(st.Support), formatLevel(st.Resistance)))
}

func writeOpinion(b *strings.Builder, op *model.CompositeOpinion) {
	b.WriteString(fmt.Sprintf("View: <b>%s</b>\n", esc(strings.ToUpper(string(op.View)))))
	for _, n := range op.ViewNotes {
		b.WriteString(fmt.Sprintf("  • %s\n", esc(n)))
	}

	b.WriteString("Momentum:\n")
	for _, m := range op.Momentum {
		b.WriteString(fmt.Sprintf("  • %s\n", esc(m)))
	}
	switch op.Overlay {
	case model.OverlayOversold:
		b.WriteString(fmt.Sprintf("✨ %s\n", esc(op.OverlayNote)))
	case model.OverlayOverbought:
		b.WriteString(fmt.Sprintf("⚠️ %s\n", esc(op.OverlayNote)))
	}

	b.WriteString(fmt.Sprintf("💡 Strategy: %s\n", esc(op.Strategy)))

	if len(op.Risks) > 0 {
		b.WriteString("🚨 Risks:\n")
		for _, r := range op.Risks {
			b.WriteString(fmt.Sprintf("  • %s: %s\n", esc(r.Code), esc(r.Detail)))
		}
	} else {
		b.WriteString("Risks: none flagged\n")
	}
	b.WriteString(fmt.Sprintf("Drawdown: max %.2f%% | current %.2f%%\n", op.MaxDrawdownPct, op.LatestDrawdownPct))
}

func esc(s string) string { return html.EscapeString(s) }

func formatChange(v model.Value) string {
	x, ok := v.Get()
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f%%", x)
}

func formatLevel(v model.Value) string {
	x, ok := v.Get()
	if !ok {
		return "none"
	}
	return formatPrice(x)
}

// formatPrice renders a price with thousands separators and two decimals.
func formatPrice(v float64) string {
	s := decimal.NewFromFloat(v).StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")

	var grouped strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(r)
	}
	out := grouped.String() + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}

func sortedTimeframes(m map[model.Timeframe]error) []model.Timeframe {
	out := make([]model.Timeframe, 0, len(m))
	for tf := range m {
		out = append(out, tf)
	}
	sort.Slice(out, func(i, j int) bool {
		di, _ := out[i].Duration()
		dj, _ := out[j].Duration()
		return di < dj
	})
	return out
}
