package strategy

import (
	"fmt"
	"math"

	"MarketPulse/internal/model"
)

const (
	oversoldRSI     = 30
	overboughtRSI   = 70
	midlineRSI      = 50
	volumeSpike     = 2.0
	atrPercentileHi = 80
	drawdownLimit   = 20
)

// momentumLines reports RSI and its label for each timeframe, short to long.
func momentumLines(t Timeframes) []string {
	lines := make([]string, 0, 3)
	for _, st := range []*model.TimeframeState{t.Short, t.Medium, t.Long} {
		lines = append(lines, fmt.Sprintf("%s RSI %.1f (%s, percentile %.0f)", st.Timeframe, st.RSI, st.RSIStatus, st.RSIPercentile))
	}
	return lines
}

// momentumOverlay flags an extreme long-timeframe RSI, graded by the medium timeframe.
func momentumOverlay(t Timeframes) (model.Overlay, string) {
	long, med := t.Long, t.Medium
	switch {
	case long.RSI < oversoldRSI:
		if med.RSI > midlineRSI {
			return model.OverlayOversold, fmt.Sprintf("%s RSI %.1f oversold: technical bounce likely, strengthened by %s RSI %.1f back above 50",
				long.Timeframe, long.RSI, med.Timeframe, med.RSI)
		}
		return model.OverlayOversold, fmt.Sprintf("%s RSI %.1f oversold: technical bounce likely, weakened while %s RSI %.1f stays below 50",
			long.Timeframe, long.RSI, med.Timeframe, med.RSI)
	case long.RSI > overboughtRSI:
		if med.RSI < midlineRSI {
			return model.OverlayOverbought, fmt.Sprintf("%s RSI %.1f overbought: pullback risk, strengthened by %s RSI %.1f already below 50",
				long.Timeframe, long.RSI, med.Timeframe, med.RSI)
		}
		return model.OverlayOverbought, fmt.Sprintf("%s RSI %.1f overbought: pullback risk, weakened while %s RSI %.1f holds above 50",
			long.Timeframe, long.RSI, med.Timeframe, med.RSI)
	}
	return model.OverlayNone, ""
}

func strategyText(view model.View, overlay model.Overlay, t Timeframes) string {
	long, med := t.Long, t.Medium
	switch {
	case view == model.ViewBullish:
		return fmt.Sprintf("Buy dips near %s support %s, target %s resistance %s, stop below MA20 (%.2f).",
			long.Timeframe, level(long.Support), long.Timeframe, level(long.Resistance), long.MA20)
	case view == model.ViewBearish && overlay == model.OverlayOversold:
		return fmt.Sprintf("Speculative bounce only: enter when %s RSI reclaims 50 with rising volume, target %s resistance %s, stop below %s support %s.",
			med.Timeframe, med.Timeframe, level(med.Resistance), long.Timeframe, level(long.Support))
	case view == model.ViewBearish:
		return fmt.Sprintf("Stand aside or sell rallies near %s resistance %s.", med.Timeframe, level(med.Resistance))
	default:
		return fmt.Sprintf("Wait for a breakout above %s resistance %s or a breakdown below %s support %s.",
			long.Timeframe, level(long.Resistance), long.Timeframe, level(long.Support))
	}
}

// evaluateRisks checks every flag independently; all that apply are returned.
func evaluateRisks(t Timeframes) []model.RiskFlag {
	var flags []model.RiskFlag
	long := t.Long
	if r, ok := long.VolumeRatio.Get(); ok && r > volumeSpike {
		flags = append(flags, model.RiskFlag{
			Code:   model.RiskVolumeSpike,
			Detail: fmt.Sprintf("%s volume %.1fx its 20-period average", long.Timeframe, r),
		})
	}
	if long.ATRPercentile > atrPercentileHi {
		flags = append(flags, model.RiskFlag{
			Code:   model.RiskHighVolatility,
			Detail: fmt.Sprintf("%s ATR percentile %.0f within its trailing window", long.Timeframe, long.ATRPercentile),
		})
	}
	if math.Abs(long.LatestDrawdownPct) > drawdownLimit {
		flags = append(flags, model.RiskFlag{
			Code:   model.RiskDeepDrawdown,
			Detail: fmt.Sprintf("price %.1f%% below its running peak", math.Abs(long.LatestDrawdownPct)),
		})
	}
	if t.Short.MACDCross != t.Medium.MACDCross {
		flags = append(flags, model.RiskFlag{
			Code:   model.RiskMACDDivergence,
			Detail: fmt.Sprintf("MACD %s on %s but %s on %s", t.Short.MACDCross, t.Short.Timeframe, t.Medium.MACDCross, t.Medium.Timeframe),
		})
	}
	return flags
}

func level(v model.Value) string {
	if x, ok := v.Get(); ok {
		return fmt.Sprintf("%.2f", x)
	}
	return "n/a"
}
