package model

// Trend is the moving-average alignment category of one timeframe.
type Trend string

const (
	TrendStrongUp   Trend = "strong uptrend"
	TrendUp         Trend = "uptrend"
	TrendWeakUp     Trend = "weak uptrend"
	TrendStrongDown Trend = "strong downtrend"
	TrendDown       Trend = "downtrend"
	TrendRange      Trend = "range-bound"
)

// Bullish reports whether the trend counts as bullish for synthesis.
func (t Trend) Bullish() bool { return t == TrendStrongUp || t == TrendUp }

// Bearish reports whether the trend counts as bearish for synthesis.
func (t Trend) Bearish() bool { return t == TrendStrongDown || t == TrendDown }

type RSIStatus string

const (
	RSIOverbought   RSIStatus = "overbought"
	RSIStrong       RSIStatus = "strong"
	RSINeutralUpper RSIStatus = "neutral-upper"
	RSINeutralLower RSIStatus = "neutral-lower"
	RSIWeak         RSIStatus = "weak"
	RSIOversold     RSIStatus = "oversold"
)

type MACDCross string

const (
	MACDBullish MACDCross = "bullish"
	MACDBearish MACDCross = "bearish"
)

type HistogramTrend string

const (
	HistExpanding   HistogramTrend = "expanding"
	HistContracting HistogramTrend = "contracting"
)

type BandPosition string

const (
	BandOverextendedHigh BandPosition = "overextended high"
	BandOverextendedLow  BandPosition = "overextended low"
	BandNearUpper        BandPosition = "near upper"
	BandNearLower        BandPosition = "near lower"
	BandMid              BandPosition = "mid-band"
)

type VolumeStatus string

const (
	VolumeExplosive VolumeStatus = "explosive"
	VolumeHigh      VolumeStatus = "high"
	VolumeElevated  VolumeStatus = "elevated"
	VolumeNormal    VolumeStatus = "normal"
	VolumeLow       VolumeStatus = "low"
	VolumeUnknown   VolumeStatus = "n/a"
)

// TimeframeState is the classified view of one timeframe's latest candle.
type TimeframeState struct {
	Timeframe Timeframe
	Price     float64
	MA7       float64
	MA20      float64
	MA50      float64

	Trend      Trend
	TrendScore int

	DistMA20Pct  float64 // (close-MA20)/MA20 %
	DistMA50Pct  float64
	MA20SlopePct Value // MA20 change over the last 5 rows %

	RSI           float64
	RSIStatus     RSIStatus
	RSIPercentile float64

	MACDCross      MACDCross
	HistogramTrend HistogramTrend

	BandPosition BandPosition
	BandPct      Value // position within the band, defined only inside it
	BandWidthPct float64

	VolumeRatio  Value
	VolumeStatus VolumeStatus

	ATRPct        float64
	ATRPercentile float64

	Support    Value
	Resistance Value

	MaxDrawdownPct    float64
	LatestDrawdownPct float64
}

// View is the overall market opinion.
type View string

const (
	ViewBullish View = "bullish"
	ViewBearish View = "bearish"
	ViewNeutral View = "neutral"
)

// Overlay marks an extreme long-timeframe RSI reading.
type Overlay string

const (
	OverlayNone       Overlay = ""
	OverlayOversold   Overlay = "oversold"
	OverlayOverbought Overlay = "overbought"
)

// RiskFlag is a single independently evaluated warning.
type RiskFlag struct {
	Code   string
	Detail string
}

const (
	RiskVolumeSpike    = "VOLUME_SPIKE"
	RiskHighVolatility = "HIGH_VOLATILITY"
	RiskDeepDrawdown   = "DEEP_DRAWDOWN"
	RiskMACDDivergence = "MACD_DIVERGENCE"
)

// CompositeOpinion is the cross-timeframe synthesis of three TimeframeStates.
type CompositeOpinion struct {
	View      View
	ViewNotes []string
	Momentum  []string
	Overlay   Overlay
	// OverlayNote is empty when Overlay is OverlayNone.
	OverlayNote string
	Strategy    string
	Risks       []RiskFlag

	MaxDrawdownPct    float64
	LatestDrawdownPct float64
}
