package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"MarketPulse/internal/model"
)

// CoinGeckoFetcher implements Fetcher with the public market_chart endpoint.
// The endpoint only reports price and volume, so OHLC is approximated:
// open = previous close, high/low = max/min of open and close.
type CoinGeckoFetcher struct {
	BaseURL string
	Client  *http.Client
	IDMap   map[string]string // maps symbol to CoinGecko coin id
}

// NewCoinGeckoFetcher creates a fetcher with optional proxy support.
func NewCoinGeckoFetcher(baseURL, proxyURL string) *CoinGeckoFetcher {
	if baseURL == "" {
		baseURL = "https://api.coingecko.com"
	}
	return &CoinGeckoFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  newHTTPClient(proxyURL),
		IDMap: map[string]string{
			"BTC": "bitcoin",
			"ETH": "ethereum",
			"SOL": "solana",
		},
	}
}

func (f *CoinGeckoFetcher) Name() string { return "coingecko" }

func (f *CoinGeckoFetcher) coinID(symbol string) string {
	if id, ok := f.IDMap[strings.ToUpper(symbol)]; ok {
		return id
	}
	return strings.ToLower(symbol)
}

type marketChart struct {
	Prices       [][2]float64 `json:"prices"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

func (f *CoinGeckoFetcher) FetchCandles(ctx context.Context, symbol string, tf model.Timeframe, days int) (model.Series, error) {
	var interval string
	switch tf {
	case model.TF1h:
		if days > 90 {
			return model.Series{}, fmt.Errorf("coingecko: hourly data limited to 90 days, got %d: %w", days, ErrUnsupportedTimeframe)
		}
	case model.TF1d:
		interval = "daily"
	default:
		return model.Series{}, fmt.Errorf("coingecko %s: %w", tf, ErrUnsupportedTimeframe)
	}

	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("days", fmt.Sprintf("%d", days))
	if interval != "" {
		q.Set("interval", interval)
	}
	u := fmt.Sprintf("%s/api/v3/coins/%s/market_chart?%s", f.BaseURL, url.PathEscape(f.coinID(symbol)), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return model.Series{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return model.Series{}, fmt.Errorf("coingecko fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Series{}, fmt.Errorf("coingecko read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return model.Series{}, fmt.Errorf("coingecko: status %d, body: %s", resp.StatusCode, truncateBody(body, maxErrorBody))
	}

	var chart marketChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return model.Series{}, fmt.Errorf("coingecko decode: %w", err)
	}
	if len(chart.Prices) == 0 {
		return model.Series{}, fmt.Errorf("coingecko: no data returned")
	}

	d, err := tf.Duration()
	if err != nil {
		return model.Series{}, err
	}
	return model.Series{
		Symbol:    strings.ToUpper(symbol),
		Timeframe: tf,
		Candles:   approximateCandles(chart, d),
	}, nil
}

type pricePoint struct {
	t      time.Time
	price  float64
	volume float64
}

// approximateCandles snaps points to tf buckets (the latest point in a bucket
// wins) and derives OHLC from consecutive closes. The first bucket has no
// previous close and is dropped.
func approximateCandles(chart marketChart, tf time.Duration) []model.OHLCV {
	volumes := make(map[int64]float64, len(chart.TotalVolumes))
	for _, v := range chart.TotalVolumes {
		volumes[int64(v[0])] = v[1]
	}

	buckets := make(map[int64]pricePoint, len(chart.Prices))
	for _, p := range chart.Prices {
		ms := int64(p[0])
		if p[1] <= 0 || math.IsNaN(p[1]) {
			continue
		}
		t := time.UnixMilli(ms).UTC().Truncate(tf)
		buckets[t.Unix()] = pricePoint{t: t, price: p[1], volume: volumes[ms]}
	}

	points := make([]pricePoint, 0, len(buckets))
	for _, pt := range buckets {
		points = append(points, pt)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].t.Before(points[j].t) })

	bars := make([]model.OHLCV, 0, len(points))
	for i := 1; i < len(points); i++ {
		open := points[i-1].price
		closePrice := points[i].price
		bars = append(bars, model.OHLCV{
			Time:   points[i].t,
			Open:   open,
			High:   math.Max(open, closePrice),
			Low:    math.Min(open, closePrice),
			Close:  closePrice,
			Volume: points[i].volume,
		})
	}
	return bars
}
