package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"MarketPulse/internal/model"
)

// binanceMaxLimit is the largest page the klines endpoint serves.
const binanceMaxLimit = 1000

// BinanceFetcher implements Fetcher using the public Binance klines endpoint.
type BinanceFetcher struct {
	BaseURL string
	Quote   string // quote asset appended to the symbol, e.g. USDT
	Client  *http.Client
	Now     func() time.Time
}

// NewBinanceFetcher creates a new fetcher with optional proxy support.
func NewBinanceFetcher(baseURL, proxyURL string) *BinanceFetcher {
	if baseURL == "" {
		baseURL = "https://api.binance.com"
	}
	return &BinanceFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Quote:   "USDT",
		Client:  newHTTPClient(proxyURL),
		Now:     time.Now,
	}
}

func (f *BinanceFetcher) Name() string { return "binance" }

func (f *BinanceFetcher) pair(symbol string) string {
	s := strings.ToUpper(symbol)
	if strings.HasSuffix(s, f.Quote) {
		return s
	}
	return s + f.Quote
}

func (f *BinanceFetcher) FetchCandles(ctx context.Context, symbol string, tf model.Timeframe, days int) (model.Series, error) {
	d, err := tf.Duration()
	if err != nil {
		return model.Series{}, err
	}
	want := int(time.Duration(days) * 24 * time.Hour / d)
	if want <= 0 {
		return model.Series{}, fmt.Errorf("binance: lookback of %d days is shorter than %s", days, tf)
	}

	// Page forward from the start of the lookback window.
	start := f.Now().Add(-time.Duration(days) * 24 * time.Hour).UnixMilli()
	var bars []model.OHLCV
	for len(bars) < want {
		limit := want - len(bars)
		if limit > binanceMaxLimit {
			limit = binanceMaxLimit
		}
		q := url.Values{}
		q.Set("symbol", f.pair(symbol))
		q.Set("interval", string(tf))
		q.Set("startTime", fmt.Sprintf("%d", start))
		q.Set("limit", fmt.Sprintf("%d", limit))
		endpoint := fmt.Sprintf("%s/api/v3/klines?%s", f.BaseURL, q.Encode())

		page, more, err := f.fetchKlines(ctx, endpoint)
		if err != nil {
			return model.Series{}, err
		}
		bars = append(bars, page...)
		if !more || len(page) == 0 {
			break
		}
		start = page[len(page)-1].Time.Add(d).UnixMilli()
	}
	return model.Series{Symbol: strings.ToUpper(symbol), Timeframe: tf, Candles: bars}, nil
}

// kline rows are positional: [openTime, open, high, low, close, volume, closeTime, ...]
// with prices encoded as decimal strings.
// more is false once the page reaches a candle that is still forming.
func (f *BinanceFetcher) fetchKlines(ctx context.Context, endpoint string) (bars []model.OHLCV, more bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("fetch klines: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, false, fmt.Errorf("fetch klines: status %d, body: %s", resp.StatusCode, truncateBody(body, maxErrorBody))
	}

	var rows [][]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, false, fmt.Errorf("decode klines: %w", err)
	}

	now := f.Now().UnixMilli()
	bars = make([]model.OHLCV, 0, len(rows))
	more = len(rows) > 0
	for i, row := range rows {
		if len(row) < 7 {
			return nil, false, fmt.Errorf("kline %d: expected at least 7 fields, got %d", i, len(row))
		}
		var openTime, closeTime int64
		if err := json.Unmarshal(row[0], &openTime); err != nil {
			return nil, false, fmt.Errorf("kline %d open time: %w", i, err)
		}
		if err := json.Unmarshal(row[6], &closeTime); err != nil {
			return nil, false, fmt.Errorf("kline %d close time: %w", i, err)
		}
		if closeTime > now {
			more = false
			continue // still forming
		}
		vals := make([]float64, 5)
		for j := range vals {
			var s string
			if err := json.Unmarshal(row[j+1], &s); err != nil {
				return nil, false, fmt.Errorf("kline %d field %d: %w", i, j+1, err)
			}
			d, err := decimal.NewFromString(s)
			if err != nil {
				return nil, false, fmt.Errorf("kline %d field %d: %w", i, j+1, err)
			}
			vals[j] = d.InexactFloat64()
		}
		bars = append(bars, model.OHLCV{
			Time:   time.UnixMilli(openTime).UTC(),
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, more, nil
}
