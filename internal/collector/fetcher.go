package collector

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"MarketPulse/internal/model"
)

// ErrUnsupportedTimeframe is returned when a provider cannot serve the requested granularity.
var ErrUnsupportedTimeframe = errors.New("timeframe not supported by provider")

// Fetcher supplies candle history for one symbol.
type Fetcher interface {
	// FetchCandles returns roughly the last `days` days of candles at tf, oldest first.
	FetchCandles(ctx context.Context, symbol string, tf model.Timeframe, days int) (model.Series, error)
	Name() string
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

// maxErrorBody bounds how much of an upstream error body ends up in an error string.
const maxErrorBody = 200

// truncateBody shortens b to at most n bytes on a rune boundary.
func truncateBody(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(b[cut]) {
		cut--
	}
	return string(b[:cut]) + "...(truncated)"
}
