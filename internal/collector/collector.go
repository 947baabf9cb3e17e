package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"MarketPulse/internal/model"
	"MarketPulse/internal/store"
)

// MockFetcher returns deterministic synthetic candles for development and testing.
type MockFetcher struct {
	Price float64
	Data  map[model.Timeframe][]model.OHLCV // overrides generated data per timeframe
	Now   func() time.Time
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchCandles(_ context.Context, symbol string, tf model.Timeframe, days int) (model.Series, error) {
	s := model.Series{Symbol: strings.ToUpper(symbol), Timeframe: tf}
	if bars, ok := m.Data[tf]; ok {
		s.Candles = bars
		return s, nil
	}
	d, err := tf.Duration()
	if err != nil {
		return s, err
	}
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	count := int(time.Duration(days) * 24 * time.Hour / d)
	s.Candles = generateMockBars(m.Price, now().UTC().Truncate(d), d, count)
	return s, nil
}

func generateMockBars(basePrice float64, end time.Time, step time.Duration, count int) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		x := float64(i)
		p := basePrice * (1 + 0.05*math.Sin(x/24) + float64(i-count/2)*0.0002)
		o := p * (1 - 0.002*math.Cos(x/3))
		bars[i] = model.OHLCV{
			Time:   end.Add(-time.Duration(count-1-i) * step),
			Open:   o,
			High:   math.Max(o, p) * 1.003,
			Low:    math.Min(o, p) * 0.997,
			Close:  p,
			Volume: 1000000 * (1 + 0.3*math.Sin(x/5)),
		}
	}
	return bars
}

// Batch is one collection run: the base series plus natively fetched longer series.
type Batch struct {
	Base        model.Series
	Supplements []model.Series
}

// Collector orchestrates fetching with retries and falls back to cached candles.
type Collector struct {
	Fetcher Fetcher
	Store   store.CandleStore
	Symbol  string

	Base             model.Timeframe
	LookbackDays     int
	Long             model.Timeframe // fetched natively as a supplement; empty disables
	LongLookbackDays int

	MaxTries      uint
	RetryInterval time.Duration
	Now           func() time.Time
}

// NewCollector creates a Collector with hourly base data over 90 days and a
// daily supplement over 365 days.
func NewCollector(fetcher Fetcher, st store.CandleStore, symbol string) *Collector {
	if st == nil {
		st = store.NewNoopStore()
	}
	return &Collector{
		Fetcher:          fetcher,
		Store:            st,
		Symbol:           symbol,
		Base:             model.TF1h,
		LookbackDays:     90,
		Long:             model.TF1d,
		LongLookbackDays: 365,
		MaxTries:         3,
		RetryInterval:    2 * time.Second,
		Now:              time.Now,
	}
}

// Collect fetches the base series and, when configured, the long supplement.
// A missing supplement is logged and tolerated; a missing base series is an error.
func (c *Collector) Collect(ctx context.Context) (*Batch, error) {
	base, err := c.fetch(ctx, c.Base, c.LookbackDays)
	if err != nil {
		return nil, fmt.Errorf("fetch %s candles: %w", c.Base, err)
	}
	batch := &Batch{Base: base}

	if c.Long != "" && c.Long != c.Base && c.LongLookbackDays > 0 {
		long, err := c.fetch(ctx, c.Long, c.LongLookbackDays)
		if err != nil {
			log.Printf("[WARN] %s supplement unavailable: %v", c.Long, err)
		} else {
			batch.Supplements = append(batch.Supplements, long)
		}
	}
	return batch, nil
}

func (c *Collector) fetch(ctx context.Context, tf model.Timeframe, days int) (model.Series, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.RetryInterval

	attempt := 0
	s, err := backoff.Retry(ctx, func() (model.Series, error) {
		attempt++
		s, err := c.Fetcher.FetchCandles(ctx, c.Symbol, tf, days)
		if err != nil {
			if errors.Is(err, ErrUnsupportedTimeframe) {
				return model.Series{}, backoff.Permanent(err)
			}
			log.Printf("[WARN] %s %s fetch attempt %d failed: %v", c.Fetcher.Name(), tf, attempt, err)
			return model.Series{}, err
		}
		if s.Len() == 0 {
			return model.Series{}, backoff.Permanent(errors.New("no candles returned"))
		}
		if err := s.Validate(); err != nil {
			return model.Series{}, backoff.Permanent(err)
		}
		return s, nil
	}, backoff.WithBackOff(b), backoff.WithMaxTries(c.MaxTries))

	if err == nil {
		if serr := c.Store.SaveCandles(ctx, s); serr != nil {
			log.Printf("[WARN] cache %s candles: %v", tf, serr)
		}
		return s, nil
	}

	since := c.Now().Add(-time.Duration(days) * 24 * time.Hour)
	cached, cerr := c.Store.LoadCandles(ctx, c.Symbol, tf, since)
	if cerr != nil || cached.Len() == 0 {
		return model.Series{}, err
	}
	log.Printf("[WARN] %s %s fetch failed (%v), using %d cached candles", c.Fetcher.Name(), tf, err, cached.Len())
	return cached, nil
}
