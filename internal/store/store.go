package store

import (
	"context"
	"time"

	"MarketPulse/internal/model"
)

// CandleStore caches fetched candles so a report can still be produced when
// the upstream supplier is unreachable. It stores raw market data only.
type CandleStore interface {
	SaveCandles(ctx context.Context, s model.Series) error
	// LoadCandles returns cached candles at or after since, oldest first.
	LoadCandles(ctx context.Context, symbol string, tf model.Timeframe, since time.Time) (model.Series, error)
	Close() error
}
