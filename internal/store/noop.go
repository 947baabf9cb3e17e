package store

import (
	"context"
	"time"

	"MarketPulse/internal/model"
)

// NoopStore is a no-op implementation used when SQLite is not configured.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (n *NoopStore) SaveCandles(_ context.Context, _ model.Series) error { return nil }

func (n *NoopStore) LoadCandles(_ context.Context, symbol string, tf model.Timeframe, _ time.Time) (model.Series, error) {
	return model.Series{Symbol: symbol, Timeframe: tf}, nil
}

func (n *NoopStore) Close() error { return nil }
