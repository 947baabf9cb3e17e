package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"MarketPulse/internal/model"
)

// SQLiteStore persists candles to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite candle store opened: %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS candles (
			symbol    TEXT    NOT NULL,
			timeframe TEXT    NOT NULL,
			ts        INTEGER NOT NULL,
			open      REAL    NOT NULL,
			high      REAL    NOT NULL,
			low       REAL    NOT NULL,
			close     REAL    NOT NULL,
			volume    REAL    NOT NULL,
			PRIMARY KEY (symbol, timeframe, ts)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_candles_ts ON candles(ts)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("exec %q: %w", q[:40], err)
		}
	}
	return nil
}

// SaveCandles upserts every candle of series in a single transaction.
func (s *SQLiteStore) SaveCandles(ctx context.Context, series model.Series) error {
	if len(series.Candles) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO candles
		(symbol, timeframe, ts, open, high, low, close, volume)
		VALUES (?,?,?,?,?,?,?,?)
		ON CONFLICT(symbol, timeframe, ts) DO UPDATE SET
			open = excluded.open, high = excluded.high, low = excluded.low,
			close = excluded.close, volume = excluded.volume`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	symbol := strings.ToUpper(series.Symbol)
	for _, c := range series.Candles {
		if _, err := stmt.ExecContext(ctx, symbol, string(series.Timeframe), c.Time.Unix(),
			c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			return fmt.Errorf("upsert candle %s: %w", c.Time.Format(time.RFC3339), err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadCandles(ctx context.Context, symbol string, tf model.Timeframe, since time.Time) (model.Series, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := model.Series{Symbol: strings.ToUpper(symbol), Timeframe: tf}
	rows, err := s.db.QueryContext(ctx, `SELECT ts, open, high, low, close, volume
		FROM candles WHERE symbol = ? AND timeframe = ? AND ts >= ?
		ORDER BY ts ASC`, out.Symbol, string(tf), since.Unix())
	if err != nil {
		return out, fmt.Errorf("query candles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ts int64
		var c model.OHLCV
		if err := rows.Scan(&ts, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return out, fmt.Errorf("scan candle: %w", err)
		}
		c.Time = time.Unix(ts, 0).UTC()
		out.Candles = append(out.Candles, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	log.Println("[INFO] closing sqlite candle store")
	return s.db.Close()
}
