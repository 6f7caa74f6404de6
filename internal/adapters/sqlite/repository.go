// Package sqlite implements the ports.CandleRepository interface on SQLite,
// giving consumers a warm history snapshot between reconnects.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cryptoTickStream/internal/domain"
	"cryptoTickStream/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements ports.CandleRepository using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite candle cache.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository opens (or creates) the cache database and verifies the schema.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("database path is required for SQLite repository")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %q: %w", filepath.Dir(cfg.DBPath), err)
	}

	// WAL mode so the async cache writes do not contend with snapshot reads.
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %q: %w", cfg.DBPath, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database at %q: %w", cfg.DBPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	repo := &Repository{db: db, logger: cfg.Logger}
	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	cfg.Logger.Info(context.Background(), "candle cache ready", map[string]interface{}{"path": cfg.DBPath})
	return repo, nil
}

func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS candles (
		pair        TEXT    NOT NULL,
		ts          INTEGER NOT NULL,
		open        REAL    NOT NULL,
		high        REAL    NOT NULL,
		low         REAL    NOT NULL,
		close       REAL    NOT NULL,
		volume      REAL    NOT NULL,
		turnover    REAL    NOT NULL,
		trade_count INTEGER NOT NULL,
		PRIMARY KEY (pair, ts)
	);
	CREATE INDEX IF NOT EXISTS idx_candles_pair_ts ON candles (pair, ts DESC);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// SaveBatch upserts every candle of a history batch in one transaction.
func (r *Repository) SaveBatch(ctx context.Context, pair domain.InstrumentPair, candles []domain.MarketCandle) error {
	if len(candles) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO candles
			(pair, ts, open, high, low, close, volume, turnover, trade_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, c := range candles {
		if _, err := stmt.ExecContext(ctx, pair.String(), c.Timestamp,
			c.Open, c.High, c.Low, c.Close, c.Volume, c.Turnover, c.TradeCount); err != nil {
			return fmt.Errorf("failed to upsert candle ts=%d: %w", c.Timestamp, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit candle batch: %w", err)
	}
	r.logger.Debug(ctx, "cached candle batch", map[string]interface{}{
		"pair": pair.String(), "count": len(candles),
	})
	return nil
}

// LatestBatch returns up to limit most recent candles for the pair, oldest
// first.
func (r *Repository) LatestBatch(ctx context.Context, pair domain.InstrumentPair, limit int) ([]domain.MarketCandle, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT ts, open, high, low, close, volume, turnover, trade_count
		FROM candles WHERE pair = ?
		ORDER BY ts DESC LIMIT ?`, pair.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query candles: %w", err)
	}
	defer rows.Close()

	var candles []domain.MarketCandle
	for rows.Next() {
		var c domain.MarketCandle
		if err := rows.Scan(&c.Timestamp, &c.Open, &c.High, &c.Low, &c.Close,
			&c.Volume, &c.Turnover, &c.TradeCount); err != nil {
			return nil, fmt.Errorf("failed to scan candle row: %w", err)
		}
		candles = append(candles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading candle rows: %w", err)
	}

	// Query returns newest first; callers expect server order (oldest first).
	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}
	return candles, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
