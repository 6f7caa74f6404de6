package ports

import (
	"context"

	"cryptoTickStream/internal/domain"
)

// CandleRepository persists decoded history batches so consumers can warm up
// from the last known snapshot between reconnects. Implementations must be
// safe for concurrent use.
type CandleRepository interface {
	// SaveBatch upserts every candle of a decoded history batch for the pair.
	SaveBatch(ctx context.Context, pair domain.InstrumentPair, candles []domain.MarketCandle) error

	// LatestBatch returns up to limit most recent candles for the pair,
	// ordered oldest first. An empty slice means no snapshot is cached.
	LatestBatch(ctx context.Context, pair domain.InstrumentPair, limit int) ([]domain.MarketCandle, error)

	// Close releases the underlying storage handle.
	Close() error
}
