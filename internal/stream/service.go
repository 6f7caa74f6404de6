// Package stream implements the market-data streaming client: a connection
// manager with heartbeat and reconnect handling, composed behind a small
// façade that multicasts decoded events to downstream consumers.
package stream

import (
	"context"
	"fmt"
	"time"

	"cryptoTickStream/internal/codec"
	"cryptoTickStream/internal/domain"
	"cryptoTickStream/internal/ports"
	"cryptoTickStream/internal/pubsub"
)

// Config holds the dependencies and tuning for a streaming Service.
type Config struct {
	Pair              domain.InstrumentPair
	Logger            ports.Logger
	Conns             ports.ConnFactory
	Candles           ports.CandleRepository // optional history cache, may be nil
	HeartbeatInterval time.Duration          // client ping cadence, e.g. 30s
	ReconnectDelay    time.Duration          // delay before a heartbeat-triggered redial, e.g. 5s
	HistoryStart      string                 // fixed ISO-8601 baseline of the history window
	HistorySize       int                    // history window size, e.g. 300
	EventBuffer       int                    // per-subscriber event buffer size
}

// Service is the public contract of the streaming client for a single
// instrument pair. It owns the codec, the heartbeat controller and the
// connection manager, and exposes the four output streams.
type Service struct {
	pair        domain.InstrumentPair
	historySize int
	cm          *connManager

	ticks   *pubsub.Broadcaster[float64]
	history *pubsub.Broadcaster[[]domain.MarketCandle]
	status  *pubsub.Broadcaster[bool]
	errs    *pubsub.Broadcaster[error]
}

// NewService validates the configuration and assembles the streaming client.
func NewService(cfg Config) (*Service, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for stream service")
	}
	if cfg.Conns == nil {
		return nil, fmt.Errorf("connection factory is required for stream service")
	}
	if cfg.HeartbeatInterval <= 0 {
		return nil, fmt.Errorf("heartbeat interval must be positive")
	}
	if cfg.ReconnectDelay <= 0 {
		return nil, fmt.Errorf("reconnect delay must be positive")
	}

	c, err := codec.New(cfg.Pair, cfg.HistoryStart, cfg.HistorySize)
	if err != nil {
		return nil, fmt.Errorf("invalid codec configuration: %w", err)
	}

	s := &Service{
		pair:        cfg.Pair,
		historySize: cfg.HistorySize,
		ticks:       pubsub.NewBroadcaster[float64](cfg.EventBuffer),
		history:     pubsub.NewBroadcaster[[]domain.MarketCandle](cfg.EventBuffer),
		status:      pubsub.NewBroadcaster[bool](cfg.EventBuffer),
		errs:        pubsub.NewBroadcaster[error](cfg.EventBuffer),
	}
	s.cm = &connManager{
		logger:         cfg.Logger,
		codec:          c,
		pair:           cfg.Pair,
		factory:        cfg.Conns,
		candles:        cfg.Candles,
		reconnectDelay: cfg.ReconnectDelay,
		ticks:          s.ticks,
		history:        s.history,
		status:         s.status,
		errs:           s.errs,
		hb:             newHeartbeatController(cfg.HeartbeatInterval),
		state:          StateDisconnected,
		ctx:            context.Background(),
	}
	return s, nil
}

// Connect starts a connection attempt. Idempotent while a connection is
// already connecting or connected.
func (s *Service) Connect(ctx context.Context) {
	s.cm.connect(ctx)
}

// Disconnect closes the transport and cancels all pending timers. Safe to
// call repeatedly and when no transport exists.
func (s *Service) Disconnect() {
	s.cm.disconnect()
}

// State reports the current connection state.
func (s *Service) State() ConnectionState {
	return s.cm.currentState()
}

// Pair returns the instrument pair this service streams.
func (s *Service) Pair() domain.InstrumentPair {
	return s.pair
}

// Ticks subscribes to live price updates.
func (s *Service) Ticks() *pubsub.Subscription[float64] {
	return s.ticks.Subscribe()
}

// History subscribes to decoded history batches.
func (s *Service) History() *pubsub.Subscription[[]domain.MarketCandle] {
	return s.history.Subscribe()
}

// Status subscribes to connection status changes.
func (s *Service) Status() *pubsub.Subscription[bool] {
	return s.status.Subscribe()
}

// Errors subscribes to the error stream. Every value carries a
// human-readable message; sentinel kinds are matchable with errors.Is.
func (s *Service) Errors() *pubsub.Subscription[error] {
	return s.errs.Subscribe()
}

// CachedHistory returns the most recent cached candle snapshot for the pair,
// oldest first. Returns an empty slice when no cache is configured.
func (s *Service) CachedHistory(ctx context.Context) ([]domain.MarketCandle, error) {
	if s.cm.candles == nil {
		return nil, nil
	}
	return s.cm.candles.LatestBatch(ctx, s.pair, s.historySize)
}

// Close permanently shuts the service down: disconnects and closes every
// subscriber channel.
func (s *Service) Close() {
	s.cm.disconnect()
	s.ticks.Close()
	s.history.Close()
	s.status.Close()
	s.errs.Close()
}
