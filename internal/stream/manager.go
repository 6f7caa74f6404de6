package stream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cryptoTickStream/internal/codec"
	"cryptoTickStream/internal/domain"
	"cryptoTickStream/internal/ports"
	"cryptoTickStream/internal/pubsub"
)

// connManager owns the transport connection lifecycle and the connection
// state machine. The transport callback, the heartbeat ticker and the
// reconnect timer are independent concurrent sources; every one of them
// funnels through mu before touching the state or the transport handle.
//
// Each dialed transport gets a generation number. Events and timer callbacks
// carry the generation they were created under and are dropped when it no
// longer matches, so a stale reconnect or a frame from a torn-down transport
// after an explicit disconnect is a no-op.
type connManager struct {
	logger         ports.Logger
	codec          *codec.Codec
	pair           domain.InstrumentPair
	factory        ports.ConnFactory
	candles        ports.CandleRepository // optional history cache, may be nil
	reconnectDelay time.Duration

	ticks   *pubsub.Broadcaster[float64]
	history *pubsub.Broadcaster[[]domain.MarketCandle]
	status  *pubsub.Broadcaster[bool]
	errs    *pubsub.Broadcaster[error]

	hb *heartbeatController

	mu        sync.Mutex
	state     ConnectionState
	conn      ports.StreamConn
	gen       uint64
	reconnect *time.Timer
	ctx       context.Context
}

// connect dials a fresh transport. Idempotent while a connection attempt or
// an established connection is alive: a second call must not spawn a second
// transport.
func (m *connManager) connect(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateDisconnected {
		m.logger.Debug(ctx, "connect ignored: connection already active",
			map[string]interface{}{"state": m.state.String()})
		return
	}

	m.ctx = ctx
	m.state = StateConnecting
	m.dialLocked()
}

// dialLocked creates a transport under the current generation+1 and starts
// the asynchronous dial. Caller holds mu and has set the target state.
func (m *connManager) dialLocked() {
	m.gen++
	gen := m.gen
	conn := m.factory(func(ev ports.ConnEvent) { m.handleEvent(gen, ev) })
	m.conn = conn
	m.logger.Info(m.ctx, "dialing exchange feed", map[string]interface{}{
		"pair": m.pair.String(), "generation": gen,
	})
	conn.Connect(m.ctx)
}

// disconnect closes the transport and cancels every pending timer. After it
// returns, no further events are published until connect is called again.
func (m *connManager) disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Bump the generation first: in-flight transport events and timer
	// callbacks become stale no-ops.
	m.gen++
	if m.reconnect != nil {
		m.reconnect.Stop()
		m.reconnect = nil
	}
	m.hb.Stop()
	if m.conn != nil {
		if err := m.conn.Close(); err != nil {
			m.logger.Warn(m.ctx, "error closing transport on disconnect",
				map[string]interface{}{"error": err.Error()})
		}
		m.conn = nil
	}
	m.state = StateDisconnected
}

// currentState reads the state under the serialization lock.
func (m *connManager) currentState() ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// handleEvent is the single entry point for transport notifications.
func (m *connManager) handleEvent(gen uint64, ev ports.ConnEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen {
		// Event from a torn-down transport.
		return
	}

	switch ev.Type {
	case ports.ConnEventConnected:
		m.state = StateConnected
		m.status.Publish(true)
		// Initial requests go out before any application data is relayed so
		// every (re)connect yields a fresh history snapshot and a live
		// subscription.
		m.sendInitialRequestsLocked()
		m.hb.Start(m.sendHeartbeat)

	case ports.ConnEventDisconnected:
		m.status.Publish(false)
		m.errs.Publish(fmt.Errorf("disconnected: %s (code: %d)", ev.Reason, ev.Code))
		m.teardownLocked()

	case ports.ConnEventError:
		// Dial failures surface on both channels; no automatic retry from
		// this path.
		m.errs.Publish(fmt.Errorf("%w: %v", ports.ErrConnectionFailed, ev.Err))
		m.status.Publish(false)
		m.teardownLocked()

	case ports.ConnEventHeartbeatLost:
		m.errs.Publish(ev.Err)
		m.scheduleReconnectLocked()

	case ports.ConnEventText:
		m.handleFrameLocked(ev.Text)
	}
}

// teardownLocked drops the current transport and returns to Disconnected.
func (m *connManager) teardownLocked() {
	m.hb.Stop()
	m.gen++
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.state = StateDisconnected
}

// scheduleReconnectLocked moves to Reconnecting and arms the fixed-delay
// timer. The timer callback re-checks state and generation: an explicit
// disconnect in the meantime wins.
func (m *connManager) scheduleReconnectLocked() {
	m.state = StateReconnecting
	m.hb.Stop()
	gen := m.gen
	m.logger.Warn(m.ctx, "heartbeat failed, scheduling reconnect", map[string]interface{}{
		"delay": m.reconnectDelay.String(),
	})
	m.reconnect = time.AfterFunc(m.reconnectDelay, func() { m.completeReconnect(gen) })
}

func (m *connManager) completeReconnect(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen || m.state != StateReconnecting {
		// Cancelled or superseded while the delay was pending.
		return
	}
	m.reconnect = nil

	// Tear down the old transport and dial a fresh one.
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.state = StateConnecting
	m.dialLocked()
}

// sendInitialRequestsLocked sends the subscribe-tick and history requests
// that must follow every successful (re)connect.
func (m *connManager) sendInitialRequestsLocked() {
	subscribe, err := m.codec.SubscribeTick()
	if err != nil {
		m.errs.Publish(err)
		return
	}
	historyReq, err := m.codec.HistoryRequest(time.Now())
	if err != nil {
		m.errs.Publish(err)
		return
	}

	for _, payload := range []string{subscribe, historyReq} {
		if err := m.writeLocked(payload); err != nil {
			m.errs.Publish(fmt.Errorf("%w: initial request failed: %v", ports.ErrConnectionFailed, err))
			return
		}
	}
	m.logger.Info(m.ctx, "initial requests sent", map[string]interface{}{"pair": m.pair.String()})
}

// sendHeartbeat runs on the heartbeat ticker goroutine.
func (m *connManager) sendHeartbeat() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateConnected {
		return
	}
	payload, err := codec.Ping()
	if err != nil {
		// Serialization failure is reported but never triggers a reconnect.
		m.errs.Publish(err)
		return
	}
	if err := m.writeLocked(payload); err != nil {
		m.logger.Warn(m.ctx, "heartbeat write failed", map[string]interface{}{"error": err.Error()})
	}
}

// handleFrameLocked decodes one inbound frame and routes it. Codec failures
// surface on the error channel and never tear down the connection.
func (m *connManager) handleFrameLocked(text string) {
	env, err := codec.Decode([]byte(text))
	if err != nil {
		m.errs.Publish(err)
		return
	}

	switch env.Kind {
	case codec.KindPing:
		// The pong must go out before any other message is routed for the
		// frame; handleEvent is serialized so finishing here guarantees that.
		pong, err := codec.Pong(env.PingID)
		if err != nil {
			m.errs.Publish(err)
			return
		}
		if err := m.writeLocked(pong); err != nil {
			m.logger.Warn(m.ctx, "pong write failed", map[string]interface{}{"error": err.Error()})
		}

	case codec.KindTick:
		m.ticks.Publish(env.Price)

	case codec.KindHistory:
		m.history.Publish(env.Records)
		if m.candles != nil {
			// Best-effort cache write off the event path.
			go m.persistHistory(m.ctx, env.Records)
		}

	case codec.KindUnrecognized:
		m.logger.Debug(m.ctx, "ignoring unrecognized push frame")
	}
}

func (m *connManager) persistHistory(ctx context.Context, records []domain.MarketCandle) {
	if err := m.candles.SaveBatch(ctx, m.pair, records); err != nil {
		m.logger.Error(ctx, err, "failed to cache history batch",
			map[string]interface{}{"pair": m.pair.String(), "records": len(records)})
	}
}

func (m *connManager) writeLocked(payload string) error {
	if m.conn == nil {
		return fmt.Errorf("%w: no active transport", ports.ErrConnectionFailed)
	}
	return m.conn.WriteText(m.ctx, payload)
}
