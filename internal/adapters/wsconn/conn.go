// Package wsconn implements the ports.StreamConn transport port on top of
// gorilla/websocket.
package wsconn

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"cryptoTickStream/internal/ports"
)

// Config holds configuration for the WebSocket transport.
type Config struct {
	URL          string        // feed endpoint, e.g. "wss://www.lbkex.net/ws/V2/"
	Logger       ports.Logger  // required
	ReadTimeout  time.Duration // silence window before heartbeat loss is declared
	WriteTimeout time.Duration // per-write deadline
}

func (c *Config) validate() error {
	if c.URL == "" {
		return fmt.Errorf("websocket URL is required")
	}
	if c.Logger == nil {
		return fmt.Errorf("logger is required for websocket transport")
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 60 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 5 * time.Second
	}
	return nil
}

// NewFactory returns a ports.ConnFactory producing single-use WebSocket
// connections against the configured endpoint.
func NewFactory(cfg Config) (ports.ConnFactory, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return func(onEvent func(ports.ConnEvent)) ports.StreamConn {
		return &Conn{cfg: cfg, onEvent: onEvent}
	}, nil
}

// Conn is a single-use WebSocket connection. All lifecycle events and inbound
// frames are emitted sequentially from one goroutine.
type Conn struct {
	cfg     Config
	onEvent func(ports.ConnEvent)

	mu     sync.Mutex
	ws     *websocket.Conn
	closed bool
}

// Connect starts the asynchronous dial followed by the read loop.
func (c *Conn) Connect(ctx context.Context) {
	go c.run(ctx)
}

func (c *Conn) run(ctx context.Context) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		c.onEvent(ports.ConnEvent{Type: ports.ConnEventError, Err: err})
		return
	}

	c.mu.Lock()
	if c.closed {
		// Closed while the dial was in flight.
		c.mu.Unlock()
		_ = ws.Close()
		return
	}
	c.ws = ws
	c.mu.Unlock()

	// The read deadline doubles as the transport-level heartbeat monitor:
	// control pongs and any inbound frame push it forward, and hitting it is
	// reported as heartbeat loss rather than a plain read error.
	_ = ws.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	})

	pingStop := make(chan struct{})
	defer close(pingStop)
	go c.controlPingLoop(pingStop)

	c.cfg.Logger.Info(ctx, "websocket connected", map[string]interface{}{"url": c.cfg.URL})
	c.onEvent(ports.ConnEvent{Type: ports.ConnEventConnected})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			c.emitReadFailure(err)
			_ = c.Close()
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		c.onEvent(ports.ConnEvent{Type: ports.ConnEventText, Text: string(data)})
	}
}

// controlPingLoop sends WebSocket control pings so the peer's pongs keep the
// read deadline alive through quiet periods.
func (c *Conn) controlPingLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.ReadTimeout / 3)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			ws := c.ws
			closed := c.closed
			c.mu.Unlock()
			if closed || ws == nil {
				return
			}
			deadline := time.Now().Add(c.cfg.WriteTimeout)
			if err := ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				c.cfg.Logger.Warn(context.Background(), "control ping failed",
					map[string]interface{}{"error": err.Error()})
			}
		}
	}
}

// emitReadFailure classifies a read-loop error: deadline expiry means the
// heartbeat is lost, everything else is a disconnect.
func (c *Conn) emitReadFailure(err error) {
	c.mu.Lock()
	alreadyClosed := c.closed
	c.mu.Unlock()
	if alreadyClosed {
		// Local Close interrupted the read; the owner initiated this and
		// needs no event.
		return
	}

	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		c.onEvent(ports.ConnEvent{
			Type: ports.ConnEventHeartbeatLost,
			Err:  fmt.Errorf("%w: no traffic within %s", ports.ErrHeartbeatFailed, c.cfg.ReadTimeout),
		})
		return
	}
	if ce, ok := err.(*websocket.CloseError); ok {
		c.onEvent(ports.ConnEvent{
			Type:   ports.ConnEventDisconnected,
			Reason: ce.Text,
			Code:   ce.Code,
		})
		return
	}
	c.onEvent(ports.ConnEvent{
		Type:   ports.ConnEventDisconnected,
		Reason: err.Error(),
		Code:   websocket.CloseAbnormalClosure,
	})
}

// WriteText sends one text frame with the configured write deadline.
func (c *Conn) WriteText(ctx context.Context, payload string) error {
	c.mu.Lock()
	ws := c.ws
	closed := c.closed
	c.mu.Unlock()

	if closed || ws == nil {
		return fmt.Errorf("%w: connection is not established", ports.ErrConnectionFailed)
	}
	if err := ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout)); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrConnectionFailed, err)
	}
	if err := ws.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrConnectionFailed, err)
	}
	return nil
}

// Close tears the connection down. Safe to call more than once and while the
// dial is still in flight.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.ws == nil {
		return nil
	}
	deadline := time.Now().Add(c.cfg.WriteTimeout)
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return c.ws.Close()
}
