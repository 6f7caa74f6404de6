package ports

import "context"

// ConnEventType classifies notifications delivered by a StreamConn.
type ConnEventType int

const (
	// ConnEventConnected signals that the dial completed and the connection
	// is ready for traffic.
	ConnEventConnected ConnEventType = iota
	// ConnEventDisconnected signals that the peer or the network closed the
	// connection. Reason and Code carry the close details.
	ConnEventDisconnected
	// ConnEventText delivers one inbound text frame.
	ConnEventText
	// ConnEventError signals a dial failure. Err carries the cause.
	ConnEventError
	// ConnEventHeartbeatLost signals that the transport's own ping/pong
	// mechanism timed out. Err wraps ErrHeartbeatFailed.
	ConnEventHeartbeatLost
)

// ConnEvent is a single notification from the transport layer.
type ConnEvent struct {
	Type   ConnEventType
	Text   string // payload for ConnEventText
	Reason string // close reason for ConnEventDisconnected
	Code   int    // close code for ConnEventDisconnected
	Err    error  // cause for ConnEventError / ConnEventHeartbeatLost
}

// StreamConn is a single-use bidirectional text-frame connection to the
// exchange feed. Lifecycle and inbound frames are reported through the event
// handler supplied to the ConnFactory; implementations must deliver events
// one at a time.
type StreamConn interface {
	// Connect starts the asynchronous dial. The outcome is reported as a
	// ConnEventConnected or ConnEventError event.
	Connect(ctx context.Context)

	// WriteText sends one text frame. It fails if the connection is not
	// established or already closed.
	WriteText(ctx context.Context, payload string) error

	// Close tears the connection down. Safe to call more than once and
	// before the dial has completed.
	Close() error
}

// ConnFactory builds a fresh StreamConn that delivers its events to onEvent.
// The connection manager dials a new conn through the factory on every
// (re)connect; a StreamConn is never reused after Close.
type ConnFactory func(onEvent func(ConnEvent)) StreamConn
