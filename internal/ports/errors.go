package ports

import "errors"

// Standard application-level errors.
// Adapters and the stream core wrap underlying failures with these standard
// errors so consumers can classify them with errors.Is and render an
// actionable message.
var (
	// ErrConnectionFailed covers transport dial failures and write failures
	// against a connection that is not (or no longer) usable.
	ErrConnectionFailed = errors.New("failed to connect to the exchange feed")

	// ErrMessageSerializationFailed marks an outbound payload that could not
	// be serialized. It never tears down the connection on its own.
	ErrMessageSerializationFailed = errors.New("failed to serialize outbound message")

	// ErrDataParsingFailed marks an inbound frame that could not be decoded.
	// Parsing failures are reported and otherwise ignored.
	ErrDataParsingFailed = errors.New("failed to parse inbound message")

	// ErrHeartbeatFailed marks a silent connection detected via the transport's
	// ping/pong mechanism. This is the only error that triggers the automatic
	// reconnect path.
	ErrHeartbeatFailed = errors.New("heartbeat failed")

	// ErrInvalidResponse marks a structurally recognized frame that is missing
	// a required field (e.g. a server ping without an id).
	ErrInvalidResponse = errors.New("invalid response from the exchange feed")
)
