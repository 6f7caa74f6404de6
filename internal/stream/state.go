package stream

// ConnectionState is the connection manager's lifecycle state. It is owned
// exclusively by the manager; all other components observe it through the
// published status events.
type ConnectionState int

const (
	// StateDisconnected is the initial state and the terminal state of an
	// explicit disconnect.
	StateDisconnected ConnectionState = iota
	// StateConnecting means a dial is in flight.
	StateConnecting
	// StateConnected means the transport is up and the initial requests have
	// been sent.
	StateConnected
	// StateReconnecting means a heartbeat failure was detected and a fresh
	// dial is scheduled after the reconnect delay.
	StateReconnecting
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}
