package wsconn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoTickStream/internal/ports"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "missing url", cfg: Config{Logger: &mockLogger{}}, wantErr: true},
		{name: "missing logger", cfg: Config{URL: "ws://feed"}, wantErr: true},
		{name: "valid with defaults", cfg: Config{URL: "ws://feed", Logger: &mockLogger{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFactory(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// startServer runs a test WebSocket endpoint and returns its ws:// URL.
func startServer(t *testing.T, handler func(*websocket.Conn)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, url string, readTimeout time.Duration) (ports.StreamConn, <-chan ports.ConnEvent) {
	t.Helper()
	factory, err := NewFactory(Config{
		URL:         url,
		Logger:      &mockLogger{},
		ReadTimeout: readTimeout,
	})
	require.NoError(t, err)

	events := make(chan ports.ConnEvent, 32)
	conn := factory(func(ev ports.ConnEvent) { events <- ev })
	conn.Connect(context.Background())
	t.Cleanup(func() { conn.Close() })
	return conn, events
}

func waitFor(t *testing.T, events <-chan ports.ConnEvent, want ports.ConnEventType) ports.ConnEvent {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Type == want {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event type %d", want)
			return ports.ConnEvent{}
		}
	}
}

func TestConn_RoundTrip(t *testing.T) {
	received := make(chan string, 1)
	url := startServer(t, func(server *websocket.Conn) {
		// Echo loop: record the client's frame, answer with a tick frame.
		_, msg, err := server.ReadMessage()
		if err != nil {
			return
		}
		received <- string(msg)
		_ = server.WriteMessage(websocket.TextMessage, []byte(`{"tick":{"usd":1.5}}`))
		// Hold the connection open until the client walks away.
		for {
			if _, _, err := server.ReadMessage(); err != nil {
				return
			}
		}
	})

	conn, events := dial(t, url, time.Minute)
	waitFor(t, events, ports.ConnEventConnected)

	require.NoError(t, conn.WriteText(context.Background(), `{"action":"ping"}`))
	select {
	case msg := <-received:
		assert.Equal(t, `{"action":"ping"}`, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the frame")
	}

	ev := waitFor(t, events, ports.ConnEventText)
	assert.Equal(t, `{"tick":{"usd":1.5}}`, ev.Text)
}

func TestConn_ServerCloseYieldsDisconnect(t *testing.T) {
	url := startServer(t, func(server *websocket.Conn) {
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "maintenance")
		_ = server.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	})

	_, events := dial(t, url, time.Minute)
	waitFor(t, events, ports.ConnEventConnected)

	ev := waitFor(t, events, ports.ConnEventDisconnected)
	assert.Equal(t, websocket.CloseGoingAway, ev.Code)
	assert.Equal(t, "maintenance", ev.Reason)
}

func TestConn_DialFailureYieldsError(t *testing.T) {
	// Nothing listens here.
	_, events := dial(t, "ws://127.0.0.1:1", time.Minute)

	ev := waitFor(t, events, ports.ConnEventError)
	assert.Error(t, ev.Err)
}

func TestConn_SilentPeerYieldsHeartbeatLost(t *testing.T) {
	url := startServer(t, func(server *websocket.Conn) {
		// Never read: control pings go unanswered, so the client's read
		// deadline expires.
		time.Sleep(2 * time.Second)
	})

	_, events := dial(t, url, 100*time.Millisecond)
	waitFor(t, events, ports.ConnEventConnected)

	ev := waitFor(t, events, ports.ConnEventHeartbeatLost)
	assert.ErrorIs(t, ev.Err, ports.ErrHeartbeatFailed)
}

func TestConn_WriteBeforeConnectFails(t *testing.T) {
	factory, err := NewFactory(Config{URL: "ws://feed", Logger: &mockLogger{}})
	require.NoError(t, err)
	conn := factory(func(ports.ConnEvent) {})

	err = conn.WriteText(context.Background(), "payload")
	assert.ErrorIs(t, err, ports.ErrConnectionFailed)
}

func TestConn_CloseIsIdempotent(t *testing.T) {
	factory, err := NewFactory(Config{URL: "ws://feed", Logger: &mockLogger{}})
	require.NoError(t, err)
	conn := factory(func(ports.ConnEvent) {})

	assert.NoError(t, conn.Close())
	assert.NoError(t, conn.Close())
}
