package stream

import (
	"sync"
	"time"
)

// heartbeatController drives the client-initiated keepalive: while started it
// invokes send on every tick of a fixed interval. Start and Stop are
// idempotent, so the connection manager can call them on every state
// transition without tracking whether the ticker is live.
type heartbeatController struct {
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
}

func newHeartbeatController(interval time.Duration) *heartbeatController {
	return &heartbeatController{interval: interval}
}

// Start launches the ticker goroutine. A second Start while running is a no-op.
func (h *heartbeatController) Start(send func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stop != nil {
		return
	}
	stop := make(chan struct{})
	h.stop = stop

	go func() {
		ticker := time.NewTicker(h.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				send()
			}
		}
	}()
}

// Stop cancels the ticker goroutine. Safe to call when not running.
func (h *heartbeatController) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stop != nil {
		close(h.stop)
		h.stop = nil
	}
}

// running reports whether the ticker goroutine is live.
func (h *heartbeatController) running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stop != nil
}
