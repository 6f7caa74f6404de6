package stream

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeartbeatController_FiresOnInterval(t *testing.T) {
	hb := newHeartbeatController(10 * time.Millisecond)
	var fired atomic.Int64

	hb.Start(func() { fired.Add(1) })
	defer hb.Stop()

	require.Eventually(t, func() bool { return fired.Load() >= 3 },
		time.Second, 5*time.Millisecond)
	assert.True(t, hb.running())
}

func TestHeartbeatController_StopHaltsTicker(t *testing.T) {
	hb := newHeartbeatController(10 * time.Millisecond)
	var fired atomic.Int64

	hb.Start(func() { fired.Add(1) })
	require.Eventually(t, func() bool { return fired.Load() >= 1 },
		time.Second, 5*time.Millisecond)

	hb.Stop()
	assert.False(t, hb.running())

	settled := fired.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, fired.Load(), "ticks after Stop")
}

func TestHeartbeatController_StartAndStopAreIdempotent(t *testing.T) {
	hb := newHeartbeatController(5 * time.Millisecond)
	var fired atomic.Int64

	hb.Start(func() { fired.Add(1) })
	hb.Start(func() { fired.Add(100) }) // ignored: already running

	require.Eventually(t, func() bool { return fired.Load() >= 2 },
		time.Second, time.Millisecond)
	assert.Less(t, fired.Load(), int64(100), "second Start must not attach a second sender")

	hb.Stop()
	hb.Stop() // safe when not running
	assert.False(t, hb.running())
}
