package power

import (
	"sync"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

const waitTimeout = 2 * time.Second

type blockingHandler struct {
	sleeps, wakes atomic.Int32
	entered       chan Notification
	release       chan struct{}
}

func newBlockingHandler() *blockingHandler {
	return &blockingHandler{
		entered: make(chan Notification, 10),
		release: make(chan struct{}),
	}
}

func (h *blockingHandler) OnWillSleep() {
	h.sleeps.Inc()
	h.entered <- WillSleep
	<-h.release
}

func (h *blockingHandler) OnDidWake() {
	h.wakes.Inc()
	h.entered <- DidWake
	<-h.release
}

func waitFor(t *testing.T, ch <-chan Notification) Notification {
	t.Helper()

	select {
	case n := <-ch:
		return n

	case <-time.After(waitTimeout):
		require.FailNow(t, "timed out waiting for notification")
	}

	return 0
}

func TestCenterDelivers(t *testing.T) {
	c := NewNotificationCenter()
	defer c.Close()

	received := make(chan Notification, 4)
	id := c.AddObserver(WillSleep, func(n Notification) { received <- n })
	c.AddObserver(DidWake, func(n Notification) { received <- n })
	assert.Equal(t, 2, c.Observers())

	c.Post(WillSleep)
	assert.Equal(t, WillSleep, waitFor(t, received))

	c.Post(DidWake)
	assert.Equal(t, DidWake, waitFor(t, received))

	c.RemoveObserver(id)
	c.RemoveObserver(id)
	assert.Equal(t, 1, c.Observers())
	assert.EqualValues(t, 2, c.Posted())
}

func TestCenterCloseIsIdempotent(t *testing.T) {
	c := NewNotificationCenter()
	c.AddObserver(WillSleep, func(Notification) {})

	c.Close()
	c.Close()
	c.Post(WillSleep)

	assert.Zero(t, c.Observers())
}

func TestSourceStartStopIsIdempotent(t *testing.T) {
	c := NewNotificationCenter()
	defer c.Close()

	s := NewSource(c, newBlockingHandler())

	s.Start()
	s.Start()
	assert.True(t, s.Running())
	assert.Equal(t, 2, c.Observers())

	s.Stop()
	s.Stop()
	assert.False(t, s.Running())
	assert.Zero(t, c.Observers())

	s.Start()
	assert.False(t, s.Running())
	assert.Zero(t, c.Observers())
}

func TestSourceDispatchesOffDeliveryGoroutine(t *testing.T) {
	c := NewNotificationCenter()
	defer c.Close()

	h := newBlockingHandler()
	s := NewSource(c, h)
	s.Start()
	defer s.Stop()

	// The first callback blocks; the second must still be delivered.
	c.Post(WillSleep)
	assert.Equal(t, WillSleep, waitFor(t, h.entered))

	c.Post(DidWake)
	assert.Equal(t, DidWake, waitFor(t, h.entered))

	close(h.release)
}

func TestSourceRunsSameKindConcurrently(t *testing.T) {
	c := NewNotificationCenter()
	defer c.Close()

	h := newBlockingHandler()
	s := NewSource(c, h)
	s.Start()
	defer s.Stop()

	c.Post(DidWake)
	c.Post(DidWake)

	waitFor(t, h.entered)
	waitFor(t, h.entered)
	assert.EqualValues(t, 2, h.wakes.Load())
	assert.Zero(t, h.sleeps.Load())

	close(h.release)
}

func TestSourceCompletion(t *testing.T) {
	c := NewNotificationCenter()
	defer c.Close()

	h := newBlockingHandler()
	close(h.release)

	var wg sync.WaitGroup
	wg.Add(1)

	var completed atomic.Uint32
	s := NewSource(c, h, WithCompletion(func(name Notification, _ time.Duration) {
		completed.Store(uint32(name))
		wg.Done()
	}))
	s.Start()
	defer s.Stop()

	c.Post(WillSleep)
	wg.Wait()

	assert.EqualValues(t, WillSleep, completed.Load())
}

func TestSourceIgnoresNotificationsWhenStopped(t *testing.T) {
	h := newBlockingHandler()
	s := NewSource(NewNotificationCenter(), h, WithSpawner(func(fn func()) { fn() }))

	s.dispatch(WillSleep)
	assert.Zero(t, h.sleeps.Load())
}

func TestParsePrepareForSleep(t *testing.T) {
	tests := []struct {
		name   string
		signal *dbus.Signal
		want   Notification
		ok     bool
	}{
		{name: "sleep", signal: &dbus.Signal{Name: logindPrepareForSleep, Body: []any{true}}, want: WillSleep, ok: true},
		{name: "wake", signal: &dbus.Signal{Name: logindPrepareForSleep, Body: []any{false}}, want: DidWake, ok: true},
		{name: "other signal", signal: &dbus.Signal{Name: "org.freedesktop.login1.Manager.SessionNew", Body: []any{true}}},
		{name: "bad body", signal: &dbus.Signal{Name: logindPrepareForSleep, Body: []any{"yes"}}},
		{name: "nil", signal: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, ok := parsePrepareForSleep(tt.signal)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, name)
		})
	}
}

func TestNewBridge(t *testing.T) {
	_, err := NewBridge("carrier-pigeon")
	assert.ErrorIs(t, err, ErrUnknownSource)

	b, err := NewBridge(SourceSignal)
	require.NoError(t, err)
	assert.IsType(t, &SignalBridge{}, b)

	b, err = NewBridge(SourceLogind)
	require.NoError(t, err)
	assert.IsType(t, &LogindBridge{}, b)
}
