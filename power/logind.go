package power

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	logindManagerIface      = "org.freedesktop.login1.Manager"
	logindPrepareForSleep   = logindManagerIface + ".PrepareForSleep"
	dbusSignalAddMatchIface = "org.freedesktop.DBus.AddMatch"
)

// LogindBridge posts notifications when systemd-logind emits PrepareForSleep
// on the system bus. The signal carries true before sleep and false after wake.
type LogindBridge struct {
	conn    *dbus.Conn
	signals chan *dbus.Signal
	done    chan struct{}

	mu sync.Mutex
}

// NewLogindBridge returns a new logind bridge.
func NewLogindBridge() *LogindBridge {
	return &LogindBridge{}
}

// Start connects to the system bus and starts forwarding sleep signals.
func (b *LogindBridge) Start(poster Poster) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn != nil {
		return nil
	}

	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return fmt.Errorf("cannot connect to the system bus: %w", err)
	}

	signalMatch := "type='signal',interface='" + logindManagerIface + "',member='PrepareForSleep'"
	if err := conn.BusObject().Call(dbusSignalAddMatchIface, 0, signalMatch).Err; err != nil {
		conn.Close()
		return fmt.Errorf("cannot watch for sleep signals: %w", err)
	}

	b.conn = conn
	b.signals = make(chan *dbus.Signal, 10)
	b.done = make(chan struct{})
	conn.Signal(b.signals)

	go b.forward(poster, b.signals, b.done)

	return nil
}

// Stop stops forwarding signals and closes the bus connection.
func (b *LogindBridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn == nil {
		return
	}

	b.conn.RemoveSignal(b.signals)
	close(b.done)
	b.conn.Close()

	b.conn, b.signals, b.done = nil, nil, nil
}

func (b *LogindBridge) forward(poster Poster, signals <-chan *dbus.Signal, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return

		case signal, ok := <-signals:
			if !ok {
				return
			}

			if name, ok := parsePrepareForSleep(signal); ok {
				poster.Post(name)
			}
		}
	}
}

// parsePrepareForSleep converts a PrepareForSleep signal into a notification.
func parsePrepareForSleep(signal *dbus.Signal) (Notification, bool) {
	if signal == nil || signal.Name != logindPrepareForSleep || len(signal.Body) != 1 {
		return 0, false
	}

	sleeping, ok := signal.Body[0].(bool)
	if !ok {
		return 0, false
	}

	if sleeping {
		return WillSleep, true
	}

	return DidWake, true
}
