//go:build !windows

package power

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// SignalBridge posts a WillSleep notification on SIGUSR1, and a DidWake
// notification on SIGUSR2. A sleep hook (for example, sleepwatcher's
// ~/.sleep and ~/.wakeup scripts) is expected to signal the process.
type SignalBridge struct {
	signals chan os.Signal
	done    chan struct{}

	mu sync.Mutex
}

// NewSignalBridge returns a new signal bridge.
func NewSignalBridge() *SignalBridge {
	return &SignalBridge{}
}

// Start starts forwarding signals.
func (b *SignalBridge) Start(poster Poster) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.signals != nil {
		return nil
	}

	b.signals = make(chan os.Signal, 4)
	b.done = make(chan struct{})
	signal.Notify(b.signals, syscall.SIGUSR1, syscall.SIGUSR2)

	go b.forward(poster, b.signals, b.done)

	return nil
}

// Stop stops forwarding signals.
func (b *SignalBridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.signals == nil {
		return
	}

	signal.Stop(b.signals)
	close(b.done)
	b.signals, b.done = nil, nil
}

func (b *SignalBridge) forward(poster Poster, signals <-chan os.Signal, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return

		case sig := <-signals:
			switch sig {
			case syscall.SIGUSR1:
				poster.Post(WillSleep)

			case syscall.SIGUSR2:
				poster.Post(DidWake)
			}
		}
	}
}
