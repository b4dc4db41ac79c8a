package power

import "errors"

// SignalBridge is not supported on Windows.
type SignalBridge struct{}

// NewSignalBridge returns a new signal bridge.
func NewSignalBridge() *SignalBridge {
	return &SignalBridge{}
}

// Start always fails, since there are no user signals on Windows.
func (b *SignalBridge) Start(Poster) error {
	return errors.New("signal power events are not supported on this platform")
}

// Stop does nothing.
func (b *SignalBridge) Stop() {}
