package power

import (
	"errors"
	"fmt"
	"runtime"
)

// Bridge forwards the operating system's power notifications to a poster.
type Bridge interface {
	Start(poster Poster) error
	Stop()
}

// The different power event sources.
const (
	SourceSignal = "signal"
	SourceLogind = "logind"
)

// ErrUnknownSource is returned if a power event source name is not known.
var ErrUnknownSource = errors.New("unknown power event source")

// DefaultSourceName returns the power event source for the current platform.
func DefaultSourceName() string {
	if runtime.GOOS == "linux" {
		return SourceLogind
	}

	return SourceSignal
}

// NewBridge returns the bridge for the named power event source.
func NewBridge(name string) (Bridge, error) {
	switch name {
	case SourceSignal:
		return NewSignalBridge(), nil

	case SourceLogind:
		return NewLogindBridge(), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownSource, name)
}
