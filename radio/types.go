// Package radio controls the wireless LAN and short-range radios
// through their command-line utilities.
package radio

import (
	"context"
	"log/slog"
	"time"
)

// PowerState describes the power state of a radio.
type PowerState int

// The different power states.
const (
	PowerUnknown PowerState = iota
	PowerOff
	PowerOn
)

// String returns a display name for the power state.
func (p PowerState) String() string {
	switch p {
	case PowerOn:
		return "On"

	case PowerOff:
		return "Off"
	}

	return "Unknown"
}

// IsOn reports whether the radio is known to be powered on.
func (p PowerState) IsOn() bool {
	return p == PowerOn
}

// PairedDevice holds the properties of a paired short-range device.
type PairedDevice struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	Connected bool   `json:"connected"`
}

// DisplayName returns the device name, or its address if the name is empty.
func (p PairedDevice) DisplayName() string {
	if p.Name == "" {
		return p.Address
	}

	return p.Name
}

// Options describes the options for a radio adapter.
type Options struct {
	// Path is the path to the control utility.
	// An empty path means the utility is looked up.
	Path string

	// Interface is the network interface to control.
	Interface string

	// CommandTimeout bounds every command.
	CommandTimeout time.Duration

	// ConnectTimeout bounds commands which establish a connection,
	// like joining a network or connecting to a device.
	ConnectTimeout time.Duration

	// Runner runs the commands. Defaults to ExecRunner.
	Runner Runner

	// Logger receives command failures.
	Logger *slog.Logger
}

// logFailure logs a command failure at debug level.
func logFailure(ctx context.Context, logger *slog.Logger, op string, err error) {
	if logger == nil || err == nil {
		return
	}

	logger.DebugContext(ctx, "radio command failed",
		"op", op,
		"kind", string(Kind(err)),
		"error", err,
	)
}
