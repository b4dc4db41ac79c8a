// Package engine reacts to sleep and wake notifications by
// capturing, disabling and restoring the radios.
package engine

import (
	"context"
	"time"

	"github.com/darkhz/sleepwatch/prefs"
	"github.com/darkhz/sleepwatch/radio"
	"github.com/google/uuid"
)

// WirelessRadio controls the wireless LAN radio.
type WirelessRadio interface {
	Available() bool
	PowerState(ctx context.Context) radio.PowerState
	SetPower(ctx context.Context, on bool) bool
	CurrentNetwork(ctx context.Context) (string, bool)
	Join(ctx context.Context, ssid string) bool
}

// ShortRangeRadio controls the short-range radio.
type ShortRangeRadio interface {
	Available() bool
	PowerState(ctx context.Context) radio.PowerState
	SetPower(ctx context.Context, on bool) bool
	PairedDevices(ctx context.Context) []radio.PairedDevice
	Connect(ctx context.Context, address string) bool
	Disconnect(ctx context.Context, address string) bool
}

// Preferences provides the user's preferences.
type Preferences interface {
	Snapshot() prefs.Preferences
	SetLastWirelessNetwork(name string) error
}

// State is the reaction state of the engine.
type State int32

// The different engine states.
const (
	StateIdle State = iota
	StateSleeping
	StateSlept
	StateWaking
)

// String returns the name of the state.
func (s State) String() string {
	switch s {
	case StateSleeping:
		return "sleeping"

	case StateSlept:
		return "slept"

	case StateWaking:
		return "waking"
	}

	return "idle"
}

// WirelessState is the captured state of the wireless radio.
type WirelessState struct {
	Powered radio.PowerState
	Network string
}

// ShortRangeState is the captured state of the short-range radio.
type ShortRangeState struct {
	Powered   radio.PowerState
	Connected []radio.PairedDevice
}

// RadioState is the state of the radios captured before sleep.
type RadioState struct {
	Wireless   WirelessState
	ShortRange ShortRangeState
	CapturedAt time.Time
}

// IsZero reports whether nothing was captured.
func (r RadioState) IsZero() bool {
	return r.CapturedAt.IsZero()
}

// PassResult is the outcome of a device reconnect pass.
type PassResult struct {
	Mode      prefs.ReconnectMode
	Attempted int
	Succeeded int
	Failed    []string
}

// ReportKind describes what a report is about.
type ReportKind string

// The different report kinds.
const (
	ReportSleep               ReportKind = "sleep"
	ReportWake                ReportKind = "wake"
	ReportWirelessReconnect   ReportKind = "wireless-reconnect"
	ReportShortRangeReconnect ReportKind = "short-range-reconnect"
)

// Report describes a finished reaction or reconnect pass.
// Passes started by a wake reaction share its ID.
type Report struct {
	ID       uuid.UUID
	Kind     ReportKind
	Started  time.Time
	Finished time.Time

	// Captured is set for sleep reports.
	Captured RadioState

	// Network and Joined are set for wireless reconnect reports.
	Network string
	Joined  bool

	// Pass is set for short-range reconnect reports.
	Pass PassResult
}

// DeviceStatus is a paired device with its favorite flag.
type DeviceStatus struct {
	radio.PairedDevice
	Favorite bool
}

// WirelessStatus is the current state of the wireless radio.
type WirelessStatus struct {
	Available bool
	Powered   radio.PowerState
	Network   string
}

// ShortRangeStatus is the current state of the short-range radio.
type ShortRangeStatus struct {
	Available bool
	Powered   radio.PowerState
	Devices   []DeviceStatus
}

// Status is a point-in-time view of the radios and preferences.
type Status struct {
	State       State
	Wireless    WirelessStatus
	ShortRange  ShortRangeStatus
	Preferences prefs.Preferences
}
