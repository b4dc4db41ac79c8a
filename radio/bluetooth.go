package radio

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fctx"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

const (
	// DefaultConnectTimeout bounds connecting to a device.
	DefaultConnectTimeout = 10 * time.Second

	blueutilTool = "blueutil"
)

// blueutilFallbacks are the install locations searched if blueutil is not in PATH.
var blueutilFallbacks = []string{
	"/usr/local/bin/blueutil",
	"/opt/homebrew/bin/blueutil",
}

// Bluetooth controls the short-range radio via blueutil.
type Bluetooth struct {
	path string

	cmdTimeout, connectTimeout time.Duration

	runner Runner
	logger *slog.Logger
}

// NewBluetooth returns a new short-range radio adapter.
func NewBluetooth(opts Options) *Bluetooth {
	b := &Bluetooth{
		path:           opts.Path,
		cmdTimeout:     opts.CommandTimeout,
		connectTimeout: opts.ConnectTimeout,
		runner:         opts.Runner,
		logger:         opts.Logger,
	}

	if b.cmdTimeout <= 0 {
		b.cmdTimeout = DefaultCommandTimeout
	}
	if b.connectTimeout <= 0 {
		b.connectTimeout = DefaultConnectTimeout
	}
	if b.runner == nil {
		b.runner = ExecRunner{}
	}

	return b
}

// Available reports whether blueutil could be found.
func (b *Bluetooth) Available() bool {
	return b.tool() != ""
}

// PowerState returns the power state of the short-range radio.
func (b *Bluetooth) PowerState(ctx context.Context) PowerState {
	out, err := b.command(b.cmdTimeout, "--power").run(ctx)
	if err != nil {
		logFailure(ctx, b.logger, "bluetooth.power-state", err)
		return PowerUnknown
	}

	switch out {
	case "1":
		return PowerOn

	case "0":
		return PowerOff
	}

	logFailure(ctx, b.logger, "bluetooth.power-state", unexpectedOutput(ctx, out))

	return PowerUnknown
}

// SetPower powers the short-range radio on or off.
func (b *Bluetooth) SetPower(ctx context.Context, on bool) bool {
	state := "0"
	if on {
		state = "1"
	}

	if _, err := b.command(b.cmdTimeout, "--power", state).run(ctx); err != nil {
		logFailure(ctx, b.logger, "bluetooth.set-power", err)
		return false
	}

	return true
}

// PairedDevices returns the list of paired devices.
// Any failure results in an empty list.
func (b *Bluetooth) PairedDevices(ctx context.Context) []PairedDevice {
	out, err := b.command(b.cmdTimeout, "--paired", "--format", "json").run(ctx)
	if err != nil {
		logFailure(ctx, b.logger, "bluetooth.paired-devices", err)
		return []PairedDevice{}
	}

	var devices []PairedDevice
	if err := json.Unmarshal([]byte(out), &devices); err != nil {
		logFailure(ctx, b.logger, "bluetooth.paired-devices",
			fault.Wrap(err,
				fctx.With(ctx, "output", out),
				ftag.With(KindCommandFailed),
				fmsg.With("Error parsing paired device list"),
			),
		)

		return []PairedDevice{}
	}

	return devices
}

// ConnectedDevices returns the list of paired devices which are connected.
func (b *Bluetooth) ConnectedDevices(ctx context.Context) []PairedDevice {
	paired := b.PairedDevices(ctx)

	connected := make([]PairedDevice, 0, len(paired))
	for _, device := range paired {
		if device.Connected {
			connected = append(connected, device)
		}
	}

	return connected
}

// Connect connects to the device with the provided address.
func (b *Bluetooth) Connect(ctx context.Context, address string) bool {
	if _, err := b.command(b.connectTimeout, "--connect", address).run(ctx); err != nil {
		logFailure(ctx, b.logger, "bluetooth.connect", err)
		return false
	}

	return true
}

// Disconnect disconnects the device with the provided address.
func (b *Bluetooth) Disconnect(ctx context.Context, address string) bool {
	if _, err := b.command(b.cmdTimeout, "--disconnect", address).run(ctx); err != nil {
		logFailure(ctx, b.logger, "bluetooth.disconnect", err)
		return false
	}

	return true
}

func (b *Bluetooth) tool() string {
	return lookupTool(b.path, blueutilTool, blueutilFallbacks...)
}

func (b *Bluetooth) command(timeout time.Duration, args ...string) command {
	return command{
		runner:  b.runner,
		tool:    b.tool(),
		args:    args,
		timeout: timeout,
	}
}
