package radio

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fctx"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

const (
	// DefaultInterface is the wireless interface controlled by default.
	DefaultInterface = "en0"

	// DefaultJoinTimeout bounds joining a wireless network.
	DefaultJoinTimeout = 15 * time.Second

	networksetupTool = "networksetup"
)

var (
	currentNetworkPattern = regexp.MustCompile(`Current Wi-Fi Network: (.+)`)

	// networksetup exits successfully even if a join fails,
	// so the output has to be checked for these markers.
	joinFailureMarkers = []string{
		"Could not find network",
		"Failed to join network",
		"Error:",
	}
)

// Wireless controls the wireless LAN radio via networksetup.
type Wireless struct {
	path, iface string

	cmdTimeout, joinTimeout time.Duration

	runner Runner
	logger *slog.Logger
}

// NewWireless returns a new wireless LAN adapter.
func NewWireless(opts Options) *Wireless {
	w := &Wireless{
		path:        opts.Path,
		iface:       opts.Interface,
		cmdTimeout:  opts.CommandTimeout,
		joinTimeout: opts.ConnectTimeout,
		runner:      opts.Runner,
		logger:      opts.Logger,
	}

	if w.iface == "" {
		w.iface = DefaultInterface
	}
	if w.cmdTimeout <= 0 {
		w.cmdTimeout = DefaultCommandTimeout
	}
	if w.joinTimeout <= 0 {
		w.joinTimeout = DefaultJoinTimeout
	}
	if w.runner == nil {
		w.runner = ExecRunner{}
	}

	return w
}

// Interface returns the controlled interface name.
func (w *Wireless) Interface() string {
	return w.iface
}

// Available reports whether networksetup could be found.
func (w *Wireless) Available() bool {
	return w.tool() != ""
}

// PowerState returns the power state of the wireless radio.
func (w *Wireless) PowerState(ctx context.Context) PowerState {
	out, err := w.command(w.cmdTimeout, "-getairportpower", w.iface).run(ctx)
	if err != nil {
		logFailure(ctx, w.logger, "wireless.power-state", err)
		return PowerUnknown
	}

	_, state, ok := strings.Cut(out, "):")
	if !ok {
		logFailure(ctx, w.logger, "wireless.power-state", unexpectedOutput(ctx, out))
		return PowerUnknown
	}

	switch strings.TrimSpace(state) {
	case "On":
		return PowerOn

	case "Off":
		return PowerOff
	}

	return PowerUnknown
}

// SetPower powers the wireless radio on or off.
func (w *Wireless) SetPower(ctx context.Context, on bool) bool {
	state := "off"
	if on {
		state = "on"
	}

	out, err := w.command(w.cmdTimeout, "-setairportpower", w.iface, state).run(ctx)
	if err == nil && strings.Contains(out, "Error") {
		err = unexpectedOutput(ctx, out)
	}
	if err != nil {
		logFailure(ctx, w.logger, "wireless.set-power", err)
		return false
	}

	return true
}

// CurrentNetwork returns the name of the associated network, if any.
func (w *Wireless) CurrentNetwork(ctx context.Context) (string, bool) {
	out, err := w.command(w.cmdTimeout, "-getairportnetwork", w.iface).run(ctx)
	if err != nil {
		logFailure(ctx, w.logger, "wireless.current-network", err)
		return "", false
	}

	match := currentNetworkPattern.FindStringSubmatch(out)
	if match == nil {
		return "", false
	}

	name := strings.TrimSpace(match[1])

	return name, name != ""
}

// Join joins the named network.
func (w *Wireless) Join(ctx context.Context, ssid string) bool {
	if ssid == "" {
		return false
	}

	out, err := w.command(w.joinTimeout, "-setairportnetwork", w.iface, ssid).run(ctx)
	if err == nil {
		for _, marker := range joinFailureMarkers {
			if strings.Contains(out, marker) {
				err = unexpectedOutput(ctx, out)
				break
			}
		}
	}
	if err != nil {
		logFailure(ctx, w.logger, "wireless.join", err)
		return false
	}

	return true
}

// PreferredNetworks returns the list of preferred networks for the interface.
func (w *Wireless) PreferredNetworks(ctx context.Context) []string {
	out, err := w.command(w.cmdTimeout, "-listpreferredwirelessnetworks", w.iface).run(ctx)
	if err != nil {
		logFailure(ctx, w.logger, "wireless.preferred-networks", err)
		return nil
	}

	lines := strings.Split(out, "\n")
	if len(lines) < 2 {
		return nil
	}

	networks := make([]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if line = strings.TrimSpace(line); line != "" {
			networks = append(networks, line)
		}
	}

	return networks
}

func (w *Wireless) tool() string {
	return lookupTool(w.path, networksetupTool, "/usr/sbin/networksetup")
}

func (w *Wireless) command(timeout time.Duration, args ...string) command {
	return command{
		runner:  w.runner,
		tool:    w.tool(),
		args:    args,
		timeout: timeout,
	}
}

func unexpectedOutput(ctx context.Context, out string) error {
	return fault.Wrap(ErrUnexpected,
		fctx.With(ctx, "output", out),
		ftag.With(KindCommandFailed),
		fmsg.With("The utility reported a failure"),
	)
}
