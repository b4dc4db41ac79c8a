package engine

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/darkhz/sleepwatch/prefs"
	"github.com/darkhz/sleepwatch/radio"
	"github.com/google/uuid"
	"go.uber.org/atomic"
)

const (
	// DefaultSettleDelay is the time to wait after powering on a radio,
	// before reconnecting.
	DefaultSettleDelay = 2 * time.Second

	// DefaultPowerOnDelay is the time to wait after powering on the
	// short-range radio during a favorites reconnect pass.
	DefaultPowerOnDelay = 1 * time.Second
)

// Options describes the options for the engine.
type Options struct {
	SettleDelay  time.Duration
	PowerOnDelay time.Duration

	// Logger receives the reaction logs.
	Logger *slog.Logger

	// OnReport, if set, is called with every finished reaction and pass.
	OnReport func(Report)

	// Spawn runs detached reconnect tasks. Defaults to a new goroutine.
	Spawn func(func())

	// Sleep waits for the provided duration. Defaults to time.Sleep.
	Sleep func(time.Duration)
}

// Engine reacts to sleep and wake notifications.
type Engine struct {
	wireless   WirelessRadio
	shortRange ShortRangeRadio
	prefs      Preferences

	opts   Options
	logger *slog.Logger

	state atomic.Int32

	captured *RadioState
	last     RadioState
	mu       sync.Mutex
}

// New returns a new reaction engine.
func New(wireless WirelessRadio, shortRange ShortRangeRadio, preferences Preferences, opts Options) *Engine {
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}
	if opts.PowerOnDelay < 0 {
		opts.PowerOnDelay = 0
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Spawn == nil {
		opts.Spawn = func(fn func()) {
			go fn()
		}
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}

	return &Engine{
		wireless:   wireless,
		shortRange: shortRange,
		prefs:      preferences,
		opts:       opts,
		logger:     opts.Logger,
	}
}

// DefaultOptions returns the options with the default delays.
func DefaultOptions() Options {
	return Options{
		SettleDelay:  DefaultSettleDelay,
		PowerOnDelay: DefaultPowerOnDelay,
	}
}

// State returns the current reaction state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// LastState returns the most recently captured radio state.
// It is kept after the wake reaction consumes the capture.
func (e *Engine) LastState() RadioState {
	e.mu.Lock()
	defer e.mu.Unlock()

	return cloneRadioState(e.last)
}

// OnWillSleep captures the radio state and powers the enabled radios off.
func (e *Engine) OnWillSleep() {
	ctx := context.Background()

	id := uuid.New()
	logger := e.logger.With("reaction", id.String(), "event", "will-sleep")
	started := time.Now()

	e.setState(StateSleeping)
	p := e.prefs.Snapshot()

	state := RadioState{CapturedAt: started}

	if p.BluetoothEnabled {
		state.ShortRange.Powered = e.shortRange.PowerState(ctx)
		state.ShortRange.Connected = connectedDevices(e.shortRange.PairedDevices(ctx))

		logger.Info("captured short-range state",
			"powered", state.ShortRange.Powered.String(),
			"connected", len(state.ShortRange.Connected),
		)
	}

	if p.WifiEnabled {
		state.Wireless.Powered = e.wireless.PowerState(ctx)

		if network, ok := e.wireless.CurrentNetwork(ctx); ok {
			state.Wireless.Network = network
			if err := e.prefs.SetLastWirelessNetwork(network); err != nil {
				logger.Warn("cannot persist last wireless network", "network", network, "error", err)
			}
		}

		logger.Info("captured wireless state",
			"powered", state.Wireless.Powered.String(),
			"network", state.Wireless.Network,
		)
	}

	e.storeCaptured(state)

	if p.WifiEnabled {
		e.setPower(ctx, logger, "wireless", e.wireless.SetPower, false)
	}

	if p.BluetoothEnabled {
		e.setPower(ctx, logger, "short-range", e.shortRange.SetPower, false)
	}

	e.setState(StateSlept)

	e.report(Report{
		ID:       id,
		Kind:     ReportSleep,
		Started:  started,
		Finished: time.Now(),
		Captured: cloneRadioState(state),
	})
}

// OnDidWake powers the enabled radios on, and starts the reconnect passes.
// The passes run detached, after the settle delay.
func (e *Engine) OnDidWake() {
	ctx := context.Background()

	id := uuid.New()
	logger := e.logger.With("reaction", id.String(), "event", "did-wake")
	started := time.Now()

	e.setState(StateWaking)
	state := e.takeCaptured()
	p := e.prefs.Snapshot()

	if state.IsZero() {
		logger.Info("wake without a captured sleep state")
	}

	if p.WifiEnabled {
		e.setPower(ctx, logger, "wireless", e.wireless.SetPower, true)

		if network := state.Wireless.Network; p.AutoReconnectWifi && network != "" {
			e.opts.Spawn(func() {
				e.opts.Sleep(e.opts.SettleDelay)
				e.joinNetwork(ctx, id, logger, network)
			})
		}
	}

	if p.BluetoothEnabled {
		e.setPower(ctx, logger, "short-range", e.shortRange.SetPower, true)

		if p.AutoReconnectBluetooth {
			e.opts.Spawn(func() {
				e.opts.Sleep(e.opts.SettleDelay)
				e.reconnectDevices(ctx, id, logger, p, state.ShortRange.Connected, nil)
			})
		}
	}

	e.setState(StateIdle)

	e.report(Report{
		ID:       id,
		Kind:     ReportWake,
		Started:  started,
		Finished: time.Now(),
		Captured: state,
	})
}

// ReconnectWireless joins the last known wireless network immediately.
// It reports the network name and whether the join succeeded.
func (e *Engine) ReconnectWireless(ctx context.Context) (string, bool) {
	p := e.prefs.Snapshot()

	network, ok := p.LastNetwork()
	if !ok {
		return "", false
	}

	id := uuid.New()
	logger := e.logger.With("reaction", id.String(), "event", "manual")

	return network, e.joinNetwork(ctx, id, logger, network)
}

// ReconnectShortRange runs a reconnect pass immediately using the current
// reconnect mode. progress, if set, is called after each connection attempt.
func (e *Engine) ReconnectShortRange(ctx context.Context, progress func(address string, connected bool)) PassResult {
	id := uuid.New()
	logger := e.logger.With("reaction", id.String(), "event", "manual")

	return e.reconnectDevices(ctx, id, logger, e.prefs.Snapshot(), e.LastState().ShortRange.Connected, progress)
}

// PassTargets returns the device addresses a reconnect pass would
// attempt, using the current preferences and the last captured state.
func (e *Engine) PassTargets() []string {
	p := e.prefs.Snapshot()
	if p.ReconnectMode == prefs.ReconnectLastConnected {
		return deviceAddresses(e.LastState().ShortRange.Connected)
	}

	return p.FavoriteDevices
}

func (e *Engine) joinNetwork(ctx context.Context, id uuid.UUID, logger *slog.Logger, network string) bool {
	started := time.Now()

	joined := e.wireless.Join(ctx, network)
	if joined {
		logger.Info("reconnected to wireless network", "network", network)
	} else {
		logger.Warn("cannot reconnect to wireless network", "network", network)
	}

	e.report(Report{
		ID:       id,
		Kind:     ReportWirelessReconnect,
		Started:  started,
		Finished: time.Now(),
		Network:  network,
		Joined:   joined,
	})

	return joined
}

func (e *Engine) reconnectDevices(
	ctx context.Context, id uuid.UUID, logger *slog.Logger,
	p prefs.Preferences, snapshot []radio.PairedDevice,
	progress func(string, bool),
) PassResult {
	started := time.Now()
	result := PassResult{Mode: p.ReconnectMode}

	var targets []string
	switch p.ReconnectMode {
	case prefs.ReconnectLastConnected:
		targets = deviceAddresses(snapshot)

	default:
		targets = p.FavoriteDevices
		if len(targets) > 0 && !e.shortRange.PowerState(ctx).IsOn() {
			e.setPower(ctx, logger, "short-range", e.shortRange.SetPower, true)
			e.opts.Sleep(e.opts.PowerOnDelay)
		}
	}

	for _, address := range targets {
		result.Attempted++

		connected := e.shortRange.Connect(ctx, address)
		if connected {
			result.Succeeded++
		} else {
			result.Failed = append(result.Failed, address)
		}

		if progress != nil {
			progress(address, connected)
		}
	}

	logger.Info("reconnect pass finished",
		"mode", string(result.Mode),
		"attempted", result.Attempted,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
	)

	e.report(Report{
		ID:       id,
		Kind:     ReportShortRangeReconnect,
		Started:  started,
		Finished: time.Now(),
		Pass:     result,
	})

	return result
}

func (e *Engine) setPower(
	ctx context.Context, logger *slog.Logger, name string,
	set func(context.Context, bool) bool, on bool,
) {
	if set(ctx, on) {
		logger.Info("set radio power", "radio", name, "on", on)
		return
	}

	logger.Warn("cannot set radio power", "radio", name, "on", on)
}

func (e *Engine) setState(state State) {
	e.state.Store(int32(state))
}

func (e *Engine) storeCaptured(state RadioState) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.captured = &state
	e.last = cloneRadioState(state)
}

// takeCaptured consumes the captured state.
// An empty state is returned if nothing was captured.
func (e *Engine) takeCaptured() RadioState {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.captured == nil {
		return RadioState{}
	}

	state := *e.captured
	e.captured = nil

	return state
}

func (e *Engine) report(r Report) {
	if e.opts.OnReport != nil {
		e.opts.OnReport(r)
	}
}

func connectedDevices(devices []radio.PairedDevice) []radio.PairedDevice {
	connected := make([]radio.PairedDevice, 0, len(devices))
	for _, device := range devices {
		if device.Connected {
			connected = append(connected, device)
		}
	}

	return connected
}

func deviceAddresses(devices []radio.PairedDevice) []string {
	addresses := make([]string, 0, len(devices))
	for _, device := range devices {
		addresses = append(addresses, device.Address)
	}

	return addresses
}

func cloneRadioState(state RadioState) RadioState {
	state.ShortRange.Connected = slices.Clone(state.ShortRange.Connected)

	return state
}
