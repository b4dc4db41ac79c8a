package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/darkhz/sleepwatch/prefs"
	"github.com/darkhz/sleepwatch/radio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type callLog struct {
	calls []string
	mu    sync.Mutex
}

func (c *callLog) add(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, fmt.Sprintf(format, args...))
}

func (c *callLog) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string{}, c.calls...)
}

func (c *callLog) index(call string) int {
	for i, c := range c.all() {
		if c == call {
			return i
		}
	}

	return -1
}

type fakeWireless struct {
	log     *callLog
	power   radio.PowerState
	network string
	joins   map[string]bool
}

func (f *fakeWireless) Available() bool { return true }

func (f *fakeWireless) PowerState(context.Context) radio.PowerState {
	f.log.add("wifi.power-state")
	return f.power
}

func (f *fakeWireless) SetPower(_ context.Context, on bool) bool {
	f.log.add("wifi.set-power %t", on)
	return true
}

func (f *fakeWireless) CurrentNetwork(context.Context) (string, bool) {
	f.log.add("wifi.current-network")
	return f.network, f.network != ""
}

func (f *fakeWireless) Join(_ context.Context, ssid string) bool {
	f.log.add("wifi.join %s", ssid)
	return f.joins[ssid]
}

type fakeShortRange struct {
	log      *callLog
	power    radio.PowerState
	paired   []radio.PairedDevice
	connects map[string]bool
}

func (f *fakeShortRange) Available() bool { return true }

func (f *fakeShortRange) PowerState(context.Context) radio.PowerState {
	f.log.add("bt.power-state")
	return f.power
}

func (f *fakeShortRange) SetPower(_ context.Context, on bool) bool {
	f.log.add("bt.set-power %t", on)
	return true
}

func (f *fakeShortRange) PairedDevices(context.Context) []radio.PairedDevice {
	f.log.add("bt.paired-devices")
	return f.paired
}

func (f *fakeShortRange) Connect(_ context.Context, address string) bool {
	f.log.add("bt.connect %s", address)
	return f.connects[address]
}

func (f *fakeShortRange) Disconnect(_ context.Context, address string) bool {
	f.log.add("bt.disconnect %s", address)
	return true
}

type fakePrefs struct {
	prefs   prefs.Preferences
	saved   []string
	saveErr error
	mu      sync.Mutex
}

func (f *fakePrefs) Snapshot() prefs.Preferences {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.prefs.Clone()
}

func (f *fakePrefs) SetLastWirelessNetwork(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.saved = append(f.saved, name)
	f.prefs.LastWifiNetwork = &name

	return f.saveErr
}

type testEngine struct {
	*Engine

	log      *callLog
	wireless *fakeWireless
	short    *fakeShortRange
	prefs    *fakePrefs
	sleeps   []time.Duration
	reports  []Report
}

// newTestEngine returns an engine which runs detached tasks synchronously.
func newTestEngine(p prefs.Preferences) *testEngine {
	log := &callLog{}

	te := &testEngine{
		log:      log,
		wireless: &fakeWireless{log: log, power: radio.PowerOn, joins: map[string]bool{}},
		short:    &fakeShortRange{log: log, power: radio.PowerOn, connects: map[string]bool{}},
		prefs:    &fakePrefs{prefs: p},
	}

	te.Engine = New(te.wireless, te.short, te.prefs, Options{
		SettleDelay:  DefaultSettleDelay,
		PowerOnDelay: DefaultPowerOnDelay,
		Spawn:        func(fn func()) { fn() },
		Sleep: func(d time.Duration) {
			te.log.add("sleep %s", d)
			te.sleeps = append(te.sleeps, d)
		},
		OnReport: func(r Report) {
			te.reports = append(te.reports, r)
		},
	})

	return te
}

func (te *testEngine) report(t *testing.T, kind ReportKind) Report {
	t.Helper()

	for _, r := range te.reports {
		if r.Kind == kind {
			return r
		}
	}

	require.FailNow(t, "no report", "kind %s", kind)

	return Report{}
}

func (te *testEngine) count(prefix string) int {
	var n int
	for _, call := range te.log.all() {
		if len(call) >= len(prefix) && call[:len(prefix)] == prefix {
			n++
		}
	}

	return n
}

func TestFavoritesPassCountsSuccesses(t *testing.T) {
	p := prefs.Defaults()
	p.FavoriteDevices = []string{"A", "B", "C"}

	te := newTestEngine(p)
	te.short.connects["B"] = true

	te.OnDidWake()

	pass := te.report(t, ReportShortRangeReconnect).Pass
	assert.Equal(t, prefs.ReconnectFavorites, pass.Mode)
	assert.Equal(t, 3, pass.Attempted)
	assert.Equal(t, 1, pass.Succeeded)
	assert.Equal(t, []string{"A", "C"}, pass.Failed)

	a, b, c := te.log.index("bt.connect A"), te.log.index("bt.connect B"), te.log.index("bt.connect C")
	assert.True(t, a >= 0 && a < b && b < c, "favorites must be connected in order")
}

func TestFavoritesPassPowersOnFirst(t *testing.T) {
	p := prefs.Defaults()
	p.WifiEnabled = false
	p.BluetoothEnabled = true
	p.FavoriteDevices = []string{"A"}

	te := newTestEngine(p)
	te.short.power = radio.PowerOff

	te.OnDidWake()

	calls := te.log.all()
	powerOn := te.log.index("sleep " + DefaultPowerOnDelay.String())
	connect := te.log.index("bt.connect A")
	require.NotEqual(t, -1, powerOn)
	assert.Less(t, powerOn, connect)
	assert.Equal(t, "bt.set-power true", calls[powerOn-1])
}

func TestLastConnectedPassWithEmptySnapshot(t *testing.T) {
	p := prefs.Defaults()
	p.ReconnectMode = prefs.ReconnectLastConnected
	p.FavoriteDevices = []string{"A"}

	te := newTestEngine(p)
	te.OnDidWake()

	pass := te.report(t, ReportShortRangeReconnect).Pass
	assert.Zero(t, pass.Attempted)
	assert.Zero(t, te.count("bt.connect"))
}

func TestLastConnectedPassUsesSleepSnapshot(t *testing.T) {
	p := prefs.Defaults()
	p.ReconnectMode = prefs.ReconnectLastConnected

	te := newTestEngine(p)
	te.short.paired = []radio.PairedDevice{
		{Name: "Keyboard", Address: "K", Connected: false},
		{Name: "Headphones", Address: "H", Connected: true},
		{Name: "Mouse", Address: "M", Connected: true},
	}
	te.short.connects["H"] = true

	te.OnWillSleep()
	te.OnDidWake()

	pass := te.report(t, ReportShortRangeReconnect).Pass
	assert.Equal(t, 2, pass.Attempted)
	assert.Equal(t, 1, pass.Succeeded)
	assert.Equal(t, []string{"M"}, pass.Failed)
	assert.Less(t, te.log.index("bt.connect H"), te.log.index("bt.connect M"))
	assert.Equal(t, -1, te.log.index("bt.connect K"))
}

func TestSleepCapturesBeforeDisabling(t *testing.T) {
	te := newTestEngine(prefs.Defaults())
	te.wireless.network = "Home"

	te.OnWillSleep()

	assert.Less(t, te.log.index("bt.paired-devices"), te.log.index("bt.set-power false"))
	assert.Less(t, te.log.index("wifi.current-network"), te.log.index("wifi.set-power false"))
	assert.Less(t, te.log.index("wifi.set-power false"), te.log.index("bt.set-power false"))
	assert.Equal(t, []string{"Home"}, te.prefs.saved)
	assert.Equal(t, StateSlept, te.State())

	captured := te.report(t, ReportSleep).Captured
	assert.Equal(t, "Home", captured.Wireless.Network)
	assert.Equal(t, radio.PowerOn, captured.Wireless.Powered)
}

func TestSleepWithoutNetworkKeepsLastNetwork(t *testing.T) {
	te := newTestEngine(prefs.Defaults())

	te.OnWillSleep()

	assert.Empty(t, te.prefs.saved)
	assert.Equal(t, 1, te.count("wifi.set-power false"))
}

func TestWirelessDisabled(t *testing.T) {
	p := prefs.Defaults()
	p.WifiEnabled = false

	te := newTestEngine(p)
	te.wireless.network = "Home"

	te.OnWillSleep()
	te.OnDidWake()

	assert.Zero(t, te.count("wifi."))
	assert.Empty(t, te.prefs.saved)
	assert.Equal(t, 1, te.count("bt.set-power false"))
	assert.Equal(t, 1, te.count("bt.set-power true"))
}

func TestShortRangeDisabled(t *testing.T) {
	p := prefs.Defaults()
	p.BluetoothEnabled = false
	p.FavoriteDevices = []string{"A"}

	te := newTestEngine(p)

	te.OnWillSleep()
	te.OnDidWake()

	assert.Zero(t, te.count("bt."))
	assert.Equal(t, 1, te.count("wifi.set-power true"))
}

func TestWakeJoinsCapturedNetworkAfterSettleDelay(t *testing.T) {
	te := newTestEngine(prefs.Defaults())
	te.wireless.network = "Home"
	te.wireless.joins["Home"] = true

	te.OnWillSleep()
	te.OnDidWake()

	powerOn := te.log.index("wifi.set-power true")
	settle := te.log.index("sleep " + DefaultSettleDelay.String())
	join := te.log.index("wifi.join Home")

	assert.True(t, powerOn >= 0 && powerOn < settle && settle < join)

	r := te.report(t, ReportWirelessReconnect)
	assert.True(t, r.Joined)
	assert.Equal(t, "Home", r.Network)
	assert.Equal(t, te.report(t, ReportWake).ID, r.ID)
	assert.Equal(t, StateIdle, te.State())
}

func TestWakeConsumesCapturedState(t *testing.T) {
	te := newTestEngine(prefs.Defaults())
	te.wireless.network = "Home"

	te.OnWillSleep()
	te.OnDidWake()
	te.OnDidWake()

	assert.Equal(t, 1, te.count("wifi.join"))
	assert.Equal(t, "Home", te.LastState().Wireless.Network)
}

func TestWakeWithoutSleep(t *testing.T) {
	p := prefs.Defaults()
	p.FavoriteDevices = []string{"A"}

	te := newTestEngine(p)
	te.prefs.prefs.LastWifiNetwork = new(string)
	*te.prefs.prefs.LastWifiNetwork = "Persisted"

	te.OnDidWake()

	assert.Equal(t, 1, te.count("wifi.set-power true"))
	assert.Zero(t, te.count("wifi.join"), "only a network captured in this cycle is rejoined")
	assert.Equal(t, 1, te.count("bt.connect A"))
	assert.True(t, te.report(t, ReportWake).Captured.IsZero())
}

func TestAutoReconnectDisabled(t *testing.T) {
	p := prefs.Defaults()
	p.AutoReconnectWifi = false
	p.AutoReconnectBluetooth = false
	p.FavoriteDevices = []string{"A"}

	te := newTestEngine(p)
	te.wireless.network = "Home"

	te.OnWillSleep()
	te.OnDidWake()

	assert.Zero(t, te.count("wifi.join"))
	assert.Zero(t, te.count("bt.connect"))
	assert.Equal(t, 1, te.count("wifi.set-power true"))
	assert.Equal(t, 1, te.count("bt.set-power true"))
}

func TestPersistFailureDoesNotAbortSleep(t *testing.T) {
	te := newTestEngine(prefs.Defaults())
	te.wireless.network = "Home"
	te.prefs.saveErr = errors.New("disk full")

	te.OnWillSleep()

	assert.Equal(t, 1, te.count("wifi.set-power false"))
	assert.Equal(t, 1, te.count("bt.set-power false"))
}

func TestManualReconnect(t *testing.T) {
	p := prefs.Defaults()
	p.FavoriteDevices = []string{"A", "B"}

	te := newTestEngine(p)
	te.short.connects["A"] = true

	_, ok := te.ReconnectWireless(context.Background())
	assert.False(t, ok)

	te.prefs.prefs.LastWifiNetwork = new(string)
	*te.prefs.prefs.LastWifiNetwork = "Office"
	te.wireless.joins["Office"] = true

	network, ok := te.ReconnectWireless(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "Office", network)

	var progress []string
	pass := te.ReconnectShortRange(context.Background(), func(address string, connected bool) {
		progress = append(progress, fmt.Sprintf("%s:%t", address, connected))
	})
	assert.Equal(t, 2, pass.Attempted)
	assert.Equal(t, []string{"A:true", "B:false"}, progress)
	assert.Equal(t, []string{"A", "B"}, te.PassTargets())
}

func TestConcurrentReactions(t *testing.T) {
	log := &callLog{}
	p := prefs.Defaults()
	p.FavoriteDevices = []string{"A"}

	var wg sync.WaitGroup
	wg.Add(4)

	e := New(
		&fakeWireless{log: log, network: "Home", joins: map[string]bool{"Home": true}},
		&fakeShortRange{log: log, power: radio.PowerOn, connects: map[string]bool{"A": true}},
		&fakePrefs{prefs: p},
		Options{
			OnReport: func(r Report) {
				if r.Kind == ReportShortRangeReconnect {
					wg.Done()
				}
			},
		},
	)

	for range 2 {
		go e.OnWillSleep()
		go e.OnDidWake()
		go e.OnDidWake()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		require.FailNow(t, "reconnect passes did not finish")
	}
}

func TestStatus(t *testing.T) {
	p := prefs.Defaults()
	p.FavoriteDevices = []string{"b"}

	te := newTestEngine(p)
	te.wireless.network = "Home"
	te.short.power = radio.PowerOff
	te.short.paired = []radio.PairedDevice{
		{Name: "zebra", Address: "z"},
		{Name: "Beta", Address: "b"},
		{Name: "alpha", Address: "a"},
		{Name: "Yak", Address: "y", Connected: true},
	}

	status := te.Status(context.Background())
	assert.Equal(t, radio.PowerOn, status.Wireless.Powered)
	assert.Equal(t, "Home", status.Wireless.Network)
	assert.Equal(t, radio.PowerOff, status.ShortRange.Powered)

	var order []string
	for _, device := range status.ShortRange.Devices {
		order = append(order, device.Address)
	}
	assert.Equal(t, []string{"y", "a", "b", "z"}, order)
	assert.True(t, status.ShortRange.Devices[2].Favorite)
	assert.False(t, status.ShortRange.Devices[0].Favorite)
}

func TestToggleConnection(t *testing.T) {
	te := newTestEngine(prefs.Defaults())
	te.short.connects["a"] = true

	assert.True(t, te.ToggleConnection(context.Background(), radio.PairedDevice{Address: "a"}))
	assert.True(t, te.ToggleConnection(context.Background(), radio.PairedDevice{Address: "a", Connected: true}))
	assert.Equal(t, 1, te.count("bt.connect a"))
	assert.Equal(t, 1, te.count("bt.disconnect a"))
}
