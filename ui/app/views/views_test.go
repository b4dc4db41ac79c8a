package views

import (
	"fmt"
	"testing"
	"time"

	"github.com/darkhz/sleepwatch/engine"
	"github.com/darkhz/sleepwatch/prefs"
	"github.com/darkhz/sleepwatch/radio"
	"github.com/darkhz/sleepwatch/ui/keybindings"
	"github.com/darkhz/sleepwatch/ui/theme"
	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportMessage(t *testing.T) {
	tests := []struct {
		name   string
		report engine.Report
		want   string
	}{
		{
			name: "sleep",
			report: engine.Report{
				Kind: engine.ReportSleep,
				Captured: engine.RadioState{
					Wireless: engine.WirelessState{Network: "Home"},
					ShortRange: engine.ShortRangeState{
						Connected: []radio.PairedDevice{{Address: "aa-bb"}},
					},
				},
			},
			want: "Going to sleep: saved network Home, 1 connected device(s)",
		},
		{
			name:   "sleep without network",
			report: engine.Report{Kind: engine.ReportSleep},
			want:   "Going to sleep: saved network none, 0 connected device(s)",
		},
		{
			name:   "wake",
			report: engine.Report{Kind: engine.ReportWake},
			want:   "Woke up from sleep",
		},
		{
			name:   "no network",
			report: engine.Report{Kind: engine.ReportWirelessReconnect},
			want:   "No Wi-Fi network to rejoin",
		},
		{
			name:   "joined",
			report: engine.Report{Kind: engine.ReportWirelessReconnect, Network: "Home", Joined: true},
			want:   "Joined Home",
		},
		{
			name:   "join failed",
			report: engine.Report{Kind: engine.ReportWirelessReconnect, Network: "Home"},
			want:   "Could not join Home",
		},
		{
			name: "pass",
			report: engine.Report{
				Kind: engine.ReportShortRangeReconnect,
				Pass: engine.PassResult{Mode: prefs.ReconnectLastConnected, Attempted: 2, Succeeded: 1},
			},
			want: "Reconnected 1 of 2 device(s) (Most Recent)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reportMessage(tt.report))
		})
	}
}

func TestPassMessageEmpty(t *testing.T) {
	assert.Equal(t,
		"No devices to reconnect (Favorites Only)",
		passMessage(engine.PassResult{Mode: prefs.ReconnectFavorites}),
	)
}

func TestCapturedText(t *testing.T) {
	assert.Equal(t, "never", capturedText(engine.RadioState{}))

	captured := time.Date(2026, 1, 2, 3, 4, 5, 0, time.Local)
	state := engine.RadioState{
		Wireless:   engine.WirelessState{Powered: radio.PowerOn, Network: "Home"},
		ShortRange: engine.ShortRangeState{Powered: radio.PowerOff},
		CapturedAt: captured,
	}

	assert.Equal(t,
		"2026-01-02 03:04:05 (Wi-Fi On on Home, Bluetooth Off with 0 device(s))",
		capturedText(state),
	)
}

func TestStatusItems(t *testing.T) {
	status := engine.Status{
		State: engine.StateSlept,
		Wireless: engine.WirelessStatus{
			Available: true,
			Powered:   radio.PowerOn,
			Network:   "Home",
		},
		ShortRange: engine.ShortRangeStatus{
			Available: false,
		},
	}

	items := statusItems(status)
	require.Len(t, items, 4)

	assert.Equal(t, statusItem{Region: "wifi", Title: "Wi-Fi On", Color: theme.ThemeRadioPowered}, items[0])
	assert.Equal(t, statusItem{Region: "network", Title: "Home", Color: theme.ThemeNetwork}, items[1])
	assert.Equal(t, statusItem{Region: "bluetooth", Title: "Bluetooth Unavailable", Color: theme.ThemeRadioUnknown}, items[2])
	assert.Equal(t, statusItem{Region: "state", Title: "Slept", Color: theme.ThemeRadio}, items[3])

	status.State = engine.StateIdle
	status.Wireless.Network = ""
	status.Wireless.Powered = radio.PowerOff

	items = statusItems(status)
	require.Len(t, items, 2)
	assert.Equal(t, theme.ThemeRadioNotPowered, items[0].Color)
}

func TestDeviceProperties(t *testing.T) {
	device := engine.DeviceStatus{PairedDevice: radio.PairedDevice{Address: "aa-bb"}}
	assert.Equal(t, "(Paired)", deviceProperties(device))

	name, prop := deviceColors(device)
	assert.Equal(t, theme.ThemeDevice, name)
	assert.Equal(t, theme.ThemeDeviceProperty, prop)

	device.Favorite = true
	assert.Equal(t, "(Favorite)", deviceProperties(device))

	name, _ = deviceColors(device)
	assert.Equal(t, theme.ThemeDeviceFavorite, name)

	device.Connected = true
	assert.Equal(t, "(Connected, Favorite)", deviceProperties(device))

	name, prop = deviceColors(device)
	assert.Equal(t, theme.ThemeDeviceConnected, name)
	assert.Equal(t, theme.ThemeDevicePropertyConnected, prop)
}

func TestDeviceStatusLookup(t *testing.T) {
	devices := []engine.DeviceStatus{
		{PairedDevice: radio.PairedDevice{Name: "Keyboard", Address: "aa-bb"}},
		{PairedDevice: radio.PairedDevice{Address: "cc-dd"}},
	}

	device, ok := deviceStatus(devices, "cc-dd")
	require.True(t, ok)
	assert.Equal(t, "cc-dd", device.DisplayName())

	_, ok = deviceStatus(devices, "ee-ff")
	assert.False(t, ok)
}

func TestPowerText(t *testing.T) {
	assert.Equal(t, "Unavailable", powerText(false, radio.PowerOn))
	assert.Equal(t, "Unknown", powerText(true, radio.PowerUnknown))
	assert.Equal(t, "none", valueOrNone(""))
	assert.Equal(t, "Home", lastNetwork(engine.Status{Preferences: prefs.Preferences{LastWifiNetwork: ptr("Home")}}))
}

func TestModalRect(t *testing.T) {
	tests := []struct {
		name                  string
		kind                  modalKind
		anchorX, anchorY      int
		width, height         int
		wantX, wantY          int
		wantWidth, wantHeight int
	}{
		{name: "centered dialog", kind: modalDialog, width: 40, height: 10, wantX: 30, wantY: 7, wantWidth: 40, wantHeight: 10},
		{name: "dialog larger than page", kind: modalDialog, width: 200, height: 50, wantWidth: 100, wantHeight: 24},
		{name: "menu at anchor", kind: modalMenu, anchorX: 10, anchorY: 1, width: 30, height: 8, wantX: 10, wantY: 1, wantWidth: 30, wantHeight: 8},
		{name: "menu past the right edge", kind: modalMenu, anchorX: 90, anchorY: 20, width: 30, height: 8, wantX: 70, wantY: 16, wantWidth: 30, wantHeight: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, width, height := modalRect(tt.kind, tt.anchorX, tt.anchorY, tt.width, tt.height, 100, 24)

			assert.Equal(t, tt.wantX, x, "x")
			assert.Equal(t, tt.wantY, y, "y")
			assert.Equal(t, tt.wantWidth, width, "width")
			assert.Equal(t, tt.wantHeight, height, "height")
		})
	}
}

func TestDialogSize(t *testing.T) {
	width, height := dialogSize("Quit sleepwatch?", "", 120)
	assert.Equal(t, 44, width)
	assert.Equal(t, 5, height)

	width, height = dialogSize("Quit sleepwatch?", `["confirm"][::b][Confirm[] ["cancel"][::b][Cancel[]`, 0)
	assert.Equal(t, 24, width)
	assert.Equal(t, 7, height)
}

func TestIsYes(t *testing.T) {
	assert.True(t, isYes(tcell.NewEventKey(tcell.KeyRune, 'y', tcell.ModNone)))
	assert.True(t, isYes(tcell.NewEventKey(tcell.KeyRune, 'Y', tcell.ModShift)))
	assert.False(t, isYes(tcell.NewEventKey(tcell.KeyRune, 'n', tcell.ModNone)))
	assert.False(t, isYes(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)))
	assert.False(t, isYes(nil))
}

func TestViewPagesFocus(t *testing.T) {
	p := newViewPages()
	assert.Equal(t, devicePage.String(), p.currentScreen())
	assert.Equal(t, keybindings.ContextApp, p.currentContext())

	p.focus(devicePage.String())
	assert.Equal(t, keybindings.ContextDevice, p.currentContext())

	p.focus("help")
	assert.Equal(t, devicePage.String(), p.currentScreen())
	assert.Equal(t, keybindings.ContextApp, p.currentContext())

	p.focus(devicePage.String())
	assert.Equal(t, keybindings.ContextDevice, p.currentContext())
}

func TestStatusHelpText(t *testing.T) {
	items := []HelpData{
		{"Menu", "Open the menu", []keybindings.Key{keybindings.KeyMenu}, "Open", true},
		{"Help", "Show help", []keybindings.Key{keybindings.KeyHelp}, "", true},
		{"Quit", "Quit", []keybindings.Key{keybindings.KeyQuit}, "", false},
		{"Switch", "Navigate between menus", []keybindings.Key{keybindings.KeySwitch}, "Open", true},
	}

	names := func(keys []keybindings.Key) string {
		return fmt.Sprintf("%d key(s)", len(keys))
	}

	entry := func(title, keys string) string {
		return theme.ColorWrap(theme.ThemeText, title, "::bu") + theme.ColorWrap(theme.ThemeText, ": "+keys)
	}

	want := entry("Open Menu/Switch", "2 key(s)") +
		theme.ColorWrap(theme.ThemeText, ", ") +
		entry("Help", "1 key(s)")

	for range 5 {
		assert.Equal(t, want, statusHelpText(items, names))
	}

	assert.Empty(t, statusHelpText(items[2:3], names))
}

func ptr(s string) *string {
	return &s
}
