package cmd

import (
	"bytes"
	"testing"

	"github.com/darkhz/sleepwatch/engine"
	"github.com/darkhz/sleepwatch/prefs"
	"github.com/darkhz/sleepwatch/radio"
	"github.com/darkhz/sleepwatch/update"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestPrintStatus(t *testing.T) {
	color.NoColor = true

	network := "Home"
	p := prefs.Defaults()
	p.LastWifiNetwork = &network

	status := engine.Status{
		Wireless: engine.WirelessStatus{Available: true, Powered: radio.PowerOn, Network: "Home"},
		ShortRange: engine.ShortRangeStatus{
			Available: true,
			Powered:   radio.PowerOn,
			Devices: []engine.DeviceStatus{
				{PairedDevice: radio.PairedDevice{Name: "Keyboard", Address: "aa-bb", Connected: true}, Favorite: true},
			},
		},
		Preferences: p,
	}

	var buf bytes.Buffer
	printStatus(&buf, status, []string{"Home", "Office"}, "/tmp/prefs.json", engine.RadioState{})

	out := buf.String()
	assert.Contains(t, out, "Keyboard (aa-bb) [connected] [favorite]")
	assert.Contains(t, out, "/tmp/prefs.json")
	assert.Contains(t, out, "Home, Office")
	assert.NotContains(t, out, "Last Sleep")
}

func TestPrintStatusUnavailable(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	printStatus(&buf, engine.Status{Preferences: prefs.Defaults()}, nil, "", engine.RadioState{})

	out := buf.String()
	assert.Contains(t, out, "Unavailable")
	assert.Contains(t, out, "No paired devices")
}

func TestPrintRelease(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	printRelease(&buf, "1.0.0", update.Release{})
	assert.Equal(t, "sleepwatch is up to date (1.0.0)\n", buf.String())

	buf.Reset()
	printRelease(&buf, "1.0.0", update.Release{
		HasUpdate:   true,
		Version:     "1.1.0",
		DownloadURL: "https://example.com/sleepwatch.zip",
	})
	assert.Contains(t, buf.String(), "Version 1.1.0 is available (current: 1.0.0)")
	assert.Contains(t, buf.String(), "https://example.com/sleepwatch.zip")
}

func TestAppFlags(t *testing.T) {
	app := newApp()

	names := make(map[string]bool)
	for _, flag := range app.Flags {
		for _, name := range flag.Names() {
			names[name] = true
		}
	}

	for _, name := range []string{"status", "reconnect", "check-update", "headless", "prefs-file", "generate"} {
		assert.True(t, names[name], name)
	}
}
