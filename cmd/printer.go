package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/darkhz/sleepwatch/engine"
	"github.com/darkhz/sleepwatch/update"
	"github.com/fatih/color"
)

// printInfo prints an informational message to the screen.
func printInfo(message string) {
	message = "[+] " + message

	color.New(color.FgGreen, color.Bold).Println(message)
}

// printWarn prints a warning to the screen.
func printWarn(message string) {
	message = "[-] " + message

	color.New(color.FgYellow, color.Bold).Println(message)
}

// printError prints an error to the screen.
func printError(err error) {
	message := "[!] " + err.Error()

	color.New(color.FgRed, color.Bold).Println(message)
}

// printStatus prints the radio statuses, the preferences and the last captured state.
func printStatus(w io.Writer, status engine.Status, preferred []string, prefsPath string, last engine.RadioState) {
	header := color.New(color.Bold, color.Underline)
	key := color.New(color.Bold)

	line := func(name string, value any) {
		key.Fprintf(w, "%-28s", name+":")
		fmt.Fprintln(w, value)
	}

	header.Fprintln(w, "Radios")
	line("State", status.State)
	line("Wi-Fi", radioText(status.Wireless.Available, status.Wireless.Powered.String()))
	line("Network", noneIfEmpty(status.Wireless.Network))
	line("Preferred networks", noneIfEmpty(strings.Join(preferred, ", ")))
	line("Bluetooth", radioText(status.ShortRange.Available, status.ShortRange.Powered.String()))

	fmt.Fprintln(w)
	header.Fprintln(w, "Devices")
	if len(status.ShortRange.Devices) == 0 {
		fmt.Fprintln(w, "No paired devices")
	}
	for _, device := range status.ShortRange.Devices {
		var flags string
		if device.Connected {
			flags += " [connected]"
		}
		if device.Favorite {
			flags += " [favorite]"
		}

		fmt.Fprintf(w, "%s (%s)%s\n", device.DisplayName(), device.Address, flags)
	}

	p := status.Preferences
	network, _ := p.LastNetwork()

	fmt.Fprintln(w)
	header.Fprintln(w, "Preferences")
	line("File", prefsPath)
	line("Disable Wi-Fi on sleep", yesno(p.WifiEnabled))
	line("Disable Bluetooth on sleep", yesno(p.BluetoothEnabled))
	line("Auto-reconnect Wi-Fi", yesno(p.AutoReconnectWifi))
	line("Auto-reconnect Bluetooth", yesno(p.AutoReconnectBluetooth))
	line("Reconnect mode", p.ReconnectMode)
	line("Favorites", len(p.FavoriteDevices))
	line("Saved network", noneIfEmpty(network))
	line("Check updates on startup", yesno(p.CheckUpdatesOnStartup))

	if last.IsZero() {
		return
	}

	fmt.Fprintln(w)
	header.Fprintln(w, "Last Sleep")
	line("Captured", last.CapturedAt.Format(time.DateTime))
	line("Wi-Fi", last.Wireless.Powered)
	line("Network", noneIfEmpty(last.Wireless.Network))
	line("Bluetooth", last.ShortRange.Powered)
	line("Connected devices", len(last.ShortRange.Connected))
}

// printRelease prints the result of an update check.
func printRelease(w io.Writer, current string, release update.Release) {
	if !release.HasUpdate {
		fmt.Fprintf(w, "sleepwatch is up to date (%s)\n", current)
		return
	}

	color.New(color.FgGreen, color.Bold).Fprintf(w, "Version %s is available (current: %s)\n", release.Version, current)
	fmt.Fprintln(w, "Download:", release.DownloadURL)
}

func radioText(available bool, power string) string {
	if !available {
		return "Unavailable"
	}

	return power
}

func noneIfEmpty(value string) string {
	if value == "" {
		return "none"
	}

	return value
}

func yesno(val bool) string {
	if !val {
		return "no"
	}

	return "yes"
}
