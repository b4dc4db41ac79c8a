package views

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/darkhz/sleepwatch/engine"
	"github.com/darkhz/sleepwatch/radio"
	"github.com/darkhz/sleepwatch/ui/theme"
	"github.com/darkhz/tview"
	"github.com/gdamore/tcell/v2"
	"go.uber.org/atomic"
)

const statusTimeout = 15 * time.Second

// radioView holds the radio view, which displays the radio
// statuses on the right-most side of the menubar.
type radioView struct {
	topStatus *tview.TextView
	current   atomic.Pointer[engine.Status]

	lock sync.Mutex

	*Views
}

// Initialize initializes the radio view.
func (r *radioView) Initialize() error {
	r.topStatus = tview.NewTextView()
	r.topStatus.SetRegions(true)
	r.topStatus.SetDynamicColors(true)
	r.topStatus.SetTextAlign(tview.AlignRight)
	r.topStatus.SetBackgroundColor(theme.GetColor(theme.ThemeMenuBar))
	r.topStatus.SetHighlightedFunc(func(added, _, _ []string) {
		if added == nil {
			return
		}

		r.topStatus.Highlight()
		r.showStatus()
	})

	r.current.Store(&engine.Status{})

	return nil
}

// SetRootView sets the root view for the radio view.
func (r *radioView) SetRootView(v *Views) {
	r.Views = v
}

// refresh queries the radios and redraws the radio statuses and the devices view.
// It blocks until the radios have been queried, so it must not be called
// from within the drawing loop.
func (r *radioView) refresh() {
	r.lock.Lock()
	defer r.lock.Unlock()

	ctx, cancel := context.WithTimeout(r.ctx, statusTimeout)
	defer cancel()

	status := r.app.Session().Engine().Status(ctx)
	if r.ctx.Err() != nil {
		return
	}

	r.current.Store(&status)
	r.menu.syncToggles(status.Preferences)

	r.app.QueueDraw(func() {
		r.updateTopStatus(status)
		r.device.list(status.ShortRange.Devices)
	})
}

// updateTopStatus updates the radio status display.
func (r *radioView) updateTopStatus(status engine.Status) {
	r.topStatus.Clear()

	for _, item := range statusItems(status) {
		textColor := theme.BackgroundColor(item.Color).Name()
		bgColor := theme.ThemeConfig[item.Color]

		fmt.Fprintf(r.topStatus, "[\"%s\"][%s:%s:b] %s [-:-:-][\"\"] ", item.Region, textColor, bgColor, item.Title)
	}
}

// showStatus shows detailed information about the radios and the last sleep.
func (r *radioView) showStatus() {
	status := *r.current.Load()
	session := r.app.Session()
	last := session.Engine().LastState()

	props := [][]string{
		{"State", status.State.String()},
		{"Wi-Fi Interface", session.Wireless().Interface()},
		{"Wi-Fi", powerText(status.Wireless.Available, status.Wireless.Powered)},
		{"Network", valueOrNone(status.Wireless.Network)},
		{"Bluetooth", powerText(status.ShortRange.Available, status.ShortRange.Powered)},
		{"Paired Devices", strconv.Itoa(len(status.ShortRange.Devices))},
		{"Disable Wi-Fi on Sleep", yesno(status.Preferences.WifiEnabled)},
		{"Disable Bluetooth on Sleep", yesno(status.Preferences.BluetoothEnabled)},
		{"Auto-reconnect Wi-Fi", yesno(status.Preferences.AutoReconnectWifi)},
		{"Auto-reconnect Bluetooth", yesno(status.Preferences.AutoReconnectBluetooth)},
		{"Reconnect Mode", status.Preferences.ReconnectMode.String()},
		{"Favorites", strconv.Itoa(len(status.Preferences.FavoriteDevices))},
		{"Reconnect Targets", strconv.Itoa(len(session.Engine().PassTargets()))},
		{"Saved Network", valueOrNone(lastNetwork(status))},
		{"Last Sleep", capturedText(last)},
		{"Preferences", session.Preferences().Path()},
	}

	infoModal := r.modals.newTableModal("status", "Status", 40, 100)
	infoModal.table.SetSelectionChangedFunc(func(row, _ int) {
		_, _, _, height := infoModal.table.GetRect()
		infoModal.table.SetOffset(row-((height-1)/2), 0)
	})

	for i, prop := range props {
		infoModal.table.SetCell(i, 0, tview.NewTableCell("[::b]"+prop[0]+":").
			SetExpansion(1).
			SetAlign(tview.AlignLeft).
			SetTextColor(theme.GetColor(theme.ThemeText)).
			SetSelectedStyle(tcell.Style{}.
				Bold(true).
				Underline(true),
			),
		)

		infoModal.table.SetCell(i, 1, tview.NewTableCell(tview.Escape(prop[1])).
			SetExpansion(1).
			SetAlign(tview.AlignLeft).
			SetTextColor(theme.GetColor(theme.ThemeText)),
		)
	}

	infoModal.height = min(infoModal.table.GetRowCount()+4, 60)

	infoModal.show()
}

// statusItem describes a single status display within the menubar.
type statusItem struct {
	Region, Title string
	Color         theme.Context
}

// statusItems returns the status displays for the provided status.
func statusItems(status engine.Status) []statusItem {
	items := []statusItem{
		{
			Region: "wifi",
			Title:  "Wi-Fi " + powerText(status.Wireless.Available, status.Wireless.Powered),
			Color:  radioContext(status.Wireless.Available, status.Wireless.Powered),
		},
	}

	if status.Wireless.Network != "" {
		items = append(items, statusItem{
			Region: "network",
			Title:  tview.Escape(status.Wireless.Network),
			Color:  theme.ThemeNetwork,
		})
	}

	items = append(items, statusItem{
		Region: "bluetooth",
		Title:  "Bluetooth " + powerText(status.ShortRange.Available, status.ShortRange.Powered),
		Color:  radioContext(status.ShortRange.Available, status.ShortRange.Powered),
	})

	if status.State != engine.StateIdle {
		items = append(items, statusItem{
			Region: "state",
			Title:  strings.ToUpper(status.State.String()[:1]) + status.State.String()[1:],
			Color:  theme.ThemeRadio,
		})
	}

	return items
}

// reportMessage returns a status message for a reaction report.
func reportMessage(report engine.Report) string {
	switch report.Kind {
	case engine.ReportSleep:
		captured := report.Captured

		return fmt.Sprintf("Going to sleep: saved network %s, %d connected device(s)",
			valueOrNone(captured.Wireless.Network),
			len(captured.ShortRange.Connected),
		)

	case engine.ReportWake:
		return "Woke up from sleep"

	case engine.ReportWirelessReconnect:
		switch {
		case report.Network == "":
			return "No Wi-Fi network to rejoin"

		case report.Joined:
			return "Joined " + report.Network

		default:
			return "Could not join " + report.Network
		}

	case engine.ReportShortRangeReconnect:
		return passMessage(report.Pass)
	}

	return string(report.Kind)
}

// passMessage returns a status message for a device reconnect pass.
func passMessage(pass engine.PassResult) string {
	if pass.Attempted == 0 {
		return "No devices to reconnect (" + pass.Mode.String() + ")"
	}

	return fmt.Sprintf("Reconnected %d of %d device(s) (%s)", pass.Succeeded, pass.Attempted, pass.Mode.String())
}

// capturedText describes the radio state captured before the last sleep.
func capturedText(state engine.RadioState) string {
	if state.IsZero() {
		return "never"
	}

	return fmt.Sprintf("%s (Wi-Fi %s on %s, Bluetooth %s with %d device(s))",
		state.CapturedAt.Format(time.DateTime),
		state.Wireless.Powered,
		valueOrNone(state.Wireless.Network),
		state.ShortRange.Powered,
		len(state.ShortRange.Connected),
	)
}

// powerText returns the display text of a radio's power state.
func powerText(available bool, state radio.PowerState) string {
	if !available {
		return "Unavailable"
	}

	return state.String()
}

// radioContext returns the theme context of a radio's power state.
func radioContext(available bool, state radio.PowerState) theme.Context {
	if !available {
		return theme.ThemeRadioUnknown
	}

	return theme.PowerContext(state)
}

func lastNetwork(status engine.Status) string {
	network, _ := status.Preferences.LastNetwork()

	return network
}

func valueOrNone(value string) string {
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
