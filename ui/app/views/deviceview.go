package views

import (
	"strings"

	"github.com/darkhz/sleepwatch/engine"
	"github.com/darkhz/sleepwatch/ui/keybindings"
	"github.com/darkhz/sleepwatch/ui/theme"
	"github.com/darkhz/tview"
	"github.com/gdamore/tcell/v2"
)

const devicePage viewName = "devices"

// deviceView holds the devices view.
type deviceView struct {
	table *tview.Table

	*Views
}

// Initialize initializes the devices view.
func (d *deviceView) Initialize() error {
	d.table = tview.NewTable()
	d.table.SetSelectorWrap(true)
	d.table.SetSelectable(true, false)
	d.table.SetBackgroundColor(theme.GetColor(theme.ThemeBackground))
	d.table.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch d.kb.Key(event) {
		case keybindings.KeyMenu:
			d.menu.highlight(menuWifiName)
			return event

		case keybindings.KeyHelp:
			d.help.showHelp()
			return event
		}

		d.menu.inputHandler(event)

		return ignoreDefaultEvent(event)
	})
	d.table.SetMouseCapture(func(action tview.MouseAction, event *tcell.EventMouse) (tview.MouseAction, *tcell.EventMouse) {
		if action == tview.MouseRightClick && d.table.HasFocus() {
			if _, ok := d.getSelection(false); !ok {
				return action, event
			}

			d.menu.setupSubMenu(0, 0, menuDeviceName, struct{}{})
		}

		return action, event
	})

	return nil
}

// SetRootView sets the root view of the devices view.
func (d *deviceView) SetRootView(v *Views) {
	d.Views = v
}

// list lists the paired devices within the devices view, and keeps
// the selection on the previously selected device.
func (d *deviceView) list(devices []engine.DeviceStatus) {
	selected, _ := d.getSelection(false)

	d.table.Clear()
	for i, device := range devices {
		d.setInfo(i, device)
	}

	if len(devices) == 0 {
		d.table.SetCell(0, 0, tview.NewTableCell("No paired devices").
			SetExpansion(1).
			SetSelectable(false).
			SetAlign(tview.AlignCenter).
			SetTextColor(theme.GetColor(theme.ThemeDeviceProperty)),
		)

		return
	}

	row, ok := d.getRowByAddress(selected.Address)
	if !ok {
		row = 0
	}

	d.table.Select(row, 0)
}

// showDetailedInfo shows detailed information about a device.
func (d *deviceView) showDetailedInfo() {
	device, ok := d.getSelection(false)
	if !ok {
		return
	}

	prefs := d.app.Session().Preferences().Snapshot()

	willReconnect := false
	for _, address := range d.app.Session().Engine().PassTargets() {
		if address == device.Address {
			willReconnect = true
			break
		}
	}

	props := [][]string{
		{"Name", device.DisplayName()},
		{"Address", device.Address},
		{"Connected", yesno(device.Connected)},
		{"Favorite", yesno(device.Favorite)},
		{"Reconnects on Wake", yesno(willReconnect && prefs.AutoReconnectBluetooth)},
	}

	infoModal := d.modals.newTableModal("info", "Device Information", 10, 60)

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

	infoModal.height = infoModal.table.GetRowCount() + 4

	infoModal.show()
}

// getSelection retrieves device information from the current selection in the devices view.
// If lock is set, the selection is retrieved from within the drawing loop.
func (d *deviceView) getSelection(lock bool) (engine.DeviceStatus, bool) {
	var device engine.DeviceStatus
	var ok bool

	getdevice := func() {
		row, _ := d.table.GetSelection()

		cell := d.table.GetCell(row, 0)
		if cell == nil {
			return
		}

		device, ok = cell.GetReference().(engine.DeviceStatus)
	}

	if lock {
		d.app.InstantDraw(getdevice)

		return device, ok
	}

	getdevice()

	return device, ok
}

// getRowByAddress iterates through the devices view and checks
// if a device whose address matches the address parameter exists.
func (d *deviceView) getRowByAddress(address string) (int, bool) {
	if address == "" {
		return -1, false
	}

	for row := range d.table.GetRowCount() {
		cell := d.table.GetCell(row, 0)
		if cell == nil {
			continue
		}

		ref, ok := cell.GetReference().(engine.DeviceStatus)
		if !ok {
			continue
		}

		if ref.Address == address {
			return row, true
		}
	}

	return -1, false
}

// updateDevice updates the row of a device with the provided properties.
func (d *deviceView) updateDevice(device engine.DeviceStatus) {
	row, ok := d.getRowByAddress(device.Address)
	if !ok {
		return
	}

	d.setInfo(row, device)
}

// setInfo writes device information into the specified row of the devices view.
func (d *deviceView) setInfo(row int, device engine.DeviceStatus) {
	nameColor, propColor := deviceColors(device)

	d.table.SetCell(
		row, 0, tview.NewTableCell(tview.Escape(device.DisplayName())+" ("+device.Address+")").
			SetExpansion(1).
			SetReference(device).
			SetAlign(tview.AlignLeft).
			SetAttributes(tcell.AttrBold).
			SetTextColor(theme.GetColor(nameColor)).
			SetSelectedStyle(tcell.Style{}.
				Foreground(theme.GetColor(nameColor)).
				Background(theme.BackgroundColor(nameColor)),
			),
	)

	d.table.SetCell(
		row, 1, tview.NewTableCell(deviceProperties(device)).
			SetExpansion(1).
			SetAlign(tview.AlignRight).
			SetTextColor(theme.GetColor(propColor)).
			SetSelectedStyle(tcell.Style{}.
				Bold(true),
			),
	)
}

// deviceProperties returns the property display of a device.
func deviceProperties(device engine.DeviceStatus) string {
	var props []string

	if device.Connected {
		props = append(props, "Connected")
	}
	if device.Favorite {
		props = append(props, "Favorite")
	}

	if props == nil {
		return "(Paired)"
	}

	return "(" + strings.Join(props, ", ") + ")"
}

// deviceColors returns the name and property theme contexts of a device.
func deviceColors(device engine.DeviceStatus) (theme.Context, theme.Context) {
	switch {
	case device.Connected:
		return theme.ThemeDeviceConnected, theme.ThemeDevicePropertyConnected

	case device.Favorite:
		return theme.ThemeDeviceFavorite, theme.ThemeDevicePropertyFavorite
	}

	return theme.ThemeDevice, theme.ThemeDeviceProperty
}
