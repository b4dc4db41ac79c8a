package views

import (
	"context"
	"errors"
	"time"

	"github.com/darkhz/sleepwatch/engine"
	"github.com/darkhz/sleepwatch/prefs"
	"github.com/darkhz/sleepwatch/ui/keybindings"
	"github.com/darkhz/sleepwatch/update"
)

// viewActions holds an instance of a view actions manager,
// which maps different actions to their respective view action contexts and actions.
type viewActions struct {
	rv *Views

	fnmap map[viewActionContext]map[keybindings.Key]func(set ...string) bool
}

// viewActionContext describes the context in which the
// action is supposed to be executed in.
type viewActionContext int

// The different context types for actions.
const (
	actionInvoke viewActionContext = iota
	actionInitializer
	actionVisibility
)

// newViewActions returns a new view actions manager.
func newViewActions(rv *Views) *viewActions {
	v := &viewActions{rv: rv}

	return v.initViewActions()
}

// initViewActions initializes and stores the different view actions based on their view action contexts.
func (v *viewActions) initViewActions() *viewActions {
	v.fnmap = map[viewActionContext]map[keybindings.Key]func(set ...string) bool{
		actionInvoke: {
			keybindings.KeyWifiToggleControl:          v.wifiControl,
			keybindings.KeyWifiToggleReconnect:        v.wifiAutoReconnect,
			keybindings.KeyWifiReconnect:              v.reconnectWifi,
			keybindings.KeyBluetoothToggleControl:     v.bluetoothControl,
			keybindings.KeyBluetoothToggleReconnect:   v.bluetoothAutoReconnect,
			keybindings.KeyReconnectModeFavorites:     v.modeFavorites,
			keybindings.KeyReconnectModeLastConnected: v.modeLastConnected,
			keybindings.KeyBluetoothReconnect:         v.reconnectDevices,
			keybindings.KeyCheckUpdate:                v.checkUpdate,
			keybindings.KeyToggleUpdateOnStartup:      v.updateOnStartup,
			keybindings.KeyRefresh:                    v.refresh,
			keybindings.KeyHelp:                       v.help,
			keybindings.KeyDeviceConnect:              v.connect,
			keybindings.KeyDeviceFavorite:             v.favorite,
			keybindings.KeyDeviceInfo:                 v.info,
			keybindings.KeyQuit:                       v.quit,
		},
		actionInitializer: {
			keybindings.KeyWifiToggleControl:          v.initPreference(prefs.KeyWifiEnabled),
			keybindings.KeyWifiToggleReconnect:        v.initPreference(prefs.KeyAutoReconnectWifi),
			keybindings.KeyBluetoothToggleControl:     v.initPreference(prefs.KeyBluetoothEnabled),
			keybindings.KeyBluetoothToggleReconnect:   v.initPreference(prefs.KeyAutoReconnectBluetooth),
			keybindings.KeyToggleUpdateOnStartup:      v.initPreference(prefs.KeyCheckUpdatesOnStartup),
			keybindings.KeyReconnectModeFavorites:     v.initMode(prefs.ReconnectFavorites),
			keybindings.KeyReconnectModeLastConnected: v.initMode(prefs.ReconnectLastConnected),
			keybindings.KeyDeviceConnect:              v.initConnect,
			keybindings.KeyDeviceFavorite:             v.initFavorite,
		},
		actionVisibility: {
			keybindings.KeyWifiReconnect:      v.visibleWifi,
			keybindings.KeyBluetoothReconnect: v.visibleBluetooth,
		},
	}

	return v
}

// handler executes the handler assigned to the key type based on
// the action context.
func (v *viewActions) handler(key keybindings.Key, actionContext viewActionContext) func() bool {
	handler, ok := v.fnmap[actionContext][key]
	if !ok {
		return nil
	}

	if actionContext == actionInvoke {
		return func() bool {
			go handler()
			return false
		}
	}

	return func() bool {
		return handler()
	}
}

// wifiControl toggles whether Wi-Fi is turned off on sleep.
func (v *viewActions) wifiControl(set ...string) bool {
	return v.togglePreference(prefs.KeyWifiEnabled, keybindings.KeyWifiToggleControl,
		"Wi-Fi will be turned off on sleep", "Wi-Fi will be left on during sleep", set...,
	)
}

// wifiAutoReconnect toggles whether Wi-Fi is reconnected on wake.
func (v *viewActions) wifiAutoReconnect(set ...string) bool {
	return v.togglePreference(prefs.KeyAutoReconnectWifi, keybindings.KeyWifiToggleReconnect,
		"Wi-Fi will be reconnected on wake", "Wi-Fi will not be reconnected on wake", set...,
	)
}

// bluetoothControl toggles whether Bluetooth is turned off on sleep.
func (v *viewActions) bluetoothControl(set ...string) bool {
	return v.togglePreference(prefs.KeyBluetoothEnabled, keybindings.KeyBluetoothToggleControl,
		"Bluetooth will be turned off on sleep", "Bluetooth will be left on during sleep", set...,
	)
}

// bluetoothAutoReconnect toggles whether devices are reconnected on wake.
func (v *viewActions) bluetoothAutoReconnect(set ...string) bool {
	return v.togglePreference(prefs.KeyAutoReconnectBluetooth, keybindings.KeyBluetoothToggleReconnect,
		"Devices will be reconnected on wake", "Devices will not be reconnected on wake", set...,
	)
}

// updateOnStartup toggles whether updates are checked for on startup.
func (v *viewActions) updateOnStartup(set ...string) bool {
	return v.togglePreference(prefs.KeyCheckUpdatesOnStartup, keybindings.KeyToggleUpdateOnStartup,
		"Updates will be checked on startup", "Updates will not be checked on startup", set...,
	)
}

// togglePreference toggles a boolean preference, or sets it if set is "yes" or "no",
// and persists it.
func (v *viewActions) togglePreference(key prefs.Key, menuKey keybindings.Key, onText, offText string, set ...string) bool {
	store := v.rv.app.Session().Preferences()

	enabled := !store.Bool(key)
	if set != nil {
		enabled = set[0] == "yes"
	}

	if err := store.SetBool(key, enabled); err != nil {
		v.rv.status.ErrorMessage(err)
		return false
	}

	text := offText
	if enabled {
		text = onText
	}

	v.rv.status.InfoMessage(text, false)
	v.rv.menu.toggleItemByKey(menuKey, enabled)

	return true
}

// modeFavorites sets the reconnect mode to reconnect only favorite devices.
func (v *viewActions) modeFavorites(_ ...string) bool {
	return v.setMode(prefs.ReconnectFavorites)
}

// modeLastConnected sets the reconnect mode to reconnect the devices connected before sleep.
func (v *viewActions) modeLastConnected(_ ...string) bool {
	return v.setMode(prefs.ReconnectLastConnected)
}

// setMode sets and persists the reconnect mode.
func (v *viewActions) setMode(mode prefs.ReconnectMode) bool {
	if err := v.rv.app.Session().Preferences().SetReconnectMode(mode); err != nil {
		v.rv.status.ErrorMessage(err)
		return false
	}

	v.rv.status.InfoMessage("Reconnect mode: "+mode.String(), false)

	v.rv.menu.toggleItemByKey(keybindings.KeyReconnectModeFavorites, mode == prefs.ReconnectFavorites)
	v.rv.menu.toggleItemByKey(keybindings.KeyReconnectModeLastConnected, mode == prefs.ReconnectLastConnected)

	return true
}

// reconnectWifi rejoins the saved wireless network.
func (v *viewActions) reconnectWifi(_ ...string) bool {
	v.rv.op.startOperation(
		func(ctx context.Context) {
			network, ok := v.rv.app.Session().Preferences().LastWirelessNetwork()
			if !ok {
				v.rv.status.InfoMessage("No saved Wi-Fi network", false)
				return
			}

			v.rv.status.InfoMessage("Joining "+network, true)

			_, joined := v.rv.app.Session().Engine().ReconnectWireless(ctx)
			if !joined {
				v.rv.status.ErrorMessage(errors.New("could not join " + network))
			} else {
				v.rv.status.InfoMessage("Joined "+network, false)
			}

			v.rv.radios.refresh()
		},
		"Cancelled joining the Wi-Fi network",
	)

	return true
}

// reconnectDevices runs a device reconnect pass with the current reconnect mode.
func (v *viewActions) reconnectDevices(_ ...string) bool {
	v.rv.op.startOperation(
		func(ctx context.Context) {
			v.rv.status.InfoMessage("Reconnecting devices...", true)

			devices := v.rv.radios.current.Load().ShortRange.Devices

			result := v.rv.app.Session().Engine().ReconnectShortRange(ctx, func(address string, connected bool) {
				name := address
				if device, ok := deviceStatus(devices, address); ok {
					name = device.DisplayName()
				}

				if connected {
					v.rv.status.InfoMessage("Connected to "+name, true)
				} else {
					v.rv.status.InfoMessage("Could not connect to "+name, true)
				}
			})

			v.rv.status.InfoMessage(passMessage(result), false)
			v.rv.radios.refresh()
		},
		"Cancelled reconnecting devices",
	)

	return true
}

// checkUpdate checks for a new release.
func (v *viewActions) checkUpdate(_ ...string) bool {
	v.rv.op.startOperation(
		func(ctx context.Context) {
			v.rv.status.InfoMessage("Checking for updates...", true)

			release, err := v.rv.app.Session().Updater().Check(ctx)
			if err != nil {
				v.rv.status.ErrorMessage(err)
				return
			}

			v.showRelease(release, true)
		},
		"Cancelled checking for updates",
	)

	return true
}

// showRelease displays the available release. If always is not set,
// nothing is displayed when the current version is up to date.
func (v *viewActions) showRelease(release update.Release, always bool) {
	if !release.HasUpdate {
		if always {
			v.rv.status.InfoMessage("sleepwatch is up to date ("+v.rv.app.Session().Updater().Current()+")", false)
		}

		return
	}

	v.rv.status.InfoMessage("Version "+release.Version+" is available", false)

	ctx, cancel := context.WithTimeout(v.rv.ctx, 5*time.Minute)
	defer cancel()

	v.rv.modals.newMessageModal(
		"update", "Update Available",
		"[::b]Version "+release.Version+" is available.[-:-:-]\n\nDownload it from:\n"+release.DownloadURL,
	).wait(ctx)
}

// refresh queries the radios and refreshes all the views.
func (v *viewActions) refresh(_ ...string) bool {
	v.rv.app.Session().Preferences().Reload()
	v.rv.radios.refresh()

	v.rv.status.InfoMessage("Refreshed", false)

	return true
}

// help shows the help view.
func (v *viewActions) help(_ ...string) bool {
	v.rv.app.QueueDraw(func() {
		v.rv.help.showHelp()
	})

	return true
}

// quit stops all operations and exits the application.
func (v *viewActions) quit(_ ...string) bool {
	if v.rv.cfg.Values.ConfirmOnQuit {
		if !v.rv.modals.newConfirmModal("quit", "Quit", "Quit sleepwatch?").ask(v.rv.ctx) {
			return false
		}
	}

	v.rv.Release()
	v.rv.app.Close()

	return true
}

// initPreference returns the oncreate handler for a boolean preference submenu option.
func (v *viewActions) initPreference(key prefs.Key) func(...string) bool {
	return func(_ ...string) bool {
		return v.rv.app.Session().Preferences().Bool(key)
	}
}

// initMode returns the oncreate handler for a reconnect mode submenu option.
func (v *viewActions) initMode(mode prefs.ReconnectMode) func(...string) bool {
	return func(_ ...string) bool {
		return v.rv.app.Session().Preferences().ReconnectMode() == mode
	}
}

// initConnect is the oncreate handler for the connect submenu option.
func (v *viewActions) initConnect(_ ...string) bool {
	device, ok := v.rv.device.getSelection(false)

	return ok && device.Connected
}

// initFavorite is the oncreate handler for the favorite submenu option.
func (v *viewActions) initFavorite(_ ...string) bool {
	device, ok := v.rv.device.getSelection(false)

	return ok && device.Favorite
}

// visibleWifi is the visible handler for the Wi-Fi reconnect submenu option.
func (v *viewActions) visibleWifi(_ ...string) bool {
	return v.rv.app.Session().Wireless().Available()
}

// visibleBluetooth is the visible handler for the device reconnect submenu option.
func (v *viewActions) visibleBluetooth(_ ...string) bool {
	return v.rv.app.Session().Bluetooth().Available()
}

// connect retrieves the selected device, and toggles its connection state.
func (v *viewActions) connect(_ ...string) bool {
	device, ok := v.rv.device.getSelection(true)
	if !ok {
		return false
	}

	verb, done := "Connecting to ", "Connected to "
	if device.Connected {
		verb, done = "Disconnecting from ", "Disconnected from "
	}

	v.rv.op.startOperation(
		func(ctx context.Context) {
			v.rv.status.InfoMessage(verb+device.DisplayName(), true)

			if !v.rv.app.Session().Engine().ToggleConnection(ctx, device.PairedDevice) {
				v.rv.status.ErrorMessage(errors.New("could not change the connection state of " + device.DisplayName()))
				return
			}

			v.rv.status.InfoMessage(done+device.DisplayName(), false)
			v.rv.menu.toggleItemByKey(keybindings.KeyDeviceConnect, !device.Connected)

			v.rv.radios.refresh()
		},
		"Cancelled connection to "+device.DisplayName(),
	)

	return true
}

// favorite retrieves the selected device, and toggles its favorite state.
func (v *viewActions) favorite(_ ...string) bool {
	device, ok := v.rv.device.getSelection(true)
	if !ok {
		return false
	}

	if device.Favorite && !v.rv.status.confirm(v.rv.ctx, "Remove "+device.DisplayName()+" from favorites?") {
		return false
	}

	favorite, err := v.rv.app.Session().Preferences().ToggleFavorite(device.Address)
	if err != nil {
		v.rv.status.ErrorMessage(err)
		return false
	}

	device.Favorite = favorite
	v.rv.app.QueueDraw(func() {
		v.rv.device.updateDevice(device)
	})

	if favorite {
		v.rv.status.InfoMessage("Added "+device.DisplayName()+" to favorites", false)
	} else {
		v.rv.status.InfoMessage("Removed "+device.DisplayName()+" from favorites", false)
	}

	v.rv.menu.toggleItemByKey(keybindings.KeyDeviceFavorite, favorite)

	return true
}

// info retrieves the selected device, and shows the device information.
func (v *viewActions) info(_ ...string) bool {
	v.rv.app.QueueDraw(func() {
		v.rv.device.showDetailedInfo()
	})

	return true
}

// deviceStatus returns the device status for the provided address, if it is paired.
func deviceStatus(devices []engine.DeviceStatus, address string) (engine.DeviceStatus, bool) {
	for _, device := range devices {
		if device.Address == address {
			return device, true
		}
	}

	return engine.DeviceStatus{}, false
}
