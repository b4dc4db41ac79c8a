// Package prefs stores the user's sleep/wake preferences.
package prefs

import (
	"os"
	"path/filepath"
	"slices"
)

// DefaultFileName is the name of the preference file in the user's home directory.
const DefaultFileName = ".sleepwatch.json"

// ReconnectMode describes which devices are reconnected after wake.
type ReconnectMode string

// The different reconnect modes.
const (
	ReconnectFavorites     ReconnectMode = "favorites"
	ReconnectLastConnected ReconnectMode = "last"
)

// ParseReconnectMode parses a reconnect mode.
// Unknown values fall back to ReconnectFavorites.
func ParseReconnectMode(mode string) ReconnectMode {
	switch mode {
	case string(ReconnectLastConnected), "lastConnected", "last_connected":
		return ReconnectLastConnected
	}

	return ReconnectFavorites
}

// String returns a display name for the mode.
func (m ReconnectMode) String() string {
	if m == ReconnectLastConnected {
		return "Most Recent"
	}

	return "Favorites Only"
}

// Key is a preference key.
type Key string

// The different preference keys.
const (
	KeyWifiEnabled            Key = "wifi_enabled"
	KeyBluetoothEnabled       Key = "bluetooth_enabled"
	KeyAutoReconnectWifi      Key = "auto_reconnect_wifi"
	KeyAutoReconnectBluetooth Key = "auto_reconnect_bluetooth"
	KeyFavoriteDevices        Key = "favorite_devices"
	KeyLastWifiNetwork        Key = "last_wifi_network"
	KeyReconnectMode          Key = "reconnect_mode"
	KeyCheckUpdatesOnStartup  Key = "check_updates_on_startup"
)

// Preferences holds the user's preferences.
// The field order is the order in which they are written to disk.
type Preferences struct {
	WifiEnabled            bool          `json:"wifi_enabled"`
	BluetoothEnabled       bool          `json:"bluetooth_enabled"`
	AutoReconnectWifi      bool          `json:"auto_reconnect_wifi"`
	AutoReconnectBluetooth bool          `json:"auto_reconnect_bluetooth"`
	FavoriteDevices        []string      `json:"favorite_devices"`
	LastWifiNetwork        *string       `json:"last_wifi_network"`
	ReconnectMode          ReconnectMode `json:"reconnect_mode"`
	CheckUpdatesOnStartup  bool          `json:"check_updates_on_startup"`
}

// Defaults returns the default preferences.
func Defaults() Preferences {
	return Preferences{
		WifiEnabled:            true,
		BluetoothEnabled:       true,
		AutoReconnectWifi:      true,
		AutoReconnectBluetooth: true,
		FavoriteDevices:        []string{},
		ReconnectMode:          ReconnectFavorites,
		CheckUpdatesOnStartup:  true,
	}
}

// Clone returns a deep copy of the preferences.
func (p Preferences) Clone() Preferences {
	p.FavoriteDevices = slices.Clone(p.FavoriteDevices)
	if p.FavoriteDevices == nil {
		p.FavoriteDevices = []string{}
	}

	if p.LastWifiNetwork != nil {
		network := *p.LastWifiNetwork
		p.LastWifiNetwork = &network
	}

	return p
}

// LastNetwork returns the last known wireless network, if any.
func (p Preferences) LastNetwork() (string, bool) {
	if p.LastWifiNetwork == nil || *p.LastWifiNetwork == "" {
		return "", false
	}

	return *p.LastWifiNetwork, true
}

// IsFavorite reports whether the address is a favorite device.
func (p Preferences) IsFavorite(address string) bool {
	return slices.Contains(p.FavoriteDevices, address)
}

// Bool returns the value of a boolean preference.
func (p Preferences) Bool(key Key) (bool, bool) {
	switch key {
	case KeyWifiEnabled:
		return p.WifiEnabled, true

	case KeyBluetoothEnabled:
		return p.BluetoothEnabled, true

	case KeyAutoReconnectWifi:
		return p.AutoReconnectWifi, true

	case KeyAutoReconnectBluetooth:
		return p.AutoReconnectBluetooth, true

	case KeyCheckUpdatesOnStartup:
		return p.CheckUpdatesOnStartup, true
	}

	return false, false
}

func (p *Preferences) setBool(key Key, value bool) bool {
	switch key {
	case KeyWifiEnabled:
		p.WifiEnabled = value

	case KeyBluetoothEnabled:
		p.BluetoothEnabled = value

	case KeyAutoReconnectWifi:
		p.AutoReconnectWifi = value

	case KeyAutoReconnectBluetooth:
		p.AutoReconnectBluetooth = value

	case KeyCheckUpdatesOnStartup:
		p.CheckUpdatesOnStartup = value

	default:
		return false
	}

	return true
}

// normalize fixes up values decoded from disk.
func (p *Preferences) normalize() {
	p.ReconnectMode = ParseReconnectMode(string(p.ReconnectMode))

	favorites := make([]string, 0, len(p.FavoriteDevices))
	for _, address := range p.FavoriteDevices {
		if address != "" && !slices.Contains(favorites, address) {
			favorites = append(favorites, address)
		}
	}
	p.FavoriteDevices = favorites
}

// DefaultPath returns the default preference file path.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, DefaultFileName), nil
}
