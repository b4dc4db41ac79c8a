package theme

import (
	"fmt"
)

// Context describes the type of context to apply the color into.
type Context string

// The different context types for themes.
const (
	ThemeText        Context = "Text"
	ThemeBorder      Context = "Border"
	ThemeBackground  Context = "Background"
	ThemeStatusInfo  Context = "StatusInfo"
	ThemeStatusError Context = "StatusError"

	ThemeRadio           Context = "Radio"
	ThemeRadioPowered    Context = "RadioPowered"
	ThemeRadioNotPowered Context = "RadioNotPowered"
	ThemeRadioUnknown    Context = "RadioUnknown"
	ThemeNetwork         Context = "Network"

	ThemeDevice                  Context = "Device"
	ThemeDeviceConnected         Context = "DeviceConnected"
	ThemeDeviceFavorite          Context = "DeviceFavorite"
	ThemeDeviceProperty          Context = "DeviceProperty"
	ThemeDevicePropertyConnected Context = "DevicePropertyConnected"
	ThemeDevicePropertyFavorite  Context = "DevicePropertyFavorite"

	ThemeMenu     Context = "Menu"
	ThemeMenuBar  Context = "MenuBar"
	ThemeMenuItem Context = "MenuItem"
)

// ThemeConfig stores a list of color for the modifier elements.
var ThemeConfig = map[Context]string{
	ThemeText:        "white",
	ThemeBorder:      "white",
	ThemeBackground:  "default",
	ThemeStatusInfo:  "white",
	ThemeStatusError: "red",

	ThemeRadio:           "white",
	ThemeRadioPowered:    "green",
	ThemeRadioNotPowered: "red",
	ThemeRadioUnknown:    "grey",
	ThemeNetwork:         "aqua",

	ThemeDevice:                  "white",
	ThemeDeviceConnected:         "white",
	ThemeDeviceFavorite:          "yellow",
	ThemeDeviceProperty:          "grey",
	ThemeDevicePropertyConnected: "green",
	ThemeDevicePropertyFavorite:  "orange",

	ThemeMenu:     "white",
	ThemeMenuBar:  "default",
	ThemeMenuItem: "white",
}

// ParseThemeConfig parses the theme configuration.
func ParseThemeConfig(themeConfig map[string]string) error {
	for context, color := range themeConfig {
		if _, ok := ThemeConfig[Context(context)]; !ok {
			return fmt.Errorf("theme configuration has an unknown element %s", context)
		}

		if !isValidElementColor(color) {
			return fmt.Errorf("theme configuration is incorrect for %s (%s)", context, color)
		}

		switch color {
		case "black":
			color = "#000000"

		case "transparent":
			color = "default"
		}

		ThemeConfig[Context(context)] = color
	}

	return nil
}
