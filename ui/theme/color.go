package theme

import (
	"fmt"

	"github.com/darkhz/sleepwatch/radio"
	"github.com/gdamore/tcell/v2"
)

// ColorWrap wraps the text content with the modifier element's color.
func ColorWrap(elementName Context, elementContent string, attributes ...string) string {
	attr := "::b"
	if attributes != nil {
		attr = attributes[0]
	}

	return fmt.Sprintf("[%s%s]%s[-:-:-]", ThemeConfig[elementName], attr, elementContent)
}

// PowerContext returns the theme context for a radio power state.
func PowerContext(state radio.PowerState) Context {
	switch state {
	case radio.PowerOn:
		return ThemeRadioPowered

	case radio.PowerOff:
		return ThemeRadioNotPowered
	}

	return ThemeRadioUnknown
}

// BackgroundColor returns a color which is visible on top of the
// color of the provided context.
func BackgroundColor(themeContext Context) tcell.Color {
	r, g, b := GetColor(themeContext).RGB()

	// Perceived brightness, as in TinyColor's isLight().
	if (r*299+g*587+b*114)/1000 > 130 {
		return tcell.ColorBlack
	}

	return tcell.ColorWhite
}

// GetColor returns the color of the modifier element.
func GetColor(themeContext Context) tcell.Color {
	color := ThemeConfig[themeContext]
	if color == "black" {
		return tcell.Color16
	}

	return tcell.GetColor(color)
}

// isValidElementColor returns whether the modifier-value pair is valid.
func isValidElementColor(color string) bool {
	return color == "transparent" || tcell.GetColor(color) != tcell.ColorDefault
}
