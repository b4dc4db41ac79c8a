package app

import "github.com/gdamore/tcell/v2"

// suspendApp is a no-op, since job control signals are not available.
func suspendApp(tcell.Screen) {}
