package views

import (
	"github.com/darkhz/sleepwatch/ui/keybindings"
	"github.com/darkhz/tview"
	"go.uber.org/atomic"
)

// screenContexts maps the screens to their keybinding contexts.
// Any other page, like a modal, is shown over the current screen.
var screenContexts = map[viewName]keybindings.Context{
	devicePage: keybindings.ContextDevice,
}

// viewPages holds the main screen and the modals displayed over it.
type viewPages struct {
	screen  atomic.String
	context atomic.String

	*tview.Pages
}

// newViewPages returns a new viewPages.
func newViewPages() *viewPages {
	p := &viewPages{
		Pages: tview.NewPages(),
	}

	p.screen.Store(devicePage.String())
	p.context.Store(string(keybindings.ContextApp))

	return p
}

// focus records the page which was brought to the front.
func (v *viewPages) focus(page string) {
	context, ok := screenContexts[viewName(page)]
	if !ok {
		v.context.Store(string(keybindings.ContextApp))
		return
	}

	v.screen.Store(page)
	v.context.Store(string(context))
}

// currentScreen returns the screen below any displayed modals.
func (v *viewPages) currentScreen() string {
	return v.screen.Load()
}

// currentContext returns the keybinding context of the front page.
func (v *viewPages) currentContext() keybindings.Context {
	return keybindings.Context(v.context.Load())
}
