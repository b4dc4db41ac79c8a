package views

import (
	"context"
	"slices"

	"github.com/darkhz/sleepwatch/ui/keybindings"
	"github.com/darkhz/sleepwatch/ui/theme"
	"github.com/darkhz/tview"
	"github.com/gdamore/tcell/v2"
)

// modalKind describes how a modal is placed on the screen.
type modalKind int

const (
	// modalDialog is a framed modal, centered on the screen.
	modalDialog modalKind = iota

	// modalMenu is a borderless modal, placed at an anchor like a menu bar region.
	modalMenu
)

// modalViews holds the modals which are displayed over the current screen,
// in the order they were shown.
type modalViews struct {
	shown []*modalView

	*Views
}

// Initialize initializes the modals view.
func (m *modalViews) Initialize() error {
	m.shown = make([]*modalView, 0, 4)

	return nil
}

// SetRootView sets the root view of the modals view.
func (m *modalViews) SetRootView(v *Views) {
	m.Views = v
}

// newDialog returns a framed modal with a title and a close button around item.
func (m *modalViews) newDialog(name, title string, item tview.Primitive, height, width int) *modalView {
	modal := &modalView{
		name:   name,
		kind:   modalDialog,
		height: height,
		width:  width,
		mgr:    m,
	}

	background := theme.GetColor(theme.ThemeBackground)

	heading := tview.NewTextView()
	heading.SetDynamicColors(true)
	heading.SetText("[::bu]" + title)
	heading.SetTextAlign(tview.AlignCenter)
	heading.SetTextColor(theme.GetColor(theme.ThemeText))
	heading.SetBackgroundColor(background)

	closeButton := tview.NewTextView()
	closeButton.SetRegions(true)
	closeButton.SetDynamicColors(true)
	closeButton.SetText(`["close"][::b][X[]`)
	closeButton.SetTextAlign(tview.AlignRight)
	closeButton.SetTextColor(theme.GetColor(theme.ThemeText))
	closeButton.SetBackgroundColor(background)
	closeButton.SetHighlightedFunc(func(added, _, _ []string) {
		if added != nil {
			modal.close()
		}
	})

	header := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(nil, 0, 1, false).
		AddItem(heading, 0, 10, false).
		AddItem(closeButton, 0, 1, false)
	header.SetBackgroundColor(background)

	modal.flex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, 1, 0, false).
		AddItem(horizontalLine(), 1, 0, false).
		AddItem(item, 0, 1, true)
	modal.flex.SetBorder(true)
	modal.flex.SetBorderColor(theme.GetColor(theme.ThemeBorder))
	modal.flex.SetBackgroundColor(background)

	return modal
}

// newTableModal returns a dialog with an embedded table, which closes on KeyClose.
func (m *modalViews) newTableModal(name, title string, height, width int) *tableModalView {
	table := tview.NewTable()
	table.SetSelectorWrap(true)
	table.SetSelectable(true, false)
	table.SetBackgroundColor(theme.GetColor(theme.ThemeBackground))

	modal := &tableModalView{
		table:     table,
		modalView: m.newDialog(name, title, table, height, width),
	}

	table.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if m.kb.Key(event) == keybindings.KeyClose {
			modal.close()
		}

		return ignoreDefaultEvent(event)
	})

	return modal
}

// newMenuModal returns a menu modal. It is placed with showAt.
func (m *modalViews) newMenuModal(name string) *tableModalView {
	table := tview.NewTable()
	table.SetBorder(true)
	table.SetSelectable(true, false)
	table.SetBorderColor(theme.GetColor(theme.ThemeBorder))
	table.SetBackgroundColor(theme.GetColor(theme.ThemeBackground))

	return &tableModalView{
		table: table,
		modalView: &modalView{
			name: name,
			kind: modalMenu,
			flex: tview.NewFlex().SetDirection(tview.FlexRow).AddItem(table, 0, 1, true),
			mgr:  m,
		},
	}
}

// newMessageModal returns a dialog which displays a message.
func (m *modalViews) newMessageModal(name, title, message string) *messageModalView {
	message += "\n\nPress any key or click the 'X' button to close this dialog."

	textview := newModalText(message)
	width, height := dialogSize(message, "", m.screenWidth())

	return &messageModalView{
		textview:  textview,
		modalView: m.newDialog(name, title, textview, height, width),
	}
}

// newConfirmModal returns a dialog which asks the user to confirm an action.
func (m *modalViews) newConfirmModal(name, title, message string) *confirmModalView {
	message += "\n\nPress y/n or click a button to confirm or cancel."
	buttonsText := `["confirm"][::b][Confirm[] ["cancel"][::b][Cancel[]`

	buttons := newModalText(buttonsText)
	buttons.SetRegions(true)

	textview := newModalText(message)
	width, height := dialogSize(message, buttonsText, m.screenWidth())

	item := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(textview, 0, 1, false).
		AddItem(buttons, 1, 0, true)

	return &confirmModalView{
		buttons:   buttons,
		modalView: m.newDialog(name, title, item, height, width),
	}
}

// find returns the displayed modal with the provided name.
func (m *modalViews) find(name string) (*modalView, bool) {
	for _, modal := range m.shown {
		if modal.name == name {
			return modal, true
		}
	}

	return nil, false
}

// display adds a modal over the current screen, and focuses it.
func (m *modalViews) display(modal *modalView) {
	m.shown = append(m.shown, modal)
	m.resize()

	m.pages.AddPage(modal.name, modal.flex, false, true)
	m.app.FocusPrimitive(modal.flex)
}

// remove removes a modal from the screen, and restores the focus.
func (m *modalViews) remove(modal *modalView) {
	m.shown = slices.DeleteFunc(m.shown, func(shown *modalView) bool {
		return shown == modal
	})
	m.pages.RemovePage(modal.name)

	m.setPrimaryFocus()
}

// resize places all the displayed modals according to the current screen size.
func (m *modalViews) resize() {
	pageX, pageY, pageWidth, pageHeight := m.pages.GetInnerRect()

	for _, modal := range m.shown {
		x, y, width, height := modalRect(
			modal.kind,
			modal.anchorX, modal.anchorY,
			modal.width, modal.height,
			pageWidth, pageHeight,
		)

		modal.flex.SetRect(pageX+x, pageY+y, width, height)
	}
}

// setPrimaryFocus focuses the status bar prompt if it is active, or the
// topmost modal, or the current screen.
func (m *modalViews) setPrimaryFocus() {
	switch {
	case m.status.prompting.Load():
		m.app.FocusPrimitive(m.status.prompt)

	case len(m.shown) > 0:
		m.app.FocusPrimitive(m.shown[len(m.shown)-1].flex)

	default:
		m.app.FocusPrimitive(m.pages)
	}
}

// mouseHandler focuses a modal when it is clicked, and closes it when
// a click lands outside of it.
func (m *modalViews) mouseHandler(event *tcell.EventMouse, action tview.MouseAction) (*tcell.EventMouse, tview.MouseAction) {
	x, y := event.Position()

	for _, modal := range slices.Clone(m.shown) {
		switch action {
		case tview.MouseRightClick:
			if m.menu.bar.InRect(x, y) {
				return nil, action
			}

		case tview.MouseLeftClick:
			switch {
			case modal.flex.InRect(x, y):
				m.app.FocusPrimitive(modal.flex)

			case modal.kind == modalMenu:
				m.menu.exit()

			default:
				modal.close()
			}
		}
	}

	return event, action
}

// screenWidth returns the width available to the modals.
func (m *modalViews) screenWidth() int {
	_, _, width, _ := m.pages.GetInnerRect()

	return width
}

// modalRect returns the position and size of a modal within a page.
// The size is clamped to the page, dialogs are centered and
// menus are kept at their anchor as long as they fit.
func modalRect(kind modalKind, anchorX, anchorY, width, height, pageWidth, pageHeight int) (x, y, w, h int) {
	w, h = min(width, pageWidth), min(height, pageHeight)

	if kind == modalMenu {
		return max(min(anchorX, pageWidth-w), 0), max(min(anchorY, pageHeight-h), 0), w, h
	}

	return max((pageWidth-w)/2, 0), max((pageHeight-h)/2, 0), w, h
}

// dialogSize returns the size of a dialog which displays text above a row of buttons.
// Adapted from: https://github.com/rivo/tview/blob/1b91b8131c43011d923fe59855b4de3571dac997/modal.go#L156
func dialogSize(text, buttons string, screenWidth int) (width int, height int) {
	buttonWidth := tview.TaggedStringWidth(buttons) - 2
	width = max(screenWidth/3, buttonWidth, 20)

	padding := 6
	if buttonWidth < 0 {
		padding -= 2
	}

	return width + 4, len(tview.WordWrap(text, width)) + padding
}

func newModalText(text string) *tview.TextView {
	textview := tview.NewTextView()
	textview.SetText(text)
	textview.SetDynamicColors(true)
	textview.SetTextAlign(tview.AlignCenter)
	textview.SetTextColor(theme.GetColor(theme.ThemeText))
	textview.SetBackgroundColor(theme.GetColor(theme.ThemeBackground))

	return textview
}

// modalView is a floating view displayed over the current screen.
type modalView struct {
	name string
	kind modalKind
	open bool

	width, height    int
	anchorX, anchorY int

	flex    *tview.Flex
	onClose func()

	mgr *modalViews
}

// show displays the modal, unless a modal with the same name is displayed.
func (m *modalView) show() {
	if _, ok := m.mgr.find(m.name); ok {
		return
	}

	m.open = true
	m.mgr.display(m)
}

// showAt displays the modal at the provided position and size.
func (m *modalView) showAt(x, y, width, height int) {
	m.anchorX, m.anchorY = x, y
	m.width, m.height = width, height

	m.show()
}

// isOpen reports whether the modal is displayed.
func (m *modalView) isOpen() bool {
	return m != nil && m.open
}

// close removes the modal from the screen.
func (m *modalView) close() {
	if !m.isOpen() {
		return
	}

	m.open = false
	m.mgr.remove(m)

	if m.onClose != nil {
		m.onClose()
	}
}

// tableModalView is a modal with an embedded table.
type tableModalView struct {
	table *tview.Table

	*modalView
}

// messageModalView is a dialog which displays a message.
type messageModalView struct {
	textview *tview.TextView

	*modalView
}

// wait displays the message, and closes it once the user presses a key
// or ctx is done. It must not be called from the drawing loop.
func (d *messageModalView) wait(ctx context.Context) {
	closed := make(chan struct{})

	d.onClose = func() { close(closed) }
	d.textview.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		d.close()
		return nil
	})

	d.mgr.app.QueueDraw(func() {
		if shown, ok := d.mgr.find(d.name); ok {
			shown.close()
		}

		d.show()
	})

	select {
	case <-ctx.Done():
		d.mgr.app.QueueDraw(d.close)

	case <-closed:
	}
}

// confirmModalView is a dialog which asks the user for confirmation.
type confirmModalView struct {
	buttons *tview.TextView

	*modalView
}

// ask displays the dialog, and reports whether the user confirmed.
// Closing the dialog, or the end of ctx, cancels.
// It must not be called from the drawing loop.
func (c *confirmModalView) ask(ctx context.Context) bool {
	answer := make(chan bool, 1)

	reply := func(confirmed bool) {
		select {
		case answer <- confirmed:
		default:
		}

		c.close()
	}

	c.onClose = func() { reply(false) }
	c.buttons.SetHighlightedFunc(func(added, _, _ []string) {
		if added != nil {
			reply(added[0] == "confirm")
		}
	})
	c.buttons.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch {
		case isYes(event):
			reply(true)

		case event.Rune() == 'n' || c.mgr.kb.Key(event) == keybindings.KeyClose:
			reply(false)
		}

		return nil
	})

	c.mgr.app.QueueDraw(func() {
		if shown, ok := c.mgr.find(c.name); ok {
			shown.close()
		}

		c.show()
	})

	select {
	case <-ctx.Done():
		c.mgr.app.QueueDraw(c.close)
		return false

	case confirmed := <-answer:
		return confirmed
	}
}
