package views

import (
	"strings"

	"github.com/darkhz/sleepwatch/ui/keybindings"
	"github.com/darkhz/sleepwatch/ui/theme"
	"github.com/darkhz/tview"
	"github.com/gdamore/tcell/v2"
)

// helpView holds the help view.
type helpView struct {
	page   string
	topics []helpTopic

	*Views
}

// helpTopic is a titled list of help items, shown in the help modal.
// Topics with a page are also condensed into the status bar on that page.
type helpTopic struct {
	Title string
	Page  viewName
	Items []HelpData
}

// HelpData describes the help item. Items of the same group are
// joined into one entry in the status bar.
type HelpData struct {
	Title, Description string
	Keys               []keybindings.Key
	Group              string
	ShowInStatus       bool
}

// Initialize initializes the help view.
func (h *helpView) Initialize() error {
	h.initHelpData()

	if h.cfg.Values.NoHelpDisplay {
		return nil
	}

	h.layout.AddItem(
		tview.NewFlex().
			SetDirection(tview.FlexRow).
			AddItem(horizontalLine(), 1, 0, false).
			AddItem(h.status.keys, 1, 0, false),
		2, 0, false,
	)

	return nil
}

// SetRootView sets the root view for the help view.
func (h *helpView) SetRootView(v *Views) {
	h.Views = v
}

// showStatusHelp shows the condensed help text of a page below the status bar.
// Modals keep the help text of the page they are displayed over.
func (h *helpView) showStatusHelp(page string) {
	if h.cfg.Values.NoHelpDisplay || h.page == page {
		return
	}

	for _, topic := range h.topics {
		if topic.Page.String() != page {
			continue
		}

		h.page = page
		h.status.keys.SetText(statusHelpText(topic.Items, h.keyNames))

		return
	}
}

// showHelp displays a modal with the help items for all the screens.
func (h *helpView) showHelp() {
	var row int

	helpModal := h.modals.newTableModal("help", "Help", 40, 60)
	helpModal.table.SetSelectionChangedFunc(func(row, _ int) {
		if row == 1 {
			helpModal.table.ScrollToBeginning()
		}
	})
	helpModal.table.SetMouseCapture(func(action tview.MouseAction, event *tcell.EventMouse) (tview.MouseAction, *tcell.EventMouse) {
		if action == tview.MouseScrollUp {
			helpModal.table.InputHandler()(tcell.NewEventKey(tcell.KeyUp, ' ', tcell.ModNone), nil)
		}

		return action, event
	})

	style := tcell.Style{}.
		Foreground(theme.GetColor(theme.ThemeText)).
		Background(theme.BackgroundColor(theme.ThemeText))

	for _, topic := range h.topics {
		helpModal.table.SetCell(row, 0, tview.NewTableCell("[::bu]"+topic.Title).
			SetSelectable(false).
			SetAlign(tview.AlignCenter).
			SetTextColor(theme.GetColor(theme.ThemeText)),
		)
		row++

		for _, item := range topic.Items {
			helpModal.table.SetCell(row, 0, tview.NewTableCell(item.Description).
				SetExpansion(1).
				SetTextColor(theme.GetColor(theme.ThemeText)).
				SetSelectedStyle(style),
			)
			helpModal.table.SetCell(row, 1, tview.NewTableCell(h.keyNames(item.Keys)).
				SetTextColor(theme.GetColor(theme.ThemeText)).
				SetSelectedStyle(style),
			)
			row++
		}

		row++
	}

	helpModal.show()
}

// keyNames returns the display names of the keybindings of keys, joined by "/".
func (h *helpView) keyNames(keys []keybindings.Key) string {
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, h.kb.Name(h.kb.Data(k).Kb))
	}

	return strings.Join(names, "/")
}

// statusHelpText condenses the status items into a single line, with
// items of the same group merged, in the order their groups first appear.
func statusHelpText(items []HelpData, keyNames func([]keybindings.Key) string) string {
	type group struct {
		name   string
		titles []string
		keys   []keybindings.Key
	}

	var groups []*group
	byName := make(map[string]*group)

	for _, item := range items {
		if !item.ShowInStatus {
			continue
		}

		name := item.Group
		if name == "" {
			name = item.Title
		}

		g, ok := byName[name]
		if !ok {
			g = &group{name: name}
			byName[name] = g
			groups = append(groups, g)
		}

		if item.Title != name {
			g.titles = append(g.titles, item.Title)
		}
		g.keys = append(g.keys, item.Keys...)
	}

	entries := make([]string, 0, len(groups))
	for _, g := range groups {
		title := g.name
		if g.titles != nil {
			title += " " + strings.Join(g.titles, "/")
		}

		entries = append(entries,
			theme.ColorWrap(theme.ThemeText, title, "::bu")+theme.ColorWrap(theme.ThemeText, ": "+keyNames(g.keys)),
		)
	}

	return strings.Join(entries, theme.ColorWrap(theme.ThemeText, ", "))
}

// initHelpData initializes the help data for all the specified screens.
func (h *helpView) initHelpData() {
	h.topics = []helpTopic{
		{
			Title: "Main Screen",
			Page:  devicePage,
			Items: []HelpData{
				{"Menu", "Open the menu", []keybindings.Key{keybindings.KeyMenu}, "Open", true},
				{"Switch", "Navigate between menus", []keybindings.Key{keybindings.KeySwitch}, "Open", true},
				{"Navigation", "Navigate between devices/options", []keybindings.Key{keybindings.KeyNavigateUp, keybindings.KeyNavigateDown}, "", true},
				{"Wi-Fi", "Toggle turning off Wi-Fi on sleep", []keybindings.Key{keybindings.KeyWifiToggleControl}, "Sleep", true},
				{"Bluetooth", "Toggle turning off Bluetooth on sleep", []keybindings.Key{keybindings.KeyBluetoothToggleControl}, "Sleep", true},
				{"Wi-Fi Auto-reconnect", "Toggle rejoining the Wi-Fi network on wake", []keybindings.Key{keybindings.KeyWifiToggleReconnect}, "", false},
				{"Bluetooth Auto-reconnect", "Toggle reconnecting devices on wake", []keybindings.Key{keybindings.KeyBluetoothToggleReconnect}, "", false},
				{"Favorites Only", "Reconnect only favorite devices", []keybindings.Key{keybindings.KeyReconnectModeFavorites}, "", false},
				{"Most Recent", "Reconnect the devices connected before sleep", []keybindings.Key{keybindings.KeyReconnectModeLastConnected}, "", false},
				{"Wi-Fi", "Rejoin the saved Wi-Fi network", []keybindings.Key{keybindings.KeyWifiReconnect}, "Reconnect", true},
				{"Devices", "Reconnect devices now", []keybindings.Key{keybindings.KeyBluetoothReconnect}, "Reconnect", true},
				{"Connect", "Toggle connection with selected device", []keybindings.Key{keybindings.KeyDeviceConnect}, "Toggle", true},
				{"Favorite", "Toggle favorite for selected device", []keybindings.Key{keybindings.KeyDeviceFavorite}, "Toggle", true},
				{"Device Info", "Show device information", []keybindings.Key{keybindings.KeyDeviceInfo}, "", false},
				{"Refresh", "Refresh radio and device statuses", []keybindings.Key{keybindings.KeyRefresh}, "", false},
				{"Cancel", "Cancel operation", []keybindings.Key{keybindings.KeyCancel}, "", false},
				{"Help", "Show help", []keybindings.Key{keybindings.KeyHelp}, "", true},
				{"Quit", "Quit", []keybindings.Key{keybindings.KeyQuit}, "", false},
			},
		},
		{
			Title: "Updates",
			Items: []HelpData{
				{"Check", "Check for updates", []keybindings.Key{keybindings.KeyCheckUpdate}, "", false},
				{"On Startup", "Toggle checking for updates on startup", []keybindings.Key{keybindings.KeyToggleUpdateOnStartup}, "", false},
			},
		},
	}
}
