package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the global bindings. Tabs add their own on top.
type KeyMap struct {
	Tab1, Tab2, Tab3 key.Binding
	NextTab, PrevTab key.Binding

	Refresh   key.Binding
	Logout    key.Binding
	Help      key.Binding
	Escape    key.Binding
	Quit      key.Binding
	ForceQuit key.Binding

	Up, Down         key.Binding
	PageUp, PageDown key.Binding
}

func bind(help, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

// DefaultKeyMap returns the bindings listed in the help overlay.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Tab1:    bind("1", "dashboard", "1"),
		Tab2:    bind("2", "history", "2"),
		Tab3:    bind("3", "account", "3"),
		NextTab: bind("tab/→", "next tab", "tab", "right"),
		PrevTab: bind("shift+tab/←", "prev tab", "shift+tab", "left"),

		Refresh:   bind("r", "refresh usage", "r", "ctrl+r"),
		Logout:    bind("L", "log out", "L"),
		Help:      bind("?", "toggle help", "?"),
		Escape:    bind("esc", "close", "esc"),
		Quit:      bind("q", "quit", "q", "ctrl+c"),
		ForceQuit: bind("ctrl+c", "quit", "ctrl+c"),

		Up:       bind("↑/k", "up", "up", "k"),
		Down:     bind("↓/j", "down", "down", "j"),
		PageUp:   bind("pgup", "page up", "pgup", "ctrl+u"),
		PageDown: bind("pgdn", "page down", "pgdown", "ctrl+d"),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Refresh, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab1, k.Tab2, k.Tab3},
		{k.NextTab, k.PrevTab},
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Refresh, k.Logout, k.Help, k.Quit},
	}
}
