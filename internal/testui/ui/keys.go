package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds every binding of the test list screen
type KeyMap struct {
	Quit        key.Binding
	ForceQuit   key.Binding
	Filter      key.Binding
	ClearFilter key.Binding
	RunAll      key.Binding
	RunFailed   key.Binding
	NextFailed  key.Binding
	PrevFailed  key.Binding
	FailedOnly  key.Binding
	Details     key.Binding
	Close       key.Binding
	Up          key.Binding
	Down        key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Home        key.Binding
	End         key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view. It's part of the help.KeyMap interface
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.RunAll, k.RunFailed, k.Filter, k.NextFailed, k.FailedOnly, k.Details, k.Quit}
}

// FullHelp returns keybindings for the expanded help view. It's part of the help.KeyMap interface
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Home, k.End},
		{k.RunAll, k.RunFailed, k.NextFailed, k.PrevFailed},
		{k.Filter, k.ClearFilter, k.FailedOnly, k.Details},
		{k.Close, k.Quit},
	}
}

// DefaultKeyMap returns the standard bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		ClearFilter: key.NewBinding(
			key.WithKeys("ctrl+f"),
			key.WithHelp("ctrl+f", "clear filter"),
		),
		RunAll: key.NewBinding(
			key.WithKeys("R", "ctrl+f5"),
			key.WithHelp("R", "run all"),
		),
		RunFailed: key.NewBinding(
			key.WithKeys("r", "f5"),
			key.WithHelp("r/f5", "run failed"),
		),
		NextFailed: key.NewBinding(
			key.WithKeys("alt+down"),
			key.WithHelp("alt+↓", "next failure"),
		),
		PrevFailed: key.NewBinding(
			key.WithKeys("alt+up"),
			key.WithHelp("alt+↑", "previous failure"),
		),
		FailedOnly: key.NewBinding(
			key.WithKeys("f4"),
			key.WithHelp("f4", "failed only"),
		),
		Details: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "details"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc", "q", "enter"),
			key.WithHelp("esc", "close"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdown", "page down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("home/g", "first"),
		),
		End: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("end/G", "last"),
		),
	}
}
