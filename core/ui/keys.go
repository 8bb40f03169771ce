package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Toggle  key.Binding
	Session key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Toggle: key.NewBinding(
			key.WithKeys("p", " "),
			key.WithHelp("p/space", "play/pause"),
		),
		Session: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "start/stop session"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Session, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Toggle, k.Session}, {k.Help, k.Quit}}
}
