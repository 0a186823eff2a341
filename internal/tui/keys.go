package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit       key.Binding
	Toggle     key.Binding
	Down       key.Binding
	Up         key.Binding
	Seek       key.Binding
	Restart    key.Binding
	AutoScroll key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "play/pause"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "next"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "prev"),
		),
		Seek: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "seek"),
		),
		Restart: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "restart"),
		),
		AutoScroll: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "auto-scroll"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Down, k.Up, k.Seek, k.Restart, k.AutoScroll, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Seek, k.Restart},
		{k.Down, k.Up, k.AutoScroll},
		{k.Quit},
	}
}
