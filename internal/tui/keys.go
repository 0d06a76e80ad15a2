package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Next         key.Binding
	Prev         key.Binding
	First        key.Binding
	Last         key.Binding
	NextLandmark key.Binding
	PrevLandmark key.Binding
	WiderWindow  key.Binding
	NarrowWindow key.Binding
	RaiseLevel   key.Binding
	LowerLevel   key.Binding
	AutoWindow   key.Binding
	Help         key.Binding
	Quit         key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next: key.NewBinding(
			key.WithKeys("up", "right"),
			key.WithHelp("↑/→", "next slice"),
		),
		Prev: key.NewBinding(
			key.WithKeys("down", "left"),
			key.WithHelp("↓/←", "previous slice"),
		),
		First: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("home/g", "first slice"),
		),
		Last: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("end/G", "last slice"),
		),
		NextLandmark: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next landmark"),
		),
		PrevLandmark: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "previous landmark"),
		),
		WiderWindow: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "wider window"),
		),
		NarrowWindow: key.NewBinding(
			key.WithKeys("W"),
			key.WithHelp("W", "narrower window"),
		),
		RaiseLevel: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "raise level"),
		),
		LowerLevel: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "lower level"),
		),
		AutoWindow: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "auto window"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.NextLandmark, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.First, k.Last},
		{k.NextLandmark, k.PrevLandmark},
		{k.WiderWindow, k.NarrowWindow, k.RaiseLevel, k.LowerLevel, k.AutoWindow},
		{k.Help, k.Quit},
	}
}
