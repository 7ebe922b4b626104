package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	play     key.Binding
	toggle   key.Binding
	next     key.Binding
	previous key.Binding
	repeat   key.Binding
	forward  key.Binding
	back     key.Binding
	nextTab  key.Binding
	prevTab  key.Binding
	closeTab key.Binding
	remove   key.Binding
	save     key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		play:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play")),
		toggle:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause/resume")),
		next:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		previous: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous")),
		repeat:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "repeat once")),
		forward:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "+10s")),
		back:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "-10s")),
		nextTab:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		prevTab:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous tab")),
		closeTab: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "close tab")),
		remove:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "remove track")),
		save:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.play, k.toggle, k.next, k.previous, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.play, k.toggle},
		{k.next, k.previous, k.repeat, k.forward, k.back},
		{k.nextTab, k.prevTab, k.closeTab, k.remove},
		{k.save, k.quit},
	}
}
