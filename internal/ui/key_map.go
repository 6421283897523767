package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	tab      key.Binding
	complete key.Binding
	moveUp   key.Binding
	moveDown key.Binding
	remove   key.Binding
	fairPlay key.Binding
	rotate   key.Binding
	open     key.Binding
	lower    key.Binding
	raise    key.Binding
	confirm  key.Binding
	yes      key.Binding
	no       key.Binding
	back     key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next view")),
		complete: key.NewBinding(key.WithKeys("enter", "c"), key.WithHelp("enter", "complete")),
		moveUp:   key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "move up")),
		moveDown: key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "move down")),
		remove:   key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		fairPlay: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "fair play")),
		rotate:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "auto-rotate")),
		open:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open video")),
		lower:    key.NewBinding(key.WithKeys("left", "h", "-"), key.WithHelp("←", "-0.5")),
		raise:    key.NewBinding(key.WithKeys("right", "l", "+"), key.WithHelp("→", "+0.5")),
		confirm:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		yes:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "no")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.complete, k.tab, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.tab},
		{k.complete, k.moveUp, k.moveDown, k.remove},
		{k.fairPlay, k.rotate, k.open, k.quit},
	}
}
