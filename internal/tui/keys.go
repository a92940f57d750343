package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/verte-zerg/splitclock/internal/model"
)

type keyMap struct {
	Split key.Binding
	Reset key.Binding
	Undo  key.Binding
	Redo  key.Binding
	Lock  key.Binding
	Help  key.Binding
	Quit  key.Binding
}

func newKeyMap(k model.Keybindings, global bool) keyMap {
	return keyMap{
		Split: timerBinding(k.Split, global, "split"),
		Reset: timerBinding(k.Reset, global, "reset (double tap)"),
		Undo:  timerBinding(k.Undo, global, "undo"),
		Redo:  timerBinding(k.Redo, global, "redo"),
		Lock:  timerBinding(k.Lock, global, "lock"),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "save & quit"),
		),
	}
}

// timerBinding describes a timer key for the help footer. The timer reads
// these keys through its own input backend, so the binding is never matched.
func timerBinding(b model.KeyBinding, global bool, desc string) key.Binding {
	label := b.Key
	if global {
		label = "key " + label
	}
	if b.RequiresShift {
		label = "shift+" + label
	}
	if b.Key == "" {
		return key.NewBinding(key.WithDisabled())
	}
	return key.NewBinding(key.WithKeys(label), key.WithHelp(label, desc))
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Split, k.Reset, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Split, k.Reset, k.Undo},
		{k.Redo, k.Lock},
		{k.Help, k.Quit},
	}
}
