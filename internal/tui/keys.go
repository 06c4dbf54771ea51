package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all key bindings
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Tab     key.Binding
	Enter   key.Binding
	Slot    key.Binding
	Add     key.Binding
	Edit    key.Binding
	Delete  key.Binding
	Folder  key.Binding
	Move    key.Binding
	Group   key.Binding
	Save    key.Binding
	Help    key.Binding
	Quit    key.Binding
	Escape  key.Binding
	Refresh key.Binding
	Yes     key.Binding
	No      key.Binding
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
	Enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "inject/toggle")),
	Slot:    key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "inject slot")),
	Add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add prompt")),
	Edit:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
	Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Folder:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "new folder")),
	Move:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "move to folder")),
	Group:   key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "group two prompts")),
	Save:    key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
	Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Escape:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Refresh: key.NewBinding(key.WithKeys("r", "R"), key.WithHelp("r", "reload")),
	Yes:     key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "yes")),
	No:      key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n", "no")),
}
