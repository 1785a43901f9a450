package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Open    key.Binding
	Back    key.Binding
	New     key.Binding
	Edit    key.Binding
	Delete  key.Binding
	Toggle  key.Binding
	Filter  key.Binding
	Menu    key.Binding
	Refresh key.Binding
	Dismiss key.Binding
	Quit    key.Binding

	NextField key.Binding
	PrevField key.Binding
	Submit    key.Binding
	Cancel    key.Binding

	Yes key.Binding
	No  key.Binding
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	Back:    key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
	New:     key.NewBinding(key.WithKeys("n", "a"), key.WithHelp("n", "new")),
	Edit:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
	Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Toggle:  key.NewBinding(key.WithKeys(" ", "space", "t"), key.WithHelp("space", "toggle")),
	Filter:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
	Menu:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "menu")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Dismiss: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "dismiss")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

	NextField: key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
	PrevField: key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "previous")),
	Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
	Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),

	Yes: key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
	No:  key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
}

func dashboardHelp() []key.Binding {
	return []key.Binding{keys.Up, keys.Down, keys.Open, keys.New, keys.Edit, keys.Delete, keys.Menu, keys.Refresh, keys.Quit}
}

func detailHelp() []key.Binding {
	return []key.Binding{keys.Up, keys.Down, keys.Toggle, keys.Filter, keys.New, keys.Edit, keys.Delete, keys.Menu, keys.Back, keys.Quit}
}

func formHelp() []key.Binding {
	return []key.Binding{keys.NextField, keys.PrevField, keys.Submit, keys.Cancel}
}

func confirmHelp() []key.Binding {
	return []key.Binding{keys.Yes, keys.No}
}
