package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit         key.Binding
	Dashboard    key.Binding
	Transactions key.Binding
	Manage       key.Binding
	Retry        key.Binding
	Period       key.Binding
	Up           key.Binding
	Down         key.Binding
	DateRange    key.Binding
	TypeFilter   key.Binding
	Add          key.Binding
	Delete       key.Binding
	NewCategory  key.Binding
	ChangePIN    key.Binding
	Logout       key.Binding
	Yes          key.Binding
	No           key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Quit:         key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		Dashboard:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "dashboard")),
		Transactions: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "transactions")),
		Manage:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "manage")),
		Retry:        key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "retry")),
		Period:       key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "period")),
		Up:           key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:         key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		DateRange:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "date range")),
		TypeFilter:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "type")),
		Add:          key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Delete:       key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
		NewCategory:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new category")),
		ChangePIN:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "change PIN")),
		Logout:       key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "logout")),
		Yes:          key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "yes")),
		No:           key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n", "no")),
	}
}

// helpLine renders bindings as "[k] help" pairs.
func helpLine(bs ...key.Binding) string {
	out := ""
	for i, b := range bs {
		if i > 0 {
			out += "  "
		}
		h := b.Help()
		out += "[" + h.Key + "] " + h.Desc
	}
	return out
}
