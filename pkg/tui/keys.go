package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Left   key.Binding
	Right  key.Binding
	Add    key.Binding
	Edit   key.Binding
	Delete key.Binding
	Sort   key.Binding
	Undo   key.Binding
	Redo   key.Binding
	Epic   key.Binding
	From   key.Binding
	To     key.Binding
	Clear  key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "earlier weeks")),
		Right:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "later weeks")),
		Add:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Edit:   key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit")),
		Delete: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Sort:   key.NewBinding(key.WithKeys("1", "2", "3", "4", "5"), key.WithHelp("1-5", "sort name/start/end/priority/status")),
		Undo:   key.NewBinding(key.WithKeys("u", "ctrl+z"), key.WithHelp("u", "undo")),
		Redo:   key.NewBinding(key.WithKeys("r", "ctrl+y"), key.WithHelp("r", "redo")),
		Epic:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "epic filter")),
		From:   key.NewBinding(key.WithKeys("["), key.WithHelp("[", "from date")),
		To:     key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "to date")),
		Clear:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear filters")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Edit, k.Delete, k.Sort, k.Undo, k.Redo, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Add, k.Edit, k.Delete, k.Sort},
		{k.Undo, k.Redo, k.Epic, k.From, k.To, k.Clear},
		{k.Help, k.Quit},
	}
}
