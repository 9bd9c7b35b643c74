package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Quit        key.Binding
	PrevRegion  key.Binding
	NextRegion  key.Binding
	Up          key.Binding
	Down        key.Binding
	Search      key.Binding
	Submit      key.Binding
	Cancel      key.Binding
	LoadMore    key.Binding
	Refresh     key.Binding
	Resubscribe key.Binding
}

var Keys = KeyMap{
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "выход")),
	PrevRegion:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "регион")),
	NextRegion:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "регион")),
	Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑", "вверх")),
	Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓", "вниз")),
	Search:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "поиск")),
	Submit:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "найти")),
	Cancel:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "отмена")),
	LoadMore:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "ещё")),
	Refresh:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "обновить")),
	Resubscribe: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "переподключить")),
}

// ShortHelp lists the bindings shown in the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PrevRegion, k.NextRegion, k.Search, k.LoadMore, k.Refresh, k.Resubscribe, k.Quit}
}
