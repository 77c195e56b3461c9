package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit          key.Binding
	Refresh       key.Binding
	NextTab       key.Binding
	PrevTab       key.Binding
	JumpTab       key.Binding
	Theme         key.Binding
	Sound         key.Binding
	NextProject   key.Binding
	ToggleProject key.Binding
	ThresholdUp   key.Binding
	ThresholdDown key.Binding
	Help          key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "sair")),
		Refresh:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "atualizar")),
		NextTab:       key.NewBinding(key.WithKeys("tab", "right", "l"), key.WithHelp("tab/→", "próxima aba")),
		PrevTab:       key.NewBinding(key.WithKeys("shift+tab", "left", "h"), key.WithHelp("shift+tab/←", "aba anterior")),
		JumpTab:       key.NewBinding(key.WithKeys("1", "2", "3", "4", "5"), key.WithHelp("1-5", "ir para aba")),
		Theme:         key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "tema")),
		Sound:         key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "alerta sonoro")),
		NextProject:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "selecionar projeto")),
		ToggleProject: key.NewBinding(key.WithKeys(" "), key.WithHelp("espaço", "mostrar/ocultar projeto")),
		ThresholdUp:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "dias de risco +1")),
		ThresholdDown: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "dias de risco -1")),
		Help:          key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "ajuda")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.Refresh, k.NextProject, k.ToggleProject, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextTab, k.PrevTab, k.JumpTab, k.Refresh},
		{k.NextProject, k.ToggleProject, k.ThresholdUp, k.ThresholdDown},
		{k.Theme, k.Sound, k.Help, k.Quit},
	}
}
