package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/marcin-skalski/sla-monitor/internal/sla"
)

type palette struct {
	text      lipgloss.Color
	muted     lipgloss.Color
	accent    lipgloss.Color
	highlight lipgloss.Color
	onTrack   lipgloss.Color
	atRisk    lipgloss.Color
	breached  lipgloss.Color
	paused    lipgloss.Color
	closed    lipgloss.Color
}

var (
	darkPalette = palette{
		text:      lipgloss.Color("252"),
		muted:     lipgloss.Color("240"),
		accent:    lipgloss.Color("39"),
		highlight: lipgloss.Color("237"),
		onTrack:   lipgloss.Color("46"),
		atRisk:    lipgloss.Color("220"),
		breached:  lipgloss.Color("196"),
		paused:    lipgloss.Color("245"),
		closed:    lipgloss.Color("240"),
	}
	lightPalette = palette{
		text:      lipgloss.Color("235"),
		muted:     lipgloss.Color("244"),
		accent:    lipgloss.Color("25"),
		highlight: lipgloss.Color("254"),
		onTrack:   lipgloss.Color("28"),
		atRisk:    lipgloss.Color("136"),
		breached:  lipgloss.Color("160"),
		paused:    lipgloss.Color("243"),
		closed:    lipgloss.Color("248"),
	}
)

type styles struct {
	p palette

	header      lipgloss.Style
	banner      lipgloss.Style
	flash       lipgloss.Style
	alertFlash  lipgloss.Style
	count       lipgloss.Style
	tab         lipgloss.Style
	activeTab   lipgloss.Style
	row         lipgloss.Style
	muted       lipgloss.Style
	empty       lipgloss.Style
	project     lipgloss.Style
	selProject  lipgloss.Style
	footer      lipgloss.Style
}

func newStyles(dark bool) styles {
	p := lightPalette
	if dark {
		p = darkPalette
	}
	return styles{
		p: p,
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.accent).
			PaddingLeft(1).
			PaddingRight(1),
		banner: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("231")).
			Background(p.breached).
			PaddingLeft(1).
			PaddingRight(1),
		flash:      lipgloss.NewStyle().Foreground(p.accent).Italic(true),
		alertFlash: lipgloss.NewStyle().Foreground(p.atRisk).Bold(true).Blink(true),
		count:      lipgloss.NewStyle().Bold(true).PaddingRight(2),
		tab: lipgloss.NewStyle().
			Foreground(p.muted).
			PaddingLeft(1).
			PaddingRight(1),
		activeTab: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.accent).
			Background(p.highlight).
			PaddingLeft(1).
			PaddingRight(1),
		row:   lipgloss.NewStyle().Foreground(p.text),
		muted: lipgloss.NewStyle().Foreground(p.muted),
		empty: lipgloss.NewStyle().
			Foreground(p.muted).
			Italic(true),
		project:    lipgloss.NewStyle().Foreground(p.text),
		selProject: lipgloss.NewStyle().Bold(true).Foreground(p.accent).Background(p.highlight),
		footer: lipgloss.NewStyle().
			Foreground(p.muted).
			MarginTop(1),
	}
}

func (s styles) stateColor(st sla.RiskState) lipgloss.Color {
	switch st {
	case sla.AtRisk:
		return s.p.atRisk
	case sla.Breached:
		return s.p.breached
	case sla.Paused:
		return s.p.paused
	case sla.Closed:
		return s.p.closed
	default:
		return s.p.onTrack
	}
}

func stateIcon(st sla.RiskState) string {
	switch st {
	case sla.AtRisk:
		return "⚠️"
	case sla.Breached:
		return "🔥"
	case sla.Paused:
		return "⏸️"
	case sla.Closed:
		return "✔️"
	default:
		return "✅"
	}
}

func stateLabel(st sla.RiskState) string {
	switch st {
	case sla.AtRisk:
		return "Em Risco"
	case sla.Breached:
		return "Estourado"
	case sla.Paused:
		return "Pausado"
	case sla.Closed:
		return "Fechado"
	default:
		return "No Prazo"
	}
}
