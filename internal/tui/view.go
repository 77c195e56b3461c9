package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/marcin-skalski/sla-monitor/internal/board"
	"github.com/marcin-skalski/sla-monitor/internal/feed"
	"github.com/marcin-skalski/sla-monitor/internal/monitor"
	"github.com/mattn/go-runewidth"
)

const (
	idWidth       = 10
	customerWidth = 28
	projectWidth  = 14
	assigneeWidth = 18
	barWidth      = 10
	// rows taken by everything but the ticket list
	chromeHeight = 12
)

func renderView(m Model) string {
	s := newStyles(m.snapshot.Settings.DarkMode)
	snap := m.snapshot
	var b strings.Builder

	b.WriteString(renderHeader(s, snap))
	b.WriteString("\n")

	if snap.Error != "" {
		b.WriteString(s.banner.Render(snap.Error))
		b.WriteString("\n")
	}

	b.WriteString(renderCounts(s, m.board.Counts))
	b.WriteString("\n")
	if m.flash.text != "" {
		style := s.flash
		if m.flash.alert {
			style = s.alertFlash
		}
		b.WriteString(style.Render(m.flash.text))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(renderTabs(s, m.board, m.tab))
	b.WriteString("\n\n")
	b.WriteString(renderRows(s, m.board.Tab(m.tab), snap, m.height))

	b.WriteString("\n")
	b.WriteString(renderProjects(m, s))
	b.WriteString("\n")
	b.WriteString(s.footer.Render(m.help.View(m.keys)))

	return b.String()
}

func renderHeader(s styles, snap monitor.Snapshot) string {
	source := "principal"
	if snap.Origin == feed.Fallback {
		source = "contingência"
	}
	updated := "nunca"
	if snap.HasData() {
		updated = snap.LastSuccess.Format("15:04:05")
	}
	sound := "🔔"
	if !snap.Settings.SoundAlert {
		sound = "🔕"
	}

	header := fmt.Sprintf("SLA Monitor │ fonte: %s │ atualizado: %s │ a cada %s │ %s",
		source, updated, snap.Settings.RefreshInterval, sound)
	if snap.Phase == monitor.PhaseFetching || snap.Phase == monitor.PhaseFetchingFallback {
		header += " │ ⟳ carregando"
	}
	return s.header.Render(header)
}

func renderCounts(s styles, c board.Counts) string {
	parts := []string{
		s.count.Render(fmt.Sprintf("Total %d", c.Total)),
		s.count.Foreground(s.p.atRisk).Render(fmt.Sprintf("Em Risco %d", c.AtRisk)),
		s.count.Foreground(s.p.breached).Render(fmt.Sprintf("Estourados %d", c.Breached)),
		s.count.Foreground(s.p.paused).Render(fmt.Sprintf("Pausados %d", c.Paused)),
		s.count.Foreground(s.p.onTrack).Render(fmt.Sprintf("No Prazo %d", c.OnTrack)),
	}
	return " " + lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func renderTabs(s styles, b board.Board, active board.Tab) string {
	tabs := make([]string, 0, len(board.Tabs))
	for i, t := range board.Tabs {
		label := fmt.Sprintf("%d %s (%d)", i+1, t.Label(), len(b.Tab(t)))
		if t == active {
			tabs = append(tabs, s.activeTab.Render(label))
		} else {
			tabs = append(tabs, s.tab.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func renderRows(s styles, entries []board.Entry, snap monitor.Snapshot, height int) string {
	if len(entries) == 0 {
		msg := "  (nenhum chamado nesta aba)"
		if !snap.HasData() && snap.Error == "" {
			msg = "  Carregando chamados..."
		}
		return s.empty.Render(msg) + "\n"
	}

	limit := len(entries)
	if height > 0 {
		limit = min(limit, max(height-chromeHeight, 3))
	}

	var b strings.Builder
	for _, e := range entries[:limit] {
		t := e.Ticket
		line := fmt.Sprintf("%s %s %s %s %s %s %-22s %s",
			stateIcon(e.State),
			cell(stateLabel(e.State), 9),
			cell(t.ID, idWidth),
			cell(t.CustomerName, customerWidth),
			cell(t.ProjectKey, projectWidth),
			cell(t.Assignee, assigneeWidth),
			e.Countdown.Label,
			progressBar(e.Countdown.PercentElapsed),
		)
		b.WriteString(s.row.Foreground(s.stateColor(e.State)).Render(line))
		b.WriteString("\n")
	}
	if rest := len(entries) - limit; rest > 0 {
		b.WriteString(s.muted.Render(fmt.Sprintf("  ... mais %d chamados", rest)))
		b.WriteString("\n")
	}
	return b.String()
}

func renderProjects(m Model, s styles) string {
	st := m.snapshot.Settings
	parts := []string{s.muted.Render("Projetos:")}
	for i, k := range m.projectKeys() {
		mark := "x"
		if !st.ProjectVisible(k) {
			mark = " "
		}
		label := fmt.Sprintf("[%s] %s (%dd)", mark, k, st.RiskThreshold(k))
		if i == m.selectedProject {
			parts = append(parts, s.selProject.Render(label))
		} else {
			parts = append(parts, s.project.Render(label))
		}
	}
	return strings.Join(parts, "  ")
}

// cell truncates or pads v to exactly w display columns.
func cell(v string, w int) string {
	if runewidth.StringWidth(v) > w {
		v = runewidth.Truncate(v, w, "…")
	}
	return runewidth.FillRight(v, w)
}

// progressBar renders percent elapsed. Values outside [0, 100], including
// infinities from a degenerate SLA window, are clamped for display only.
func progressBar(pct float64) string {
	switch {
	case math.IsNaN(pct), pct < 0:
		pct = 0
	case pct > 100:
		pct = 100
	}
	filled := int(math.Round(pct / 100 * barWidth))
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}
