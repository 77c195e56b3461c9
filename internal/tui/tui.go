package tui

import (
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcin-skalski/sla-monitor/internal/board"
	"github.com/marcin-skalski/sla-monitor/internal/monitor"
	"github.com/marcin-skalski/sla-monitor/internal/settings"
)

const flashDuration = 6 * time.Second

type Model struct {
	provider        Provider
	saver           SettingsSaver
	events          <-chan monitor.Event
	clock           func() time.Time
	refreshInterval time.Duration

	snapshot        monitor.Snapshot
	board           board.Board
	tab             board.Tab
	selectedProject int
	width, height   int
	keys            keyMap
	help            help.Model
	flash           flash
}

// NewModel builds the dashboard. events may be nil; saver may be nil when
// preferences are not persisted.
func NewModel(provider Provider, saver SettingsSaver, events <-chan monitor.Event, refreshInterval time.Duration, clock func() time.Time) Model {
	if clock == nil {
		clock = time.Now
	}
	m := Model{
		provider:        provider,
		saver:           saver,
		events:          events,
		clock:           clock,
		refreshInterval: refreshInterval,
		tab:             board.TabAll,
		keys:            defaultKeyMap(),
		help:            help.New(),
	}
	m.reload()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(m.refreshInterval), waitForEvent(m.events))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		m.reload()
		if !m.flash.until.IsZero() && time.Time(msg).After(m.flash.until) {
			m.flash = flash{}
		}
		return m, tickCmd(m.refreshInterval)

	case eventMsg:
		m.reload()
		now := m.clock()
		switch msg.Kind {
		case monitor.EventAlert:
			text := "⚠ Novos chamados em risco"
			if t := msg.Alert; t != nil {
				text = fmt.Sprintf("⚠ Chamados em risco: %d (antes %d)", t.Current, t.Previous)
			}
			m.flash = flash{text: text, alert: true, until: now.Add(flashDuration)}
		case monitor.EventFailed:
			m.flash = flash{text: msg.Message, until: now.Add(flashDuration)}
		}
		return m, waitForEvent(m.events)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.snapshot.Settings
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Refresh):
		m.provider.Refresh()
		m.flash = flash{text: "Atualizando...", until: m.clock().Add(flashDuration)}

	case key.Matches(msg, m.keys.NextTab):
		m.tab = shiftTab(m.tab, 1)

	case key.Matches(msg, m.keys.PrevTab):
		m.tab = shiftTab(m.tab, -1)

	case key.Matches(msg, m.keys.JumpTab):
		if idx := int(msg.String()[0] - '1'); idx >= 0 && idx < len(board.Tabs) {
			m.tab = board.Tabs[idx]
		}

	case key.Matches(msg, m.keys.Theme):
		st = st.Clone()
		st.DarkMode = !st.DarkMode
		m.applySettings(st)

	case key.Matches(msg, m.keys.Sound):
		st = st.Clone()
		st.SoundAlert = !st.SoundAlert
		m.applySettings(st)

	case key.Matches(msg, m.keys.NextProject):
		if n := len(m.projectKeys()); n > 0 {
			m.selectedProject = (m.selectedProject + 1) % n
		}

	case key.Matches(msg, m.keys.ToggleProject):
		if p, ok := m.currentProject(); ok {
			m.applySettings(st.ToggleProject(p))
		}

	case key.Matches(msg, m.keys.ThresholdUp):
		if p, ok := m.currentProject(); ok {
			m.applySettings(st.AdjustThreshold(p, 1))
		}

	case key.Matches(msg, m.keys.ThresholdDown):
		if p, ok := m.currentProject(); ok {
			m.applySettings(st.AdjustThreshold(p, -1))
		}

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// applySettings pushes next to the monitor, then persists it. A failed save
// keeps the change for this session.
func (m *Model) applySettings(next settings.Settings) {
	m.provider.UpdateSettings(next)
	if m.saver != nil {
		if err := m.saver.Save(next); err != nil {
			m.flash = flash{text: fmt.Sprintf("Erro ao salvar preferências: %v", err), until: m.clock().Add(flashDuration)}
		}
	}
	m.reload()
}

func (m *Model) reload() {
	m.snapshot = m.provider.Snapshot()
	m.board = m.provider.Board(m.clock())
	if n := len(m.projectKeys()); m.selectedProject >= n {
		m.selectedProject = max(n-1, 0)
	}
}

// projectKeys lists configured projects plus any project seen in the
// current tickets, sorted.
func (m Model) projectKeys() []string {
	keys := m.snapshot.Settings.ProjectKeys()
	for _, t := range m.snapshot.Tickets {
		if !slices.Contains(keys, t.ProjectKey) {
			keys = append(keys, t.ProjectKey)
		}
	}
	slices.Sort(keys)
	return keys
}

func (m Model) currentProject() (string, bool) {
	keys := m.projectKeys()
	if m.selectedProject < 0 || m.selectedProject >= len(keys) {
		return "", false
	}
	return keys[m.selectedProject], true
}

func (m Model) View() string {
	return renderView(m)
}

func shiftTab(t board.Tab, delta int) board.Tab {
	i := slices.Index(board.Tabs, t)
	n := len(board.Tabs)
	return board.Tabs[((i+delta)%n+n)%n]
}

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForEvent(events <-chan monitor.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}
