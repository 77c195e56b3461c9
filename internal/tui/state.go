package tui

import (
	"time"

	"github.com/marcin-skalski/sla-monitor/internal/board"
	"github.com/marcin-skalski/sla-monitor/internal/monitor"
	"github.com/marcin-skalski/sla-monitor/internal/settings"
)

// Provider is the part of the monitor the dashboard talks to.
type Provider interface {
	Snapshot() monitor.Snapshot
	Board(now time.Time) board.Board
	Refresh()
	UpdateSettings(settings.Settings)
}

// SettingsSaver persists preference edits made from the dashboard.
type SettingsSaver interface {
	Save(settings.Settings) error
}

type tickMsg time.Time

type eventMsg monitor.Event

// flash is a short status line shown under the counts.
type flash struct {
	text  string
	alert bool
	until time.Time
}
