package monitor

import (
	"time"

	"github.com/marcin-skalski/sla-monitor/internal/alert"
	"github.com/marcin-skalski/sla-monitor/internal/board"
	"github.com/marcin-skalski/sla-monitor/internal/feed"
)

type EventKind int

const (
	EventRefreshed EventKind = iota
	EventFailed
	EventAlert
)

func (k EventKind) String() string {
	switch k {
	case EventFailed:
		return "failed"
	case EventAlert:
		return "alert"
	default:
		return "refreshed"
	}
}

type Event struct {
	Kind    EventKind
	At      time.Time
	CycleID string
	Origin  feed.Origin
	Counts  board.Counts
	Message string         // set for EventFailed
	Alert   *alert.Trigger // set for EventAlert
}

// emit never blocks the run loop; events are dropped when no one keeps up.
func (m *Monitor) emit(ev Event) {
	select {
	case m.events <- ev:
	default:
		m.logger.Debug("event dropped", "kind", ev.Kind, "cycle", ev.CycleID)
	}
}
