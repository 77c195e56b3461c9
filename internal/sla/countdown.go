package sla

import (
	"fmt"
	"time"

	"github.com/marcin-skalski/sla-monitor/internal/ticket"
)

// Countdown holds the display figures for one ticket. It never feeds back
// into classification.
type Countdown struct {
	Label          string
	Remaining      time.Duration
	PercentElapsed float64
	Unknown        bool // deadline missing or unparseable
}

// NewCountdown computes display figures for t. PercentElapsed is not clamped:
// a deadline at or before the open time yields values above 100 or ±Inf.
func NewCountdown(t ticket.Ticket, state RiskState, now time.Time) Countdown {
	switch state {
	case Paused:
		return Countdown{Label: "PAUSADO", PercentElapsed: 100}
	case Closed:
		return Countdown{Label: "CONCLUÍDO", PercentElapsed: 100}
	}
	if !t.HasDeadline() {
		return Countdown{Label: "SEM PRAZO", PercentElapsed: 50, Unknown: true}
	}

	remaining := t.DueAt.Sub(now)
	if remaining < 0 {
		return Countdown{Label: "EXPIRADO", Remaining: remaining, PercentElapsed: 100}
	}

	total := t.DueAt.Sub(t.OpenedAt)
	elapsed := now.Sub(t.OpenedAt)
	return Countdown{
		Label:          FormatRemaining(remaining) + " RESTANTES",
		Remaining:      remaining,
		PercentElapsed: float64(elapsed) / float64(total) * 100,
	}
}

// FormatRemaining renders d as integer hours and minutes, e.g. "26h 5m".
func FormatRemaining(d time.Duration) string {
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
