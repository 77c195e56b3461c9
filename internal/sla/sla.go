package sla

import (
	"math"
	"regexp"
	"time"

	"github.com/marcin-skalski/sla-monitor/internal/ticket"
)

type RiskState int

const (
	OnTrack RiskState = iota
	AtRisk
	Breached
	Paused
	// Closed tickets sit outside the four risk buckets.
	Closed
)

func (s RiskState) String() string {
	switch s {
	case AtRisk:
		return "at_risk"
	case Breached:
		return "breached"
	case Paused:
		return "paused"
	case Closed:
		return "closed"
	default:
		return "on_track"
	}
}

func (s RiskState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

const DefaultRiskThresholdDays = 1

var (
	breachedHint = regexp.MustCompile(`(?i)expired|breach|overdue|expirado|estourado`)
	atRiskHint   = regexp.MustCompile(`(?i)at risk|warning|em risco|approaching`)
)

// Classify places a ticket in exactly one risk state. Checks run in a fixed
// order and the first match wins; the upstream hint is consulted before date
// math. The weekday of the deadline is taken in now's location.
func Classify(t ticket.Ticket, now time.Time, riskThresholdDays int) RiskState {
	switch t.Status {
	case ticket.Paused:
		return Paused
	case ticket.Closed:
		return Closed
	}

	if breachedHint.MatchString(t.SLAStatusHint) {
		return Breached
	}
	if t.HasDeadline() && now.After(t.DueAt) {
		return Breached
	}
	if atRiskHint.MatchString(t.SLAStatusHint) {
		return AtRisk
	}
	if !t.HasDeadline() {
		return OnTrack
	}

	days := DaysRemaining(t.DueAt, now)
	if days >= 0 && days <= riskThresholdDays && !isWeekend(t.DueAt.In(now.Location())) {
		return AtRisk
	}
	return OnTrack
}

// DaysRemaining rounds the time left up to whole days.
func DaysRemaining(due, now time.Time) int {
	return int(math.Ceil(due.Sub(now).Hours() / 24))
}

// TODO: confirm with product whether deadlines on Saturday/Sunday should
// stay out of the at-risk bucket or be shifted to the next business day.
func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
