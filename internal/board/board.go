// Package board orders classified tickets for display and splits them into
// the dashboard tabs.
package board

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/marcin-skalski/sla-monitor/internal/settings"
	"github.com/marcin-skalski/sla-monitor/internal/sla"
	"github.com/marcin-skalski/sla-monitor/internal/ticket"
)

type Tab int

const (
	TabAll Tab = iota
	TabAtRisk
	TabOnTrack
	TabBreached
	TabPaused
)

var Tabs = []Tab{TabAll, TabAtRisk, TabOnTrack, TabBreached, TabPaused}

func (t Tab) String() string {
	switch t {
	case TabAtRisk:
		return "atRisk"
	case TabOnTrack:
		return "onTrack"
	case TabBreached:
		return "breached"
	case TabPaused:
		return "paused"
	default:
		return "all"
	}
}

// Label is the tab title shown to users.
func (t Tab) Label() string {
	switch t {
	case TabAtRisk:
		return "Em Risco"
	case TabOnTrack:
		return "Dentro do Prazo"
	case TabBreached:
		return "Estourados"
	case TabPaused:
		return "Pausados"
	default:
		return "Todos"
	}
}

func ParseTab(s string) (Tab, error) {
	switch s {
	case "", "all":
		return TabAll, nil
	case "atRisk":
		return TabAtRisk, nil
	case "onTrack":
		return TabOnTrack, nil
	case "breached":
		return TabBreached, nil
	case "paused":
		return TabPaused, nil
	}
	return TabAll, fmt.Errorf("unknown tab %q (all|atRisk|onTrack|breached|paused)", s)
}

// Entry is a ticket with its risk state for one evaluation instant.
type Entry struct {
	Ticket    ticket.Ticket
	State     sla.RiskState
	Countdown sla.Countdown
}

type Counts struct {
	Total    int `json:"total"`
	AtRisk   int `json:"atRisk"`
	Breached int `json:"breached"`
	Paused   int `json:"paused"`
	OnTrack  int `json:"onTrack"`
}

// Board is the ranked, visibility-filtered view of one ticket snapshot.
type Board struct {
	At      time.Time
	Entries []Entry
	Counts  Counts
}

// Build filters, classifies and ranks tickets against s at instant now.
func Build(tickets []ticket.Ticket, now time.Time, s settings.Settings) Board {
	entries := Rank(Visible(tickets, s), now, s)
	return Board{
		At:      now,
		Entries: entries,
		Counts:  Count(entries),
	}
}

func (b Board) Tab(tab Tab) []Entry {
	return Bucket(b.Entries, tab)
}

// Visible drops tickets of projects the user switched off. Tickets of
// projects missing from settings are kept.
func Visible(tickets []ticket.Ticket, s settings.Settings) []ticket.Ticket {
	out := make([]ticket.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if s.ProjectVisible(t.ProjectKey) {
			out = append(out, t)
		}
	}
	return out
}

// priority orders states for display. At-risk tickets are listed above
// breached ones on purpose, although breach wins during classification.
func priority(s sla.RiskState) int {
	switch s {
	case sla.AtRisk:
		return 1
	case sla.Breached:
		return 2
	case sla.OnTrack:
		return 3
	case sla.Paused:
		return 4
	default:
		return 5
	}
}

// Rank classifies tickets and sorts them by display priority, then by
// earliest deadline. Unknown deadlines go last within their priority and
// remaining ties keep input order.
func Rank(tickets []ticket.Ticket, now time.Time, s settings.Settings) []Entry {
	entries := make([]Entry, len(tickets))
	for i, t := range tickets {
		state := sla.Classify(t, now, s.RiskThreshold(t.ProjectKey))
		entries[i] = Entry{
			Ticket:    t,
			State:     state,
			Countdown: sla.NewCountdown(t, state, now),
		}
	}
	slices.SortStableFunc(entries, compareEntries)
	return entries
}

func compareEntries(a, b Entry) int {
	if c := cmp.Compare(priority(a.State), priority(b.State)); c != 0 {
		return c
	}
	ah, bh := a.Ticket.HasDeadline(), b.Ticket.HasDeadline()
	switch {
	case ah && bh:
		return a.Ticket.DueAt.Compare(b.Ticket.DueAt)
	case ah:
		return -1
	case bh:
		return 1
	}
	return 0
}

// Bucket returns the entries shown under tab, preserving rank order.
// The on-track tab also lists at-risk tickets.
func Bucket(entries []Entry, tab Tab) []Entry {
	if tab == TabAll {
		return slices.Clone(entries)
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if inTab(e.State, tab) {
			out = append(out, e)
		}
	}
	return out
}

func inTab(s sla.RiskState, tab Tab) bool {
	switch tab {
	case TabAtRisk:
		return s == sla.AtRisk
	case TabOnTrack:
		return s == sla.OnTrack || s == sla.AtRisk
	case TabBreached:
		return s == sla.Breached
	case TabPaused:
		return s == sla.Paused
	}
	return true
}

// Count tallies states over entries. Total includes closed tickets.
func Count(entries []Entry) Counts {
	c := Counts{Total: len(entries)}
	for _, e := range entries {
		switch e.State {
		case sla.AtRisk:
			c.AtRisk++
		case sla.Breached:
			c.Breached++
		case sla.Paused:
			c.Paused++
		case sla.OnTrack:
			c.OnTrack++
		}
	}
	return c
}
