package ticket

import (
	"encoding/json"
	"fmt"
	"time"
)

type LifecycleStatus int

const (
	InProgress LifecycleStatus = iota
	Paused
	Closed
)

func (s LifecycleStatus) String() string {
	switch s {
	case Paused:
		return "Paused"
	case Closed:
		return "Closed"
	default:
		return "InProgress"
	}
}

// Label is the status text shown on dashboards and written to the static
// fallback payload.
func (s LifecycleStatus) Label() string {
	switch s {
	case Paused:
		return "Pausado"
	case Closed:
		return "Fechado"
	default:
		return "Em andamento"
	}
}

// ParseLifecycle maps a status label from a static payload. Canonical names
// and dashboard labels are recognized; anything else reads as in progress
// and ok is false.
func ParseLifecycle(label string) (status LifecycleStatus, ok bool) {
	switch label {
	case "InProgress", "Em andamento":
		return InProgress, true
	case "Paused", "Pausado", "Resolved":
		return Paused, true
	case "Closed", "Fechado":
		return Closed, true
	}
	return InProgress, false
}

type Ticket struct {
	ID            string
	Title         string
	CustomerName  string
	OpenedAt      time.Time
	DueAt         time.Time // zero when the deadline is unknown
	Status        LifecycleStatus
	Assignee      string
	ProjectKey    string
	SLAStatusHint string
}

// HasDeadline reports whether DueAt carries a usable deadline.
func (t Ticket) HasDeadline() bool {
	return !t.DueAt.IsZero()
}

type ticketJSON struct {
	ID            string `json:"id_chamado"`
	Title         string `json:"titulo,omitempty"`
	CustomerName  string `json:"nome_cliente"`
	OpenedAt      string `json:"data_abertura"`
	DueAt         string `json:"sla_limite"`
	Status        string `json:"status"`
	Assignee      string `json:"analista"`
	ProjectKey    string `json:"teamProject,omitempty"`
	SLAStatusHint string `json:"slaStatusResolution,omitempty"`
}

func (t Ticket) MarshalJSON() ([]byte, error) {
	w := ticketJSON{
		ID:            t.ID,
		Title:         t.Title,
		CustomerName:  t.CustomerName,
		Status:        t.Status.Label(),
		Assignee:      t.Assignee,
		ProjectKey:    t.ProjectKey,
		SLAStatusHint: t.SLAStatusHint,
	}
	if !t.OpenedAt.IsZero() {
		w.OpenedAt = t.OpenedAt.Format(time.RFC3339)
	}
	if !t.DueAt.IsZero() {
		w.DueAt = t.DueAt.Format(time.RFC3339)
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes one static-payload record, reading timestamps
// without a zone as UTC. Use DecodeList to read them in a local zone.
func (t *Ticket) UnmarshalJSON(b []byte) error {
	var w ticketJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return fmt.Errorf("decode ticket: %w", err)
	}
	*t = w.ticket(time.UTC)
	return nil
}

// DecodeList decodes a static ticket payload. Timestamps without a zone are
// read in loc.
func DecodeList(b []byte, loc *time.Location) ([]Ticket, error) {
	var ws []ticketJSON
	if err := json.Unmarshal(b, &ws); err != nil {
		return nil, fmt.Errorf("decode tickets: %w", err)
	}
	out := make([]Ticket, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.ticket(loc))
	}
	return out, nil
}

// ticket converts a wire record. A status label that is not a lifecycle
// state, such as "Expired" or "Em Risco", is an SLA verdict and becomes the
// hint unless the record carries one.
func (w ticketJSON) ticket(loc *time.Location) Ticket {
	opened, _ := ParseTime(w.OpenedAt, loc)
	due, _ := ParseTime(w.DueAt, loc)
	status, ok := ParseLifecycle(w.Status)
	hint := w.SLAStatusHint
	if !ok && hint == "" {
		hint = w.Status
	}
	return Ticket{
		ID:            w.ID,
		Title:         w.Title,
		CustomerName:  w.CustomerName,
		OpenedAt:      opened,
		DueAt:         due,
		Status:        status,
		Assignee:      w.Assignee,
		ProjectKey:    w.ProjectKey,
		SLAStatusHint: hint,
	}
}

// ParseTime parses the timestamp formats seen in indicator feeds. Date-times
// without a zone are read in loc; bare dates are UTC midnight.
func ParseTime(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	time.DateTime,
}
