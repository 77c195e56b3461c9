package ticket

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"time"
)

const (
	UnknownCustomer = "Cliente não especificado"
	Unassigned      = "Não atribuído"
	UnknownProject  = "Unknown"

	openedFallback = 5 * 24 * time.Hour
	dueFallback    = 3 * 24 * time.Hour
)

// RawIndicator is one work item as served by the indicator feed.
type RawIndicator struct {
	ID                Text `json:"System.Id"`
	TeamProject       Text `json:"System.TeamProject"`
	State             Text `json:"System.State"`
	AssignedTo        Text `json:"System.AssignedTo"`
	ChangedDate       Text `json:"System.ChangedDate"`
	ChangedBy         Text `json:"System.ChangedBy"`
	Title             Text `json:"System.Title"`
	CustomerID        Text `json:"Custom.CustomerId"`
	CustomerName      Text `json:"Custom.CustomerName"`
	SLATargetDate     Text `json:"Custom.SLATargetDateResolution"`
	SupportCaseStatus Text `json:"Custom.SupportCaseStatus"`
	SLAStatus         Text `json:"Custom.SLAStatusResolution,omitempty"`
}

// Text decodes any JSON scalar as its text form. null, objects and arrays
// decode as empty so one odd field cannot reject a whole feed.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		*t = ""
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*t = ""
			return nil
		}
		*t = Text(s)
	case '{', '[', 'n':
		*t = ""
	default:
		*t = Text(b)
	}
	return nil
}

var (
	pausedCaseStatus = regexp.MustCompile(`Blocked|Pending|On Hold|Suspended`)
	closedCaseStatus = regexp.MustCompile(`Resolved|Completed|Awaiting`)
	nickname         = regexp.MustCompile(`\[(.*?)\]`)
)

// Normalize maps raw indicators to tickets in input order. It never fails:
// every missing or malformed field falls back to a fixed default. Timestamps
// without a zone are read in now's location.
func Normalize(raw []RawIndicator, now time.Time) []Ticket {
	out := make([]Ticket, 0, len(raw))
	for _, r := range raw {
		out = append(out, normalizeOne(r, now))
	}
	return out
}

func normalizeOne(r RawIndicator, now time.Time) Ticket {
	opened, ok := ParseTime(string(r.ChangedDate), now.Location())
	if !ok {
		opened = now.Add(-openedFallback)
	}
	due, ok := ParseTime(string(r.SLATargetDate), now.Location())
	if !ok {
		due = now.Add(dueFallback)
	}

	project := string(r.TeamProject)
	if project == "" {
		project = UnknownProject
	}

	return Ticket{
		ID:            ticketID(string(r.ID)),
		Title:         string(r.Title),
		CustomerName:  customerName(string(r.CustomerName)),
		OpenedAt:      opened,
		DueAt:         due,
		Status:        lifecycle(string(r.SupportCaseStatus), string(r.State)),
		Assignee:      assignee(string(r.AssignedTo)),
		ProjectKey:    project,
		SLAStatusHint: string(r.SLAStatus),
	}
}

func lifecycle(caseStatus, systemState string) LifecycleStatus {
	if pausedCaseStatus.MatchString(caseStatus) || systemState == "Resolved" {
		return Paused
	}
	if closedCaseStatus.MatchString(caseStatus) {
		return Closed
	}
	return InProgress
}

func customerName(raw string) string {
	if raw == "" {
		return UnknownCustomer
	}
	if m := nickname.FindStringSubmatch(raw); m != nil {
		if nick := strings.TrimSpace(m[1]); nick != "" {
			return nick
		}
	}
	return raw
}

func assignee(raw string) string {
	name, _, _ := strings.Cut(raw, "<")
	name = strings.TrimSpace(name)
	if name == "" {
		return Unassigned
	}
	return name
}

func ticketID(raw string) string {
	if raw == "" || raw == "0" {
		return "WI-Unknown"
	}
	return "WI-" + raw
}
