package httpapi

import (
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/marcin-skalski/sla-monitor/internal/board"
	"github.com/marcin-skalski/sla-monitor/internal/feed"
	"github.com/marcin-skalski/sla-monitor/internal/monitor"
	"github.com/marcin-skalski/sla-monitor/internal/sla"
	"github.com/marcin-skalski/sla-monitor/internal/ticket"
)

type apiError struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type summaryResponse struct {
	Counts      board.Counts  `json:"counts"`
	Phase       monitor.Phase `json:"phase"`
	Origin      feed.Origin   `json:"origin"`
	LastSuccess *time.Time    `json:"lastSuccess,omitempty"`
	Error       string        `json:"error,omitempty"`
	CycleID     string        `json:"cycleId,omitempty"`
}

type entryResponse struct {
	Ticket          ticket.Ticket `json:"ticket"`
	State           sla.RiskState `json:"state"`
	Label           string        `json:"label"`
	RemainingSecs   int64         `json:"remainingSeconds"`
	PercentElapsed  *float64      `json:"percentElapsed"`
	UnknownDeadline bool          `json:"unknownDeadline,omitempty"`
}

type ticketsResponse struct {
	Tab     string          `json:"tab"`
	Counts  board.Counts    `json:"counts"`
	Tickets []entryResponse `json:"tickets"`
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	snap := h.source.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"hasData": snap.HasData(),
		"phase":   snap.Phase,
	})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	snap := h.source.Snapshot()
	b := h.source.Board(h.clock())

	resp := summaryResponse{
		Counts:  b.Counts,
		Phase:   snap.Phase,
		Origin:  snap.Origin,
		Error:   snap.Error,
		CycleID: snap.CycleID,
	}
	if snap.HasData() {
		resp.LastSuccess = &snap.LastSuccess
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) tickets(w http.ResponseWriter, r *http.Request) {
	tab, err := board.ParseTab(r.URL.Query().Get("tab"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_TAB", err.Error())
		return
	}

	b := h.source.Board(h.clock())
	entries := b.Tab(tab)
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			Ticket:          e.Ticket,
			State:           e.State,
			Label:           e.Countdown.Label,
			RemainingSecs:   int64(e.Countdown.Remaining / time.Second),
			PercentElapsed:  finite(e.Countdown.PercentElapsed),
			UnknownDeadline: e.Countdown.Unknown,
		})
	}
	writeJSON(w, http.StatusOK, ticketsResponse{Tab: tab.String(), Counts: b.Counts, Tickets: out})
}

// finite maps NaN and ±Inf to null since JSON cannot carry them.
func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, apiError{
		Status:  "error",
		Code:    code,
		Message: message,
	})
}
