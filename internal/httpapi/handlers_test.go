package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/marcin-skalski/sla-monitor/internal/board"
	"github.com/marcin-skalski/sla-monitor/internal/feed"
	"github.com/marcin-skalski/sla-monitor/internal/monitor"
	"github.com/marcin-skalski/sla-monitor/internal/settings"
	"github.com/marcin-skalski/sla-monitor/internal/ticket"
)

// 2025-03-03 is a Monday.
var now = time.Date(2025, 3, 3, 20, 0, 0, 0, time.UTC)

type stubSource struct {
	snap monitor.Snapshot
}

func (s stubSource) Snapshot() monitor.Snapshot { return s.snap }

func (s stubSource) Board(at time.Time) board.Board {
	return board.Build(s.snap.Tickets, at, s.snap.Settings)
}

func newTestServer(t *testing.T, snap monitor.Snapshot) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(stubSource{snap: snap}, func() time.Time { return now }, logger)
	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)
	return srv
}

func fixture() monitor.Snapshot {
	return monitor.Snapshot{
		Tickets: []ticket.Ticket{
			{ID: "WI-1", ProjectKey: "UFO.ETRM", Status: ticket.InProgress, OpenedAt: now.Add(-48 * time.Hour), DueAt: now.Add(10 * 24 * time.Hour)},
			{ID: "WI-2", ProjectKey: "UFO.ETRM", Status: ticket.InProgress, OpenedAt: now.Add(-48 * time.Hour), DueAt: now.Add(2 * time.Hour)},
			{ID: "WI-3", ProjectKey: "UFO.ETRM", Status: ticket.InProgress, OpenedAt: now.Add(-48 * time.Hour), DueAt: now.Add(-time.Hour)},
			// Degenerate window: percent elapsed is infinite.
			{ID: "WI-4", ProjectKey: "SRM.wbc7srm", Status: ticket.InProgress, OpenedAt: now.Add(5 * 24 * time.Hour), DueAt: now.Add(5 * 24 * time.Hour)},
		},
		Origin:      feed.Fallback,
		LastSuccess: now.Add(-time.Minute),
		CycleID:     "cycle-1",
		Settings:    settings.Default(),
	}
}

func getJSON(t *testing.T, url string, status int, dst any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != status {
		t.Fatalf("GET %s: status %d, want %d", url, resp.StatusCode, status)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("missing X-Request-Id")
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestSummary(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, fixture())

	var got struct {
		Counts      board.Counts `json:"counts"`
		Phase       string       `json:"phase"`
		Origin      string       `json:"origin"`
		LastSuccess *time.Time   `json:"lastSuccess"`
		CycleID     string       `json:"cycleId"`
	}
	getJSON(t, srv.URL+"/api/summary", http.StatusOK, &got)

	want := board.Counts{Total: 4, AtRisk: 1, Breached: 1, OnTrack: 2}
	if got.Counts != want {
		t.Errorf("counts = %+v, want %+v", got.Counts, want)
	}
	if got.Phase != "idle" || got.Origin != "fallback" || got.CycleID != "cycle-1" {
		t.Errorf("summary = %+v", got)
	}
	if got.LastSuccess == nil || !got.LastSuccess.Equal(now.Add(-time.Minute)) {
		t.Errorf("lastSuccess = %v", got.LastSuccess)
	}
}

func TestTickets(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, fixture())

	var got struct {
		Tab     string `json:"tab"`
		Tickets []struct {
			Ticket struct {
				ID string `json:"id_chamado"`
			} `json:"ticket"`
			State          string   `json:"state"`
			PercentElapsed *float64 `json:"percentElapsed"`
		} `json:"tickets"`
	}
	getJSON(t, srv.URL+"/api/tickets?tab=onTrack", http.StatusOK, &got)

	if got.Tab != "onTrack" {
		t.Errorf("tab = %q", got.Tab)
	}
	var ids []string
	for _, e := range got.Tickets {
		ids = append(ids, e.Ticket.ID)
	}
	want := []string{"WI-2", "WI-4", "WI-1"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
	if got.Tickets[0].State != "at_risk" {
		t.Errorf("state = %q", got.Tickets[0].State)
	}
	if got.Tickets[1].PercentElapsed != nil {
		t.Error("infinite percent should encode as null")
	}
}

func TestTicketsDefaultTab(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, fixture())

	var got struct {
		Tab     string            `json:"tab"`
		Tickets []json.RawMessage `json:"tickets"`
	}
	getJSON(t, srv.URL+"/api/tickets", http.StatusOK, &got)
	if got.Tab != "all" || len(got.Tickets) != 4 {
		t.Errorf("tab = %q, tickets = %d", got.Tab, len(got.Tickets))
	}
}

func TestTicketsInvalidTab(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, fixture())

	var got apiError
	getJSON(t, srv.URL+"/api/tickets?tab=emRisco", http.StatusBadRequest, &got)
	if got.Code != "INVALID_TAB" {
		t.Errorf("code = %q", got.Code)
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, monitor.Snapshot{Settings: settings.Default()})

	var got struct {
		Status  string `json:"status"`
		HasData bool   `json:"hasData"`
	}
	getJSON(t, srv.URL+"/healthz", http.StatusOK, &got)
	if got.Status != "ok" || got.HasData {
		t.Errorf("healthz = %+v", got)
	}
}
