package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var now = time.Date(2025, 3, 3, 20, 0, 0, 0, time.UTC)

func newTestClient() *Client {
	return NewClient(5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCacheBust(t *testing.T) {
	t.Parallel()

	ms := "1741032000000"
	if got := CacheBust("https://x/api", now); got != "https://x/api?_t="+ms {
		t.Errorf("got %q", got)
	}
	if got := CacheBust("https://x/api?sig=abc%2F", now); got != "https://x/api?sig=abc%2F&_t="+ms {
		t.Errorf("got %q", got)
	}
}

func TestFetchPrimary(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("_t") == "" {
			t.Error("missing cache-buster")
		}
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		if r.Header.Get("Cache-Control") != "no-cache" {
			t.Errorf("Cache-Control = %q", r.Header.Get("Cache-Control"))
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"System.Id": 7, "Custom.CustomerName": "Acme"}, {"System.Id": 8}]`)
	}))
	defer srv.Close()

	raw, err := newTestClient().FetchPrimary(context.Background(), srv.URL+"/api", now)
	if err != nil {
		t.Fatalf("FetchPrimary: %v", err)
	}
	if len(raw) != 2 || raw[0].ID != "7" || raw[0].CustomerName != "Acme" {
		t.Errorf("raw = %+v", raw)
	}
}

func TestFetchPrimaryErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		status  int
		target  error
	}{
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) },
			status:  http.StatusBadGateway,
			target:  ErrUnexpectedStatus,
		},
		{
			name:    "not an array",
			handler: func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, `{"error":"nope"}`) },
			target:  ErrMalformedPayload,
		},
		{
			name:    "truncated",
			handler: func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, `[{"System.Id": 1`) },
			target:  ErrMalformedPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := newTestClient().FetchPrimary(context.Background(), srv.URL, now)
			var fe *FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("expected *FetchError, got %v", err)
			}
			if fe.Origin != Primary {
				t.Errorf("Origin = %v", fe.Origin)
			}
			if fe.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", fe.StatusCode, tt.status)
			}
			if !errors.Is(err, tt.target) {
				t.Errorf("error %v is not %v", err, tt.target)
			}
		})
	}
}

func TestFetchPrimaryUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestClient().FetchPrimary(context.Background(), url, now)
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Origin != Primary {
		t.Fatalf("expected primary FetchError, got %v", err)
	}
}

const fallbackPayload = `[{"id_chamado":"WI-9","nome_cliente":"Local","data_abertura":"2025-03-01T00:00:00Z","sla_limite":"2025-03-04T00:00:00Z","status":"Em andamento","analista":"Ana","teamProject":"UFO.ETRM"}]`

func TestFetchFallbackFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tickets.json")
	if err := os.WriteFile(path, []byte(fallbackPayload), 0644); err != nil {
		t.Fatal(err)
	}

	tickets, err := newTestClient().FetchFallback(context.Background(), path, time.Now())
	if err != nil {
		t.Fatalf("FetchFallback: %v", err)
	}
	if len(tickets) != 1 || tickets[0].ID != "WI-9" || tickets[0].Assignee != "Ana" {
		t.Errorf("tickets = %+v", tickets)
	}
}

func TestFetchFallbackHTTP(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.RawQuery, "_t=") {
			t.Error("fallback should not be cache-busted")
		}
		io.WriteString(w, fallbackPayload)
	}))
	defer srv.Close()

	tickets, err := newTestClient().FetchFallback(context.Background(), srv.URL+"/data/tickets.json", time.Now())
	if err != nil {
		t.Fatalf("FetchFallback: %v", err)
	}
	if len(tickets) != 1 {
		t.Errorf("got %d tickets", len(tickets))
	}
}

func TestFetchFallbackMissingFile(t *testing.T) {
	t.Parallel()

	_, err := newTestClient().FetchFallback(context.Background(), filepath.Join(t.TempDir(), "missing.json"), time.Now())
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Origin != Fallback {
		t.Fatalf("expected fallback FetchError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error should wrap os.ErrNotExist: %v", err)
	}
}

func TestFetchFallbackLocalTimestamps(t *testing.T) {
	t.Parallel()

	const payload = `[{"id_chamado":"WI-7","data_abertura":"2024-05-08 09:00:00","sla_limite":"2024-05-11T01:00:00","status":"Expired"}]`
	path := filepath.Join(t.TempDir(), "tickets.json")
	if err := os.WriteFile(path, []byte(payload), 0644); err != nil {
		t.Fatal(err)
	}

	brt := time.FixedZone("BRT", -3*60*60)
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, brt)
	tickets, err := newTestClient().FetchFallback(context.Background(), path, now)
	if err != nil {
		t.Fatalf("FetchFallback: %v", err)
	}
	got := tickets[0]
	if want := time.Date(2024, 5, 11, 1, 0, 0, 0, brt); !got.DueAt.Equal(want) {
		t.Errorf("DueAt = %v, want %v", got.DueAt, want)
	}
	if want := time.Date(2024, 5, 8, 9, 0, 0, 0, brt); !got.OpenedAt.Equal(want) {
		t.Errorf("OpenedAt = %v, want %v", got.OpenedAt, want)
	}
	if got.SLAStatusHint != "Expired" {
		t.Errorf("SLAStatusHint = %q, want status label carried over", got.SLAStatusHint)
	}
}
