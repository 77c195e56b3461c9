package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/marcin-skalski/sla-monitor/internal/board"
	"github.com/marcin-skalski/sla-monitor/internal/monitor"
)

// Source is the read side of the monitor.
type Source interface {
	Snapshot() monitor.Snapshot
	Board(now time.Time) board.Board
}

type Handler struct {
	source Source
	clock  func() time.Time
	logger *slog.Logger
}

func NewHandler(source Source, clock func() time.Time, logger *slog.Logger) *Handler {
	if clock == nil {
		clock = time.Now
	}
	return &Handler{source: source, clock: clock, logger: logger}
}

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(h.recoverMiddleware)
	r.Use(h.loggingMiddleware)

	r.Get("/healthz", h.healthz)
	r.Route("/api", func(r chi.Router) {
		r.Get("/summary", h.summary)
		r.Get("/tickets", h.tickets)
	})

	return r
}
