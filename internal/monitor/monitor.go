package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/marcin-skalski/sla-monitor/internal/alert"
	"github.com/marcin-skalski/sla-monitor/internal/board"
	"github.com/marcin-skalski/sla-monitor/internal/feed"
	"github.com/marcin-skalski/sla-monitor/internal/settings"
	"github.com/marcin-skalski/sla-monitor/internal/ticket"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFetching
	PhaseFetchingFallback
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseFetching:
		return "fetching"
	case PhaseFetchingFallback:
		return "fetching_fallback"
	case PhaseError:
		return "error"
	default:
		return "idle"
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// ErrNoFallback is returned for a cycle whose primary fetch failed when no
// fallback source is configured.
var ErrNoFallback = errors.New("no fallback source configured")

type Fetcher interface {
	FetchPrimary(ctx context.Context, url string, now time.Time) ([]ticket.RawIndicator, error)
	FetchFallback(ctx context.Context, source string, now time.Time) ([]ticket.Ticket, error)
}

type Options struct {
	DefaultFeedURL string
	FallbackSource string
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// Snapshot is a copy of the monitor state at one instant.
type Snapshot struct {
	Tickets     []ticket.Ticket
	Origin      feed.Origin
	Phase       Phase
	LastSuccess time.Time
	Error       string
	CycleID     string
	Counts      board.Counts
	Settings    settings.Settings
}

// HasData reports whether at least one refresh has succeeded.
func (s Snapshot) HasData() bool {
	return !s.LastSuccess.IsZero()
}

type Monitor struct {
	fetcher Fetcher
	sink    alert.Sink
	logger  *slog.Logger
	opts    Options
	events  chan Event
	wake    chan struct{}

	// alerts tracks sink calls, which run off the loop.
	alerts sync.WaitGroup

	mu           sync.Mutex
	settings     settings.Settings
	tickets      []ticket.Ticket
	origin       feed.Origin
	phase        Phase
	lastSuccess  time.Time
	errMsg       string
	cycleID      string
	counts       board.Counts
	prevAtRisk   int
	gen          uint64
	restart      bool
	resetTicker  bool
	manualReload bool
}

func New(fetcher Fetcher, st settings.Settings, sink alert.Sink, logger *slog.Logger, opts Options) *Monitor {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Monitor{
		fetcher:  fetcher,
		sink:     sink,
		logger:   logger,
		opts:     opts,
		events:   make(chan Event, 32),
		wake:     make(chan struct{}, 1),
		settings: st.Clone(),
	}
}

type cycleResult struct {
	gen    uint64
	id     string
	result feed.Result
	err    error
}

// Run drives refresh cycles until ctx is cancelled. One cycle runs
// immediately, then one per refresh interval. At most one fetch is in flight:
// a tick that arrives during a cycle is dropped, and a data-source change
// cancels the running cycle and starts the next one after it returns.
func (m *Monitor) Run(ctx context.Context) error {
	st := m.Settings()
	m.logger.Info("monitor started",
		"refresh_interval", st.RefreshInterval,
		"feed", st.PrimaryURL(m.opts.DefaultFeedURL),
		"fallback", m.opts.FallbackSource)

	results := make(chan cycleResult, 1)
	cancelCycle := context.CancelFunc(func() {})
	inFlight, restartPending := false, false

	start := func() {
		cancelCycle()
		cctx, cancel := context.WithCancel(ctx)
		cancelCycle = cancel
		inFlight = true

		m.mu.Lock()
		m.gen++
		gen := m.gen
		st := m.settings.Clone()
		m.mu.Unlock()

		go func() {
			r := m.cycle(cctx, gen, st)
			select {
			case results <- r:
			case <-ctx.Done():
			}
		}()
	}

	start()
	ticker := time.NewTicker(pollInterval(st))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			cancelCycle()
			m.alerts.Wait()
			m.logger.Info("monitor stopped")
			return nil

		case <-ticker.C:
			if inFlight {
				m.logger.Debug("refresh still in flight, skipping tick")
				continue
			}
			start()

		case <-m.wake:
			m.mu.Lock()
			restart, reset, manual := m.restart, m.resetTicker, m.manualReload
			m.restart, m.resetTicker, m.manualReload = false, false, false
			interval := pollInterval(m.settings)
			m.mu.Unlock()

			if reset {
				ticker.Reset(interval)
				m.logger.Info("refresh interval changed", "refresh_interval", interval)
			}
			switch {
			case restart && inFlight:
				// The new cycle starts once the cancelled one has returned.
				m.logger.Info("data source changed, cancelling refresh in flight")
				cancelCycle()
				restartPending = true
				ticker.Reset(interval)
			case restart:
				m.logger.Info("data source changed, restarting refresh")
				start()
				ticker.Reset(interval)
			case manual && !inFlight:
				start()
			}

		case r := <-results:
			inFlight = false
			cancelCycle()
			if restartPending {
				restartPending = false
				start()
				continue
			}
			if !m.isCurrent(r.gen) {
				continue
			}
			m.apply(ctx, r)
		}
	}
}

func pollInterval(st settings.Settings) time.Duration {
	if st.RefreshInterval <= 0 {
		return settings.DefaultRefreshInterval
	}
	return st.RefreshInterval
}

// Refresh asks the run loop for an immediate cycle. It is ignored while a
// cycle is already in flight.
func (m *Monitor) Refresh() {
	m.mu.Lock()
	m.manualReload = true
	m.mu.Unlock()
	m.signal()
}

// UpdateSettings swaps the display preferences. Counts are recomputed from
// the last fetched tickets right away; a different data source abandons the
// cycle in flight and starts a new one.
func (m *Monitor) UpdateSettings(next settings.Settings) {
	next = next.Clone()

	m.mu.Lock()
	prev := m.settings
	m.settings = next
	m.counts = board.Build(m.tickets, m.opts.Clock(), next).Counts
	if prev.SourceChanged(next) {
		m.restart = true
		m.gen++
	}
	if prev.RefreshInterval != next.RefreshInterval && next.RefreshInterval > 0 {
		m.resetTicker = true
	}
	m.mu.Unlock()

	m.signal()
}

func (m *Monitor) Settings() settings.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings.Clone()
}

func (m *Monitor) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Tickets:     append([]ticket.Ticket(nil), m.tickets...),
		Origin:      m.origin,
		Phase:       m.phase,
		LastSuccess: m.lastSuccess,
		Error:       m.errMsg,
		CycleID:     m.cycleID,
		Counts:      m.counts,
		Settings:    m.settings.Clone(),
	}
}

// Board ranks the last fetched tickets at instant now.
func (m *Monitor) Board(now time.Time) board.Board {
	snap := m.Snapshot()
	return board.Build(snap.Tickets, now, snap.Settings)
}

func (m *Monitor) Events() <-chan Event {
	return m.events
}

func (m *Monitor) signal() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *Monitor) isCurrent(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return gen == m.gen
}

func (m *Monitor) setPhase(gen uint64, p Phase) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen == m.gen {
		m.phase = p
	}
}

func (m *Monitor) cycle(ctx context.Context, gen uint64, st settings.Settings) cycleResult {
	id := uuid.NewString()
	logger := m.logger.With("cycle", id)
	now := m.opts.Clock()
	url := st.PrimaryURL(m.opts.DefaultFeedURL)

	m.setPhase(gen, PhaseFetching)
	raw, err := m.fetcher.FetchPrimary(ctx, url, now)
	if err == nil {
		logger.Debug("primary feed ok", "records", len(raw))
		return cycleResult{gen: gen, id: id, result: feed.Result{
			Origin:    feed.Primary,
			Tickets:   ticket.Normalize(raw, now),
			FetchedAt: now,
		}}
	}
	if ctx.Err() != nil {
		return cycleResult{gen: gen, id: id, err: ctx.Err()}
	}
	logger.Warn("primary feed failed, using fallback", "err", err)

	if m.opts.FallbackSource == "" {
		return cycleResult{gen: gen, id: id, err: ErrNoFallback}
	}
	m.setPhase(gen, PhaseFetchingFallback)
	tickets, err := m.fetcher.FetchFallback(ctx, m.opts.FallbackSource, now)
	if err != nil {
		return cycleResult{gen: gen, id: id, err: err}
	}
	return cycleResult{gen: gen, id: id, result: feed.Result{
		Origin:    feed.Fallback,
		Tickets:   tickets,
		FetchedAt: m.opts.Clock(),
	}}
}

func (m *Monitor) apply(ctx context.Context, r cycleResult) {
	if r.err != nil {
		if errors.Is(r.err, context.Canceled) {
			return
		}
		msg := fmt.Sprintf("Erro ao carregar dados: %v", r.err)

		m.mu.Lock()
		m.phase = PhaseError
		m.errMsg = msg
		m.cycleID = r.id
		m.mu.Unlock()

		m.logger.Error("refresh failed", "cycle", r.id, "err", r.err)
		m.emit(Event{Kind: EventFailed, At: m.opts.Clock(), CycleID: r.id, Message: msg})
		return
	}

	m.mu.Lock()
	first := m.lastSuccess.IsZero()
	prev := m.prevAtRisk
	m.tickets = r.result.Tickets
	m.origin = r.result.Origin
	m.lastSuccess = r.result.FetchedAt
	m.phase = PhaseIdle
	m.errMsg = ""
	m.cycleID = r.id
	m.counts = board.Build(m.tickets, r.result.FetchedAt, m.settings).Counts
	m.prevAtRisk = m.counts.AtRisk
	counts := m.counts
	sound := m.settings.SoundAlert
	m.mu.Unlock()

	m.logger.Info("refreshed",
		"cycle", r.id,
		"origin", r.result.Origin,
		"tickets", len(r.result.Tickets),
		"at_risk", counts.AtRisk,
		"breached", counts.Breached,
		"paused", counts.Paused,
		"on_track", counts.OnTrack)
	m.emit(Event{Kind: EventRefreshed, At: r.result.FetchedAt, CycleID: r.id, Origin: r.result.Origin, Counts: counts})

	if first || counts.AtRisk <= prev {
		return
	}
	trig := alert.Trigger{At: r.result.FetchedAt, CycleID: r.id, Previous: prev, Current: counts.AtRisk}
	m.emit(Event{Kind: EventAlert, At: trig.At, CycleID: r.id, Origin: r.result.Origin, Counts: counts, Alert: &trig})
	if !sound || m.sink == nil {
		return
	}
	m.alerts.Add(1)
	go func() {
		defer m.alerts.Done()
		if err := m.sink.Alert(ctx, trig); err != nil {
			m.logger.Error("alert failed", "cycle", r.id, "err", err)
		}
	}()
}
