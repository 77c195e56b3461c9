package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcin-skalski/sla-monitor/internal/alert"
	"github.com/marcin-skalski/sla-monitor/internal/config"
	"github.com/marcin-skalski/sla-monitor/internal/feed"
	"github.com/marcin-skalski/sla-monitor/internal/httpapi"
	"github.com/marcin-skalski/sla-monitor/internal/logging"
	"github.com/marcin-skalski/sla-monitor/internal/monitor"
	"github.com/marcin-skalski/sla-monitor/internal/settings"
	"github.com/marcin-skalski/sla-monitor/internal/tui"
	"github.com/mattn/go-isatty"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	noTUI := flag.Bool("no-tui", false, "disable TUI mode")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Auto-detect TUI capability
	enableTUI := !*noTUI && os.Getenv("SLA_MONITOR_TUI") != "0" &&
		isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())

	logger, closer, err := logging.Setup(logging.Options{
		File:    cfg.LogFile,
		Level:   cfg.Log.Level,
		Console: !enableTUI,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup logger: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	if err := run(cfg, *configPath, enableTUI, logger); err != nil {
		logger.Error("sla-monitor failed", "err", err)
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		closer.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, configPath string, enableTUI bool, logger *slog.Logger) error {
	store := settings.NewStore(cfg.SettingsFile)
	st, err := store.Load()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	sink, release, err := buildSinks(cfg, enableTUI, logger)
	if err != nil {
		return err
	}
	defer release()

	clock := func() time.Time { return time.Now().In(cfg.Location) }
	mon := monitor.New(feed.NewClient(cfg.Feed.Timeout, logger), st, sink, logger, monitor.Options{
		DefaultFeedURL: cfg.Feed.URL,
		FallbackSource: cfg.Feed.Fallback,
		Clock:          clock,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		logger.Info("sla monitor starting", "config", configPath, "settings", store.Path(), "tui", enableTUI)
		if err := mon.Run(ctx); err != nil && ctx.Err() == nil {
			errCh <- fmt.Errorf("monitor: %w", err)
		}
	}()

	if cfg.HTTP.Listen != "" {
		h := httpapi.NewHandler(mon, clock, logger)
		go func() {
			if err := httpapi.Serve(ctx, cfg.HTTP.Listen, httpapi.NewRouter(h), logger); err != nil {
				errCh <- err
			}
		}()
	}

	if !enableTUI {
		return runHeadless(ctx, mon, errCh, logger)
	}

	m := tui.NewModel(mon, store, mon.Events(), cfg.TUI.RefreshInterval, clock)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	// Exit if a background service fails
	go func() {
		select {
		case err := <-errCh:
			logger.Error("background service failed", "err", err)
			p.Quit()
		case <-ctx.Done():
		}
	}()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

func runHeadless(ctx context.Context, mon *monitor.Monitor, errCh <-chan error, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			logger.Info("sla monitor stopped")
			return nil
		case err := <-errCh:
			return err
		case ev := <-mon.Events():
			logger.Debug("event",
				"kind", ev.Kind,
				"cycle", ev.CycleID,
				"origin", ev.Origin,
				"total", ev.Counts.Total,
				"at_risk", ev.Counts.AtRisk)
		}
	}
}

// buildSinks assembles the alert sinks from config. The log sink is always
// present. release closes the bell's terminal handle.
func buildSinks(cfg *config.Config, enableTUI bool, logger *slog.Logger) (alert.Sink, func(), error) {
	sinks := alert.Multi{alert.NewLog(logger)}
	release := func() {}
	if *cfg.Alert.Bell {
		out, err := alert.BellOutput(enableTUI, alert.TTYPath)
		if err != nil {
			logger.Warn("terminal bell disabled", "err", err)
		} else {
			sinks = append(sinks, alert.NewBell(out))
			release = func() { out.Close() }
		}
	}
	if cfg.Alert.Command != "" {
		cmd, err := alert.NewCommand(cfg.Alert.Command, cfg.Alert.Timeout, logger)
		if err != nil {
			release()
			return nil, nil, fmt.Errorf("alert command: %w", err)
		}
		sinks = append(sinks, cmd)
	}
	return sinks, release, nil
}
