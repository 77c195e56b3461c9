package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMultiHandlerLevels(t *testing.T) {
	t.Parallel()

	var debugBuf, warnBuf bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)
	logger := slog.New(h).With("cycle", "c1")

	logger.Debug("polling")
	logger.Warn("primary feed failed")

	if !strings.Contains(debugBuf.String(), "polling") || !strings.Contains(debugBuf.String(), "primary feed failed") {
		t.Errorf("debug handler output %q", debugBuf.String())
	}
	if strings.Contains(warnBuf.String(), "polling") {
		t.Error("warn handler received a debug record")
	}
	if !strings.Contains(warnBuf.String(), "cycle=c1") {
		t.Errorf("attrs not propagated: %q", warnBuf.String())
	}
}

func TestSetupWritesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "sla-monitor.log")
	logger, closer, err := Setup(Options{File: path, Level: "info"})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	logger.Info("monitor started", "refresh_interval", "5m0s")
	logger.Debug("hidden")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "monitor started") {
		t.Errorf("log file = %q", data)
	}
	if strings.Contains(string(data), "hidden") {
		t.Error("debug record written at info level")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
	} {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
