package alert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// Trigger describes a rise in the number of at-risk tickets between two
// successful refreshes.
type Trigger struct {
	At       time.Time
	CycleID  string
	Previous int
	Current  int
}

type Sink interface {
	Alert(ctx context.Context, t Trigger) error
}

// Bell rings the terminal bell.
type Bell struct {
	mu sync.Mutex
	w  io.Writer
}

func NewBell(w io.Writer) *Bell {
	return &Bell{w: w}
}

// TTYPath is the controlling terminal on Unix systems.
const TTYPath = "/dev/tty"

// BellOutput picks where the bell is written. While a full-screen UI owns
// stdout the bell goes to the terminal device at ttyPath instead.
func BellOutput(fullScreen bool, ttyPath string) (io.WriteCloser, error) {
	if !fullScreen {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.OpenFile(ttyPath, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open terminal: %w", err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func (b *Bell) Alert(_ context.Context, _ Trigger) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := io.WriteString(b.w, "\a"); err != nil {
		return fmt.Errorf("ring bell: %w", err)
	}
	return nil
}

// Command plays the alert through an external program, e.g.
// "paplay /usr/share/sounds/freedesktop/stereo/bell.oga".
type Command struct {
	name    string
	args    []string
	timeout time.Duration
	logger  *slog.Logger
}

func NewCommand(cmdline string, timeout time.Duration, logger *slog.Logger) (*Command, error) {
	fields := strings.Fields(cmdline)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty alert command")
	}
	return &Command{name: fields[0], args: fields[1:], timeout: timeout, logger: logger}, nil
}

func (c *Command) Alert(ctx context.Context, _ Trigger) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	c.logger.Debug("exec", "cmd", c.name+" "+strings.Join(c.args, " "))
	cmd := exec.CommandContext(ctx, c.name, c.args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %s: %w\n%s", c.name, strings.Join(c.args, " "), err, string(out))
	}
	return nil
}

// Log records the alert in the application log.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Alert(_ context.Context, t Trigger) error {
	l.logger.Warn("at-risk tickets increased",
		"cycle", t.CycleID,
		"previous", t.Previous,
		"current", t.Current)
	return nil
}

// Multi fans an alert out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Alert(ctx context.Context, t Trigger) error {
	var errs []error
	for _, s := range m {
		if err := s.Alert(ctx, t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
