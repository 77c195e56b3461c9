package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/marcin-skalski/sla-monitor/internal/ticket"
)

const maxPayloadBytes = 32 << 20

type Origin int

const (
	Primary Origin = iota
	Fallback
)

func (o Origin) String() string {
	if o == Fallback {
		return "fallback"
	}
	return "primary"
}

func (o Origin) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Result is the outcome of one successful fetch. Primary tickets have been
// normalized; fallback tickets are passed through as served.
type Result struct {
	Origin    Origin
	Tickets   []ticket.Ticket
	FetchedAt time.Time
}

var (
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrMalformedPayload = errors.New("malformed payload")
)

// FetchError reports a failed fetch from one source.
type FetchError struct {
	Origin     Origin
	Source     string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s feed %s: HTTP %d: %v", e.Origin, e.Source, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s feed %s: %v", e.Origin, e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type Client struct {
	http   *http.Client
	logger *slog.Logger
}

func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// FetchPrimary downloads raw indicators from url. A _t timestamp is appended
// so intermediate caches never serve a stale list.
func (c *Client) FetchPrimary(ctx context.Context, url string, now time.Time) ([]ticket.RawIndicator, error) {
	target := CacheBust(url, now)
	body, status, err := c.get(ctx, target)
	if err != nil {
		return nil, &FetchError{Origin: Primary, Source: url, StatusCode: status, Err: err}
	}

	var raw []ticket.RawIndicator
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &FetchError{Origin: Primary, Source: url, Err: fmt.Errorf("%w: %v", ErrMalformedPayload, err)}
	}
	c.logger.Debug("primary feed fetched", "url", url, "records", len(raw))
	return raw, nil
}

// FetchFallback loads the static ticket list. Sources starting with http://
// or https:// are downloaded, anything else is read from disk. Timestamps
// without a zone are read in now's location.
func (c *Client) FetchFallback(ctx context.Context, source string, now time.Time) ([]ticket.Ticket, error) {
	var (
		body   []byte
		status int
		err    error
	)
	if isHTTP(source) {
		body, status, err = c.get(ctx, source)
	} else {
		body, err = readFile(source)
	}
	if err != nil {
		return nil, &FetchError{Origin: Fallback, Source: source, StatusCode: status, Err: err}
	}

	tickets, err := ticket.DecodeList(body, now.Location())
	if err != nil {
		return nil, &FetchError{Origin: Fallback, Source: source, Err: fmt.Errorf("%w: %v", ErrMalformedPayload, err)}
	}
	c.logger.Debug("fallback feed loaded", "source", source, "tickets", len(tickets))
	return tickets, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, resp.StatusCode, ErrUnexpectedStatus
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxPayloadBytes))
}

// CacheBust appends a millisecond timestamp query parameter to url.
func CacheBust(url string, now time.Time) string {
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "_t=" + strconv.FormatInt(now.UnixMilli(), 10)
}

func isHTTP(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
