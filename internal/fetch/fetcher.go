// Package fetch retrieves the schedule payload: over HTTP with conditional
// GET, from a local file, or on demand when the live update channel
// announces a change.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/asheshgoplani/conf-deck/internal/logging"
	"github.com/asheshgoplani/conf-deck/internal/schedule"
)

var fetchLog = logging.ForComponent(logging.CompFetch)

const (
	defaultTimeout     = 15 * time.Second
	maxPayloadSize     = 16 * 1024 * 1024
	defaultMinInterval = 5 * time.Second
)

// Result is the outcome of one fetch.
type Result struct {
	Sessions []schedule.Session
	Payload  []byte
	ETag     string

	// NotModified is true when the server answered 304; Sessions and
	// Payload are empty and the held dataset should stay untouched.
	NotModified bool
}

// Client fetches the schedule with conditional GET. Overlapping refresh
// requests collapse into a single in-flight HTTP call, and a rate limiter
// caps how often the endpoint is hit regardless of how eagerly the user
// mashes the refresh key.
type Client struct {
	url  string
	http *http.Client

	sf      singleflight.Group
	limiter *rate.Limiter

	mu           sync.Mutex
	etag         string
	lastModified string
}

// NewClient creates a fetch client for the given endpoint.
func NewClient(url string) *Client {
	return &Client{
		url:     url,
		http:    &http.Client{Timeout: defaultTimeout},
		limiter: rate.NewLimiter(rate.Every(defaultMinInterval), 1),
	}
}

// SetETag seeds the conditional-GET state, typically from the schedule
// cache, so the first refresh after startup can still answer 304.
func (c *Client) SetETag(etag string) {
	c.mu.Lock()
	c.etag = etag
	c.mu.Unlock()
}

// Fetch retrieves the schedule. Concurrent callers share one request; a
// caller inside the rate-limit window gets NotModified without any network
// traffic.
func (c *Client) Fetch(ctx context.Context) (*Result, error) {
	if !c.limiter.Allow() {
		fetchLog.Debug("fetch_rate_limited", slog.String("url", c.url))
		return &Result{NotModified: true}, nil
	}

	v, err, shared := c.sf.Do("fetch", func() (any, error) {
		return c.fetchOnce(ctx)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		fetchLog.Debug("fetch_deduplicated")
	}
	return v.(*Result), nil
}

func (c *Client) fetchOnce(ctx context.Context) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "conf-deck schedule client")

	c.mu.Lock()
	if c.etag != "" {
		req.Header.Set("If-None-Match", c.etag)
	}
	if c.lastModified != "" {
		req.Header.Set("If-Modified-Since", c.lastModified)
	}
	c.mu.Unlock()

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		fetchLog.Warn("fetch_failed",
			slog.String("url", c.url),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		fetchLog.Debug("fetch_not_modified", slog.Duration("took", time.Since(start)))
		return &Result{NotModified: true}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadSize))
	if err != nil {
		return nil, fmt.Errorf("fetch: read body: %w", err)
	}

	sessions, err := schedule.ParseSessions(body)
	if err != nil {
		// A broken payload never replaces the held dataset
		return nil, err
	}

	etag := resp.Header.Get("ETag")
	c.mu.Lock()
	c.etag = etag
	c.lastModified = resp.Header.Get("Last-Modified")
	c.mu.Unlock()

	fetchLog.Info("fetch_done",
		slog.Int("sessions", len(sessions)),
		slog.Duration("took", time.Since(start)))

	return &Result{Sessions: sessions, Payload: body, ETag: etag}, nil
}

// FromFile loads the schedule from a local JSON file.
func FromFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fetch: read %s: %w", path, err)
	}
	sessions, err := schedule.ParseSessions(data)
	if err != nil {
		return nil, err
	}
	return &Result{Sessions: sessions, Payload: data}, nil
}
