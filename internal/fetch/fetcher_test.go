package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"golang.org/x/time/rate"
)

const samplePayload = `[
	{"id": "1", "title": "Keynote", "description": "Opening",
	 "slot_start": "2026-09-07T09:00:00Z", "slot_end": "2026-09-07T10:00:00Z"},
	{"id": "2", "title": "Closing", "description": "Wrap up",
	 "slot_start": "2026-09-08T17:00:00Z", "slot_end": "2026-09-08T18:00:00Z"}
]`

// uncapped removes the refresh rate limit so tests can fetch repeatedly.
func uncapped(c *Client) *Client {
	c.limiter = rate.NewLimiter(rate.Inf, 1)
	return c
}

func TestFetchParsesPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	c := uncapped(NewClient(srv.URL))
	res, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.NotModified {
		t.Fatal("Fresh fetch should not be NotModified")
	}
	if len(res.Sessions) != 2 {
		t.Errorf("Expected 2 sessions, got %d", len(res.Sessions))
	}
	if res.ETag != `"v1"` {
		t.Errorf("Expected ETag v1, got %q", res.ETag)
	}
	if len(res.Payload) == 0 {
		t.Error("Expected raw payload for caching")
	}
}

func TestFetchConditionalGet(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	c := uncapped(NewClient(srv.URL))

	first, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("First fetch: %v", err)
	}
	if first.NotModified {
		t.Fatal("First fetch should carry the payload")
	}

	second, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Second fetch: %v", err)
	}
	if !second.NotModified {
		t.Error("Second fetch should be NotModified via ETag")
	}
	if requests.Load() != 2 {
		t.Errorf("Expected 2 requests, got %d", requests.Load())
	}
}

func TestFetchSeededETag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"cached"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	c := uncapped(NewClient(srv.URL))
	c.SetETag(`"cached"`)

	res, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !res.NotModified {
		t.Error("Seeded ETag should produce a 304 on the first fetch")
	}
}

func TestFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := uncapped(NewClient(srv.URL))
	if _, err := c.Fetch(context.Background()); err == nil {
		t.Error("Expected error on 500")
	}
}

func TestFetchBadPayloadIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"oops": true}`))
	}))
	defer srv.Close()

	c := uncapped(NewClient(srv.URL))
	if _, err := c.Fetch(context.Background()); err == nil {
		t.Error("A broken payload must surface as an error, never as an empty dataset")
	}
}

func TestFetchRateLimited(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	// Default limiter: burst 1, then a long wait
	c := NewClient(srv.URL)

	if _, err := c.Fetch(context.Background()); err != nil {
		t.Fatalf("First fetch: %v", err)
	}
	res, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Second fetch: %v", err)
	}
	if !res.NotModified {
		t.Error("Rate-limited fetch should report NotModified")
	}
	if requests.Load() != 1 {
		t.Errorf("Rate limiter should have stopped the second request, saw %d", requests.Load())
	}
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.json")
	if err := os.WriteFile(path, []byte(samplePayload), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	if len(res.Sessions) != 2 {
		t.Errorf("Expected 2 sessions, got %d", len(res.Sessions))
	}
}

func TestFromFileMissing(t *testing.T) {
	if _, err := FromFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}
