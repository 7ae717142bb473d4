package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/amr2daide/internal/util"
)

// fetchSleepFunc is overridden in tests
var fetchSleepFunc = time.Sleep

const fetchAttempts = 3

// Fetcher opens annotation input from a file, stdin ("-") or an http(s) URL
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	stdin      io.Reader
	robots     *util.RobotsChecker
}

// FetcherOption configures a Fetcher
type FetcherOption func(*Fetcher)

// WithProxy routes downloads through proxy
func WithProxy(proxy func(*http.Request) (*url.URL, error)) FetcherOption {
	return func(f *Fetcher) {
		f.httpClient.Transport = &http.Transport{Proxy: proxy}
	}
}

// WithRobots makes downloads honor robots.txt
func WithRobots(ttl time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.robots = util.NewRobotsChecker(f.httpClient, f.userAgent, ttl)
	}
}

// NewFetcher creates a new Fetcher with the given configuration
func NewFetcher(timeout time.Duration, userAgent string, maxBytes int64, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: userAgent,
		maxBytes:  maxBytes,
		stdin:     os.Stdin,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Source is opened annotation input
type Source struct {
	io.ReadCloser
	Location string // As given
	Subject  string // Short display name
}

// Open opens location for reading
func (f *Fetcher) Open(ctx context.Context, location string) (*Source, error) {
	switch {
	case location == "" || location == "-":
		return &Source{ReadCloser: io.NopCloser(f.stdin), Location: "-", Subject: "stdin"}, nil
	case isURL(location):
		return f.fetch(ctx, location)
	}

	file, err := os.Open(location)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return &Source{ReadCloser: file, Location: location, Subject: extractSubject(location)}, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// fetch downloads a remote annotation file, retrying transient failures
func (f *Fetcher) fetch(ctx context.Context, rawURL string) (*Source, error) {
	var crawlDelay time.Duration
	if f.robots != nil {
		delay, err := f.robots.Check(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		crawlDelay = delay
	}

	var lastErr error
	for attempt := 0; attempt < fetchAttempts; attempt++ {
		if attempt > 0 {
			fetchSleepFunc(max(time.Duration(attempt)*500*time.Millisecond, crawlDelay))
		}
		src, retry, err := f.fetchOnce(ctx, rawURL)
		if err == nil {
			return src, nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string) (*Source, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/plain,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retry, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	// Read body with size limit; one byte more tells the pipeline it was cut
	limit := f.maxBytes
	if limit <= 0 {
		limit = 64 << 20
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, true, fmt.Errorf("read body: %w", err)
	}

	finalURL := resp.Request.URL.String()
	return &Source{
		ReadCloser: io.NopCloser(strings.NewReader(string(body))),
		Location:   finalURL,
		Subject:    extractSubject(finalURL),
	}, false, nil
}

// extractSubject extracts a short display name from a path or URL
func extractSubject(location string) string {
	path := location
	if isURL(location) {
		parsed, err := url.Parse(location)
		if err != nil {
			return location
		}
		path = strings.Trim(parsed.Path, "/")
		if path == "" {
			return parsed.Host
		}
	}

	last := filepath.Base(filepath.FromSlash(path))
	if idx := strings.LastIndex(last, "."); idx > 0 {
		last = last[:idx]
	}
	return last
}
