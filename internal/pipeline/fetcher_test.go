package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/amr2daide/internal/util"
)

func readSource(t *testing.T, src *Source) string {
	t.Helper()
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		t.Fatalf("read source: %v", err)
	}
	return string(data)
}

func TestFetcher_OpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dip_test.amr.txt")
	if err := os.WriteFile(path, []byte("# ::id x\n(a / and)\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := NewFetcher(time.Second, "test-agent", 0).Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if src.Subject != "dip_test.amr" {
		t.Errorf("unexpected subject %q", src.Subject)
	}
	if got := readSource(t, src); got != "# ::id x\n(a / and)\n" {
		t.Errorf("unexpected content %q", got)
	}
}

func TestFetcher_OpenStdin(t *testing.T) {
	f := NewFetcher(time.Second, "test-agent", 0)
	f.stdin = strings.NewReader("stdin data")

	src, err := f.Open(context.Background(), "-")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if src.Subject != "stdin" || readSource(t, src) != "stdin data" {
		t.Errorf("unexpected stdin source %+v", src)
	}
}

func TestFetcher_OpenMissing(t *testing.T) {
	_, err := NewFetcher(time.Second, "test-agent", 0).Open(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))
	if err == nil || !strings.Contains(err.Error(), "open input") {
		t.Errorf("expected open error, got %v", err)
	}
}

func TestFetcher_URL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("expected user agent, got %q", r.Header.Get("User-Agent"))
		}
		_, _ = fmt.Fprint(w, "# ::id dip_0001.1\n(c / country)\n")
	}))
	defer server.Close()

	src, err := NewFetcher(5*time.Second, "test-agent", 1<<20).Open(context.Background(), server.URL+"/corpus/dip-train.txt")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if src.Subject != "dip-train" {
		t.Errorf("unexpected subject %q", src.Subject)
	}
	if got := readSource(t, src); !strings.Contains(got, "(c / country)") {
		t.Errorf("unexpected body %q", got)
	}
}

func TestFetcher_TransientThenSuccess(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = fmt.Fprint(w, "OK")
	}))
	defer server.Close()

	origSleep := fetchSleepFunc
	fetchSleepFunc = func(d time.Duration) {}
	defer func() { fetchSleepFunc = origSleep }()

	src, err := NewFetcher(5*time.Second, "test-agent", 1<<20).Open(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if readSource(t, src) != "OK" {
		t.Error("unexpected body")
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestFetcher_PermanentFailure(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	origSleep := fetchSleepFunc
	fetchSleepFunc = func(d time.Duration) {}
	defer func() { fetchSleepFunc = origSleep }()

	_, err := NewFetcher(5*time.Second, "test-agent", 1<<20).Open(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Expected error for 404, got nil")
	}
	if got := err.Error(); got != "unexpected status: 404 404 Not Found" {
		t.Errorf("Unexpected error: %s", got)
	}
	if attempts.Load() != 1 {
		t.Errorf("404 must not be retried, got %d attempts", attempts.Load())
	}
}

func TestFetcher_Robots(t *testing.T) {
	var fetched atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = fmt.Fprint(w, "User-agent: *\nDisallow: /private/\n")
			return
		}
		fetched.Add(1)
		_, _ = fmt.Fprint(w, "# ::id dip_a_0001.1\n(a / and)\n")
	}))
	defer server.Close()

	f := NewFetcher(5*time.Second, "amr2daide/1.0", 1<<20, WithRobots(time.Minute))

	_, err := f.Open(context.Background(), server.URL+"/private/dip.txt")
	if !errors.Is(err, util.ErrDisallowed) {
		t.Fatalf("expected ErrDisallowed, got %v", err)
	}
	if fetched.Load() != 0 {
		t.Error("disallowed file must not be requested")
	}

	src, err := f.Open(context.Background(), server.URL+"/public/dip.txt")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !strings.HasPrefix(readSource(t, src), "# ::id dip_a_0001.1") {
		t.Error("unexpected body")
	}
}

func TestExtractSubject(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"data/dip-dev.txt", "dip-dev"},
		{"dip", "dip"},
		{"https://example.org/a/b/dip-test.amr", "dip-test"},
		{"https://example.org/", "example.org"},
	}
	for _, tt := range tests {
		if got := extractSubject(tt.in); got != tt.want {
			t.Errorf("extractSubject(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
