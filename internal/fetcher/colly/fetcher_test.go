package collyfetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetchReturnsBody(t *testing.T) {
	t.Parallel()

	var gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.UserAgent()
		w.Write([]byte("<html><head><title>ok</title></head></html>")) //nolint:errcheck
	}))
	defer srv.Close()

	f := New(Config{UserAgent: "test-agent/1.0", Timeout: 5 * time.Second})
	defer f.Close()

	body, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !strings.Contains(string(body), "<title>ok</title>") {
		t.Fatalf("unexpected body: %s", body)
	}
	if gotAgent != "test-agent/1.0" {
		t.Fatalf("expected configured user agent, got %q", gotAgent)
	}
}

func TestFetchNon2xxIsError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := New(Config{Timeout: 5 * time.Second})
	defer f.Close()

	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestFetchCanceledContext(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.Write([]byte("late")) //nolint:errcheck
	}))
	defer srv.Close()
	defer close(release)

	f := New(Config{Timeout: 30 * time.Second})
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := f.Fetch(ctx, srv.URL); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestFetchConcurrentCallsAreIndependent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("page:" + r.URL.Path)) //nolint:errcheck
	}))
	defer srv.Close()

	f := New(Config{Timeout: 5 * time.Second})
	defer f.Close()

	results := make(chan string, 2)
	for _, path := range []string{"/a", "/b"} {
		go func(p string) {
			body, err := f.Fetch(context.Background(), srv.URL+p)
			if err != nil {
				t.Errorf("Fetch(%s) error = %v", p, err)
				results <- ""
				return
			}
			results <- string(body)
		}(path)
	}
	got := map[string]bool{<-results: true, <-results: true}
	if !got["page:/a"] || !got["page:/b"] {
		t.Fatalf("concurrent fetches returned wrong bodies: %v", got)
	}
}
