package jobqueue

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestPublisher(t *testing.T, handler http.Handler) (*QStashPublisher, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	publisher := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:          server.URL,
		Token:            "qstash-token",
		TargetBaseURL:    "https://matchsync.example.com",
		Retries:          2,
		InternalJobToken: "internal-token",
	}, nil)
	publisher.client = server.Client()
	return publisher, server
}

func TestEnqueue_SetsUpstashHeaders(t *testing.T) {
	t.Parallel()

	var gotHeaders http.Header
	var gotPath string
	var gotBody string
	publisher, _ := newTestPublisher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.WriteHeader(http.StatusOK)
	}))

	err := publisher.Enqueue(context.Background(), "/v1/internal/jobs/match-sync", nil, 90*time.Second, "match-sync:4380:1")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if !strings.HasSuffix(gotPath, "/v2/publish/https://matchsync.example.com/v1/internal/jobs/match-sync") {
		t.Fatalf("unexpected publish path: %s", gotPath)
	}
	if got := gotHeaders.Get("Authorization"); got != "Bearer qstash-token" {
		t.Fatalf("unexpected authorization header: %q", got)
	}
	if got := gotHeaders.Get("Upstash-Delay"); got != "90s" {
		t.Fatalf("unexpected delay header: %q", got)
	}
	if got := gotHeaders.Get("Upstash-Deduplication-Id"); got != "match-sync:4380:1" {
		t.Fatalf("unexpected deduplication header: %q", got)
	}
	if got := gotHeaders.Get("Upstash-Forward-X-Internal-Job-Token"); got != "internal-token" {
		t.Fatalf("unexpected forward token header: %q", got)
	}
	if gotBody != "{}" {
		t.Fatalf("nil payload must publish an empty object, got %q", gotBody)
	}
}

func TestEnqueue_RejectsEmptyPath(t *testing.T) {
	t.Parallel()

	publisher, _ := newTestPublisher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("no request expected")
	}))

	if err := publisher.Enqueue(context.Background(), "  ", nil, 0, ""); err == nil {
		t.Fatalf("expected error for empty job path")
	}
}

func TestEnqueue_Non2xxFails(t *testing.T) {
	t.Parallel()

	publisher, _ := newTestPublisher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("bad token"))
	}))

	err := publisher.Enqueue(context.Background(), "/v1/internal/jobs/match-sync", nil, 0, "")
	if err == nil {
		t.Fatalf("expected error for 401 response")
	}
	if !strings.Contains(err.Error(), "status=401") {
		t.Fatalf("error must carry the status: %v", err)
	}
}

func TestValidateHTTPBaseURL(t *testing.T) {
	t.Parallel()

	if _, err := validateHTTPBaseURL("ftp://qstash.upstash.io"); err == nil {
		t.Fatalf("expected scheme error")
	}
	if _, err := validateHTTPBaseURL(""); err == nil {
		t.Fatalf("expected empty value error")
	}
	got, err := validateHTTPBaseURL("https://qstash.upstash.io/")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got != "https://qstash.upstash.io" {
		t.Fatalf("trailing slash must be trimmed, got %q", got)
	}
}

func TestNormalizeDelay(t *testing.T) {
	t.Parallel()

	if got := normalizeDelay(0); got != "0s" {
		t.Fatalf("zero delay = %q, want 0s", got)
	}
	if got := normalizeDelay(15 * time.Minute); got != "900s" {
		t.Fatalf("15m delay = %q, want 900s", got)
	}
}
