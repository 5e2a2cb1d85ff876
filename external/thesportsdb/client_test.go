package thesportsdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/raybet/matchsync/internal/platform/resilience"
)

const eventsPayload = `{
	"events": [
		{
			"idEvent": "2052711",
			"strHomeTeam": "Toronto Maple Leafs",
			"strAwayTeam": "Montreal Canadiens",
			"dateEvent": "2026-03-14",
			"strTime": "19:30:00",
			"strStatus": "Match Finished",
			"intHomeScore": "3",
			"intAwayScore": "1",
			"strHomeTeamBadge": "https://img.example.com/tor.png",
			"strAwayTeamBadge": "https://img.example.com/mtl.png"
		},
		{
			"idEvent": "2052712",
			"strHomeTeam": "Boston Bruins",
			"strAwayTeam": "Ottawa Senators",
			"dateEvent": "2026-03-15",
			"strTime": "",
			"strStatus": "",
			"intHomeScore": null,
			"intAwayScore": null
		}
	]
}`

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		HTTPClient: server.Client(),
		BaseURL:    server.URL,
		APIKey:     "testkey",
		MaxRetries: 1,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 5,
		},
	})
	return client, server
}

func TestFetchPastLeagueEvents(t *testing.T) {
	t.Parallel()

	var gotPath atomic.Value
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath.Store(r.URL.String())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(eventsPayload))
	}))

	events, err := client.FetchPastLeagueEvents(context.Background(), "4380")
	if err != nil {
		t.Fatalf("fetch past events: %v", err)
	}

	if path, _ := gotPath.Load().(string); !strings.Contains(path, "/testkey/eventspastleague.php?id=4380") {
		t.Fatalf("unexpected request path: %s", path)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	first := events[0]
	if first.ExternalID != "2052711" {
		t.Fatalf("unexpected external id: %q", first.ExternalID)
	}
	if first.Date != "2026-03-14T19:30:00" {
		t.Fatalf("unexpected combined date: %q", first.Date)
	}
	if first.Status != "Match Finished" {
		t.Fatalf("unexpected status: %q", first.Status)
	}
	if first.HomeScore == nil || *first.HomeScore != 3 || first.AwayScore == nil || *first.AwayScore != 1 {
		t.Fatalf("unexpected scores: %+v", first)
	}
	if first.HomeTeamBadge != "https://img.example.com/tor.png" {
		t.Fatalf("unexpected badge: %q", first.HomeTeamBadge)
	}

	second := events[1]
	if second.HomeScore != nil || second.AwayScore != nil {
		t.Fatalf("missing scores must map to nil, got %+v", second)
	}
	if second.Date != "2026-03-15T00:00:00" {
		t.Fatalf("missing time must default to midnight, got %q", second.Date)
	}
}

func TestFetchSeasonEvents_QueryParams(t *testing.T) {
	t.Parallel()

	var gotQuery atomic.Value
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"events": null}`))
	}))

	events, err := client.FetchSeasonEvents(context.Background(), "4380", "2025-2026")
	if err != nil {
		t.Fatalf("fetch season events: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events for null payload, got %d", len(events))
	}

	query, _ := gotQuery.Load().(string)
	if !strings.Contains(query, "id=4380") || !strings.Contains(query, "s=2025-2026") {
		t.Fatalf("unexpected query: %s", query)
	}
}

func TestFetchEvents_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"events": []}`))
	}))

	if _, err := client.FetchUpcomingLeagueEvents(context.Background(), "4380"); err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestFetchEvents_NonRetryableStatusFails(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))

	if _, err := client.FetchPastLeagueEvents(context.Background(), "4380"); err == nil {
		t.Fatalf("expected error for 404 response")
	}
	if calls.Load() != 1 {
		t.Fatalf("404 must not be retried, got %d attempts", calls.Load())
	}
}

func TestFetchEvents_RequiresLeagueID(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{APIKey: "testkey"})
	if _, err := client.FetchPastLeagueEvents(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for empty league id")
	}
}

func TestRedactKey(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{APIKey: "secret123"})
	redacted := client.redactKey("https://www.thesportsdb.com/api/v1/json/secret123/eventspastleague.php?id=4380")
	if strings.Contains(redacted, "secret123") {
		t.Fatalf("api key leaked: %s", redacted)
	}
}
