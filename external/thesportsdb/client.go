package thesportsdb

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/raybet/matchsync/internal/platform/logging"
	"github.com/raybet/matchsync/internal/platform/resilience"
	"github.com/raybet/matchsync/internal/usecase"
)

const (
	defaultBaseURL  = "https://www.thesportsdb.com/api/v1/json"
	maxResponseSize = 6 << 20
)

var errFeedTransient = crerr.New("feed transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to TheSportsDB v1 JSON API. The API key is a path segment, so
// it is redacted from every logged URL and error message.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         strings.TrimSpace(cfg.APIKey),
		maxRetries:     max(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// FetchPastLeagueEvents returns the most recent finished events for a league.
func (c *Client) FetchPastLeagueEvents(ctx context.Context, leagueID string) ([]usecase.ExternalEvent, error) {
	return c.fetchEvents(ctx, "eventspastleague.php", url.Values{"id": {leagueID}})
}

// FetchUpcomingLeagueEvents returns the next scheduled events for a league.
func (c *Client) FetchUpcomingLeagueEvents(ctx context.Context, leagueID string) ([]usecase.ExternalEvent, error) {
	return c.fetchEvents(ctx, "eventsnextleague.php", url.Values{"id": {leagueID}})
}

// FetchSeasonEvents returns every event of one league season.
func (c *Client) FetchSeasonEvents(ctx context.Context, leagueID, season string) ([]usecase.ExternalEvent, error) {
	return c.fetchEvents(ctx, "eventsseason.php", url.Values{"id": {leagueID}, "s": {season}})
}

func (c *Client) fetchEvents(ctx context.Context, endpoint string, query url.Values) ([]usecase.ExternalEvent, error) {
	if strings.TrimSpace(query.Get("id")) == "" {
		return nil, fmt.Errorf("%w: league id is required", usecase.ErrInvalidInput)
	}

	var envelope eventsEnvelope
	if err := c.doJSON(ctx, endpoint, query, &envelope); err != nil {
		return nil, fmt.Errorf("fetch %s league=%s: %w", endpoint, query.Get("id"), err)
	}

	out := make([]usecase.ExternalEvent, 0, len(envelope.Events))
	for _, item := range envelope.Events {
		out = append(out, mapEvent(item))
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, endpoint string, query url.Values, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "feed circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: match feed is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	fullURL := c.baseURL + "/" + c.apiKey + "/" + endpoint
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	key := endpoint + "?" + query.Encode()
	out, err, _ := c.flight.Do(key, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && isFeedCircuitFailure(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode feed payload: %w", err)
	}

	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errFeedTransient, c.redactKey(err.Error()))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errFeedTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else if isRetryableStatus(resp.StatusCode) {
				lastErr = fmt.Errorf("%w: feed status=%d body=%s", errFeedTransient, resp.StatusCode, abbreviateBody(raw))
			} else {
				return nil, fmt.Errorf("feed status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("feed request failed")
	}
	c.logger.WarnContext(ctx, "feed request failed", "url", c.redactKey(fullURL), "error", lastErr)
	return nil, lastErr
}

func (c *Client) redactKey(value string) string {
	if c.apiKey == "" {
		return value
	}
	return strings.ReplaceAll(value, "/"+c.apiKey+"/", "/REDACTED/")
}

func isFeedCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, errFeedTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

type eventsEnvelope struct {
	Events []feedEvent `json:"events"`
}

type feedEvent struct {
	IDEvent       string `json:"idEvent"`
	HomeTeam      string `json:"strHomeTeam"`
	AwayTeam      string `json:"strAwayTeam"`
	DateEvent     string `json:"dateEvent"`
	Time          string `json:"strTime"`
	Timestamp     string `json:"strTimestamp"`
	Status        string `json:"strStatus"`
	HomeScore     string `json:"intHomeScore"`
	AwayScore     string `json:"intAwayScore"`
	HomeTeamBadge string `json:"strHomeTeamBadge"`
	AwayTeamBadge string `json:"strAwayTeamBadge"`
}

func mapEvent(item feedEvent) usecase.ExternalEvent {
	return usecase.ExternalEvent{
		ExternalID:    strings.TrimSpace(item.IDEvent),
		HomeTeam:      strings.TrimSpace(item.HomeTeam),
		AwayTeam:      strings.TrimSpace(item.AwayTeam),
		Date:          combineEventDate(item),
		Status:        strings.TrimSpace(item.Status),
		HomeScore:     parseScore(item.HomeScore),
		AwayScore:     parseScore(item.AwayScore),
		HomeTeamBadge: strings.TrimSpace(item.HomeTeamBadge),
		AwayTeamBadge: strings.TrimSpace(item.AwayTeamBadge),
	}
}

// combineEventDate prefers the provider's combined timestamp and otherwise
// joins the split date/time fields, defaulting the time to midnight.
func combineEventDate(item feedEvent) string {
	if ts := strings.TrimSpace(item.Timestamp); ts != "" {
		return ts
	}
	date := strings.TrimSpace(item.DateEvent)
	if date == "" {
		return ""
	}
	clock := strings.TrimSpace(item.Time)
	if clock == "" {
		clock = "00:00:00"
	}
	return date + "T" + clock
}

// parseScore treats empty and non-numeric values as "no score yet", never as
// zero.
func parseScore(raw string) *int {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return nil
	}
	return &parsed
}
