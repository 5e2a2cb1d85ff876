package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/raybet/matchsync/internal/domain/match"
	"github.com/raybet/matchsync/internal/platform/logging"
)

func intPtr(v int) *int {
	return &v
}

type stubProvider struct {
	past     []ExternalEvent
	upcoming []ExternalEvent
	season   []ExternalEvent

	pastErr     error
	upcomingErr error

	seasonCalls int
}

func (p *stubProvider) FetchPastLeagueEvents(_ context.Context, _ string) ([]ExternalEvent, error) {
	return p.past, p.pastErr
}

func (p *stubProvider) FetchUpcomingLeagueEvents(_ context.Context, _ string) ([]ExternalEvent, error) {
	return p.upcoming, p.upcomingErr
}

func (p *stubProvider) FetchSeasonEvents(_ context.Context, _, _ string) ([]ExternalEvent, error) {
	p.seasonCalls++
	return p.season, nil
}

type stubMatchRepo struct {
	mu      sync.Mutex
	byExtID map[string]match.Match
	creates int
	updates int
}

func newStubMatchRepo() *stubMatchRepo {
	return &stubMatchRepo{byExtID: make(map[string]match.Match)}
}

func (r *stubMatchRepo) GetByExternalID(_ context.Context, externalID string) (match.Match, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.byExtID[externalID]
	return item, ok, nil
}

func (r *stubMatchRepo) Create(_ context.Context, item match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byExtID[item.ExternalID] = item
	r.creates++
	return nil
}

func (r *stubMatchRepo) Update(_ context.Context, item match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byExtID[item.ExternalID] = item
	r.updates++
	return nil
}

func (r *stubMatchRepo) List(_ context.Context, limit, offset int) ([]match.Match, int, error) {
	return nil, 0, nil
}

func (r *stubMatchRepo) ListByStatus(_ context.Context, _ string, _, _ int) ([]match.Match, int, error) {
	return nil, 0, nil
}

type staticIDs struct {
	next int
}

func (g *staticIDs) NewID() (string, error) {
	g.next++
	return fmt.Sprintf("id-%d", g.next), nil
}

func newReconcileService(provider *stubProvider, repo *stubMatchRepo, cfg ReconcileConfig) *ReconcileService {
	if cfg.LeagueID == "" {
		cfg.LeagueID = "4380"
	}
	return NewReconcileService(provider, repo, &staticIDs{}, cfg, logging.NewNop())
}

func TestReconcile_CreatesThenSkips(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{
		past: []ExternalEvent{
			{ExternalID: "100", HomeTeam: "A", AwayTeam: "B", Date: "2026-03-10T19:00:00", Status: "Match Finished", HomeScore: intPtr(2), AwayScore: intPtr(0)},
		},
		upcoming: []ExternalEvent{
			{ExternalID: "101", HomeTeam: "C", AwayTeam: "D", Date: "2026-03-20T19:00:00", Status: "Not Started"},
		},
	}
	repo := newStubMatchRepo()
	svc := newReconcileService(provider, repo, ReconcileConfig{})

	first, err := svc.Run(context.Background(), ReconcileInput{})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Created != 2 || first.Updated != 0 || first.Skipped != 0 {
		t.Fatalf("unexpected first run result: %+v", first)
	}

	stored, ok, _ := repo.GetByExternalID(context.Background(), "100")
	if !ok {
		t.Fatalf("match 100 not stored")
	}
	if stored.Status != match.StatusCompleted {
		t.Fatalf("provider status must be canonicalized, got %q", stored.Status)
	}
	if stored.LeagueID != "4380" {
		t.Fatalf("league id not applied: %q", stored.LeagueID)
	}

	second, err := svc.Run(context.Background(), ReconcileInput{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Created != 0 || second.Updated != 0 || second.Skipped != 2 {
		t.Fatalf("unchanged rerun must skip everything, got %+v", second)
	}
	if repo.updates != 0 {
		t.Fatalf("unchanged rerun must not write, got %d updates", repo.updates)
	}
}

func TestReconcile_UpdatesOnlyChangedFields(t *testing.T) {
	t.Parallel()

	repo := newStubMatchRepo()
	repo.byExtID["100"] = match.Match{
		ID:            "existing",
		ExternalID:    "100",
		LeagueID:      "4380",
		HomeTeam:      "A",
		AwayTeam:      "B",
		Date:          "2026-03-10T19:00:00",
		Status:        match.StatusInProgress,
		HomeTeamBadge: "https://img.example.com/a.png",
	}

	provider := &stubProvider{
		past: []ExternalEvent{
			{ExternalID: "100", HomeTeam: "A", AwayTeam: "B", Date: "2026-03-10T19:00:00", Status: "Match Finished", HomeScore: intPtr(1), AwayScore: intPtr(1)},
		},
	}
	svc := newReconcileService(provider, repo, ReconcileConfig{})

	result, err := svc.Run(context.Background(), ReconcileInput{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Updated != 1 {
		t.Fatalf("expected 1 update, got %+v", result)
	}

	stored, _, _ := repo.GetByExternalID(context.Background(), "100")
	if stored.ID != "existing" {
		t.Fatalf("update must keep the stored id, got %q", stored.ID)
	}
	if stored.Status != match.StatusCompleted {
		t.Fatalf("status not updated: %q", stored.Status)
	}
	if stored.HomeScore == nil || *stored.HomeScore != 1 {
		t.Fatalf("score not updated: %+v", stored)
	}
	if stored.HomeTeamBadge != "https://img.example.com/a.png" {
		t.Fatalf("empty feed badge must not blank the stored badge, got %q", stored.HomeTeamBadge)
	}
}

func TestReconcile_DuplicateExternalIDLastWins(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{
		past: []ExternalEvent{
			{ExternalID: "100", HomeTeam: "A", AwayTeam: "B", Status: "Match Finished", HomeScore: intPtr(2), AwayScore: intPtr(2)},
		},
		upcoming: []ExternalEvent{
			{ExternalID: "100", HomeTeam: "A", AwayTeam: "B", Status: "Not Started"},
		},
	}
	repo := newStubMatchRepo()
	svc := newReconcileService(provider, repo, ReconcileConfig{})

	result, err := svc.Run(context.Background(), ReconcileInput{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Created != 1 {
		t.Fatalf("duplicate external id must collapse to one record, got %+v", result)
	}

	stored, _, _ := repo.GetByExternalID(context.Background(), "100")
	if stored.Status != match.StatusScheduled {
		t.Fatalf("later feed occurrence must win the merge, got status %q", stored.Status)
	}
	if repo.creates != 1 {
		t.Fatalf("expected exactly one create, got %d", repo.creates)
	}
}

func TestReconcile_DropsEventsWithoutExternalID(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{
		past: []ExternalEvent{
			{ExternalID: "", HomeTeam: "A", AwayTeam: "B"},
			{ExternalID: "200", HomeTeam: "C", AwayTeam: "D", Status: "Not Started"},
		},
	}
	repo := newStubMatchRepo()
	svc := newReconcileService(provider, repo, ReconcileConfig{})

	result, err := svc.Run(context.Background(), ReconcileInput{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Created != 1 || result.Skipped != 0 {
		t.Fatalf("malformed event must be dropped without failing the run, got %+v", result)
	}
	if result.Dropped != 1 {
		t.Fatalf("dropped event must be counted, got %+v", result)
	}
}

func TestReconcile_SeasonModeUsesSeasonEndpoint(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{
		season: []ExternalEvent{
			{ExternalID: "300", HomeTeam: "E", AwayTeam: "F", Status: "Not Started"},
		},
	}
	repo := newStubMatchRepo()
	svc := newReconcileService(provider, repo, ReconcileConfig{Season: "2025-2026"})

	result, err := svc.Run(context.Background(), ReconcileInput{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if provider.seasonCalls != 1 {
		t.Fatalf("expected season endpoint to be used, got %d calls", provider.seasonCalls)
	}
	if result.Created != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestReconcile_DryRunCountsWithoutWriting(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{
		past: []ExternalEvent{
			{ExternalID: "400", HomeTeam: "G", AwayTeam: "H", Status: "Not Started"},
		},
	}
	repo := newStubMatchRepo()
	svc := newReconcileService(provider, repo, ReconcileConfig{})

	result, err := svc.Run(context.Background(), ReconcileInput{DryRun: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Created != 1 {
		t.Fatalf("dry run must still count, got %+v", result)
	}
	if repo.creates != 0 {
		t.Fatalf("dry run must not write, got %d creates", repo.creates)
	}
}

func TestReconcile_FeedErrorFailsRun(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{
		pastErr: fmt.Errorf("feed status=500"),
	}
	repo := newStubMatchRepo()
	svc := newReconcileService(provider, repo, ReconcileConfig{})

	if _, err := svc.Run(context.Background(), ReconcileInput{}); err == nil {
		t.Fatalf("expected feed failure to surface")
	}
	if repo.creates != 0 || repo.updates != 0 {
		t.Fatalf("failed fetch must not write")
	}
}
