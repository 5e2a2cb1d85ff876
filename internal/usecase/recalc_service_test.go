package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/raybet/matchsync/internal/domain/match"
	"github.com/raybet/matchsync/internal/domain/prediction"
	"github.com/raybet/matchsync/internal/domain/profile"
	"github.com/raybet/matchsync/internal/platform/logging"
)

type stubPredictionRepo struct {
	items []prediction.Prediction
}

func (r *stubPredictionRepo) List(_ context.Context, limit, offset int) ([]prediction.Prediction, int, error) {
	return pageOf(r.items, limit, offset), len(r.items), nil
}

type stubProfileRepo struct {
	mu      sync.Mutex
	items   []profile.Profile
	updates map[string]int
	failID  string
}

func newStubProfileRepo(items ...profile.Profile) *stubProfileRepo {
	return &stubProfileRepo{items: items, updates: make(map[string]int)}
}

func (r *stubProfileRepo) List(_ context.Context, limit, offset int) ([]profile.Profile, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return pageOf(r.items, limit, offset), len(r.items), nil
}

func (r *stubProfileRepo) UpdateTotalPoints(_ context.Context, id string, totalPoints int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id == r.failID {
		return fmt.Errorf("update rejected for id=%s", id)
	}
	r.updates[id] = totalPoints
	return nil
}

func (r *stubProfileRepo) ListTop(_ context.Context, _ int) ([]profile.Profile, error) {
	return nil, nil
}

func pageOf[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := min(offset+limit, len(items))
	return items[offset:end]
}

type listOnlyMatchRepo struct {
	completed []match.Match
}

func (r *listOnlyMatchRepo) GetByExternalID(_ context.Context, _ string) (match.Match, bool, error) {
	return match.Match{}, false, nil
}

func (r *listOnlyMatchRepo) Create(_ context.Context, _ match.Match) error { return nil }

func (r *listOnlyMatchRepo) Update(_ context.Context, _ match.Match) error { return nil }

func (r *listOnlyMatchRepo) List(_ context.Context, limit, offset int) ([]match.Match, int, error) {
	return pageOf(r.completed, limit, offset), len(r.completed), nil
}

func (r *listOnlyMatchRepo) ListByStatus(_ context.Context, status string, limit, offset int) ([]match.Match, int, error) {
	if status != match.StatusCompleted {
		return nil, 0, nil
	}
	return pageOf(r.completed, limit, offset), len(r.completed), nil
}

func completedMatch(id string, home, away int) match.Match {
	return match.Match{
		ID:         id,
		ExternalID: "ext-" + id,
		Status:     match.StatusCompleted,
		HomeScore:  intPtr(home),
		AwayScore:  intPtr(away),
	}
}

func TestRecalc_ComputesAndWritesTotals(t *testing.T) {
	t.Parallel()

	matches := &listOnlyMatchRepo{completed: []match.Match{
		completedMatch("m1", 3, 1),
		completedMatch("m2", 0, 0),
	}}
	predictions := &stubPredictionRepo{items: []prediction.Prediction{
		{ID: "p1", MatchID: "m1", UserID: "alice", HomeScore: intPtr(3), AwayScore: intPtr(1)}, // exact, 6
		{ID: "p2", MatchID: "m2", UserID: "alice", HomeScore: intPtr(1), AwayScore: intPtr(1)}, // draw diff, 4
		{ID: "p3", MatchID: "m1", UserID: "bob", HomeScore: intPtr(1), AwayScore: intPtr(2)},   // wrong direction, 0
	}}
	profiles := newStubProfileRepo(
		profile.Profile{ID: "prof-a", UserID: "alice", TotalPoints: 0},
		profile.Profile{ID: "prof-b", UserID: "bob", TotalPoints: 5},
	)

	svc := NewRecalcService(matches, predictions, profiles, RecalcConfig{}, logging.NewNop())
	result, err := svc.Run(context.Background(), RecalcInput{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.ProfilesUpdated != 2 {
		t.Fatalf("expected 2 profile updates, got %+v", result)
	}
	if got := profiles.updates["prof-a"]; got != 10 {
		t.Fatalf("alice total = %d, want 10", got)
	}
	if got := profiles.updates["prof-b"]; got != 0 {
		t.Fatalf("bob must converge to zero, got %d", got)
	}
}

func TestRecalc_SkipsProfilesAlreadyCorrect(t *testing.T) {
	t.Parallel()

	matches := &listOnlyMatchRepo{completed: []match.Match{completedMatch("m1", 2, 0)}}
	predictions := &stubPredictionRepo{items: []prediction.Prediction{
		{ID: "p1", MatchID: "m1", UserID: "alice", HomeScore: intPtr(2), AwayScore: intPtr(0)},
	}}
	profiles := newStubProfileRepo(
		profile.Profile{ID: "prof-a", UserID: "alice", TotalPoints: 6},
	)

	svc := NewRecalcService(matches, predictions, profiles, RecalcConfig{}, logging.NewNop())
	result, err := svc.Run(context.Background(), RecalcInput{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.ProfilesUpdated != 0 {
		t.Fatalf("correct totals must not be rewritten, got %+v", result)
	}
	if len(profiles.updates) != 0 {
		t.Fatalf("no writes expected, got %v", profiles.updates)
	}
}

func TestRecalc_IgnoresPredictionsForUnknownMatches(t *testing.T) {
	t.Parallel()

	matches := &listOnlyMatchRepo{completed: []match.Match{completedMatch("m1", 1, 0)}}
	predictions := &stubPredictionRepo{items: []prediction.Prediction{
		{ID: "p1", MatchID: "missing", UserID: "alice", HomeScore: intPtr(1), AwayScore: intPtr(0)},
	}}
	profiles := newStubProfileRepo(
		profile.Profile{ID: "prof-a", UserID: "alice", TotalPoints: 0},
	)

	svc := NewRecalcService(matches, predictions, profiles, RecalcConfig{}, logging.NewNop())
	result, err := svc.Run(context.Background(), RecalcInput{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.ProfilesUpdated != 0 {
		t.Fatalf("prediction for unknown match must score zero, got %+v", result)
	}
}

func TestRecalc_PagesThroughLargeCollections(t *testing.T) {
	t.Parallel()

	var completed []match.Match
	var preds []prediction.Prediction
	for i := 0; i < 7; i++ {
		id := fmt.Sprintf("m%d", i)
		completed = append(completed, completedMatch(id, 1, 0))
		preds = append(preds, prediction.Prediction{
			ID: fmt.Sprintf("p%d", i), MatchID: id, UserID: "alice",
			HomeScore: intPtr(1), AwayScore: intPtr(0),
		})
	}
	profiles := newStubProfileRepo(
		profile.Profile{ID: "prof-a", UserID: "alice", TotalPoints: 0},
	)

	svc := NewRecalcService(&listOnlyMatchRepo{completed: completed}, &stubPredictionRepo{items: preds}, profiles, RecalcConfig{PageSize: 2}, logging.NewNop())
	result, err := svc.Run(context.Background(), RecalcInput{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.ProfilesUpdated != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if got := profiles.updates["prof-a"]; got != 7*6 {
		t.Fatalf("paged totals wrong: got %d, want %d", got, 7*6)
	}
}

func TestRecalc_DryRunCountsWithoutWriting(t *testing.T) {
	t.Parallel()

	matches := &listOnlyMatchRepo{completed: []match.Match{completedMatch("m1", 2, 1)}}
	predictions := &stubPredictionRepo{items: []prediction.Prediction{
		{ID: "p1", MatchID: "m1", UserID: "alice", HomeScore: intPtr(2), AwayScore: intPtr(1)},
	}}
	profiles := newStubProfileRepo(
		profile.Profile{ID: "prof-a", UserID: "alice", TotalPoints: 0},
	)

	svc := NewRecalcService(matches, predictions, profiles, RecalcConfig{}, logging.NewNop())
	result, err := svc.Run(context.Background(), RecalcInput{DryRun: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.ProfilesUpdated != 1 {
		t.Fatalf("dry run must still count, got %+v", result)
	}
	if len(profiles.updates) != 0 {
		t.Fatalf("dry run must not write, got %v", profiles.updates)
	}
}

func TestRecalc_WriteFailureSurfaces(t *testing.T) {
	t.Parallel()

	matches := &listOnlyMatchRepo{completed: []match.Match{completedMatch("m1", 2, 1)}}
	predictions := &stubPredictionRepo{items: []prediction.Prediction{
		{ID: "p1", MatchID: "m1", UserID: "alice", HomeScore: intPtr(2), AwayScore: intPtr(1)},
	}}
	profiles := newStubProfileRepo(
		profile.Profile{ID: "prof-a", UserID: "alice", TotalPoints: 0},
	)
	profiles.failID = "prof-a"

	svc := NewRecalcService(matches, predictions, profiles, RecalcConfig{}, logging.NewNop())
	if _, err := svc.Run(context.Background(), RecalcInput{}); err == nil {
		t.Fatalf("expected profile write failure to surface")
	}
}
