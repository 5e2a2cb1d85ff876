package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"

	"github.com/raybet/matchsync/internal/domain/match"
	"github.com/raybet/matchsync/internal/domain/prediction"
	"github.com/raybet/matchsync/internal/domain/profile"
	"github.com/raybet/matchsync/internal/domain/scoring"
	"github.com/raybet/matchsync/internal/platform/logging"
)

const (
	defaultRecalcPageSize   = 100
	defaultRecalcMaxWorkers = 4
)

type RecalcConfig struct {
	PageSize   int
	MaxWorkers int
}

type RecalcInput struct {
	// DryRun skips profile writes and returns computed counts only.
	DryRun bool
}

type RecalcResult struct {
	ProfilesUpdated int `json:"profilesUpdated"`
}

// RecalcService recomputes every profile's total points from scratch. Totals
// are derived state, so the full recompute makes the job self-healing: a
// missed run or a corrected score converges on the next pass.
type RecalcService struct {
	matches     match.Repository
	predictions prediction.Repository
	profiles    profile.Repository
	cfg         RecalcConfig
	logger      *logging.Logger
}

func NewRecalcService(
	matches match.Repository,
	predictions prediction.Repository,
	profiles profile.Repository,
	cfg RecalcConfig,
	logger *logging.Logger,
) *RecalcService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultRecalcPageSize
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = defaultRecalcMaxWorkers
	}

	return &RecalcService{
		matches:     matches,
		predictions: predictions,
		profiles:    profiles,
		cfg:         cfg,
		logger:      logger,
	}
}

func (s *RecalcService) Run(ctx context.Context, input RecalcInput) (RecalcResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RecalcService.Run")
	defer span.End()

	if s.matches == nil || s.predictions == nil || s.profiles == nil {
		return RecalcResult{}, fmt.Errorf("%w: points recalculator is not fully configured", ErrDependencyUnavailable)
	}

	completed, err := s.loadCompletedMatches(ctx)
	if err != nil {
		return RecalcResult{}, err
	}

	totals, err := s.computeUserTotals(ctx, completed)
	if err != nil {
		return RecalcResult{}, err
	}

	stale, err := s.collectStaleProfiles(ctx, totals)
	if err != nil {
		return RecalcResult{}, err
	}

	if !input.DryRun {
		if err := s.applyProfileUpdates(ctx, stale); err != nil {
			return RecalcResult{}, err
		}
	}

	s.logger.InfoContext(ctx, "points recalculation finished",
		"completed_matches", len(completed),
		"scored_users", len(totals),
		"profiles_updated", len(stale),
		"dry_run", input.DryRun,
	)
	return RecalcResult{ProfilesUpdated: len(stale)}, nil
}

// loadCompletedMatches pages through the completed matches and indexes them
// by store id so predictions can be joined in memory.
func (s *RecalcService) loadCompletedMatches(ctx context.Context) (map[string]match.Match, error) {
	index := make(map[string]match.Match)
	offset := 0
	for {
		items, total, err := s.matches.ListByStatus(ctx, match.StatusCompleted, s.cfg.PageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("list completed matches offset=%d: %w", offset, err)
		}
		for _, item := range items {
			index[item.ID] = item
		}
		offset += len(items)
		if len(items) == 0 || offset >= total {
			return index, nil
		}
	}
}

// computeUserTotals scores every prediction against the completed match
// index. Predictions for unknown or unfinished matches contribute zero.
func (s *RecalcService) computeUserTotals(ctx context.Context, completed map[string]match.Match) (map[string]int, error) {
	totals := make(map[string]int)
	offset := 0
	for {
		items, total, err := s.predictions.List(ctx, s.cfg.PageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("list predictions offset=%d: %w", offset, err)
		}
		for _, item := range items {
			if item.UserID == "" {
				continue
			}
			m, ok := completed[item.MatchID]
			if !ok {
				continue
			}
			totals[item.UserID] += scoring.Score(item, m)
		}
		offset += len(items)
		if len(items) == 0 || offset >= total {
			return totals, nil
		}
	}
}

type profileUpdate struct {
	profileID   string
	userID      string
	totalPoints int
}

// collectStaleProfiles pages through all profiles and keeps only those whose
// stored total differs from the recomputed one. Users without any scored
// prediction converge to zero.
func (s *RecalcService) collectStaleProfiles(ctx context.Context, totals map[string]int) ([]profileUpdate, error) {
	var stale []profileUpdate
	offset := 0
	for {
		items, total, err := s.profiles.List(ctx, s.cfg.PageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("list profiles offset=%d: %w", offset, err)
		}
		for _, item := range items {
			want := totals[item.UserID]
			if item.TotalPoints == want {
				continue
			}
			stale = append(stale, profileUpdate{
				profileID:   item.ID,
				userID:      item.UserID,
				totalPoints: want,
			})
		}
		offset += len(items)
		if len(items) == 0 || offset >= total {
			return stale, nil
		}
	}
}

func (s *RecalcService) applyProfileUpdates(ctx context.Context, updates []profileUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	workerCount := min(s.cfg.MaxWorkers, len(updates))
	workerPool, err := ants.NewPool(workerCount)
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	defer workerPool.Release()

	var workers sync.WaitGroup
	var firstErr atomic.Value
	for _, update := range updates {
		update := update
		workers.Add(1)
		if err := workerPool.Submit(func() {
			defer workers.Done()
			if err := s.profiles.UpdateTotalPoints(ctx, update.profileID, update.totalPoints); err != nil {
				firstErr.CompareAndSwap(nil, fmt.Errorf("update profile id=%s user=%s: %w", update.profileID, update.userID, err))
			}
		}); err != nil {
			workers.Done()
			return fmt.Errorf("submit profile update to worker pool: %w", err)
		}
	}
	workers.Wait()

	if err, ok := firstErr.Load().(error); ok && err != nil {
		return err
	}
	return nil
}
