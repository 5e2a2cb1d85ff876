package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"github.com/raybet/matchsync/internal/domain/match"
	"github.com/raybet/matchsync/internal/platform/id"
	"github.com/raybet/matchsync/internal/platform/logging"
)

type ReconcileConfig struct {
	LeagueID string
	// Season switches the reconciler from the past+upcoming endpoint pair to a
	// single full-season fetch.
	Season string
}

type ReconcileInput struct {
	// DryRun skips store writes and returns computed counts only.
	DryRun bool
}

type ReconcileResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	// Dropped counts feed events without an external id. They cannot be
	// reconciled and are not part of skipped, which means "seen and unchanged".
	Dropped int `json:"dropped"`
}

// ReconcileService pulls the feed's view of one league and converges the
// match store to it. Running it twice against an unchanged feed is a no-op.
type ReconcileService struct {
	provider ExternalMatchProvider
	matches  match.Repository
	ids      id.Generator
	cfg      ReconcileConfig
	logger   *logging.Logger
}

func NewReconcileService(
	provider ExternalMatchProvider,
	matches match.Repository,
	ids id.Generator,
	cfg ReconcileConfig,
	logger *logging.Logger,
) *ReconcileService {
	if logger == nil {
		logger = logging.Default()
	}
	cfg.LeagueID = strings.TrimSpace(cfg.LeagueID)
	cfg.Season = strings.TrimSpace(cfg.Season)

	return &ReconcileService{
		provider: provider,
		matches:  matches,
		ids:      ids,
		cfg:      cfg,
		logger:   logger,
	}
}

func (s *ReconcileService) Run(ctx context.Context, input ReconcileInput) (ReconcileResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReconcileService.Run")
	defer span.End()

	if s.provider == nil || s.matches == nil || s.ids == nil {
		return ReconcileResult{}, fmt.Errorf("%w: match reconciler is not fully configured", ErrDependencyUnavailable)
	}
	if s.cfg.LeagueID == "" {
		return ReconcileResult{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}

	events, err := s.fetchFeedEvents(ctx)
	if err != nil {
		return ReconcileResult{}, err
	}

	merged, dropped := s.mergeEvents(ctx, events)

	result := ReconcileResult{Dropped: dropped}
	for _, event := range merged {
		outcome, err := s.upsertEvent(ctx, event, input.DryRun)
		if err != nil {
			return ReconcileResult{}, err
		}
		switch outcome {
		case upsertCreated:
			result.Created++
		case upsertUpdated:
			result.Updated++
		default:
			result.Skipped++
		}
	}

	s.logger.InfoContext(ctx, "match reconcile finished",
		"league_id", s.cfg.LeagueID,
		"fetched", len(events),
		"merged", len(merged),
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"dropped", result.Dropped,
		"dry_run", input.DryRun,
	)
	return result, nil
}

// fetchFeedEvents pulls either the full season or the past and upcoming
// windows in parallel. The returned order matters: mergeEvents keeps the last
// occurrence of a duplicated external id, so upcoming events are appended
// after past ones and win collisions.
func (s *ReconcileService) fetchFeedEvents(ctx context.Context) ([]ExternalEvent, error) {
	if s.cfg.Season != "" {
		events, err := s.provider.FetchSeasonEvents(ctx, s.cfg.LeagueID, s.cfg.Season)
		if err != nil {
			return nil, fmt.Errorf("fetch season events league=%s season=%s: %w", s.cfg.LeagueID, s.cfg.Season, err)
		}
		return events, nil
	}

	var past, upcoming []ExternalEvent
	group := pool.New().WithContext(ctx).WithCancelOnError()
	group.Go(func(ctx context.Context) error {
		items, err := s.provider.FetchPastLeagueEvents(ctx, s.cfg.LeagueID)
		if err != nil {
			return fmt.Errorf("fetch past events league=%s: %w", s.cfg.LeagueID, err)
		}
		past = items
		return nil
	})
	group.Go(func(ctx context.Context) error {
		items, err := s.provider.FetchUpcomingLeagueEvents(ctx, s.cfg.LeagueID)
		if err != nil {
			return fmt.Errorf("fetch upcoming events league=%s: %w", s.cfg.LeagueID, err)
		}
		upcoming = items
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	out := make([]ExternalEvent, 0, len(past)+len(upcoming))
	out = append(out, past...)
	out = append(out, upcoming...)
	return out, nil
}

// mergeEvents deduplicates by external id, keeping the last occurrence.
// Events without an external id cannot be reconciled; they are dropped with a
// warning instead of failing the run, and the count is returned so the run
// stats expose them.
func (s *ReconcileService) mergeEvents(ctx context.Context, events []ExternalEvent) ([]ExternalEvent, int) {
	index := make(map[string]int, len(events))
	merged := make([]ExternalEvent, 0, len(events))
	dropped := 0
	for _, event := range events {
		if event.ExternalID == "" {
			dropped++
			s.logger.WarnContext(ctx, "feed event has no external id, dropping",
				"league_id", s.cfg.LeagueID,
				"home_team", event.HomeTeam,
				"away_team", event.AwayTeam,
				"date", event.Date,
			)
			continue
		}
		if pos, ok := index[event.ExternalID]; ok {
			merged[pos] = event
			continue
		}
		index[event.ExternalID] = len(merged)
		merged = append(merged, event)
	}
	return merged, dropped
}

type upsertOutcome int

const (
	upsertSkipped upsertOutcome = iota
	upsertCreated
	upsertUpdated
)

func (s *ReconcileService) upsertEvent(ctx context.Context, event ExternalEvent, dryRun bool) (upsertOutcome, error) {
	existing, found, err := s.matches.GetByExternalID(ctx, event.ExternalID)
	if err != nil {
		return upsertSkipped, fmt.Errorf("get match external_id=%s: %w", event.ExternalID, err)
	}

	if !found {
		newID, err := s.ids.NewID()
		if err != nil {
			return upsertSkipped, fmt.Errorf("generate match id: %w", err)
		}
		item := match.Match{
			ID:            newID,
			ExternalID:    event.ExternalID,
			LeagueID:      s.cfg.LeagueID,
			HomeTeam:      event.HomeTeam,
			AwayTeam:      event.AwayTeam,
			Date:          event.Date,
			Status:        match.MapFeedStatus(event.Status),
			HomeScore:     event.HomeScore,
			AwayScore:     event.AwayScore,
			HomeTeamBadge: event.HomeTeamBadge,
			AwayTeamBadge: event.AwayTeamBadge,
		}
		if !dryRun {
			if err := s.matches.Create(ctx, item); err != nil {
				return upsertSkipped, fmt.Errorf("create match external_id=%s: %w", event.ExternalID, err)
			}
		}
		return upsertCreated, nil
	}

	next, changed := applyFeedEvent(existing, event)
	if !changed {
		return upsertSkipped, nil
	}
	if !dryRun {
		if err := s.matches.Update(ctx, next); err != nil {
			return upsertSkipped, fmt.Errorf("update match external_id=%s: %w", event.ExternalID, err)
		}
	}
	return upsertUpdated, nil
}

// applyFeedEvent folds a feed event into a stored match and reports whether
// anything tracked actually changed. Empty feed badges never blank a stored
// badge.
func applyFeedEvent(existing match.Match, event ExternalEvent) (match.Match, bool) {
	next := existing
	changed := false

	if status := match.MapFeedStatus(event.Status); status != existing.Status {
		next.Status = status
		changed = true
	}
	if !scoresEqual(existing.HomeScore, event.HomeScore) {
		next.HomeScore = event.HomeScore
		changed = true
	}
	if !scoresEqual(existing.AwayScore, event.AwayScore) {
		next.AwayScore = event.AwayScore
		changed = true
	}
	if event.Date != "" && event.Date != existing.Date {
		next.Date = event.Date
		changed = true
	}
	if event.HomeTeamBadge != "" && event.HomeTeamBadge != existing.HomeTeamBadge {
		next.HomeTeamBadge = event.HomeTeamBadge
		changed = true
	}
	if event.AwayTeamBadge != "" && event.AwayTeamBadge != existing.AwayTeamBadge {
		next.AwayTeamBadge = event.AwayTeamBadge
		changed = true
	}

	return next, changed
}

func scoresEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
