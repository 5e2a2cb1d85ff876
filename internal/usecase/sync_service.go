package usecase

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/raybet/matchsync/internal/domain/jobrun"
	"github.com/raybet/matchsync/internal/platform/id"
	"github.com/raybet/matchsync/internal/platform/logging"
)

const syncJobName = "match-sync"

type SyncInput struct {
	// DryRun propagates to both phases: nothing is written, counts only.
	DryRun bool
}

// SyncStats is the combined result of one sync run and doubles as the HTTP
// response stats payload.
type SyncStats struct {
	Created         int `json:"created"`
	Updated         int `json:"updated"`
	Skipped         int `json:"skipped"`
	Dropped         int `json:"dropped"`
	ProfilesUpdated int `json:"profilesUpdated"`
}

// SyncService runs the two job phases in order: reconcile the match store
// against the feed, then recompute profile totals from the updated matches.
// Run records the attempt in the job run log when one is configured; those
// writes are best effort and never fail the job.
type SyncService struct {
	reconciler *ReconcileService
	recalc     *RecalcService
	runs       jobrun.Repository
	ids        id.Generator
	leagueID   string
	logger     *logging.Logger
	now        func() time.Time
}

func NewSyncService(
	reconciler *ReconcileService,
	recalc *RecalcService,
	runs jobrun.Repository,
	ids id.Generator,
	leagueID string,
	logger *logging.Logger,
) *SyncService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SyncService{
		reconciler: reconciler,
		recalc:     recalc,
		runs:       runs,
		ids:        ids,
		leagueID:   leagueID,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *SyncService) Run(ctx context.Context, input SyncInput) (SyncStats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.Run")
	defer span.End()

	if s.reconciler == nil || s.recalc == nil {
		return SyncStats{}, fmt.Errorf("%w: sync job is not fully configured", ErrDependencyUnavailable)
	}

	runID := s.newRunID()
	s.recordRunEvent(ctx, runID, jobrun.StatusSent, nil, nil)

	reconciled, err := s.reconciler.Run(ctx, ReconcileInput{DryRun: input.DryRun})
	if err != nil {
		s.recordRunEvent(ctx, runID, jobrun.StatusFailed, nil, err)
		return SyncStats{}, fmt.Errorf("reconcile matches: %w", err)
	}

	recalced, err := s.recalc.Run(ctx, RecalcInput{DryRun: input.DryRun})
	if err != nil {
		s.recordRunEvent(ctx, runID, jobrun.StatusFailed, nil, err)
		return SyncStats{}, fmt.Errorf("recalculate points: %w", err)
	}

	stats := SyncStats{
		Created:         reconciled.Created,
		Updated:         reconciled.Updated,
		Skipped:         reconciled.Skipped,
		Dropped:         reconciled.Dropped,
		ProfilesUpdated: recalced.ProfilesUpdated,
	}
	s.recordRunEvent(ctx, runID, jobrun.StatusCompleted, &stats, nil)
	return stats, nil
}

func (s *SyncService) newRunID() string {
	if s.ids == nil {
		return ""
	}
	runID, err := s.ids.NewID()
	if err != nil {
		return ""
	}
	return runID
}

func (s *SyncService) recordRunEvent(ctx context.Context, runID string, status jobrun.RunStatus, stats *SyncStats, runErr error) {
	if s.runs == nil || runID == "" {
		return
	}

	event := jobrun.RunEvent{
		RunID:      runID,
		JobName:    syncJobName,
		LeagueID:   s.leagueID,
		Status:     status,
		OccurredAt: s.now().UTC(),
	}
	if stats != nil {
		event.Stats = map[string]any{
			"created":         stats.Created,
			"updated":         stats.Updated,
			"skipped":         stats.Skipped,
			"dropped":         stats.Dropped,
			"profilesUpdated": stats.ProfilesUpdated,
		}
	}
	if runErr != nil {
		event.ErrorMessage = runErr.Error()
	}
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		event.TraceID = spanCtx.TraceID().String()
		event.SpanID = spanCtx.SpanID().String()
	}

	if err := s.runs.UpsertEvent(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "record job run event failed",
			"run_id", runID,
			"status", string(status),
			"error", err,
		)
	}
}
