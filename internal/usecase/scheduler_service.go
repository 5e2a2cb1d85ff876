package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/raybet/matchsync/internal/domain/match"
	"github.com/raybet/matchsync/internal/platform/logging"
)

// JobQueue enqueues a delayed HTTP callback to this service.
type JobQueue interface {
	Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error
}

const schedulerScanLimit = 50

type SchedulerConfig struct {
	Enabled bool
	JobPath string
	// Interval is the idle cadence between runs.
	Interval time.Duration
	// LiveInterval is the cadence while a match is in progress; it is also
	// the floor for any computed delay.
	LiveInterval time.Duration
	// PreKickoffLead pulls the pre-kickoff run forward so the first live
	// score lands shortly after the whistle. Zero disables the lead.
	PreKickoffLead time.Duration
	LeagueID       string
}

// SchedulerService keeps the sync job running by enqueueing the next
// invocation after each run. The delay shortens while matches are live or
// about to kick off, and the deduplication id collapses concurrent runs that
// would otherwise double-schedule the same slot.
type SchedulerService struct {
	queue   JobQueue
	matches match.Repository
	cfg     SchedulerConfig
	logger  *logging.Logger
	now     func() time.Time
}

func NewSchedulerService(queue JobQueue, matches match.Repository, cfg SchedulerConfig, logger *logging.Logger) *SchedulerService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.JobPath == "" {
		cfg.JobPath = "/v1/internal/jobs/match-sync"
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}
	if cfg.LiveInterval <= 0 || cfg.LiveInterval > cfg.Interval {
		cfg.LiveInterval = cfg.Interval / 5
	}
	if cfg.LiveInterval <= 0 {
		cfg.LiveInterval = time.Minute
	}

	return &SchedulerService{
		queue:   queue,
		matches: matches,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// ScheduleNext enqueues the next sync run. Scheduling failures are reported
// but the caller treats them as non-fatal: the current run's results stand.
func (s *SchedulerService) ScheduleNext(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.SchedulerService.ScheduleNext")
	defer span.End()

	if !s.cfg.Enabled || s.queue == nil {
		return nil
	}

	now := s.now()
	delay := s.nextRunDelay(ctx, now)
	dedupID := s.deduplicationID(now, delay)

	if err := s.queue.Enqueue(ctx, s.cfg.JobPath, map[string]any{}, delay, dedupID); err != nil {
		return fmt.Errorf("enqueue next sync run: %w", err)
	}

	s.logger.InfoContext(ctx, "next sync run scheduled",
		"league_id", s.cfg.LeagueID,
		"delay", delay.String(),
		"deduplication_id", dedupID,
	)
	return nil
}

// nextRunDelay picks the idle interval unless a match is live or kicks off
// before the next idle slot. Store errors degrade to the idle interval
// rather than blocking scheduling.
func (s *SchedulerService) nextRunDelay(ctx context.Context, now time.Time) time.Duration {
	if s.matches == nil {
		return s.cfg.Interval
	}

	_, liveTotal, err := s.matches.ListByStatus(ctx, match.StatusInProgress, 1, 0)
	if err != nil {
		s.logger.WarnContext(ctx, "list live matches for scheduling failed", "error", err)
		return s.cfg.Interval
	}
	if liveTotal > 0 {
		return s.cfg.LiveInterval
	}

	scheduled, _, err := s.matches.ListByStatus(ctx, match.StatusScheduled, schedulerScanLimit, 0)
	if err != nil {
		s.logger.WarnContext(ctx, "list scheduled matches for scheduling failed", "error", err)
		return s.cfg.Interval
	}

	var nextKickoff time.Time
	for _, item := range scheduled {
		start, ok := item.StartTime()
		if !ok || !start.After(now) {
			continue
		}
		if nextKickoff.IsZero() || start.Before(nextKickoff) {
			nextKickoff = start
		}
	}
	if nextKickoff.IsZero() {
		return s.cfg.Interval
	}

	untilKickoff := nextKickoff.Sub(now) - s.cfg.PreKickoffLead
	if untilKickoff >= s.cfg.Interval {
		return s.cfg.Interval
	}
	return max(untilKickoff, s.cfg.LiveInterval)
}

// deduplicationID buckets the target run into a minute slot so two runs that
// finish close together enqueue the same follow-up exactly once.
func (s *SchedulerService) deduplicationID(now time.Time, delay time.Duration) string {
	slot := now.Add(delay).UTC().Truncate(time.Minute).Unix()
	return fmt.Sprintf("%s:%s:%d", syncJobName, s.cfg.LeagueID, slot)
}
