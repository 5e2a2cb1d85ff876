package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"

	"github.com/raybet/matchsync/internal/domain/jobrun"
	qb "github.com/raybet/matchsync/internal/platform/querybuilder"
)

const defaultJobRunsTable = "job_runs"

type jobRunInsertModel struct {
	RunID       string     `db:"run_id"`
	JobName     string     `db:"job_name"`
	LeagueID    string     `db:"league_id"`
	Stats       string     `db:"stats"`
	Status      string     `db:"status"`
	SentAt      *time.Time `db:"sent_at"`
	CompletedAt *time.Time `db:"completed_at"`
	FailedAt    *time.Time `db:"failed_at"`
	LastError   *string    `db:"last_error"`
	TraceID     *string    `db:"trace_id"`
	SpanID      *string    `db:"span_id"`
}

type JobRunRepository struct {
	db    *sqlx.DB
	table string
}

func NewJobRunRepository(db *sqlx.DB, table string) *JobRunRepository {
	table = strings.TrimSpace(table)
	if table == "" {
		table = defaultJobRunsTable
	}
	return &JobRunRepository{db: db, table: table}
}

// UpsertEvent folds run lifecycle events into one row per run id. A completed
// event clears the failure columns left by an earlier attempt.
func (r *JobRunRepository) UpsertEvent(ctx context.Context, event jobrun.RunEvent) error {
	runID := strings.TrimSpace(event.RunID)
	if runID == "" {
		return fmt.Errorf("run id is required")
	}

	jobName := strings.TrimSpace(event.JobName)
	if jobName == "" {
		jobName = "unknown"
	}

	occurredAt := event.OccurredAt.UTC()
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	statsJSON, err := marshalStats(event.Stats)
	if err != nil {
		return fmt.Errorf("marshal job run stats: %w", err)
	}

	model := jobRunInsertModel{
		RunID:     runID,
		JobName:   jobName,
		LeagueID:  strings.TrimSpace(event.LeagueID),
		Stats:     statsJSON,
		Status:    string(event.Status),
		LastError: optionalString(event.ErrorMessage),
		TraceID:   optionalString(event.TraceID),
		SpanID:    optionalString(event.SpanID),
	}

	switch event.Status {
	case jobrun.StatusSent:
		model.SentAt = &occurredAt
		model.LastError = nil
	case jobrun.StatusCompleted:
		model.CompletedAt = &occurredAt
		model.LastError = nil
	case jobrun.StatusFailed:
		model.FailedAt = &occurredAt
	}

	query, args, err := qb.InsertModel(r.table, model, fmt.Sprintf(`ON CONFLICT (run_id)
DO UPDATE SET
    job_name = EXCLUDED.job_name,
    league_id = EXCLUDED.league_id,
    status = EXCLUDED.status,
    stats = CASE
        WHEN EXCLUDED.stats = '{}' THEN %[1]s.stats
        ELSE EXCLUDED.stats
    END,
    sent_at = COALESCE(%[1]s.sent_at, EXCLUDED.sent_at),
    completed_at = CASE
        WHEN EXCLUDED.status = 'completed' THEN EXCLUDED.completed_at
        ELSE %[1]s.completed_at
    END,
    failed_at = CASE
        WHEN EXCLUDED.status = 'failed' THEN EXCLUDED.failed_at
        WHEN EXCLUDED.status = 'completed' THEN NULL
        ELSE %[1]s.failed_at
    END,
    last_error = CASE
        WHEN EXCLUDED.status = 'failed' THEN EXCLUDED.last_error
        ELSE NULL
    END,
    trace_id = COALESCE(EXCLUDED.trace_id, %[1]s.trace_id),
    span_id = COALESCE(EXCLUDED.span_id, %[1]s.span_id)`, r.table))
	if err != nil {
		return fmt.Errorf("build upsert job run query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert job run run_id=%s status=%s: %w", runID, event.Status, err)
	}
	return nil
}

func marshalStats(stats map[string]any) (string, error) {
	if len(stats) == 0 {
		return "{}", nil
	}
	raw, err := jsoniter.Marshal(stats)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
