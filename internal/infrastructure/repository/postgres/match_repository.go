package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/raybet/matchsync/internal/domain/match"
	qb "github.com/raybet/matchsync/internal/platform/querybuilder"
)

const defaultMatchesTable = "matches"

type MatchRepository struct {
	db    *sqlx.DB
	table string
}

func NewMatchRepository(db *sqlx.DB, table string) *MatchRepository {
	table = strings.TrimSpace(table)
	if table == "" {
		table = defaultMatchesTable
	}
	return &MatchRepository{db: db, table: table}
}

func (r *MatchRepository) GetByExternalID(ctx context.Context, externalID string) (match.Match, bool, error) {
	query, args, err := qb.Select("*").From(r.table).
		Where(qb.Eq("external_id", externalID)).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build select match query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("select match external_id=%s: %w", externalID, err)
	}

	return matchFromRow(row), true, nil
}

// Create inserts the match, converging on the existing row when a concurrent
// run already inserted the same external id.
func (r *MatchRepository) Create(ctx context.Context, item match.Match) error {
	model := matchInsertModel{
		ID:            item.ID,
		ExternalID:    item.ExternalID,
		LeagueID:      item.LeagueID,
		HomeTeam:      item.HomeTeam,
		AwayTeam:      item.AwayTeam,
		Date:          item.Date,
		Status:        item.Status,
		HomeScore:     intPtrToNullInt64(item.HomeScore),
		AwayScore:     intPtrToNullInt64(item.AwayScore),
		HomeTeamBadge: item.HomeTeamBadge,
		AwayTeamBadge: item.AwayTeamBadge,
	}

	query, args, err := qb.InsertModel(r.table, model, fmt.Sprintf(`ON CONFLICT (external_id)
DO UPDATE SET
    date = EXCLUDED.date,
    status = EXCLUDED.status,
    home_score = EXCLUDED.home_score,
    away_score = EXCLUDED.away_score,
    home_team_badge = CASE
        WHEN EXCLUDED.home_team_badge = '' THEN %[1]s.home_team_badge
        ELSE EXCLUDED.home_team_badge
    END,
    away_team_badge = CASE
        WHEN EXCLUDED.away_team_badge = '' THEN %[1]s.away_team_badge
        ELSE EXCLUDED.away_team_badge
    END,
    updated_at = NOW()`, r.table))
	if err != nil {
		return fmt.Errorf("build insert match query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert match external_id=%s: %w", item.ExternalID, err)
	}
	return nil
}

func (r *MatchRepository) Update(ctx context.Context, item match.Match) error {
	builder := qb.Update(r.table).
		Set("date", item.Date).
		Set("status", item.Status).
		Set("home_score", intPtrToNullInt64(item.HomeScore)).
		Set("away_score", intPtrToNullInt64(item.AwayScore)).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("external_id", item.ExternalID))
	if item.HomeTeamBadge != "" {
		builder.Set("home_team_badge", item.HomeTeamBadge)
	}
	if item.AwayTeamBadge != "" {
		builder.Set("away_team_badge", item.AwayTeamBadge)
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return fmt.Errorf("build update match query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update match external_id=%s: %w", item.ExternalID, err)
	}
	return nil
}

func (r *MatchRepository) List(ctx context.Context, limit, offset int) ([]match.Match, int, error) {
	return r.list(ctx, nil, limit, offset)
}

func (r *MatchRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]match.Match, int, error) {
	return r.list(ctx, []qb.Condition{qb.Eq("status", status)}, limit, offset)
}

func (r *MatchRepository) list(ctx context.Context, where []qb.Condition, limit, offset int) ([]match.Match, int, error) {
	countQuery, countArgs, err := qb.Select("COUNT(1)").From(r.table).Where(where...).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build count matches query: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count matches: %w", err)
	}

	query, args, err := qb.Select("*").From(r.table).
		Where(where...).
		OrderBy("date", "id").
		Limit(limit).
		Offset(offset).
		ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build select matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("select matches: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchFromRow(row))
	}
	return out, total, nil
}

func matchFromRow(row matchTableModel) match.Match {
	return match.Match{
		ID:            row.ID,
		ExternalID:    row.ExternalID,
		LeagueID:      row.LeagueID,
		HomeTeam:      row.HomeTeam,
		AwayTeam:      row.AwayTeam,
		Date:          row.Date,
		Status:        row.Status,
		HomeScore:     nullInt64ToIntPtr(row.HomeScore),
		AwayScore:     nullInt64ToIntPtr(row.AwayScore),
		HomeTeamBadge: row.HomeTeamBadge,
		AwayTeamBadge: row.AwayTeamBadge,
	}
}
