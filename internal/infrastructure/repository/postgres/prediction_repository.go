package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/raybet/matchsync/internal/domain/prediction"
	qb "github.com/raybet/matchsync/internal/platform/querybuilder"
)

const defaultPredictionsTable = "predictions"

type predictionTableModel struct {
	ID        string        `db:"id"`
	MatchID   string        `db:"match_id"`
	UserID    string        `db:"user_id"`
	HomeScore sql.NullInt64 `db:"home_score"`
	AwayScore sql.NullInt64 `db:"away_score"`
	CreatedAt time.Time     `db:"created_at"`
	UpdatedAt time.Time     `db:"updated_at"`
}

type PredictionRepository struct {
	db    *sqlx.DB
	table string
}

func NewPredictionRepository(db *sqlx.DB, table string) *PredictionRepository {
	table = strings.TrimSpace(table)
	if table == "" {
		table = defaultPredictionsTable
	}
	return &PredictionRepository{db: db, table: table}
}

func (r *PredictionRepository) List(ctx context.Context, limit, offset int) ([]prediction.Prediction, int, error) {
	countQuery, countArgs, err := qb.Select("COUNT(1)").From(r.table).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build count predictions query: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count predictions: %w", err)
	}

	query, args, err := qb.Select("*").From(r.table).
		OrderBy("id").
		Limit(limit).
		Offset(offset).
		ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build select predictions query: %w", err)
	}

	var rows []predictionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("select predictions: %w", err)
	}

	out := make([]prediction.Prediction, 0, len(rows))
	for _, row := range rows {
		out = append(out, prediction.Prediction{
			ID:        row.ID,
			MatchID:   row.MatchID,
			UserID:    row.UserID,
			HomeScore: nullInt64ToIntPtr(row.HomeScore),
			AwayScore: nullInt64ToIntPtr(row.AwayScore),
		})
	}
	return out, total, nil
}
