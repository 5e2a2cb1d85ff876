package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/raybet/matchsync/internal/domain/profile"
	qb "github.com/raybet/matchsync/internal/platform/querybuilder"
)

const defaultProfilesTable = "profiles"

type profileTableModel struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	Nickname    string    `db:"nickname"`
	AvatarURL   string    `db:"avatar_url"`
	TotalPoints int       `db:"total_points"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type ProfileRepository struct {
	db    *sqlx.DB
	table string
}

func NewProfileRepository(db *sqlx.DB, table string) *ProfileRepository {
	table = strings.TrimSpace(table)
	if table == "" {
		table = defaultProfilesTable
	}
	return &ProfileRepository{db: db, table: table}
}

func (r *ProfileRepository) List(ctx context.Context, limit, offset int) ([]profile.Profile, int, error) {
	countQuery, countArgs, err := qb.Select("COUNT(1)").From(r.table).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build count profiles query: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count profiles: %w", err)
	}

	query, args, err := qb.Select("*").From(r.table).
		OrderBy("id").
		Limit(limit).
		Offset(offset).
		ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build select profiles query: %w", err)
	}

	var rows []profileTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("select profiles: %w", err)
	}

	out := make([]profile.Profile, 0, len(rows))
	for _, row := range rows {
		out = append(out, profileFromRow(row))
	}
	return out, total, nil
}

func (r *ProfileRepository) UpdateTotalPoints(ctx context.Context, id string, totalPoints int) error {
	query, args, err := qb.Update(r.table).
		Set("total_points", totalPoints).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update profile points query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update profile total points id=%s: %w", id, err)
	}
	return nil
}

func (r *ProfileRepository) ListTop(ctx context.Context, limit int) ([]profile.Profile, error) {
	query, args, err := qb.Select("*").From(r.table).
		OrderBy("total_points DESC", "id").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select top profiles query: %w", err)
	}

	var rows []profileTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select top profiles: %w", err)
	}

	out := make([]profile.Profile, 0, len(rows))
	for _, row := range rows {
		out = append(out, profileFromRow(row))
	}
	return out, nil
}

func profileFromRow(row profileTableModel) profile.Profile {
	return profile.Profile{
		ID:          row.ID,
		UserID:      row.UserID,
		Nickname:    row.Nickname,
		AvatarURL:   row.AvatarURL,
		TotalPoints: row.TotalPoints,
	}
}
