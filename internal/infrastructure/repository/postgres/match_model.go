package postgres

import (
	"database/sql"
	"time"
)

type matchTableModel struct {
	ID            string        `db:"id"`
	ExternalID    string        `db:"external_id"`
	LeagueID      string        `db:"league_id"`
	HomeTeam      string        `db:"home_team"`
	AwayTeam      string        `db:"away_team"`
	Date          string        `db:"date"`
	Status        string        `db:"status"`
	HomeScore     sql.NullInt64 `db:"home_score"`
	AwayScore     sql.NullInt64 `db:"away_score"`
	HomeTeamBadge string        `db:"home_team_badge"`
	AwayTeamBadge string        `db:"away_team_badge"`
	CreatedAt     time.Time     `db:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at"`
}

type matchInsertModel struct {
	ID            string        `db:"id"`
	ExternalID    string        `db:"external_id"`
	LeagueID      string        `db:"league_id"`
	HomeTeam      string        `db:"home_team"`
	AwayTeam      string        `db:"away_team"`
	Date          string        `db:"date"`
	Status        string        `db:"status"`
	HomeScore     sql.NullInt64 `db:"home_score"`
	AwayScore     sql.NullInt64 `db:"away_score"`
	HomeTeamBadge string        `db:"home_team_badge"`
	AwayTeamBadge string        `db:"away_team_badge"`
}
